package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// InitSchema ensures the expenses and income tables exist. It is safe to
// run on every start.
func InitSchema(cfg Config) error {
	if !cfg.Driver.IsValid() {
		return fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
	if err := ensureSQLiteDir(cfg); err != nil {
		return err
	}

	// Create a separate connection for migrations to avoid interfering with the main pool
	migrateDB, err := sql.Open(cfg.Driver.sqlName(), cfg.DSN())
	if err != nil {
		return fmt.Errorf("open migration database: %w", err)
	}
	defer migrateDB.Close()

	var (
		driver database.Driver
		name   string
	)
	switch cfg.Driver {
	case PostgresDriver:
		driver, err = migratepgx.WithInstance(migrateDB, &migratepgx.Config{})
		name = "pgx5"
	default:
		driver, err = sqlite.WithInstance(migrateDB, &sqlite.Config{})
		name = "sqlite"
	}
	if err != nil {
		return fmt.Errorf("create %s migration driver: %w", cfg.Driver, err)
	}

	d, err := iofs.New(migrationsFS, "migrations/"+cfg.Driver.String())
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", d, name, driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}
