package storage

import (
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Driver identifies the SQL store behind the repository.
type Driver string

const (
	SQLiteDriver   Driver = "sqlite"
	PostgresDriver Driver = "postgres"
)

// String implements fmt.Stringer
func (d Driver) String() string {
	return string(d)
}

// IsValid returns true if the driver is supported
func (d Driver) IsValid() bool {
	switch d {
	case SQLiteDriver, PostgresDriver:
		return true
	default:
		return false
	}
}

// sqlName is the name the driver registers with database/sql.
func (d Driver) sqlName() string {
	if d == PostgresDriver {
		return "pgx"
	}
	return "sqlite"
}

// DriverStrings returns all valid driver names
func DriverStrings() []string {
	return []string{SQLiteDriver.String(), PostgresDriver.String()}
}

// Config holds the store connection parameters. It is built once from the
// application config and injected; storage never reads the environment.
type Config struct {
	Driver Driver

	// Postgres
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string

	// SQLite
	SQLitePath string

	// Pool
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DSN returns the data source name for the configured driver.
func (c Config) DSN() string {
	switch c.Driver {
	case PostgresDriver:
		sslMode := c.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(c.User, c.Password),
			Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
			Path:     "/" + c.Database,
			RawQuery: url.Values{"sslmode": []string{sslMode}}.Encode(),
		}
		return u.String()
	default:
		return c.SQLitePath + "?_pragma=busy_timeout(5000)"
	}
}

// Open returns a pooled handle to the store. Every repository call borrows
// a connection from this pool for exactly one statement. Open does not dial:
// an unreachable store surfaces from the first operation, not from here.
func Open(cfg Config) (*sql.DB, error) {
	if !cfg.Driver.IsValid() {
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
	if err := ensureSQLiteDir(cfg); err != nil {
		return nil, err
	}

	db, err := sql.Open(cfg.Driver.sqlName(), cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Driver, err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	return db, nil
}

func ensureSQLiteDir(cfg Config) error {
	if cfg.Driver != SQLiteDriver {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0755); err != nil {
		return fmt.Errorf("create db directory: %w", err)
	}
	return nil
}
