// Package cli provides the startup and shutdown steps shared by the
// expense-tracker command.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"expensetracker/internal/amqp"
	"expensetracker/internal/config"
	"expensetracker/internal/log"
	"expensetracker/internal/services"
	"expensetracker/internal/storage"
)

// SetupLogger builds the application logger at the given LOG_LEVEL and sets
// it as the slog default. An unknown level falls back to info with a warning.
func SetupLogger(level string) *log.Logger {
	cfg := log.DefaultConfig()
	lvl, err := config.ParseLogLevel(level)
	cfg.Level = lvl

	logger := log.New(cfg)
	log.SetDefault(logger)
	if err != nil {
		logger.Warn("Invalid log level, using info", log.FieldError, err.Error())
	}
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed",
			log.FieldError, err.Error(),
			log.FieldErrorType, log.ErrorTypeConfiguration)
		os.Exit(1)
	}
	return cfg
}

// InitStore applies migrations and opens the repository. A failed migration
// is logged and startup continues against whatever schema exists; a failed
// open exits the process.
func InitStore(logger *log.Logger, cfg *config.Config) *storage.Repository {
	storeCfg := cfg.StoreConfig()
	l := logger.WithComponent(log.ComponentStorage)

	if err := storage.InitSchema(storeCfg); err != nil {
		l.Warn("Schema initialization failed, continuing",
			log.FieldDriver, storeCfg.Driver.String(),
			log.FieldError, err.Error(),
			log.FieldErrorType, log.ErrorTypeDatabase)
	} else {
		l.Info("Schema initialized", log.FieldDriver, storeCfg.Driver.String())
	}

	db, err := storage.Open(storeCfg)
	if err != nil {
		l.Error("Failed to open database", log.FieldDriver, storeCfg.Driver.String(), log.FieldError, err.Error())
		os.Exit(1)
	}
	return storage.NewRepository(db, storeCfg.Driver)
}

// InitPublisher connects to the event broker when AMQP_URL is set. It returns
// a nil interface when events are disabled or the broker is unreachable.
func InitPublisher(logger *log.Logger, cfg *config.Config) services.EventPublisher {
	l := logger.WithComponent(log.ComponentAMQP)
	if cfg.AMQPURL == "" {
		l.Info("AMQP not configured, ledger events disabled")
		return nil
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange)
	if err != nil {
		l.Warn("Failed to connect to AMQP, ledger events disabled", log.FieldError, err.Error())
		return nil
	}
	l.Info("Connected to AMQP", "exchange", cfg.AMQPExchange)
	return client
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
