package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"expensetracker/internal/storage"
)

type Config struct {
	// HTTP Server
	Port            string
	MCPEndpointPath string
	RateLimitPerMin int

	// Database
	DBDriver          string
	DBHost            string
	DBPort            int
	DBUser            string
	DBPassword        string
	DBName            string
	DBSSLMode         string
	SQLiteDBPath      string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration

	// Categories resource
	CategoriesPath string

	// AMQP (optional ledger events)
	AMQPURL      string
	AMQPExchange string

	// Logging
	LogLevel string

	// parseErrors holds env values that could not be parsed at Load time.
	parseErrors []string
}

func Load() *Config {
	var errs []string
	cfg := &Config{
		Port:            getEnv("PORT", "8000"),
		MCPEndpointPath: getEnv("MCP_ENDPOINT_PATH", "/mcp"),
		RateLimitPerMin: getEnvInt(&errs, "RATE_LIMIT_PER_MINUTE", 120),

		DBDriver:          getEnv("DB_DRIVER", string(storage.SQLiteDriver)),
		DBHost:            getEnv("DB_HOST", "localhost"),
		DBPort:            getEnvInt(&errs, "DB_PORT", 5432),
		DBUser:            getEnv("DB_USER", ""),
		DBPassword:        getEnv("DB_PASSWORD", ""),
		DBName:            getEnv("DB_NAME", ""),
		DBSSLMode:         getEnv("DB_SSLMODE", "disable"),
		SQLiteDBPath:      getEnv("SQLITE_DB_PATH", "./data/expenses.db"),
		DBMaxOpenConns:    getEnvInt(&errs, "DB_MAX_OPEN_CONNS", 10),
		DBMaxIdleConns:    getEnvInt(&errs, "DB_MAX_IDLE_CONNS", 5),
		DBConnMaxLifetime: getEnvDuration(&errs, "DB_CONN_MAX_LIFETIME", 30*time.Minute),

		CategoriesPath: getEnv("CATEGORIES_PATH", "./categories.json"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "expense_tracker"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
	cfg.parseErrors = errs

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	errors := append([]string(nil), c.parseErrors...)

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !strings.HasPrefix(c.MCPEndpointPath, "/") {
		errors = append(errors, fmt.Sprintf("invalid MCP endpoint path '%s': must start with '/'", c.MCPEndpointPath))
	}

	if c.RateLimitPerMin < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMin))
	}

	driver := storage.Driver(c.DBDriver)
	if !driver.IsValid() {
		errors = append(errors, fmt.Sprintf("invalid database driver '%s': must be one of %v", c.DBDriver, storage.DriverStrings()))
	}

	switch driver {
	case storage.PostgresDriver:
		if c.DBHost == "" {
			errors = append(errors, "database host is required when using postgres driver")
		}
		if c.DBUser == "" {
			errors = append(errors, "database user is required when using postgres driver")
		}
		if c.DBName == "" {
			errors = append(errors, "database name is required when using postgres driver")
		}
		if c.DBPort < 1 || c.DBPort > 65535 {
			errors = append(errors, fmt.Sprintf("invalid database port %d: must be between 1 and 65535", c.DBPort))
		}
	case storage.SQLiteDriver:
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite driver")
		} else {
			// Check if directory exists or can be created
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if c.DBMaxOpenConns < 1 {
		errors = append(errors, fmt.Sprintf("invalid max open connections %d: must be at least 1", c.DBMaxOpenConns))
	}
	if c.DBMaxIdleConns < 0 || c.DBMaxIdleConns > c.DBMaxOpenConns {
		errors = append(errors, fmt.Sprintf("invalid max idle connections %d: must be between 0 and max open connections", c.DBMaxIdleConns))
	}

	if c.CategoriesPath == "" {
		errors = append(errors, "categories path cannot be empty")
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
	}

	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		errors = append(errors, err.Error())
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// StoreConfig returns the connection parameters handed to the storage layer.
func (c *Config) StoreConfig() storage.Config {
	return storage.Config{
		Driver:          storage.Driver(c.DBDriver),
		Host:            c.DBHost,
		Port:            c.DBPort,
		User:            c.DBUser,
		Password:        c.DBPassword,
		Database:        c.DBName,
		SSLMode:         c.DBSSLMode,
		SQLitePath:      c.SQLiteDBPath,
		MaxOpenConns:    c.DBMaxOpenConns,
		MaxIdleConns:    c.DBMaxIdleConns,
		ConnMaxLifetime: c.DBConnMaxLifetime,
	}
}

// ParseLogLevel maps LOG_LEVEL values onto slog levels.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level '%s': must be one of debug, info, warn, error", s)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns defaultValue when key is unset. A value that does not
// parse is recorded in errs and also yields defaultValue.
func getEnvInt(errs *[]string, key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("invalid %s '%s': must be an integer", key, value))
		return defaultValue
	}
	return i
}

func getEnvDuration(errs *[]string, key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("invalid %s '%s': must be a duration such as 30m", key, value))
		return defaultValue
	}
	return d
}
