package resultsink

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds PostgreSQL connection settings for a Postgres-backed sink.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// LoadConfigFromEnv loads Config from the environment, applying
// production-leaning defaults (25 open / 10 idle connections, 1h lifetime).
func LoadConfigFromEnv() (Config, error) {
	port, err := strconv.Atoi(getEnvOrDefault("RESULTSINK_DB_PORT", "5432"))
	if err != nil {
		return Config{}, fmt.Errorf("resultsink: invalid RESULTSINK_DB_PORT: %w", err)
	}
	maxOpen, _ := strconv.Atoi(getEnvOrDefault("RESULTSINK_DB_MAX_OPEN_CONNS", "25"))
	maxIdle, _ := strconv.Atoi(getEnvOrDefault("RESULTSINK_DB_MAX_IDLE_CONNS", "10"))
	lifetime, err := time.ParseDuration(getEnvOrDefault("RESULTSINK_DB_CONN_MAX_LIFETIME", "1h"))
	if err != nil {
		return Config{}, fmt.Errorf("resultsink: invalid RESULTSINK_DB_CONN_MAX_LIFETIME: %w", err)
	}

	cfg := Config{
		Host:            getEnvOrDefault("RESULTSINK_DB_HOST", "localhost"),
		Port:            port,
		User:            getEnvOrDefault("RESULTSINK_DB_USER", "agentcore"),
		Password:        os.Getenv("RESULTSINK_DB_PASSWORD"),
		Database:        getEnvOrDefault("RESULTSINK_DB_NAME", "agentcore"),
		SSLMode:         getEnvOrDefault("RESULTSINK_DB_SSLMODE", "disable"),
		MaxOpenConns:    maxOpen,
		MaxIdleConns:    maxIdle,
		ConnMaxLifetime: lifetime,
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for obviously broken connection pool
// settings before a connection is ever attempted.
func (c Config) Validate() error {
	if c.MaxOpenConns < 1 {
		return fmt.Errorf("resultsink: MaxOpenConns must be at least 1")
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		return fmt.Errorf("resultsink: MaxIdleConns (%d) cannot exceed MaxOpenConns (%d)", c.MaxIdleConns, c.MaxOpenConns)
	}
	return nil
}

func (c Config) dsn() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
