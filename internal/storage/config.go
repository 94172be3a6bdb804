package storage

import (
	"fmt"
	"time"
)

// Config holds the storage configuration.
type Config struct {
	// Backend is the storage backend type: "sqlite" or "postgres"
	Backend BackendType `mapstructure:"backend"`

	// QueryTimeout bounds every individual storage call made by the engine.
	QueryTimeout time.Duration `mapstructure:"query_timeout"`

	// SQLite configuration (used when Backend is "sqlite")
	SQLite SQLiteConfig `mapstructure:"sqlite"`

	// Postgres configuration (used when Backend is "postgres")
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// SQLiteConfig holds SQLite-specific configuration.
type SQLiteConfig struct {
	// Path is the path to the SQLite database file.
	// Defaults to <data_dir>/sentinel.db
	Path string `mapstructure:"path"`

	// MaxOpenConns is the maximum number of open connections.
	MaxOpenConns int `mapstructure:"max_open_conns"`

	// BusyTimeout is how long a locked database is retried before failing.
	BusyTimeout time.Duration `mapstructure:"busy_timeout"`
}

// PostgresConfig holds PostgreSQL-specific configuration.
type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`

	// SSLMode is the SSL mode for connections.
	// Options: "disable", "require", "verify-ca", "verify-full"
	SSLMode string `mapstructure:"ssl_mode"`

	// MaxConnections is the maximum size of the connection pool.
	MaxConnections int `mapstructure:"max_connections"`
}

// Validate checks the configuration for obvious mistakes.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendSQLite:
		return nil
	case BackendPostgres:
		if c.Postgres.Host == "" {
			return fmt.Errorf("%w: postgres host is required", ErrInvalidInput)
		}
		if c.Postgres.Database == "" {
			return fmt.Errorf("%w: postgres database is required", ErrInvalidInput)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown storage backend %q", ErrInvalidInput, c.Backend)
	}
}

// DefaultConfig returns the storage defaults used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Backend:      BackendSQLite,
		QueryTimeout: 5 * time.Second,
		SQLite: SQLiteConfig{
			MaxOpenConns: 10,
			BusyTimeout:  5 * time.Second,
		},
		Postgres: PostgresConfig{
			Port:           5432,
			SSLMode:        "disable",
			MaxConnections: 20,
		},
	}
}
