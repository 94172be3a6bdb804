// Package config defines the configuration types for sentineld and
// sentinelctl and loads them via Viper.
package config

import "time"

// LogConfig holds logging configuration shared by both binaries.
type LogConfig struct {
	Level        string `mapstructure:"level"`         // debug, info, warn, error
	Format       string `mapstructure:"format"`        // text, json
	Output       string `mapstructure:"output"`        // stdout, stderr, or file path
	FilePath     string `mapstructure:"file_path"`     // path to log file (in addition to output)
	MaxSizeMB    int    `mapstructure:"max_size_mb"`   // max size in MB before rotation
	MaxBackups   int    `mapstructure:"max_backups"`   // max number of old log files to keep
	MaxAgeDays   int    `mapstructure:"max_age_days"`  // max days to retain old log files
	EnableCaller bool   `mapstructure:"enable_caller"` // include source file/line in logs
}

// ServerConfig holds daemon runtime configuration (sentineld only).
type ServerConfig struct {
	// DataDir is where sentineld keeps local state (SQLite file etc).
	DataDir string `mapstructure:"data_dir"`

	// MetricsAddr is the listen address for the Prometheus /metrics
	// endpoint. Empty disables it.
	MetricsAddr string `mapstructure:"metrics_addr"`

	// PIDFile is where the daemon writes its process id. Empty disables it.
	PIDFile string `mapstructure:"pid_file"`
}

// SweepConfig controls the recurring ban expiration sweep.
type SweepConfig struct {
	// Interval is how often expired bans are deactivated.
	Interval time.Duration `mapstructure:"interval"`

	// InitialDelay is how long after startup the first sweep runs.
	InitialDelay time.Duration `mapstructure:"initial_delay"`
}

// OutputConfig holds output formatting options (sentinelctl only).
type OutputConfig struct {
	Format string `mapstructure:"format"` // text, json
}

// DatabaseConfig holds storage layer configuration.
type DatabaseConfig struct {
	// Backend is the storage backend type: "sqlite" or "postgres"
	Backend string `mapstructure:"backend"`

	// QueryTimeout bounds every individual storage call.
	QueryTimeout time.Duration `mapstructure:"query_timeout"`

	// SQLite configuration (used when Backend is "sqlite")
	SQLite SQLiteDatabaseConfig `mapstructure:"sqlite"`

	// Postgres configuration (used when Backend is "postgres")
	Postgres PostgresDatabaseConfig `mapstructure:"postgres"`
}

// SQLiteDatabaseConfig holds SQLite-specific configuration.
type SQLiteDatabaseConfig struct {
	// Path is the path to the SQLite database file.
	// Defaults to <data_dir>/sentinel.db
	Path string `mapstructure:"path"`

	// MaxOpenConns is the maximum number of open connections.
	MaxOpenConns int `mapstructure:"max_open_conns"`
}

// PostgresDatabaseConfig holds PostgreSQL-specific configuration.
type PostgresDatabaseConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	SSLMode        string `mapstructure:"ssl_mode"`
	MaxConnections int    `mapstructure:"max_connections"`
}

// SentineldConfig is the complete configuration for the sentineld daemon.
type SentineldConfig struct {
	Log      LogConfig      `mapstructure:"log"`
	Server   ServerConfig   `mapstructure:"server"`
	Sweep    SweepConfig    `mapstructure:"sweep"`
	Database DatabaseConfig `mapstructure:"database"`
}

// SentinelctlConfig is the complete configuration for the sentinelctl CLI.
type SentinelctlConfig struct {
	Log      LogConfig      `mapstructure:"log"`
	Output   OutputConfig   `mapstructure:"output"`
	Database DatabaseConfig `mapstructure:"database"`
}

// DefaultSentineldConfig returns the sentineld defaults.
func DefaultSentineldConfig() SentineldConfig {
	return SentineldConfig{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Server: ServerConfig{
			DataDir: "~/.local/share/sentineld",
		},
		Sweep: SweepConfig{
			Interval:     60 * time.Second,
			InitialDelay: 5 * time.Second,
		},
		Database: defaultDatabaseConfig(),
	}
}

// DefaultSentinelctlConfig returns the sentinelctl defaults.
func DefaultSentinelctlConfig() SentinelctlConfig {
	return SentinelctlConfig{
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
			Output: "stderr",
		},
		Output: OutputConfig{
			Format: "text",
		},
		Database: defaultDatabaseConfig(),
	}
}

func defaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Backend:      "sqlite",
		QueryTimeout: 5 * time.Second,
		SQLite: SQLiteDatabaseConfig{
			MaxOpenConns: 10,
		},
		Postgres: PostgresDatabaseConfig{
			Port:           5432,
			SSLMode:        "disable",
			MaxConnections: 20,
		},
	}
}
