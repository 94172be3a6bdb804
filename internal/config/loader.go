package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	AppSentineld   = "sentineld"
	AppSentinelctl = "sentinelctl"
)

// configSearchPaths returns the paths to search for config files in order of
// precedence (later paths have higher priority in Viper).
func configSearchPaths(appName string) []string {
	paths := []string{}

	// System-wide (lowest priority)
	paths = append(paths, filepath.Join("/etc", appName))

	// User-specific
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", appName))
	}

	// Current directory (highest priority for files)
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, cwd)
	}

	return paths
}

// UserConfigDir returns the user-specific config directory for the app.
func UserConfigDir(appName string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", appName), nil
}

// newViper creates and configures a new Viper instance for the given app.
func newViper(appName string) *viper.Viper {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	for _, path := range configSearchPaths(appName) {
		v.AddConfigPath(path)
	}

	v.SetEnvPrefix(strings.ToUpper(appName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// LoadSentineld loads the configuration for the sentineld daemon.
func LoadSentineld(cfgFile string) (*SentineldConfig, error) {
	v := newViper(AppSentineld)

	defaults := DefaultSentineldConfig()
	setDaemonDefaults(v, defaults)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg SentineldConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// LoadSentinelctl loads the configuration for the sentinelctl CLI.
func LoadSentinelctl(cfgFile string) (*SentinelctlConfig, error) {
	v := newViper(AppSentinelctl)

	defaults := DefaultSentinelctlConfig()
	setCtlDefaults(v, defaults)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg SentinelctlConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found; use defaults + env vars
	}
	return nil
}

func setLogDefaults(v *viper.Viper, c LogConfig) {
	v.SetDefault("log.level", c.Level)
	v.SetDefault("log.format", c.Format)
	v.SetDefault("log.output", c.Output)
	v.SetDefault("log.file_path", c.FilePath)
	v.SetDefault("log.max_size_mb", c.MaxSizeMB)
	v.SetDefault("log.max_backups", c.MaxBackups)
	v.SetDefault("log.max_age_days", c.MaxAgeDays)
	v.SetDefault("log.enable_caller", c.EnableCaller)
}

func setDatabaseDefaults(v *viper.Viper, c DatabaseConfig) {
	v.SetDefault("database.backend", c.Backend)
	v.SetDefault("database.query_timeout", c.QueryTimeout)
	v.SetDefault("database.sqlite.path", c.SQLite.Path)
	v.SetDefault("database.sqlite.max_open_conns", c.SQLite.MaxOpenConns)
	v.SetDefault("database.postgres.host", c.Postgres.Host)
	v.SetDefault("database.postgres.port", c.Postgres.Port)
	v.SetDefault("database.postgres.database", c.Postgres.Database)
	v.SetDefault("database.postgres.user", c.Postgres.User)
	v.SetDefault("database.postgres.password", c.Postgres.Password)
	v.SetDefault("database.postgres.ssl_mode", c.Postgres.SSLMode)
	v.SetDefault("database.postgres.max_connections", c.Postgres.MaxConnections)
}

func setDaemonDefaults(v *viper.Viper, c SentineldConfig) {
	setLogDefaults(v, c.Log)
	setDatabaseDefaults(v, c.Database)
	v.SetDefault("server.data_dir", c.Server.DataDir)
	v.SetDefault("server.metrics_addr", c.Server.MetricsAddr)
	v.SetDefault("server.pid_file", c.Server.PIDFile)
	v.SetDefault("sweep.interval", c.Sweep.Interval)
	v.SetDefault("sweep.initial_delay", c.Sweep.InitialDelay)
}

func setCtlDefaults(v *viper.Viper, c SentinelctlConfig) {
	setLogDefaults(v, c.Log)
	setDatabaseDefaults(v, c.Database)
	v.SetDefault("output.format", c.Output.Format)
}

// ConfigFileUsed returns the config file path that was loaded, if any.
func ConfigFileUsed(appName string) string {
	v := newViper(appName)
	_ = v.ReadInConfig()
	return v.ConfigFileUsed()
}
