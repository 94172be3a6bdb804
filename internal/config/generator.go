package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// GenerateConfigIfNotExists creates a default config file for the app on
// first run. Returns the path and whether a file was created.
func GenerateConfigIfNotExists(appName string) (string, bool, error) {
	configDir, err := UserConfigDir(appName)
	if err != nil {
		return "", false, err
	}

	configPath := filepath.Join(configDir, "config.yaml")
	if _, err := os.Stat(configPath); err == nil {
		return configPath, false, nil
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", false, fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	switch appName {
	case AppSentineld:
		setDaemonDefaults(v, DefaultSentineldConfig())
	case AppSentinelctl:
		setCtlDefaults(v, DefaultSentinelctlConfig())
	default:
		return "", false, fmt.Errorf("unknown app: %s", appName)
	}

	v.SetConfigType("yaml")
	if err := v.WriteConfigAs(configPath); err != nil {
		return "", false, fmt.Errorf("failed to write config file: %w", err)
	}

	return configPath, true, nil
}
