package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadSentineld_Defaults(t *testing.T) {
	cfg, err := LoadSentineld("")
	if err != nil {
		t.Fatalf("LoadSentineld() failed: %v", err)
	}

	if cfg.Log.Level != "info" {
		t.Errorf("expected default log level info, got %q", cfg.Log.Level)
	}
	if cfg.Database.Backend != "sqlite" {
		t.Errorf("expected default backend sqlite, got %q", cfg.Database.Backend)
	}
	if cfg.Sweep.Interval != 60*time.Second {
		t.Errorf("expected default sweep interval 60s, got %v", cfg.Sweep.Interval)
	}
	if cfg.Sweep.InitialDelay != 5*time.Second {
		t.Errorf("expected default sweep initial delay 5s, got %v", cfg.Sweep.InitialDelay)
	}
}

func TestLoadSentineld_EnvOverride(t *testing.T) {
	t.Setenv("SENTINELD_LOG_LEVEL", "debug")
	t.Setenv("SENTINELD_DATABASE_BACKEND", "postgres")

	cfg, err := LoadSentineld("")
	if err != nil {
		t.Fatalf("LoadSentineld() failed: %v", err)
	}

	if cfg.Log.Level != "debug" {
		t.Errorf("expected env-overridden log level debug, got %q", cfg.Log.Level)
	}
	if cfg.Database.Backend != "postgres" {
		t.Errorf("expected env-overridden backend postgres, got %q", cfg.Database.Backend)
	}
}

func TestLoadSentineld_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("log:\n  level: error\nsweep:\n  interval: 30s\n")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadSentineld(path)
	if err != nil {
		t.Fatalf("LoadSentineld() failed: %v", err)
	}

	if cfg.Log.Level != "error" {
		t.Errorf("expected log level error from file, got %q", cfg.Log.Level)
	}
	if cfg.Sweep.Interval != 30*time.Second {
		t.Errorf("expected sweep interval 30s from file, got %v", cfg.Sweep.Interval)
	}
	// Unset keys keep defaults
	if cfg.Database.Backend != "sqlite" {
		t.Errorf("expected default backend sqlite, got %q", cfg.Database.Backend)
	}
}

func TestLoadSentinelctl_Defaults(t *testing.T) {
	cfg, err := LoadSentinelctl("")
	if err != nil {
		t.Fatalf("LoadSentinelctl() failed: %v", err)
	}

	if cfg.Output.Format != "text" {
		t.Errorf("expected default output format text, got %q", cfg.Output.Format)
	}
	if cfg.Database.QueryTimeout != 5*time.Second {
		t.Errorf("expected default query timeout 5s, got %v", cfg.Database.QueryTimeout)
	}
}
