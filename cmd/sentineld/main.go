package main

import (
	"context"
	"flag"
	"fmt"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sentinel/internal/config"
	"sentinel/internal/logger"
	"sentinel/internal/version"
)

var (
	cfgFile     string
	showVersion bool
)

func init() {
	flag.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/sentineld/config.yaml)")
	flag.BoolVar(&showVersion, "version", false, "show version")
}

func main() {
	flag.Parse()

	if showVersion {
		info := version.Get()
		fmt.Printf("sentineld %s\n", info.String())
		fmt.Println(info.Full())
		os.Exit(0)
	}

	// Auto-generate config on first run
	if cfgFile == "" {
		path, created, err := config.GenerateConfigIfNotExists(config.AppSentineld)
		if err == nil && created {
			stdlog.Printf("Created default config at: %s", path)
		}
	}

	cfg, err := config.LoadSentineld(cfgFile)
	if err != nil {
		stdlog.Fatalf("Failed to load config: %v", err)
	}

	// Expand data directory
	dataDir := expandPath(cfg.Server.DataDir)
	cfg.Server.DataDir = dataDir

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		stdlog.Fatalf("Failed to create data directory %q: %v", dataDir, err)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		stdlog.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = log.Close() }()

	ctx := logger.WithLogger(context.Background(), log)

	log.Info("starting sentineld",
		"log_level", cfg.Log.Level,
		"log_format", cfg.Log.Format,
		"data_dir", cfg.Server.DataDir,
		"backend", cfg.Database.Backend,
		"sweep_interval", cfg.Sweep.Interval,
	)

	daemon := NewDaemon(cfg, log)

	if err := daemon.Start(ctx); err != nil {
		log.Error("failed to start daemon", "error", err)
		os.Exit(1)
	}

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	log.Info("received shutdown signal", "signal", sig.String())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := daemon.Stop(shutdownCtx); err != nil {
		log.Error("error during shutdown", "error", err)
	}

	log.Info("sentineld stopped")
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if len(path) == 0 {
		return path
	}
	if path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return home + path[1:]
	}
	return path
}
