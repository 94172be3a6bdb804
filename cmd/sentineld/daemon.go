// Package main provides the sentineld daemon: it owns the storage backend,
// the ban engine and the recurring expiration sweep.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"sentinel/internal/ban"
	"sentinel/internal/config"
	"sentinel/internal/logger"
	"sentinel/internal/metrics"
	"sentinel/internal/player"
	"sentinel/internal/reason"
	"sentinel/internal/storage"

	// Import storage backends to register factories
	_ "sentinel/internal/storage/postgres"
	_ "sentinel/internal/storage/sqlite"
)

// Daemon manages all sentineld components and their lifecycle.
type Daemon struct {
	cfg *config.SentineldConfig
	log *logger.Logger

	store   storage.Store
	engine  *ban.Engine
	sweeper *ban.Sweeper

	sweepCancel context.CancelFunc
	sweepDone   chan struct{}

	mu      sync.Mutex
	running bool
}

// NewDaemon creates a new daemon instance.
func NewDaemon(cfg *config.SentineldConfig, log *logger.Logger) *Daemon {
	storage.SetLogger(log)

	return &Daemon{
		cfg: cfg,
		log: log,
	}
}

// Start initializes and starts all daemon components.
// Order: Storage -> Engine -> Sweeper -> Metrics.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		return fmt.Errorf("daemon already running")
	}

	d.log.Info("starting daemon components")

	if err := d.writePIDFile(); err != nil {
		d.log.Warn("failed to write PID file", "error", err, "path", d.cfg.Server.PIDFile)
		// Non-fatal, continue
	}

	if err := d.startStorage(ctx); err != nil {
		return fmt.Errorf("failed to start storage: %w", err)
	}

	catalog := reason.NewCatalog(d.store.Reasons())
	directory := player.NewDirectory(d.store.Players())
	d.engine = ban.NewEngine(d.store, catalog, directory, d.cfg.Database.QueryTimeout)

	d.startSweeper()

	if d.cfg.Server.MetricsAddr != "" {
		metrics.ServeMetrics(d.cfg.Server.MetricsAddr, d.log.Logger)
	}

	d.running = true
	d.log.Info("daemon started successfully")

	return nil
}

// Stop gracefully shuts down all daemon components in reverse order.
func (d *Daemon) Stop(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running {
		return nil
	}

	d.log.Info("stopping daemon components")

	var errs []error

	if err := d.stopSweeper(ctx); err != nil {
		errs = append(errs, fmt.Errorf("sweeper: %w", err))
	}

	if err := d.stopStorage(); err != nil {
		errs = append(errs, fmt.Errorf("storage: %w", err))
	}

	if err := d.removePIDFile(); err != nil {
		d.log.Warn("failed to remove PID file", "error", err)
	}

	d.running = false

	if len(errs) > 0 {
		d.log.Error("daemon stopped with errors", "errors", errs)
		return fmt.Errorf("shutdown errors: %v", errs)
	}

	d.log.Info("daemon stopped successfully")
	return nil
}

// startStorage initializes the storage backend.
func (d *Daemon) startStorage(ctx context.Context) error {
	d.log.Debug("initializing storage",
		"backend", d.cfg.Database.Backend,
		"data_dir", d.cfg.Server.DataDir,
	)

	storageCfg := d.convertStorageConfig()

	store, err := storage.Open(ctx, storageCfg, d.cfg.Server.DataDir)
	if err != nil {
		d.log.Error("failed to open storage", "error", err)
		return err
	}

	if err := store.Ping(ctx); err != nil {
		store.Close()
		d.log.Error("storage ping failed", "error", err)
		return fmt.Errorf("storage ping failed: %w", err)
	}

	d.store = store

	d.log.Info("storage initialized", "backend", store.Backend())
	return nil
}

// stopStorage shuts down the storage backend.
func (d *Daemon) stopStorage() error {
	if d.store == nil {
		return nil
	}

	d.log.Debug("shutting down storage")

	if err := d.store.Close(); err != nil {
		d.log.Error("error closing storage", "error", err)
		return err
	}

	d.store = nil
	return nil
}

// startSweeper launches the recurring expiration sweep.
func (d *Daemon) startSweeper() {
	d.sweeper = ban.NewSweeper(
		d.engine,
		d.cfg.Sweep.Interval,
		d.cfg.Sweep.InitialDelay,
		d.log.Logger,
	)

	sweepCtx, cancel := context.WithCancel(context.Background())
	d.sweepCancel = cancel
	d.sweepDone = make(chan struct{})

	go func() {
		defer close(d.sweepDone)
		d.sweeper.Run(sweepCtx)
	}()

	d.log.Info("expiration sweeper started",
		"interval", d.cfg.Sweep.Interval,
		"initial_delay", d.cfg.Sweep.InitialDelay,
	)
}

// stopSweeper stops the sweep loop and waits for it to drain.
func (d *Daemon) stopSweeper(ctx context.Context) error {
	if d.sweepCancel == nil {
		return nil
	}

	d.sweepCancel()

	select {
	case <-d.sweepDone:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("timed out waiting for sweeper: %w", ctx.Err())
	}
}

// convertStorageConfig maps the config package types onto the storage ones.
func (d *Daemon) convertStorageConfig() storage.Config {
	db := d.cfg.Database
	return storage.Config{
		Backend:      storage.BackendType(db.Backend),
		QueryTimeout: db.QueryTimeout,
		SQLite: storage.SQLiteConfig{
			Path:         db.SQLite.Path,
			MaxOpenConns: db.SQLite.MaxOpenConns,
			BusyTimeout:  5 * time.Second,
		},
		Postgres: storage.PostgresConfig{
			Host:           db.Postgres.Host,
			Port:           db.Postgres.Port,
			Database:       db.Postgres.Database,
			User:           db.Postgres.User,
			Password:       db.Postgres.Password,
			SSLMode:        db.Postgres.SSLMode,
			MaxConnections: db.Postgres.MaxConnections,
		},
	}
}

// writePIDFile records the daemon's pid, if configured.
func (d *Daemon) writePIDFile() error {
	if d.cfg.Server.PIDFile == "" {
		return nil
	}

	pidFile := expandPath(d.cfg.Server.PIDFile)

	if err := os.MkdirAll(filepath.Dir(pidFile), 0755); err != nil {
		return fmt.Errorf("failed to create PID file directory: %w", err)
	}

	pid := os.Getpid()
	if err := os.WriteFile(pidFile, []byte(strconv.Itoa(pid)), 0644); err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}

	d.log.Debug("wrote PID file", "path", pidFile, "pid", pid)
	return nil
}

// removePIDFile removes the PID file.
func (d *Daemon) removePIDFile() error {
	if d.cfg.Server.PIDFile == "" {
		return nil
	}

	if err := os.Remove(expandPath(d.cfg.Server.PIDFile)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Engine returns the ban engine for use by other components.
func (d *Daemon) Engine() *ban.Engine {
	return d.engine
}

// Store returns the storage instance for use by other components.
func (d *Daemon) Store() storage.Store {
	return d.store
}

// IsRunning returns true if the daemon is running.
func (d *Daemon) IsRunning() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}
