package storage

import (
	"context"
	"fmt"
)

// OpenSQLite is set by the sqlite package init to avoid import cycles.
var OpenSQLite func(ctx context.Context, cfg SQLiteConfig, dataDir string) (Store, error)

// OpenPostgres is set by the postgres package init to avoid import cycles.
var OpenPostgres func(ctx context.Context, cfg PostgresConfig) (Store, error)

// Open creates a new Store based on the configuration and runs migrations.
// Note: the caller must import the sqlite and/or postgres packages to
// register the factories.
func Open(ctx context.Context, cfg Config, dataDir string) (Store, error) {
	storageLog := getLogger("open")

	storageLog.Debug("opening storage",
		"backend", cfg.Backend,
		"data_dir", dataDir,
	)

	if err := cfg.Validate(); err != nil {
		storageLog.Error("invalid storage config", "error", err)
		return nil, fmt.Errorf("invalid storage config: %w", err)
	}

	var (
		store Store
		err   error
	)

	switch cfg.Backend {
	case BackendSQLite:
		if OpenSQLite == nil {
			return nil, fmt.Errorf("SQLite backend not available; import sentinel/internal/storage/sqlite")
		}
		store, err = OpenSQLite(ctx, cfg.SQLite, dataDir)
		if err != nil {
			storageLog.Error("failed to create SQLite store", "error", err)
			return nil, fmt.Errorf("failed to create SQLite store: %w", err)
		}
	case BackendPostgres:
		if OpenPostgres == nil {
			return nil, fmt.Errorf("PostgreSQL backend not available; import sentinel/internal/storage/postgres")
		}
		store, err = OpenPostgres(ctx, cfg.Postgres)
		if err != nil {
			storageLog.Error("failed to create PostgreSQL store", "error", err)
			return nil, fmt.Errorf("failed to create PostgreSQL store: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: unknown storage backend %q", ErrInvalidInput, cfg.Backend)
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		storageLog.Error("migrations failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrMigrationFailed, err)
	}

	storageLog.Debug("storage ready", "backend", store.Backend())
	return store, nil
}
