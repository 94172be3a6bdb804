// Package postgres provides a PostgreSQL implementation of the storage
// interfaces, used when sentinel serves several hosts from one database.
package postgres

import (
	"context"
	"fmt"
	"sync"

	"sentinel/internal/storage"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store implements the storage.Store interface using PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
	cfg  storage.PostgresConfig

	bans    *BanRepository
	reasons *ReasonRepository
	players *PlayerRepository

	mu     sync.RWMutex
	closed bool
}

// New creates a new PostgreSQL store.
func New(ctx context.Context, cfg storage.PostgresConfig) (*Store, error) {
	connString := fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.Database,
		cfg.User,
		cfg.Password,
		cfg.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConnections)
	if poolConfig.MaxConns == 0 {
		poolConfig.MaxConns = 20
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: %v", storage.ErrConnectionFailed, err)
	}

	s := &Store{
		pool: pool,
		cfg:  cfg,
	}

	s.bans = &BanRepository{store: s}
	s.reasons = &ReasonRepository{store: s}
	s.players = &PlayerRepository{store: s}

	return s, nil
}

// NewWithPool creates a store with an existing connection pool (for testing).
func NewWithPool(pool *pgxpool.Pool) *Store {
	s := &Store{pool: pool}

	s.bans = &BanRepository{store: s}
	s.reasons = &ReasonRepository{store: s}
	s.players = &PlayerRepository{store: s}

	return s
}

// Close closes all database connections.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	s.pool.Close()
	return nil
}

// Bans returns the ban repository.
func (s *Store) Bans() storage.BanRepository {
	return s.bans
}

// Reasons returns the reason repository.
func (s *Store) Reasons() storage.ReasonRepository {
	return s.reasons
}

// Players returns the player repository.
func (s *Store) Players() storage.PlayerRepository {
	return s.players
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Backend returns the storage backend type.
func (s *Store) Backend() storage.BackendType {
	return storage.BackendPostgres
}

// Pool returns the main connection pool.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

// Migrate runs database migrations.
func (s *Store) Migrate(ctx context.Context) error {
	migrations := []struct {
		version int
		sql     string
	}{
		{1, migrationV1Schema},
		{2, migrationV1Indexes},
	}

	if _, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	var currentVersion int
	row := s.pool.QueryRow(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}

		if _, err := s.pool.Exec(ctx, m.sql); err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", m.version, err)
		}

		if _, err := s.pool.Exec(ctx,
			"INSERT INTO schema_migrations (version) VALUES ($1)",
			m.version,
		); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", m.version, err)
		}
	}

	return nil
}

// Migrations
const migrationV1Schema = `
-- Bans table. Rows are soft-deleted only via the active flag.
CREATE TABLE IF NOT EXISTS bans (
	id BIGSERIAL PRIMARY KEY,
	player_id UUID NOT NULL,
	player_name TEXT NOT NULL,
	operator TEXT,
	category TEXT NOT NULL,
	reasons JSONB NOT NULL DEFAULT '[]',
	remaining_seconds BIGINT NOT NULL DEFAULT 0,
	notice TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	expires_at TIMESTAMPTZ,
	active BOOLEAN NOT NULL DEFAULT true
);

-- Reasons table
CREATE TABLE IF NOT EXISTS reasons (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	category TEXT NOT NULL,
	duration_seconds BIGINT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (name, category)
);

-- Players table
CREATE TABLE IF NOT EXISTS players (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	points INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

-- IP history, one row per (player, ip)
CREATE TABLE IF NOT EXISTS player_ips (
	player_id UUID NOT NULL REFERENCES players(id) ON DELETE CASCADE,
	ip TEXT NOT NULL,
	first_seen TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	last_seen TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (player_id, ip)
);
`

const migrationV1Indexes = `
-- At most one active ban per player, enforced at the storage level so that
-- concurrent creates serialize on the index rather than on a check-then-insert.
CREATE UNIQUE INDEX IF NOT EXISTS uniq_bans_player_active ON bans(player_id) WHERE active;

CREATE INDEX IF NOT EXISTS idx_bans_player ON bans(player_id, active);
CREATE INDEX IF NOT EXISTS idx_bans_expires ON bans(expires_at);
CREATE INDEX IF NOT EXISTS idx_players_name ON players(name);
CREATE INDEX IF NOT EXISTS idx_player_ips_ip ON player_ips(ip);
`

// init registers the PostgreSQL store factory with the storage package.
func init() {
	storage.OpenPostgres = func(ctx context.Context, cfg storage.PostgresConfig) (storage.Store, error) {
		return New(ctx, cfg)
	}
}
