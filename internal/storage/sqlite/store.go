// Package sqlite provides a SQLite implementation of the storage interfaces.
// It is the zero-setup backend: a single file under the data directory.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"sentinel/internal/storage"

	_ "modernc.org/sqlite"
)

// Store implements the storage.Store interface using SQLite.
type Store struct {
	db  *sql.DB
	cfg storage.SQLiteConfig

	bans    *BanRepository
	reasons *ReasonRepository
	players *PlayerRepository

	mu     sync.RWMutex
	closed bool
}

// New creates a new SQLite store.
func New(cfg storage.SQLiteConfig, dataDir string) (*Store, error) {
	dbPath := cfg.Path
	if dbPath == "" {
		dbPath = filepath.Join(dataDir, "sentinel.db")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	busyTimeout := int64(5000)
	if cfg.BusyTimeout > 0 {
		busyTimeout = cfg.BusyTimeout.Milliseconds()
	}

	// Pragmas go through the DSN so every pooled connection gets them, not
	// just the one a plain Exec happens to land on.
	dsn := fmt.Sprintf(
		"%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(%d)",
		dbPath, busyTimeout,
	)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	if cfg.MaxOpenConns == 0 {
		db.SetMaxOpenConns(10)
	}

	s := &Store{
		db:  db,
		cfg: cfg,
	}

	s.bans = &BanRepository{store: s}
	s.reasons = &ReasonRepository{store: s}
	s.players = &PlayerRepository{store: s}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	return s.db.Close()
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
	return s.db.PingContext(ctx)
}

// Backend returns the storage backend type.
func (s *Store) Backend() storage.BackendType {
	return storage.BackendSQLite
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

	if _, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TEXT NOT NULL DEFAULT (datetime('now'))
		)
	`); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}

		if _, err := s.db.ExecContext(ctx, m.sql); err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", m.version, err)
		}

		if _, err := s.db.ExecContext(ctx,
			"INSERT INTO schema_migrations (version) VALUES (?)",
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
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	player_id TEXT NOT NULL,
	player_name TEXT NOT NULL,
	operator TEXT,
	category TEXT NOT NULL,
	reasons TEXT NOT NULL DEFAULT '[]',
	remaining_seconds INTEGER NOT NULL DEFAULT 0,
	notice TEXT,
	created_at TEXT NOT NULL,
	expires_at TEXT,
	active INTEGER NOT NULL DEFAULT 1
);

-- Reasons table
CREATE TABLE IF NOT EXISTS reasons (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	category TEXT NOT NULL,
	duration_seconds INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL DEFAULT (datetime('now')),
	UNIQUE (name, category)
);

-- Players table
CREATE TABLE IF NOT EXISTS players (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	points INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

-- IP history, one row per (player, ip)
CREATE TABLE IF NOT EXISTS player_ips (
	player_id TEXT NOT NULL,
	ip TEXT NOT NULL,
	first_seen TEXT NOT NULL,
	last_seen TEXT NOT NULL,
	PRIMARY KEY (player_id, ip),
	FOREIGN KEY (player_id) REFERENCES players(id) ON DELETE CASCADE
);
`

const migrationV1Indexes = `
-- At most one active ban per player, enforced at the storage level so that
-- concurrent creates serialize on the index rather than on a check-then-insert.
CREATE UNIQUE INDEX IF NOT EXISTS uniq_bans_player_active ON bans(player_id) WHERE active = 1;

CREATE INDEX IF NOT EXISTS idx_bans_player ON bans(player_id, active);
CREATE INDEX IF NOT EXISTS idx_bans_expires ON bans(expires_at);
CREATE INDEX IF NOT EXISTS idx_players_name ON players(name);
CREATE INDEX IF NOT EXISTS idx_player_ips_ip ON player_ips(ip);
`

// init registers the SQLite store factory with the storage package.
func init() {
	storage.OpenSQLite = func(ctx context.Context, cfg storage.SQLiteConfig, dataDir string) (storage.Store, error) {
		return New(cfg, dataDir)
	}
}
