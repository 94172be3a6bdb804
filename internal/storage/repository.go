// Package storage defines the persistence contracts for the sentinel core.
// It abstracts the underlying database implementation (SQLite or PostgreSQL).
package storage

import (
	"context"
	"io"
	"time"

	"sentinel/internal/domain"

	"github.com/google/uuid"
)

// Store is the main storage interface that provides access to all repositories.
type Store interface {
	io.Closer

	// Bans returns the ban repository.
	Bans() BanRepository

	// Reasons returns the reason repository.
	Reasons() ReasonRepository

	// Players returns the player repository.
	Players() PlayerRepository

	// Ping checks database connectivity.
	Ping(ctx context.Context) error

	// Backend returns the storage backend type.
	Backend() BackendType

	// Migrate runs database migrations.
	Migrate(ctx context.Context) error
}

// BackendType represents the storage backend.
type BackendType string

const (
	BackendSQLite   BackendType = "sqlite"
	BackendPostgres BackendType = "postgres"
)

// String returns the backend name.
func (b BackendType) String() string {
	return string(b)
}

// BanRepository handles ban persistence. Rows are soft-deleted only: the
// active flag flips to false, nothing is ever physically removed.
type BanRepository interface {
	// Create persists a new ban and fills in its assigned ID and Active
	// fields. CreatedAt is stored as given by the caller, so creation and
	// expiry timestamps come from a single clock reading; a zero CreatedAt
	// is stamped with the current time. The id retrieval
	// happens in the same statement as the insert, so concurrent creates
	// can never observe a foreign id. Creating a second active ban for the
	// same player fails with ErrConflict, enforced by a partial unique
	// index.
	Create(ctx context.Context, ban *domain.Ban) error

	// Get retrieves a ban by ID.
	Get(ctx context.Context, id int64) (*domain.Ban, error)

	// GetActive retrieves the active ban for a player, or ErrNotFound.
	// If storage ever holds more than one active row for the player, the
	// highest-id row wins.
	GetActive(ctx context.Context, playerID uuid.UUID) (*domain.Ban, error)

	// List retrieves bans matching the filter, newest first.
	List(ctx context.Context, filter BanFilter) ([]*domain.Ban, error)

	// Deactivate flips active to false on exactly one row, if and only if
	// it is currently active. Returns whether a row changed.
	Deactivate(ctx context.Context, id int64) (bool, error)

	// DeactivateAll flips active to false on every active row for the
	// player and returns how many rows changed.
	DeactivateAll(ctx context.Context, playerID uuid.UUID) (int64, error)

	// SetRemaining updates the remaining-seconds snapshot, expiry and
	// active flag of a row in a single statement. Returns whether a row
	// changed; an unknown id is a no-op, not an error.
	SetRemaining(ctx context.Context, id int64, remainingSeconds int64, expiresAt time.Time, active bool) (bool, error)

	// SetNotice updates the operator note of a row. Returns whether a row
	// changed; an unknown id is a no-op, not an error.
	SetNotice(ctx context.Context, id int64, notice string) (bool, error)

	// DeactivateExpired flips active to false on every active row whose
	// expiry is at or before now, in one bulk statement. Safe to run
	// concurrently with creates and with itself.
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}

// BanFilter defines filtering options for ban queries.
type BanFilter struct {
	// ActiveOnly restricts results to rows with active = true.
	ActiveOnly bool

	// PlayerID filters by player (nil = all players).
	PlayerID *uuid.UUID

	// Limit is the maximum number of results (0 = no limit).
	Limit int

	// Offset is the number of results to skip.
	Offset int
}

// ReasonRepository handles reason persistence. Names are stored in their
// canonical lower-case form; (name, category) is unique.
type ReasonRepository interface {
	// Upsert inserts the reason or, if (name, category) exists, overwrites
	// its duration.
	Upsert(ctx context.Context, reason *domain.Reason) error

	// Get retrieves a reason by (name, category), or ErrNotFound.
	Get(ctx context.Context, name string, category domain.ReasonCategory) (*domain.Reason, error)

	// Exists reports whether (name, category) is present.
	Exists(ctx context.Context, name string, category domain.ReasonCategory) (bool, error)

	// Delete removes (name, category) and reports whether a row was removed.
	Delete(ctx context.Context, name string, category domain.ReasonCategory) (bool, error)

	// List retrieves reasons sorted by name ascending, optionally filtered
	// by category (empty = all).
	List(ctx context.Context, category domain.ReasonCategory) ([]*domain.Reason, error)
}

// PlayerRepository handles player identity persistence, including the IP
// history kept per (player, ip) pair.
type PlayerRepository interface {
	// Upsert creates the player or updates the display name of an existing
	// record. The ID is never rewritten.
	Upsert(ctx context.Context, player *domain.Player) error

	// Get retrieves a player by ID, including IP history, or ErrNotFound.
	Get(ctx context.Context, id uuid.UUID) (*domain.Player, error)

	// GetByName retrieves the most recently seen player with the given
	// display name, or ErrNotFound.
	GetByName(ctx context.Context, name string) (*domain.Player, error)

	// RecordIP upserts an IP sighting for the player, updating last_seen.
	RecordIP(ctx context.Context, id uuid.UUID, ip string) error

	// SetPoints sets the penalty point total for the player.
	SetPoints(ctx context.Context, id uuid.UUID, points int) error

	// AddPoints adjusts the penalty point total and returns the new value.
	AddPoints(ctx context.Context, id uuid.UUID, delta int) (int, error)
}
