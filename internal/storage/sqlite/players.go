package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"sentinel/internal/domain"
	"sentinel/internal/storage"

	"github.com/google/uuid"
)

// PlayerRepository implements storage.PlayerRepository for SQLite.
type PlayerRepository struct {
	store *Store
}

// Upsert creates the player or updates the display name of an existing
// record.
func (r *PlayerRepository) Upsert(ctx context.Context, player *domain.Player) error {
	if err := player.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	query := `
		INSERT INTO players (id, name, points, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			updated_at = excluded.updated_at
	`

	_, err := r.store.db.ExecContext(ctx, query,
		player.ID.String(),
		player.Name,
		player.Points,
		now,
		now,
	)
	return err
}

// Get retrieves a player by ID, including IP history.
func (r *PlayerRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Player, error) {
	row := r.store.db.QueryRowContext(ctx,
		"SELECT id, name, points, created_at, updated_at FROM players WHERE id = ?",
		id.String(),
	)
	return r.scanPlayer(ctx, row)
}

// GetByName retrieves the most recently seen player with the given name.
func (r *PlayerRepository) GetByName(ctx context.Context, name string) (*domain.Player, error) {
	row := r.store.db.QueryRowContext(ctx, `
		SELECT id, name, points, created_at, updated_at
		FROM players
		WHERE name = ?
		ORDER BY updated_at DESC
		LIMIT 1
	`, name)
	return r.scanPlayer(ctx, row)
}

// RecordIP upserts an IP sighting for the player.
func (r *PlayerRepository) RecordIP(ctx context.Context, id uuid.UUID, ip string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	query := `
		INSERT INTO player_ips (player_id, ip, first_seen, last_seen)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(player_id, ip) DO UPDATE SET
			last_seen = excluded.last_seen
	`

	_, err := r.store.db.ExecContext(ctx, query, id.String(), ip, now, now)
	return err
}

// SetPoints sets the penalty point total for the player.
func (r *PlayerRepository) SetPoints(ctx context.Context, id uuid.UUID, points int) error {
	result, err := r.store.db.ExecContext(ctx,
		"UPDATE players SET points = ?, updated_at = ? WHERE id = ?",
		points, time.Now().UTC().Format(time.RFC3339), id.String(),
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// AddPoints adjusts the penalty point total and returns the new value.
func (r *PlayerRepository) AddPoints(ctx context.Context, id uuid.UUID, delta int) (int, error) {
	var points int
	err := r.store.db.QueryRowContext(ctx,
		"UPDATE players SET points = points + ?, updated_at = ? WHERE id = ? RETURNING points",
		delta, time.Now().UTC().Format(time.RFC3339), id.String(),
	).Scan(&points)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, storage.ErrNotFound
	}
	return points, err
}

// scanPlayer scans a player row and loads its IP history.
func (r *PlayerRepository) scanPlayer(ctx context.Context, row *sql.Row) (*domain.Player, error) {
	var (
		player    domain.Player
		id        string
		createdAt string
		updatedAt string
	)

	err := row.Scan(&id, &player.Name, &player.Points, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	player.ID = parsed

	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		player.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, updatedAt); err == nil {
		player.UpdatedAt = t
	}

	ips, err := r.loadIPs(ctx, player.ID)
	if err != nil {
		return nil, err
	}
	player.IPs = ips

	return &player, nil
}

// loadIPs returns the known IPs for a player, most recently seen first.
func (r *PlayerRepository) loadIPs(ctx context.Context, id uuid.UUID) ([]string, error) {
	rows, err := r.store.db.QueryContext(ctx,
		"SELECT ip FROM player_ips WHERE player_id = ? ORDER BY last_seen DESC",
		id.String(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ips []string
	for rows.Next() {
		var ip string
		if err := rows.Scan(&ip); err != nil {
			return nil, err
		}
		ips = append(ips, ip)
	}
	return ips, rows.Err()
}
