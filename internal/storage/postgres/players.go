package postgres

import (
	"context"
	"errors"

	"sentinel/internal/domain"
	"sentinel/internal/storage"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// PlayerRepository implements storage.PlayerRepository for PostgreSQL.
type PlayerRepository struct {
	store *Store
}

// Upsert creates the player or updates the display name of an existing
// record.
func (r *PlayerRepository) Upsert(ctx context.Context, player *domain.Player) error {
	if err := player.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO players (id, name, points)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			updated_at = NOW()
	`

	_, err := r.store.pool.Exec(ctx, query, player.ID, player.Name, player.Points)
	return err
}

// Get retrieves a player by ID, including IP history.
func (r *PlayerRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Player, error) {
	row := r.store.pool.QueryRow(ctx,
		"SELECT id, name, points, created_at, updated_at FROM players WHERE id = $1",
		id,
	)
	return r.scanPlayer(ctx, row)
}

// GetByName retrieves the most recently seen player with the given name.
func (r *PlayerRepository) GetByName(ctx context.Context, name string) (*domain.Player, error) {
	row := r.store.pool.QueryRow(ctx, `
		SELECT id, name, points, created_at, updated_at
		FROM players
		WHERE name = $1
		ORDER BY updated_at DESC
		LIMIT 1
	`, name)
	return r.scanPlayer(ctx, row)
}

// RecordIP upserts an IP sighting for the player.
func (r *PlayerRepository) RecordIP(ctx context.Context, id uuid.UUID, ip string) error {
	query := `
		INSERT INTO player_ips (player_id, ip)
		VALUES ($1, $2)
		ON CONFLICT (player_id, ip) DO UPDATE SET
			last_seen = NOW()
	`

	_, err := r.store.pool.Exec(ctx, query, id, ip)
	return err
}

// SetPoints sets the penalty point total for the player.
func (r *PlayerRepository) SetPoints(ctx context.Context, id uuid.UUID, points int) error {
	result, err := r.store.pool.Exec(ctx,
		"UPDATE players SET points = $1, updated_at = NOW() WHERE id = $2",
		points, id,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// AddPoints adjusts the penalty point total and returns the new value.
func (r *PlayerRepository) AddPoints(ctx context.Context, id uuid.UUID, delta int) (int, error) {
	var points int
	err := r.store.pool.QueryRow(ctx,
		"UPDATE players SET points = points + $1, updated_at = NOW() WHERE id = $2 RETURNING points",
		delta, id,
	).Scan(&points)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, storage.ErrNotFound
	}
	return points, err
}

// scanPlayer scans a player row and loads its IP history.
func (r *PlayerRepository) scanPlayer(ctx context.Context, row pgx.Row) (*domain.Player, error) {
	var player domain.Player

	err := row.Scan(&player.ID, &player.Name, &player.Points, &player.CreatedAt, &player.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
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
	rows, err := r.store.pool.Query(ctx,
		"SELECT ip FROM player_ips WHERE player_id = $1 ORDER BY last_seen DESC",
		id,
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
