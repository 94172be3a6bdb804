package postgres

import (
	"context"
	"errors"

	"sentinel/internal/domain"
	"sentinel/internal/storage"

	"github.com/jackc/pgx/v5"
)

// ReasonRepository implements storage.ReasonRepository for PostgreSQL.
type ReasonRepository struct {
	store *Store
}

// Upsert inserts the reason or overwrites the duration of an existing
// (name, category) pair.
func (r *ReasonRepository) Upsert(ctx context.Context, reason *domain.Reason) error {
	query := `
		INSERT INTO reasons (name, category, duration_seconds)
		VALUES ($1, $2, $3)
		ON CONFLICT (name, category) DO UPDATE SET
			duration_seconds = EXCLUDED.duration_seconds
	`

	_, err := r.store.pool.Exec(ctx, query,
		reason.Name,
		string(reason.Category),
		reason.DurationSeconds,
	)
	return err
}

// Get retrieves a reason by (name, category).
func (r *ReasonRepository) Get(ctx context.Context, name string, category domain.ReasonCategory) (*domain.Reason, error) {
	query := `
		SELECT id, name, category, duration_seconds, created_at
		FROM reasons
		WHERE name = $1 AND category = $2
		LIMIT 1
	`

	var (
		reason domain.Reason
		cat    string
	)
	err := r.store.pool.QueryRow(ctx, query, name, string(category)).Scan(
		&reason.ID,
		&reason.Name,
		&cat,
		&reason.DurationSeconds,
		&reason.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	reason.Category = domain.ReasonCategory(cat)
	return &reason, nil
}

// Exists reports whether (name, category) is present.
func (r *ReasonRepository) Exists(ctx context.Context, name string, category domain.ReasonCategory) (bool, error) {
	var one int
	err := r.store.pool.QueryRow(ctx,
		"SELECT 1 FROM reasons WHERE name = $1 AND category = $2 LIMIT 1",
		name, string(category),
	).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes (name, category) and reports whether a row was removed.
func (r *ReasonRepository) Delete(ctx context.Context, name string, category domain.ReasonCategory) (bool, error) {
	result, err := r.store.pool.Exec(ctx,
		"DELETE FROM reasons WHERE name = $1 AND category = $2",
		name, string(category),
	)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

// List retrieves reasons sorted by name ascending, optionally filtered by
// category.
func (r *ReasonRepository) List(ctx context.Context, category domain.ReasonCategory) ([]*domain.Reason, error) {
	query := "SELECT id, name, category, duration_seconds, created_at FROM reasons"
	args := []interface{}{}

	if category != "" {
		query += " WHERE category = $1"
		args = append(args, string(category))
	}
	query += " ORDER BY name ASC"

	rows, err := r.store.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reasons []*domain.Reason
	for rows.Next() {
		var (
			reason domain.Reason
			cat    string
		)
		if err := rows.Scan(&reason.ID, &reason.Name, &cat, &reason.DurationSeconds, &reason.CreatedAt); err != nil {
			return nil, err
		}
		reason.Category = domain.ReasonCategory(cat)
		reasons = append(reasons, &reason)
	}

	return reasons, rows.Err()
}
