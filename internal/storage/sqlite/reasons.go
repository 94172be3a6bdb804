package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"sentinel/internal/domain"
	"sentinel/internal/storage"
)

// ReasonRepository implements storage.ReasonRepository for SQLite.
type ReasonRepository struct {
	store *Store
}

// Upsert inserts the reason or overwrites the duration of an existing
// (name, category) pair.
func (r *ReasonRepository) Upsert(ctx context.Context, reason *domain.Reason) error {
	query := `
		INSERT INTO reasons (name, category, duration_seconds, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name, category) DO UPDATE SET
			duration_seconds = excluded.duration_seconds
	`

	_, err := r.store.db.ExecContext(ctx, query,
		reason.Name,
		string(reason.Category),
		reason.DurationSeconds,
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// Get retrieves a reason by (name, category).
func (r *ReasonRepository) Get(ctx context.Context, name string, category domain.ReasonCategory) (*domain.Reason, error) {
	query := `
		SELECT id, name, category, duration_seconds, created_at
		FROM reasons
		WHERE name = ? AND category = ?
		LIMIT 1
	`

	var (
		reason    domain.Reason
		cat       string
		createdAt string
	)
	err := r.store.db.QueryRowContext(ctx, query, name, string(category)).Scan(
		&reason.ID,
		&reason.Name,
		&cat,
		&reason.DurationSeconds,
		&createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	reason.Category = domain.ReasonCategory(cat)
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		reason.CreatedAt = t
	}
	return &reason, nil
}

// Exists reports whether (name, category) is present.
func (r *ReasonRepository) Exists(ctx context.Context, name string, category domain.ReasonCategory) (bool, error) {
	var one int
	err := r.store.db.QueryRowContext(ctx,
		"SELECT 1 FROM reasons WHERE name = ? AND category = ? LIMIT 1",
		name, string(category),
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes (name, category) and reports whether a row was removed.
func (r *ReasonRepository) Delete(ctx context.Context, name string, category domain.ReasonCategory) (bool, error) {
	result, err := r.store.db.ExecContext(ctx,
		"DELETE FROM reasons WHERE name = ? AND category = ?",
		name, string(category),
	)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	return affected > 0, err
}

// List retrieves reasons sorted by name ascending, optionally filtered by
// category.
func (r *ReasonRepository) List(ctx context.Context, category domain.ReasonCategory) ([]*domain.Reason, error) {
	query := "SELECT id, name, category, duration_seconds, created_at FROM reasons"
	args := []interface{}{}

	if category != "" {
		query += " WHERE category = ?"
		args = append(args, string(category))
	}
	query += " ORDER BY name ASC"

	rows, err := r.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reasons []*domain.Reason
	for rows.Next() {
		var (
			reason    domain.Reason
			cat       string
			createdAt string
		)
		if err := rows.Scan(&reason.ID, &reason.Name, &cat, &reason.DurationSeconds, &createdAt); err != nil {
			return nil, err
		}
		reason.Category = domain.ReasonCategory(cat)
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			reason.CreatedAt = t
		}
		reasons = append(reasons, &reason)
	}

	return reasons, rows.Err()
}
