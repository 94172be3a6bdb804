// Package sqlite provides a SQLite implementation of the storage interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"sentinel/internal/domain"
	"sentinel/internal/storage"

	"github.com/google/uuid"
)

// BanRepository implements storage.BanRepository for SQLite.
type BanRepository struct {
	store *Store
}

const banColumns = "id, player_id, player_name, operator, category, reasons, remaining_seconds, notice, created_at, expires_at, active"

// Create persists a new ban. The insert and the id retrieval are a single
// statement, so a concurrent insert can never hand back a foreign id. A
// second active ban for the same player trips the partial unique index and
// surfaces as storage.ErrConflict.
func (r *BanRepository) Create(ctx context.Context, ban *domain.Ban) error {
	reasonsJSON, err := json.Marshal(ban.Reasons)
	if err != nil {
		return err
	}

	createdAt := ban.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	var operator *string
	if ban.Operator != "" {
		operator = &ban.Operator
	}
	var notice *string
	if ban.Notice != "" {
		notice = &ban.Notice
	}
	var expiresAt *string
	if ban.ExpiresAt != nil {
		s := ban.ExpiresAt.UTC().Format(time.RFC3339)
		expiresAt = &s
	}

	query := `
		INSERT INTO bans (
			player_id, player_name, operator, category, reasons,
			remaining_seconds, notice, created_at, expires_at, active
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1)
		RETURNING id
	`

	err = r.store.db.QueryRowContext(ctx, query,
		ban.PlayerID.String(),
		ban.PlayerName,
		operator,
		string(ban.Category),
		string(reasonsJSON),
		ban.RemainingSeconds,
		notice,
		createdAt.Format(time.RFC3339),
		expiresAt,
	).Scan(&ban.ID)

	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrConflict
		}
		return err
	}

	ban.CreatedAt = createdAt
	ban.Active = true
	return nil
}

// Get retrieves a ban by ID.
func (r *BanRepository) Get(ctx context.Context, id int64) (*domain.Ban, error) {
	query := "SELECT " + banColumns + " FROM bans WHERE id = ?"
	return r.scanBan(r.store.db.QueryRowContext(ctx, query, id))
}

// GetActive retrieves the active ban for a player. The highest-id row wins
// if storage ever holds more than one, which the unique index prevents.
func (r *BanRepository) GetActive(ctx context.Context, playerID uuid.UUID) (*domain.Ban, error) {
	query := "SELECT " + banColumns + ` FROM bans
		WHERE player_id = ? AND active = 1
		ORDER BY id DESC
		LIMIT 1`
	return r.scanBan(r.store.db.QueryRowContext(ctx, query, playerID.String()))
}

// List retrieves bans matching the filter, newest first.
func (r *BanRepository) List(ctx context.Context, filter storage.BanFilter) ([]*domain.Ban, error) {
	query := "SELECT " + banColumns + " FROM bans WHERE 1=1"
	args := []interface{}{}

	if filter.ActiveOnly {
		query += " AND active = 1"
	}
	if filter.PlayerID != nil {
		query += " AND player_id = ?"
		args = append(args, filter.PlayerID.String())
	}

	query += " ORDER BY created_at DESC, id DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := r.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanBans(rows)
}

// Deactivate flips active to false on exactly one currently-active row.
func (r *BanRepository) Deactivate(ctx context.Context, id int64) (bool, error) {
	result, err := r.store.db.ExecContext(ctx,
		"UPDATE bans SET active = 0 WHERE id = ? AND active = 1",
		id,
	)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	return affected > 0, err
}

// DeactivateAll flips active to false on every active row for the player.
func (r *BanRepository) DeactivateAll(ctx context.Context, playerID uuid.UUID) (int64, error) {
	result, err := r.store.db.ExecContext(ctx,
		"UPDATE bans SET active = 0 WHERE player_id = ? AND active = 1",
		playerID.String(),
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// SetRemaining updates duration snapshot, expiry and active flag in one
// statement. An unknown id changes nothing and is not an error.
func (r *BanRepository) SetRemaining(ctx context.Context, id int64, remainingSeconds int64, expiresAt time.Time, active bool) (bool, error) {
	activeVal := 0
	if active {
		activeVal = 1
	}
	result, err := r.store.db.ExecContext(ctx,
		"UPDATE bans SET remaining_seconds = ?, expires_at = ?, active = ? WHERE id = ?",
		remainingSeconds,
		expiresAt.UTC().Format(time.RFC3339),
		activeVal,
		id,
	)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	return affected > 0, err
}

// SetNotice updates the operator note of a row. An unknown id changes
// nothing and is not an error.
func (r *BanRepository) SetNotice(ctx context.Context, id int64, notice string) (bool, error) {
	result, err := r.store.db.ExecContext(ctx,
		"UPDATE bans SET notice = ? WHERE id = ?",
		notice, id,
	)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	return affected > 0, err
}

// DeactivateExpired flips active to false on every overdue row in one bulk
// statement.
func (r *BanRepository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.store.db.ExecContext(ctx,
		"UPDATE bans SET active = 0 WHERE active = 1 AND expires_at IS NOT NULL AND expires_at <= ?",
		now.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// scanBan scans a single ban from a row.
func (r *BanRepository) scanBan(row *sql.Row) (*domain.Ban, error) {
	var (
		ban         domain.Ban
		playerID    string
		operator    sql.NullString
		category    string
		reasonsJSON string
		notice      sql.NullString
		createdAt   string
		expiresAt   sql.NullString
	)

	err := row.Scan(
		&ban.ID,
		&playerID,
		&ban.PlayerName,
		&operator,
		&category,
		&reasonsJSON,
		&ban.RemainingSeconds,
		&notice,
		&createdAt,
		&expiresAt,
		&ban.Active,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return fillBan(&ban, playerID, operator, category, reasonsJSON, notice, createdAt, expiresAt)
}

// scanBans scans multiple bans from rows.
func (r *BanRepository) scanBans(rows *sql.Rows) ([]*domain.Ban, error) {
	var bans []*domain.Ban

	for rows.Next() {
		var (
			ban         domain.Ban
			playerID    string
			operator    sql.NullString
			category    string
			reasonsJSON string
			notice      sql.NullString
			createdAt   string
			expiresAt   sql.NullString
		)

		err := rows.Scan(
			&ban.ID,
			&playerID,
			&ban.PlayerName,
			&operator,
			&category,
			&reasonsJSON,
			&ban.RemainingSeconds,
			&notice,
			&createdAt,
			&expiresAt,
			&ban.Active,
		)
		if err != nil {
			return nil, err
		}

		b, err := fillBan(&ban, playerID, operator, category, reasonsJSON, notice, createdAt, expiresAt)
		if err != nil {
			return nil, err
		}
		bans = append(bans, b)
	}

	return bans, rows.Err()
}

// fillBan decodes the text-encoded columns into the domain value. A column
// that does not decode is a corrupt row and surfaces as an error rather
// than a partially-filled ban.
func fillBan(ban *domain.Ban, playerID string, operator sql.NullString, category, reasonsJSON string, notice sql.NullString, createdAt string, expiresAt sql.NullString) (*domain.Ban, error) {
	id, err := uuid.Parse(playerID)
	if err != nil {
		return nil, fmt.Errorf("ban %d: parse player_id: %w", ban.ID, err)
	}
	ban.PlayerID = id
	ban.Category = domain.BanCategory(category)

	if operator.Valid {
		ban.Operator = operator.String
	}
	if notice.Valid {
		ban.Notice = notice.String
	}

	if err := json.Unmarshal([]byte(reasonsJSON), &ban.Reasons); err != nil {
		return nil, fmt.Errorf("ban %d: decode reasons: %w", ban.ID, err)
	}

	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("ban %d: parse created_at: %w", ban.ID, err)
	}
	ban.CreatedAt = t
	if expiresAt.Valid {
		t, err := time.Parse(time.RFC3339, expiresAt.String)
		if err != nil {
			return nil, fmt.Errorf("ban %d: parse expires_at: %w", ban.ID, err)
		}
		ban.ExpiresAt = &t
	}

	return ban, nil
}

// isUniqueViolation checks if the error is a uniqueness constraint violation.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint")
}
