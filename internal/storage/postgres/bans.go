package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"sentinel/internal/domain"
	"sentinel/internal/storage"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// BanRepository implements storage.BanRepository for PostgreSQL.
type BanRepository struct {
	store *Store
}

const banColumns = "id, player_id, player_name, operator, category, reasons, remaining_seconds, notice, created_at, expires_at, active"

// Create persists a new ban. INSERT ... RETURNING keeps the id retrieval in
// the same statement as the insert; a second active ban for the same player
// trips the partial unique index and surfaces as storage.ErrConflict.
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

	query := `
		INSERT INTO bans (
			player_id, player_name, operator, category, reasons,
			remaining_seconds, notice, created_at, expires_at, active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, true)
		RETURNING id
	`

	err = r.store.pool.QueryRow(ctx, query,
		ban.PlayerID,
		ban.PlayerName,
		operator,
		string(ban.Category),
		reasonsJSON,
		ban.RemainingSeconds,
		notice,
		createdAt,
		ban.ExpiresAt,
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
	query := "SELECT " + banColumns + " FROM bans WHERE id = $1"
	return r.scanBan(r.store.pool.QueryRow(ctx, query, id))
}

// GetActive retrieves the active ban for a player. The highest-id row wins
// if storage ever holds more than one, which the unique index prevents.
func (r *BanRepository) GetActive(ctx context.Context, playerID uuid.UUID) (*domain.Ban, error) {
	query := "SELECT " + banColumns + ` FROM bans
		WHERE player_id = $1 AND active
		ORDER BY id DESC
		LIMIT 1`
	return r.scanBan(r.store.pool.QueryRow(ctx, query, playerID))
}

// List retrieves bans matching the filter, newest first.
func (r *BanRepository) List(ctx context.Context, filter storage.BanFilter) ([]*domain.Ban, error) {
	query := "SELECT " + banColumns + " FROM bans WHERE 1=1"
	args := []interface{}{}
	argNum := 1

	if filter.ActiveOnly {
		query += " AND active"
	}
	if filter.PlayerID != nil {
		query += " AND player_id = $" + strconv.Itoa(argNum)
		args = append(args, *filter.PlayerID)
		argNum++
	}

	query += " ORDER BY created_at DESC, id DESC"

	if filter.Limit > 0 {
		query += " LIMIT $" + strconv.Itoa(argNum)
		args = append(args, filter.Limit)
		argNum++
	}
	if filter.Offset > 0 {
		query += " OFFSET $" + strconv.Itoa(argNum)
		args = append(args, filter.Offset)
	}

	rows, err := r.store.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanBans(rows)
}

// Deactivate flips active to false on exactly one currently-active row.
func (r *BanRepository) Deactivate(ctx context.Context, id int64) (bool, error) {
	result, err := r.store.pool.Exec(ctx,
		"UPDATE bans SET active = false WHERE id = $1 AND active",
		id,
	)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

// DeactivateAll flips active to false on every active row for the player.
func (r *BanRepository) DeactivateAll(ctx context.Context, playerID uuid.UUID) (int64, error) {
	result, err := r.store.pool.Exec(ctx,
		"UPDATE bans SET active = false WHERE player_id = $1 AND active",
		playerID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

// SetRemaining updates duration snapshot, expiry and active flag in one
// statement. An unknown id changes nothing and is not an error.
func (r *BanRepository) SetRemaining(ctx context.Context, id int64, remainingSeconds int64, expiresAt time.Time, active bool) (bool, error) {
	result, err := r.store.pool.Exec(ctx,
		"UPDATE bans SET remaining_seconds = $1, expires_at = $2, active = $3 WHERE id = $4",
		remainingSeconds, expiresAt.UTC(), active, id,
	)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

// SetNotice updates the operator note of a row. An unknown id changes
// nothing and is not an error.
func (r *BanRepository) SetNotice(ctx context.Context, id int64, notice string) (bool, error) {
	result, err := r.store.pool.Exec(ctx,
		"UPDATE bans SET notice = $1 WHERE id = $2",
		notice, id,
	)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

// DeactivateExpired flips active to false on every overdue row in one bulk
// statement.
func (r *BanRepository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.store.pool.Exec(ctx,
		"UPDATE bans SET active = false WHERE active AND expires_at IS NOT NULL AND expires_at <= $1",
		now.UTC(),
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

// scanBan scans a single ban from a row.
func (r *BanRepository) scanBan(row pgx.Row) (*domain.Ban, error) {
	var (
		ban         domain.Ban
		operator    *string
		category    string
		reasonsJSON []byte
		notice      *string
		expiresAt   *time.Time
	)

	err := row.Scan(
		&ban.ID,
		&ban.PlayerID,
		&ban.PlayerName,
		&operator,
		&category,
		&reasonsJSON,
		&ban.RemainingSeconds,
		&notice,
		&ban.CreatedAt,
		&expiresAt,
		&ban.Active,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := fillBan(&ban, operator, category, reasonsJSON, notice, expiresAt); err != nil {
		return nil, err
	}
	return &ban, nil
}

// scanBans scans multiple bans from rows.
func (r *BanRepository) scanBans(rows pgx.Rows) ([]*domain.Ban, error) {
	var bans []*domain.Ban

	for rows.Next() {
		var (
			ban         domain.Ban
			operator    *string
			category    string
			reasonsJSON []byte
			notice      *string
			expiresAt   *time.Time
		)

		err := rows.Scan(
			&ban.ID,
			&ban.PlayerID,
			&ban.PlayerName,
			&operator,
			&category,
			&reasonsJSON,
			&ban.RemainingSeconds,
			&notice,
			&ban.CreatedAt,
			&expiresAt,
			&ban.Active,
		)
		if err != nil {
			return nil, err
		}

		if err := fillBan(&ban, operator, category, reasonsJSON, notice, expiresAt); err != nil {
			return nil, err
		}
		bans = append(bans, &ban)
	}

	return bans, rows.Err()
}

// fillBan decodes the remaining columns into the domain value. Corrupt
// reasons JSON surfaces as an error rather than a ban with no reasons.
func fillBan(ban *domain.Ban, operator *string, category string, reasonsJSON []byte, notice *string, expiresAt *time.Time) error {
	ban.Category = domain.BanCategory(category)
	if operator != nil {
		ban.Operator = *operator
	}
	if notice != nil {
		ban.Notice = *notice
	}
	if len(reasonsJSON) > 0 {
		if err := json.Unmarshal(reasonsJSON, &ban.Reasons); err != nil {
			return fmt.Errorf("ban %d: decode reasons: %w", ban.ID, err)
		}
	}
	ban.ExpiresAt = expiresAt
	return nil
}

// isUniqueViolation checks for the PostgreSQL unique violation error code.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
