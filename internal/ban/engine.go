// Package ban implements the revocation lifecycle: reason-driven duration
// resolution, the one-active-ban-per-player invariant, manual reversal and
// the periodic expiration sweep.
package ban

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"sentinel/internal/domain"
	"sentinel/internal/metrics"
	"sentinel/internal/player"
	"sentinel/internal/reason"
	"sentinel/internal/storage"
)

const defaultQueryTimeout = 5 * time.Second

// Engine orchestrates ban creation, reversal and expiry against a reason
// catalog and a backing store. It is safe for concurrent use; the
// uniqueness invariant is enforced by the store, not by locking here.
type Engine struct {
	bans         storage.BanRepository
	catalog      *reason.Catalog
	players      *player.Directory
	queryTimeout time.Duration

	// now is swappable in tests.
	now func() time.Time
}

// NewEngine builds an engine. players may be nil if the offline-lookup
// paths are not needed; queryTimeout of 0 selects a default.
func NewEngine(store storage.Store, catalog *reason.Catalog, players *player.Directory, queryTimeout time.Duration) *Engine {
	if queryTimeout <= 0 {
		queryTimeout = defaultQueryTimeout
	}
	return &Engine{
		bans:         store.Bans(),
		catalog:      catalog,
		players:      players,
		queryTimeout: queryTimeout,
		now:          time.Now,
	}
}

// opCtx bounds a single storage operation.
func (e *Engine) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, e.queryTimeout)
}

// ResolveDuration validates the cited reason names against the BAN catalog
// and computes the effective duration in seconds, 0 meaning permanent.
//
// Every name must exist (matched case-insensitively); unknown names are
// collected and reported together in one error. An empty list fails with
// ErrNoReasons. The result is max(duration) across the cited reasons,
// except that any permanent reason makes the whole result permanent:
// the most severe citation wins, durations never add up.
//
// The returned slice holds the names in canonical lower-case form.
func (e *Engine) ResolveDuration(ctx context.Context, reasonNames []string) (int64, []string, error) {
	if len(reasonNames) == 0 {
		return 0, nil, domain.ErrNoReasons
	}

	normalized := make([]string, 0, len(reasonNames))
	var unknown []string
	var maxSeconds int64
	permanent := false

	for _, name := range reasonNames {
		n := domain.NormalizeReasonName(name)
		if n == "" {
			return 0, nil, domain.ErrInvalidReasonName
		}
		r, err := e.catalog.Load(ctx, n, domain.ReasonCategoryBan)
		if errors.Is(err, domain.ErrReasonNotFound) {
			unknown = append(unknown, n)
			continue
		}
		if err != nil {
			return 0, nil, fmt.Errorf("resolve reason %q: %w", n, err)
		}
		normalized = append(normalized, n)
		if r.Permanent() {
			permanent = true
		}
		if r.DurationSeconds > maxSeconds {
			maxSeconds = r.DurationSeconds
		}
	}

	if len(unknown) > 0 {
		return 0, nil, &domain.UnknownReasonsError{Names: unknown}
	}
	if permanent {
		return 0, normalized, nil
	}
	return maxSeconds, normalized, nil
}

// CreateAuto creates a ban whose duration and category follow entirely
// from the cited reasons: permanent if any reason is permanent, otherwise
// temporary for max(duration) seconds.
func (e *Engine) CreateAuto(ctx context.Context, playerID uuid.UUID, playerName, operator string, reasonNames []string, notice string) (*domain.Ban, error) {
	seconds, normalized, err := e.ResolveDuration(ctx, reasonNames)
	if err != nil {
		return nil, err
	}

	category := domain.BanCategoryTemporary
	if seconds == 0 {
		category = domain.BanCategoryPermanent
	}
	return e.create(ctx, playerID, playerName, operator, category, normalized, seconds, notice)
}

// CreateManual creates a ban with an operator-chosen category and duration
// hint. A permanent reason citation forces category PERMANENT and ignores
// the hint; otherwise the effective duration is max(hint, reason-derived),
// so an operator can lengthen but never shorten what the reasons mandate.
func (e *Engine) CreateManual(ctx context.Context, playerID uuid.UUID, playerName, operator string, category domain.BanCategory, reasonNames []string, remainingSecondsHint int64, notice string) (*domain.Ban, error) {
	if !category.Valid() {
		return nil, domain.ErrInvalidBanCategory
	}

	seconds, normalized, err := e.ResolveDuration(ctx, reasonNames)
	if err != nil {
		return nil, err
	}

	switch {
	case seconds == 0:
		category = domain.BanCategoryPermanent
	case category == domain.BanCategoryPermanent:
		seconds = 0
	default:
		if remainingSecondsHint > seconds {
			seconds = remainingSecondsHint
		}
	}
	return e.create(ctx, playerID, playerName, operator, category, normalized, seconds, notice)
}

// create persists a validated ban, computing its creation and expiry
// timestamps from the same clock reading. A clashing active ban surfaces
// as domain.ErrAlreadyBanned.
func (e *Engine) create(ctx context.Context, playerID uuid.UUID, playerName, operator string, category domain.BanCategory, reasons []string, seconds int64, notice string) (*domain.Ban, error) {
	b, err := domain.NewBan(playerID, playerName, operator, category, reasons, seconds, notice)
	if err != nil {
		return nil, err
	}
	now := e.now().UTC()
	b.CreatedAt = now
	if seconds > 0 {
		expires := now.Add(time.Duration(seconds) * time.Second)
		b.ExpiresAt = &expires
	}

	opCtx, cancel := e.opCtx(ctx)
	defer cancel()

	if err := e.bans.Create(opCtx, b); err != nil {
		if storage.IsConflict(err) {
			return nil, domain.ErrAlreadyBanned
		}
		return nil, fmt.Errorf("create ban for %s: %w", playerID, err)
	}

	metrics.RecordBanCreated(category.String())
	return b, nil
}

// BanOfflineAuto resolves a player by name or UUID string through the
// directory and applies CreateAuto. The target does not have to be online;
// it only has to have contacted the service at least once.
func (e *Engine) BanOfflineAuto(ctx context.Context, nameOrID, operator string, reasonNames []string, notice string) (*domain.Ban, error) {
	p, err := e.resolvePlayer(ctx, nameOrID)
	if err != nil {
		return nil, err
	}
	return e.CreateAuto(ctx, p.ID, p.Name, operator, reasonNames, notice)
}

// BanOffline resolves a player by name or UUID string through the
// directory and applies CreateManual.
func (e *Engine) BanOffline(ctx context.Context, nameOrID, operator string, category domain.BanCategory, reasonNames []string, remainingSecondsHint int64, notice string) (*domain.Ban, error) {
	p, err := e.resolvePlayer(ctx, nameOrID)
	if err != nil {
		return nil, err
	}
	return e.CreateManual(ctx, p.ID, p.Name, operator, category, reasonNames, remainingSecondsHint, notice)
}

func (e *Engine) resolvePlayer(ctx context.Context, nameOrID string) (*domain.Player, error) {
	if e.players == nil {
		return nil, domain.ErrPlayerNotFound
	}
	opCtx, cancel := e.opCtx(ctx)
	defer cancel()
	return e.players.Resolve(opCtx, nameOrID)
}

// GetActive returns the player's active ban, or (nil, nil) when there is
// none. An expired-but-unswept ban is still returned here; use IsBlocked
// for the wall-clock view.
func (e *Engine) GetActive(ctx context.Context, playerID uuid.UUID) (*domain.Ban, error) {
	opCtx, cancel := e.opCtx(ctx)
	defer cancel()

	b, err := e.bans.GetActive(opCtx, playerID)
	if storage.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get active ban for %s: %w", playerID, err)
	}
	return b, nil
}

// IsBlocked reports whether the player is denied access right now. The
// active flag alone is not trusted: a ban past its expiry that the sweeper
// has not reached yet does not block.
func (e *Engine) IsBlocked(ctx context.Context, playerID uuid.UUID) (*domain.Ban, error) {
	b, err := e.GetActive(ctx, playerID)
	if err != nil || b == nil {
		return nil, err
	}
	if b.ExpiredAt(e.now()) {
		return nil, nil
	}
	return b, nil
}

// ListAll returns bans newest first, optionally restricted to active rows.
func (e *Engine) ListAll(ctx context.Context, activeOnly bool) ([]*domain.Ban, error) {
	opCtx, cancel := e.opCtx(ctx)
	defer cancel()

	bans, err := e.bans.List(opCtx, storage.BanFilter{ActiveOnly: activeOnly})
	if err != nil {
		return nil, fmt.Errorf("list bans: %w", err)
	}
	return bans, nil
}

// ListFor returns the player's full ban history, newest first, active and
// inactive alike.
func (e *Engine) ListFor(ctx context.Context, playerID uuid.UUID) ([]*domain.Ban, error) {
	opCtx, cancel := e.opCtx(ctx)
	defer cancel()

	bans, err := e.bans.List(opCtx, storage.BanFilter{PlayerID: &playerID})
	if err != nil {
		return nil, fmt.Errorf("list bans for %s: %w", playerID, err)
	}
	return bans, nil
}

// Unban deactivates one ban and reports whether anything changed.
// Reversing an already-inactive or unknown id is a no-op, not an error.
func (e *Engine) Unban(ctx context.Context, id int64) (bool, error) {
	opCtx, cancel := e.opCtx(ctx)
	defer cancel()

	changed, err := e.bans.Deactivate(opCtx, id)
	if err != nil {
		return false, fmt.Errorf("unban %d: %w", id, err)
	}
	if changed {
		metrics.RecordUnban(1)
	}
	return changed, nil
}

// UnbanAll deactivates every active ban the player holds and returns how
// many rows changed.
func (e *Engine) UnbanAll(ctx context.Context, playerID uuid.UUID) (int64, error) {
	opCtx, cancel := e.opCtx(ctx)
	defer cancel()

	changed, err := e.bans.DeactivateAll(opCtx, playerID)
	if err != nil {
		return 0, fmt.Errorf("unban all for %s: %w", playerID, err)
	}
	if changed > 0 {
		metrics.RecordUnban(changed)
	}
	return changed, nil
}

// SetRemaining rewrites a ban's remaining duration, recomputing its expiry
// from the current time. Negative values clamp to 0, and 0 here means
// expire immediately: the ban is deactivated on the spot. This is the
// opposite of 0 at creation time, which means permanent.
//
// Like Unban, adjusting an unknown id is a no-op, not an error; the
// returned bool reports whether a row changed.
func (e *Engine) SetRemaining(ctx context.Context, id int64, remainingSeconds int64) (bool, error) {
	if remainingSeconds < 0 {
		remainingSeconds = 0
	}

	now := e.now().UTC()
	expiresAt := now.Add(time.Duration(remainingSeconds) * time.Second)
	active := remainingSeconds > 0

	opCtx, cancel := e.opCtx(ctx)
	defer cancel()

	changed, err := e.bans.SetRemaining(opCtx, id, remainingSeconds, expiresAt, active)
	if err != nil {
		return false, fmt.Errorf("set remaining on %d: %w", id, err)
	}
	return changed, nil
}

// SetNotice replaces the operator note on a ban. An unknown id is a
// no-op, not an error; the returned bool reports whether a row changed.
func (e *Engine) SetNotice(ctx context.Context, id int64, notice string) (bool, error) {
	opCtx, cancel := e.opCtx(ctx)
	defer cancel()

	changed, err := e.bans.SetNotice(opCtx, id, notice)
	if err != nil {
		return false, fmt.Errorf("set notice on %d: %w", id, err)
	}
	return changed, nil
}

// SweepExpired deactivates every active ban whose expiry has passed and
// returns how many rows changed. One bulk statement; safe to run
// concurrently with creates and with itself.
func (e *Engine) SweepExpired(ctx context.Context) (int64, error) {
	opCtx, cancel := e.opCtx(ctx)
	defer cancel()

	reaped, err := e.bans.DeactivateExpired(opCtx, e.now().UTC())
	metrics.RecordSweep(reaped, err)
	if err != nil {
		return 0, fmt.Errorf("sweep expired bans: %w", err)
	}
	return reaped, nil
}
