package ban

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"sentinel/internal/domain"
	"sentinel/internal/player"
	"sentinel/internal/reason"
	"sentinel/internal/storage"
	"sentinel/internal/storage/sqlite"
)

func setupEngine(t *testing.T) (*Engine, *player.Directory) {
	t.Helper()

	tmpDir := t.TempDir()
	cfg := storage.SQLiteConfig{
		Path:         filepath.Join(tmpDir, "test.db"),
		MaxOpenConns: 5,
	}

	store, err := sqlite.New(cfg, tmpDir)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	catalog := reason.NewCatalog(store.Reasons())
	dir := player.NewDirectory(store.Players())
	return NewEngine(store, catalog, dir, 5*time.Second), dir
}

func defineReason(t *testing.T, e *Engine, name string, seconds int64) {
	t.Helper()
	if _, err := e.catalog.Save(context.Background(), name, domain.ReasonCategoryBan, seconds); err != nil {
		t.Fatalf("define reason %q: %v", name, err)
	}
}

func TestResolveDuration(t *testing.T) {
	e, _ := setupEngine(t)
	ctx := context.Background()

	defineReason(t, e, "spam", 600)
	defineReason(t, e, "griefing", 3600)
	defineReason(t, e, "cheating", 0)

	tests := []struct {
		name    string
		reasons []string
		want    int64
		wantErr error
	}{
		{"single reason", []string{"spam"}, 600, nil},
		{"max wins", []string{"spam", "griefing"}, 3600, nil},
		{"permanence dominates", []string{"griefing", "cheating"}, 0, nil},
		{"case-insensitive", []string{"SPAM"}, 600, nil},
		{"empty list", nil, 0, domain.ErrNoReasons},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, err := e.ResolveDuration(ctx, tt.reasons)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("duration = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestResolveDuration_UnknownBatch(t *testing.T) {
	e, _ := setupEngine(t)
	defineReason(t, e, "known", 600)

	_, _, err := e.ResolveDuration(context.Background(), []string{"known", "unknown1", "unknown2"})

	var unknownErr *domain.UnknownReasonsError
	if !errors.As(err, &unknownErr) {
		t.Fatalf("err = %v, want UnknownReasonsError", err)
	}
	if len(unknownErr.Names) != 2 {
		t.Fatalf("names = %v, want two entries", unknownErr.Names)
	}
	msg := err.Error()
	if !strings.Contains(msg, "unknown1") || !strings.Contains(msg, "unknown2") {
		t.Errorf("message %q should name every unknown reason", msg)
	}
}

func TestCreateAuto_Temporary(t *testing.T) {
	e, _ := setupEngine(t)
	ctx := context.Background()
	defineReason(t, e, "spam", 3600)

	b, err := e.CreateAuto(ctx, uuid.New(), "Alice", "Mod1", []string{"spam"}, "first offense")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if b.ID == 0 {
		t.Error("expected an assigned id")
	}
	if b.Category != domain.BanCategoryTemporary {
		t.Errorf("category = %s, want TEMPORARY", b.Category)
	}
	if b.RemainingSeconds != 3600 {
		t.Errorf("remaining = %d, want 3600", b.RemainingSeconds)
	}
	if b.ExpiresAt == nil {
		t.Fatal("expected an expiry")
	}
	if !b.Active {
		t.Error("expected active")
	}
}

func TestCreateManual_LongerWins(t *testing.T) {
	e, _ := setupEngine(t)
	ctx := context.Background()
	defineReason(t, e, "spam", 300)

	// A 100s hint cannot undercut the 300s the reason mandates.
	b, err := e.CreateManual(ctx, uuid.New(), "Alice", "Mod1", domain.BanCategoryTemporary, []string{"spam"}, 100, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if b.RemainingSeconds != 300 {
		t.Errorf("remaining = %d, want 300", b.RemainingSeconds)
	}

	// A longer hint is honored.
	b, err = e.CreateManual(ctx, uuid.New(), "Bob", "Mod1", domain.BanCategoryTemporary, []string{"spam"}, 900, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if b.RemainingSeconds != 900 {
		t.Errorf("remaining = %d, want 900", b.RemainingSeconds)
	}
}

func TestCreateManual_PermanentReasonOverridesHint(t *testing.T) {
	e, _ := setupEngine(t)
	ctx := context.Background()
	defineReason(t, e, "cheating", 0)

	b, err := e.CreateManual(ctx, uuid.New(), "Alice", "Mod1", domain.BanCategoryTemporary, []string{"cheating"}, 100, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if b.Category != domain.BanCategoryPermanent {
		t.Errorf("category = %s, want PERMANENT", b.Category)
	}
	if b.RemainingSeconds != 0 || b.ExpiresAt != nil {
		t.Errorf("remaining = %d, expiresAt = %v, want permanent", b.RemainingSeconds, b.ExpiresAt)
	}
}

func TestCreateAuto_ConcurrentUniqueness(t *testing.T) {
	e, _ := setupEngine(t)
	ctx := context.Background()
	defineReason(t, e, "spam", 3600)

	playerID := uuid.New()
	const attempts = 8

	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.CreateAuto(ctx, playerID, "Alice", "Mod1", []string{"spam"}, "")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var ok, conflicts int
	for err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrAlreadyBanned):
			conflicts++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if ok != 1 {
		t.Errorf("successes = %d, want exactly 1", ok)
	}
	if conflicts != attempts-1 {
		t.Errorf("conflicts = %d, want %d", conflicts, attempts-1)
	}
}

func TestRoundTrip(t *testing.T) {
	e, _ := setupEngine(t)
	ctx := context.Background()
	defineReason(t, e, "spam", 3600)
	defineReason(t, e, "griefing", 600)

	playerID := uuid.New()
	created, err := e.CreateAuto(ctx, playerID, "Alice", "Mod1", []string{"griefing", "spam"}, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := e.GetActive(ctx, playerID)
	if err != nil {
		t.Fatalf("get active: %v", err)
	}
	if got == nil {
		t.Fatal("expected an active ban")
	}
	if got.ID != created.ID || got.Category != created.Category {
		t.Errorf("got id=%d category=%s, want id=%d category=%s", got.ID, got.Category, created.ID, created.Category)
	}

	wantReasons := append([]string(nil), created.Reasons...)
	gotReasons := append([]string(nil), got.Reasons...)
	sort.Strings(wantReasons)
	sort.Strings(gotReasons)
	if len(gotReasons) != len(wantReasons) {
		t.Fatalf("reasons = %v, want %v", gotReasons, wantReasons)
	}
	for i := range wantReasons {
		if gotReasons[i] != wantReasons[i] {
			t.Errorf("reasons = %v, want %v", gotReasons, wantReasons)
			break
		}
	}

	// Remaining recomputed from expiry never exceeds the snapshot and
	// shrinks as the clock advances.
	now := time.Now()
	if r := got.Remaining(now); r > created.RemainingSeconds {
		t.Errorf("remaining %d exceeds snapshot %d", r, created.RemainingSeconds)
	}
	later := got.Remaining(now.Add(10 * time.Second))
	if later >= got.Remaining(now) {
		t.Errorf("remaining should decrease with time: %d then %d", got.Remaining(now), later)
	}
}

func TestScenario_PermanentBanLifecycle(t *testing.T) {
	e, _ := setupEngine(t)
	ctx := context.Background()
	defineReason(t, e, "spam", 3600)
	defineReason(t, e, "cheating", 0)

	playerID := uuid.New()
	b, err := e.CreateAuto(ctx, playerID, "Alice", "Mod1", []string{"spam", "cheating"}, "second offense")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if b.Category != domain.BanCategoryPermanent {
		t.Errorf("category = %s, want PERMANENT", b.Category)
	}
	if b.RemainingSeconds != 0 || b.ExpiresAt != nil || !b.Active {
		t.Errorf("got remaining=%d expiresAt=%v active=%v, want 0/nil/true", b.RemainingSeconds, b.ExpiresAt, b.Active)
	}

	if _, err := e.CreateAuto(ctx, playerID, "Alice", "Mod1", []string{"spam"}, ""); !errors.Is(err, domain.ErrAlreadyBanned) {
		t.Fatalf("second create: got %v, want ErrAlreadyBanned", err)
	}

	changed, err := e.Unban(ctx, b.ID)
	if err != nil {
		t.Fatalf("unban: %v", err)
	}
	if !changed {
		t.Error("expected unban to change the row")
	}

	if _, err := e.CreateAuto(ctx, playerID, "Alice", "Mod1", []string{"spam"}, ""); err != nil {
		t.Fatalf("third create after unban: %v", err)
	}
}

func TestUnban_Idempotent(t *testing.T) {
	e, _ := setupEngine(t)
	ctx := context.Background()
	defineReason(t, e, "spam", 3600)

	b, err := e.CreateAuto(ctx, uuid.New(), "Alice", "Mod1", []string{"spam"}, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	for i, want := range []bool{true, false} {
		changed, err := e.Unban(ctx, b.ID)
		if err != nil {
			t.Fatalf("unban #%d: %v", i+1, err)
		}
		if changed != want {
			t.Errorf("unban #%d changed = %v, want %v", i+1, changed, want)
		}
	}

	// An id that never existed is no different.
	changed, err := e.Unban(ctx, 999999)
	if err != nil {
		t.Fatalf("unban unknown id: %v", err)
	}
	if changed {
		t.Error("unban of unknown id should report no change")
	}
}

func TestUnbanAll(t *testing.T) {
	e, _ := setupEngine(t)
	ctx := context.Background()
	defineReason(t, e, "spam", 3600)

	playerID := uuid.New()
	if _, err := e.CreateAuto(ctx, playerID, "Alice", "Mod1", []string{"spam"}, ""); err != nil {
		t.Fatalf("create: %v", err)
	}

	changed, err := e.UnbanAll(ctx, playerID)
	if err != nil {
		t.Fatalf("unban all: %v", err)
	}
	if changed != 1 {
		t.Errorf("changed = %d, want 1", changed)
	}

	changed, err = e.UnbanAll(ctx, playerID)
	if err != nil {
		t.Fatalf("second unban all: %v", err)
	}
	if changed != 0 {
		t.Errorf("changed = %d, want 0", changed)
	}
}

func TestSweepExpired_Idempotent(t *testing.T) {
	e, _ := setupEngine(t)
	ctx := context.Background()
	defineReason(t, e, "spam", 60)
	defineReason(t, e, "cheating", 0)

	overdue := uuid.New()
	if _, err := e.CreateAuto(ctx, overdue, "Alice", "Mod1", []string{"spam"}, ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	permanent := uuid.New()
	if _, err := e.CreateAuto(ctx, permanent, "Bob", "Mod1", []string{"cheating"}, ""); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Move the engine clock past the timed ban's expiry.
	e.now = func() time.Time { return time.Now().Add(2 * time.Minute) }

	reaped, err := e.SweepExpired(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if reaped != 1 {
		t.Errorf("reaped = %d, want 1", reaped)
	}

	reaped, err = e.SweepExpired(ctx)
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if reaped != 0 {
		t.Errorf("second sweep reaped = %d, want 0", reaped)
	}

	// The permanent ban is untouched, the timed one is gone.
	if b, err := e.GetActive(ctx, permanent); err != nil || b == nil {
		t.Errorf("permanent ban should survive the sweep (ban=%v err=%v)", b, err)
	}
	if b, err := e.GetActive(ctx, overdue); err != nil || b != nil {
		t.Errorf("timed ban should be deactivated (ban=%v err=%v)", b, err)
	}
}

func TestIsBlocked_SweepPendingExpiry(t *testing.T) {
	e, _ := setupEngine(t)
	ctx := context.Background()
	defineReason(t, e, "spam", 60)

	playerID := uuid.New()
	if _, err := e.CreateAuto(ctx, playerID, "Alice", "Mod1", []string{"spam"}, ""); err != nil {
		t.Fatalf("create: %v", err)
	}

	b, err := e.IsBlocked(ctx, playerID)
	if err != nil {
		t.Fatalf("is blocked: %v", err)
	}
	if b == nil {
		t.Fatal("expected the player to be blocked")
	}

	// Past expiry but before any sweep: the row is still active, yet the
	// player must not count as blocked.
	e.now = func() time.Time { return time.Now().Add(2 * time.Minute) }

	active, err := e.GetActive(ctx, playerID)
	if err != nil {
		t.Fatalf("get active: %v", err)
	}
	if active == nil {
		t.Fatal("the unswept row should still be active")
	}

	b, err = e.IsBlocked(ctx, playerID)
	if err != nil {
		t.Fatalf("is blocked: %v", err)
	}
	if b != nil {
		t.Error("expired ban must not block, even before the sweep")
	}
}

func TestSetRemaining(t *testing.T) {
	e, _ := setupEngine(t)
	ctx := context.Background()
	defineReason(t, e, "spam", 60)

	playerID := uuid.New()
	b, err := e.CreateAuto(ctx, playerID, "Alice", "Mod1", []string{"spam"}, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	changed, err := e.SetRemaining(ctx, b.ID, 7200)
	if err != nil {
		t.Fatalf("set remaining: %v", err)
	}
	if !changed {
		t.Error("expected the adjust to change the row")
	}
	got, err := e.GetActive(ctx, playerID)
	if err != nil {
		t.Fatalf("get active: %v", err)
	}
	if got == nil || got.RemainingSeconds != 7200 {
		t.Fatalf("got %+v, want remaining 7200", got)
	}

	// Zero means expire right now, not permanent.
	if _, err := e.SetRemaining(ctx, b.ID, 0); err != nil {
		t.Fatalf("set remaining to 0: %v", err)
	}
	got, err = e.GetActive(ctx, playerID)
	if err != nil {
		t.Fatalf("get active: %v", err)
	}
	if got != nil {
		t.Error("expected the ban to be deactivated immediately")
	}

	// Adjusting an id that never existed is a no-op success, same as Unban.
	changed, err = e.SetRemaining(ctx, 999999, 10)
	if err != nil {
		t.Fatalf("unknown id: %v", err)
	}
	if changed {
		t.Error("adjust of unknown id should report no change")
	}
}

func TestSetNotice(t *testing.T) {
	e, _ := setupEngine(t)
	ctx := context.Background()
	defineReason(t, e, "spam", 60)

	playerID := uuid.New()
	b, err := e.CreateAuto(ctx, playerID, "Alice", "Mod1", []string{"spam"}, "old")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	changed, err := e.SetNotice(ctx, b.ID, "updated note")
	if err != nil {
		t.Fatalf("set notice: %v", err)
	}
	if !changed {
		t.Error("expected the notice update to change the row")
	}
	got, err := e.GetActive(ctx, playerID)
	if err != nil {
		t.Fatalf("get active: %v", err)
	}
	if got.Notice != "updated note" {
		t.Errorf("notice = %q, want %q", got.Notice, "updated note")
	}

	changed, err = e.SetNotice(ctx, 999999, "x")
	if err != nil {
		t.Fatalf("unknown id: %v", err)
	}
	if changed {
		t.Error("notice update of unknown id should report no change")
	}
}

func TestAdjust_UnknownIDIsNoOp(t *testing.T) {
	e, _ := setupEngine(t)
	ctx := context.Background()

	// A store that never held the id: both adjust paths succeed without
	// changing anything.
	changed, err := e.SetRemaining(ctx, 424242, 10)
	if err != nil {
		t.Fatalf("set remaining: %v", err)
	}
	if changed {
		t.Error("set remaining on an empty store should change nothing")
	}

	changed, err = e.SetNotice(ctx, 424242, "note")
	if err != nil {
		t.Fatalf("set notice: %v", err)
	}
	if changed {
		t.Error("set notice on an empty store should change nothing")
	}
}

func TestCreate_TimestampsShareOneClock(t *testing.T) {
	e, _ := setupEngine(t)
	ctx := context.Background()
	defineReason(t, e, "spam", 600)

	base := time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return base }

	playerID := uuid.New()
	b, err := e.CreateAuto(ctx, playerID, "Alice", "Mod1", []string{"spam"}, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !b.CreatedAt.Equal(base) {
		t.Errorf("createdAt = %v, want %v", b.CreatedAt, base)
	}
	if b.ExpiresAt == nil || !b.ExpiresAt.Equal(base.Add(600*time.Second)) {
		t.Errorf("expiresAt = %v, want %v", b.ExpiresAt, base.Add(600*time.Second))
	}

	// The stored row carries the same timestamps, so expiry minus creation
	// is exactly the resolved duration.
	got, err := e.GetActive(ctx, playerID)
	if err != nil || got == nil {
		t.Fatalf("get active: ban=%v err=%v", got, err)
	}
	if !got.CreatedAt.Equal(base) {
		t.Errorf("stored createdAt = %v, want %v", got.CreatedAt, base)
	}
	if got.ExpiresAt == nil || got.ExpiresAt.Sub(got.CreatedAt) != 600*time.Second {
		t.Errorf("stored expiry %v not 600s after creation %v", got.ExpiresAt, got.CreatedAt)
	}
}

func TestBanOffline(t *testing.T) {
	e, dir := setupEngine(t)
	ctx := context.Background()
	defineReason(t, e, "spam", 3600)

	playerID := uuid.New()
	if _, err := dir.RegisterOrUpdate(ctx, playerID, "Alice", "10.0.0.1"); err != nil {
		t.Fatalf("register: %v", err)
	}

	b, err := e.BanOfflineAuto(ctx, "Alice", "Mod1", []string{"spam"}, "")
	if err != nil {
		t.Fatalf("ban offline: %v", err)
	}
	if b.PlayerID != playerID {
		t.Errorf("player id = %s, want %s", b.PlayerID, playerID)
	}

	if _, err := e.BanOfflineAuto(ctx, "Nobody", "Mod1", []string{"spam"}, ""); !errors.Is(err, domain.ErrPlayerNotFound) {
		t.Errorf("unknown player: got %v, want ErrPlayerNotFound", err)
	}
}

func TestListOperations(t *testing.T) {
	e, _ := setupEngine(t)
	ctx := context.Background()
	defineReason(t, e, "spam", 3600)

	p1, p2 := uuid.New(), uuid.New()
	b1, err := e.CreateAuto(ctx, p1, "Alice", "Mod1", []string{"spam"}, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := e.Unban(ctx, b1.ID); err != nil {
		t.Fatalf("unban: %v", err)
	}
	if _, err := e.CreateAuto(ctx, p1, "Alice", "Mod1", []string{"spam"}, ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := e.CreateAuto(ctx, p2, "Bob", "Mod1", []string{"spam"}, ""); err != nil {
		t.Fatalf("create: %v", err)
	}

	all, err := e.ListAll(ctx, false)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("all = %d rows, want 3", len(all))
	}

	active, err := e.ListAll(ctx, true)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 2 {
		t.Errorf("active = %d rows, want 2", len(active))
	}

	history, err := e.ListFor(ctx, p1)
	if err != nil {
		t.Fatalf("list for: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history = %d rows, want 2", len(history))
	}
	if history[0].ID < history[1].ID {
		t.Error("history should be newest first")
	}
}
