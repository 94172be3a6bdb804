package sqlite

import (
	"context"
	"errors"
	"testing"

	"sentinel/internal/domain"
	"sentinel/internal/storage"
)

func TestReasonRepository_UpsertAndGet(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	repo := store.Reasons()

	reason := &domain.Reason{Name: "spam", Category: domain.ReasonCategoryBan, DurationSeconds: 3600}
	if err := repo.Upsert(ctx, reason); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	got, err := repo.Get(ctx, "spam", domain.ReasonCategoryBan)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.DurationSeconds != 3600 {
		t.Errorf("expected duration 3600, got %d", got.DurationSeconds)
	}

	// Upsert overwrites duration
	reason.DurationSeconds = 7200
	if err := repo.Upsert(ctx, reason); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}
	got, err = repo.Get(ctx, "spam", domain.ReasonCategoryBan)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.DurationSeconds != 7200 {
		t.Errorf("expected duration overwritten to 7200, got %d", got.DurationSeconds)
	}

	// Same name under another category is a distinct row
	mute := &domain.Reason{Name: "spam", Category: domain.ReasonCategoryMute, DurationSeconds: 600}
	if err := repo.Upsert(ctx, mute); err != nil {
		t.Fatalf("upsert mute failed: %v", err)
	}
	got, err = repo.Get(ctx, "spam", domain.ReasonCategoryMute)
	if err != nil {
		t.Fatalf("get mute failed: %v", err)
	}
	if got.DurationSeconds != 600 {
		t.Errorf("expected mute duration 600, got %d", got.DurationSeconds)
	}

	if _, err := repo.Get(ctx, "unknown", domain.ReasonCategoryBan); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestReasonRepository_ExistsAndDelete(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	repo := store.Reasons()

	reason := &domain.Reason{Name: "griefing", Category: domain.ReasonCategoryBan, DurationSeconds: 0}
	if err := repo.Upsert(ctx, reason); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	ok, err := repo.Exists(ctx, "griefing", domain.ReasonCategoryBan)
	if err != nil || !ok {
		t.Errorf("expected exists, got ok=%v err=%v", ok, err)
	}
	ok, err = repo.Exists(ctx, "griefing", domain.ReasonCategoryMute)
	if err != nil || ok {
		t.Errorf("expected not exists for other category, got ok=%v err=%v", ok, err)
	}

	removed, err := repo.Delete(ctx, "griefing", domain.ReasonCategoryBan)
	if err != nil || !removed {
		t.Errorf("expected delete to remove a row, got removed=%v err=%v", removed, err)
	}
	removed, err = repo.Delete(ctx, "griefing", domain.ReasonCategoryBan)
	if err != nil || removed {
		t.Errorf("expected second delete to be a no-op, got removed=%v err=%v", removed, err)
	}
}

func TestReasonRepository_List(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	repo := store.Reasons()

	seed := []*domain.Reason{
		{Name: "spam", Category: domain.ReasonCategoryBan, DurationSeconds: 3600},
		{Name: "cheating", Category: domain.ReasonCategoryBan, DurationSeconds: 0},
		{Name: "caps", Category: domain.ReasonCategoryMute, DurationSeconds: 300},
	}
	for _, r := range seed {
		if err := repo.Upsert(ctx, r); err != nil {
			t.Fatalf("upsert failed: %v", err)
		}
	}

	all, err := repo.List(ctx, "")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 reasons, got %d", len(all))
	}

	bans, err := repo.List(ctx, domain.ReasonCategoryBan)
	if err != nil {
		t.Fatalf("list ban failed: %v", err)
	}
	if len(bans) != 2 {
		t.Fatalf("expected 2 ban reasons, got %d", len(bans))
	}
	// Sorted by name ascending
	if bans[0].Name != "cheating" || bans[1].Name != "spam" {
		t.Errorf("expected sorted order [cheating spam], got [%s %s]", bans[0].Name, bans[1].Name)
	}
}
