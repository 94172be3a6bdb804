package sqlite

import (
	"context"
	"errors"
	"testing"

	"sentinel/internal/domain"
	"sentinel/internal/storage"

	"github.com/google/uuid"
)

func TestPlayerRepository_UpsertAndGet(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	repo := store.Players()

	id := uuid.New()
	player := &domain.Player{ID: id, Name: "Alice"}
	if err := repo.Upsert(ctx, player); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	got, err := repo.Get(ctx, id)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Name != "Alice" {
		t.Errorf("expected name Alice, got %q", got.Name)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Error("expected timestamps set")
	}

	// Name change keeps the id stable
	player.Name = "Alice2"
	if err := repo.Upsert(ctx, player); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}
	got, err = repo.GetByName(ctx, "Alice2")
	if err != nil {
		t.Fatalf("get by name failed: %v", err)
	}
	if got.ID != id {
		t.Errorf("expected stable id %s, got %s", id, got.ID)
	}

	if _, err := repo.Get(ctx, uuid.New()); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := repo.GetByName(ctx, "Nobody"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPlayerRepository_RecordIP(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	repo := store.Players()

	id := uuid.New()
	if err := repo.Upsert(ctx, &domain.Player{ID: id, Name: "Bob"}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	if err := repo.RecordIP(ctx, id, "198.51.100.7"); err != nil {
		t.Fatalf("record ip failed: %v", err)
	}
	// Recording the same IP again only bumps last_seen
	if err := repo.RecordIP(ctx, id, "198.51.100.7"); err != nil {
		t.Fatalf("repeat record ip failed: %v", err)
	}
	if err := repo.RecordIP(ctx, id, "203.0.113.9"); err != nil {
		t.Fatalf("record second ip failed: %v", err)
	}

	got, err := repo.Get(ctx, id)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(got.IPs) != 2 {
		t.Errorf("expected 2 IPs, got %v", got.IPs)
	}
}

func TestPlayerRepository_Points(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	repo := store.Players()

	id := uuid.New()
	if err := repo.Upsert(ctx, &domain.Player{ID: id, Name: "Carol"}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	if err := repo.SetPoints(ctx, id, 5); err != nil {
		t.Fatalf("set points failed: %v", err)
	}
	points, err := repo.AddPoints(ctx, id, 3)
	if err != nil {
		t.Fatalf("add points failed: %v", err)
	}
	if points != 8 {
		t.Errorf("expected 8 points, got %d", points)
	}

	got, _ := repo.Get(ctx, id)
	if got.Points != 8 {
		t.Errorf("expected persisted points 8, got %d", got.Points)
	}

	if err := repo.SetPoints(ctx, uuid.New(), 1); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := repo.AddPoints(ctx, uuid.New(), 1); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
