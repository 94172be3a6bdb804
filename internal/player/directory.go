// Package player tracks the identities the ban system operates on:
// stable UUIDs, the display names last seen for them, penalty point
// totals, and the IP addresses they have connected from.
package player

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"sentinel/internal/domain"
	"sentinel/internal/storage"
)

// Directory resolves and maintains player records.
type Directory struct {
	repo storage.PlayerRepository
	now  func() time.Time
}

// NewDirectory wraps a player repository.
func NewDirectory(repo storage.PlayerRepository) *Directory {
	return &Directory{repo: repo, now: time.Now}
}

// RegisterOrUpdate records a player sighting: it creates the record on
// first contact, refreshes the display name on later ones, and logs the
// source IP when one is given. This is the login-time hook.
func (d *Directory) RegisterOrUpdate(ctx context.Context, id uuid.UUID, name, ip string) (*domain.Player, error) {
	if id == uuid.Nil {
		return nil, domain.ErrInvalidPlayerID
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrInvalidPlayerName
	}

	p := &domain.Player{
		ID:        id,
		Name:      name,
		UpdatedAt: d.now().UTC(),
	}
	if err := d.repo.Upsert(ctx, p); err != nil {
		return nil, fmt.Errorf("upsert player %s: %w", id, err)
	}
	if ip != "" {
		if err := d.repo.RecordIP(ctx, id, ip); err != nil {
			return nil, fmt.Errorf("record ip for %s: %w", id, err)
		}
	}
	return d.LoadByID(ctx, id)
}

// Resolve looks a player up by UUID string or, failing that, by display
// name. Name lookups return the most recently seen holder of the name.
func (d *Directory) Resolve(ctx context.Context, nameOrID string) (*domain.Player, error) {
	nameOrID = strings.TrimSpace(nameOrID)
	if nameOrID == "" {
		return nil, domain.ErrInvalidPlayerName
	}
	if id, err := uuid.Parse(nameOrID); err == nil {
		return d.LoadByID(ctx, id)
	}
	return d.LoadByName(ctx, nameOrID)
}

// LoadByID retrieves a player record, or domain.ErrPlayerNotFound.
func (d *Directory) LoadByID(ctx context.Context, id uuid.UUID) (*domain.Player, error) {
	p, err := d.repo.Get(ctx, id)
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, domain.ErrPlayerNotFound
		}
		return nil, fmt.Errorf("load player %s: %w", id, err)
	}
	return p, nil
}

// LoadByName retrieves the most recently seen player with the given
// display name, or domain.ErrPlayerNotFound.
func (d *Directory) LoadByName(ctx context.Context, name string) (*domain.Player, error) {
	p, err := d.repo.GetByName(ctx, name)
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, domain.ErrPlayerNotFound
		}
		return nil, fmt.Errorf("load player %q: %w", name, err)
	}
	return p, nil
}

// AddPoints adjusts a player's penalty point total and returns the new
// value.
func (d *Directory) AddPoints(ctx context.Context, id uuid.UUID, delta int) (int, error) {
	points, err := d.repo.AddPoints(ctx, id, delta)
	if err != nil {
		if storage.IsNotFound(err) {
			return 0, domain.ErrPlayerNotFound
		}
		return 0, fmt.Errorf("add points for %s: %w", id, err)
	}
	return points, nil
}

// SetPoints overwrites a player's penalty point total.
func (d *Directory) SetPoints(ctx context.Context, id uuid.UUID, points int) error {
	if err := d.repo.SetPoints(ctx, id, points); err != nil {
		if storage.IsNotFound(err) {
			return domain.ErrPlayerNotFound
		}
		return fmt.Errorf("set points for %s: %w", id, err)
	}
	return nil
}
