// Package reason maintains the catalog of named penalty reasons that
// drive automatic duration resolution. Reason names are case-insensitive:
// the catalog normalizes them to lower case before any storage access so
// "Griefing" and "griefing" refer to the same entry.
package reason

import (
	"context"
	"fmt"

	"sentinel/internal/domain"
	"sentinel/internal/storage"
)

// Catalog provides validated access to the reason definitions backing a
// single category of penalties.
type Catalog struct {
	repo storage.ReasonRepository
}

// NewCatalog wraps a reason repository.
func NewCatalog(repo storage.ReasonRepository) *Catalog {
	return &Catalog{repo: repo}
}

// Save creates or replaces a reason definition. The name is normalized to
// lower case; saving an existing name overwrites its duration.
func (c *Catalog) Save(ctx context.Context, name string, category domain.ReasonCategory, durationSeconds int64) (*domain.Reason, error) {
	r, err := domain.NewReason(name, category, durationSeconds)
	if err != nil {
		return nil, err
	}
	if err := c.repo.Upsert(ctx, r); err != nil {
		return nil, fmt.Errorf("save reason %q: %w", r.Name, err)
	}
	return r, nil
}

// Load returns the reason with the given name, or domain.ErrReasonNotFound.
func (c *Catalog) Load(ctx context.Context, name string, category domain.ReasonCategory) (*domain.Reason, error) {
	n := domain.NormalizeReasonName(name)
	if n == "" {
		return nil, domain.ErrInvalidReasonName
	}
	r, err := c.repo.Get(ctx, n, category)
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, domain.ErrReasonNotFound
		}
		return nil, fmt.Errorf("load reason %q: %w", n, err)
	}
	return r, nil
}

// Exists reports whether a reason with the given name is defined.
func (c *Catalog) Exists(ctx context.Context, name string, category domain.ReasonCategory) (bool, error) {
	n := domain.NormalizeReasonName(name)
	if n == "" {
		return false, domain.ErrInvalidReasonName
	}
	ok, err := c.repo.Exists(ctx, n, category)
	if err != nil {
		return false, fmt.Errorf("check reason %q: %w", n, err)
	}
	return ok, nil
}

// Delete removes a reason definition. It reports whether an entry was
// actually removed; deleting an unknown name is not an error.
func (c *Catalog) Delete(ctx context.Context, name string, category domain.ReasonCategory) (bool, error) {
	n := domain.NormalizeReasonName(name)
	if n == "" {
		return false, domain.ErrInvalidReasonName
	}
	removed, err := c.repo.Delete(ctx, n, category)
	if err != nil {
		return false, fmt.Errorf("delete reason %q: %w", n, err)
	}
	return removed, nil
}

// LoadAll returns every reason in the category, sorted by name.
func (c *Catalog) LoadAll(ctx context.Context, category domain.ReasonCategory) ([]*domain.Reason, error) {
	reasons, err := c.repo.List(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("list reasons: %w", err)
	}
	return reasons, nil
}
