// Package domain contains the core value types for the sentinel ban system.
package domain

import (
	"strings"
	"time"
)

// ReasonCategory classifies what a catalog reason applies to.
type ReasonCategory string

const (
	ReasonCategoryBan    ReasonCategory = "BAN"
	ReasonCategoryMute   ReasonCategory = "MUTE"
	ReasonCategoryReport ReasonCategory = "REPORT"
)

// String returns the category name.
func (c ReasonCategory) String() string {
	return string(c)
}

// Valid reports whether the category is one of the known values.
func (c ReasonCategory) Valid() bool {
	switch c {
	case ReasonCategoryBan, ReasonCategoryMute, ReasonCategoryReport:
		return true
	}
	return false
}

// ParseReasonCategory parses a category from user input, case-insensitively.
func ParseReasonCategory(s string) (ReasonCategory, error) {
	c := ReasonCategory(strings.ToUpper(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", ErrInvalidReasonCategory
	}
	return c, nil
}

// Reason is a named, catalog-defined justification with a default duration.
// Names are stored lower-case; a DurationSeconds of 0 means permanent.
type Reason struct {
	ID              int64
	Name            string
	Category        ReasonCategory
	DurationSeconds int64
	CreatedAt       time.Time
}

// NewReason builds a validated Reason with the name normalized to its
// canonical lower-case form.
func NewReason(name string, category ReasonCategory, durationSeconds int64) (*Reason, error) {
	r := &Reason{
		Name:            NormalizeReasonName(name),
		Category:        category,
		DurationSeconds: durationSeconds,
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Validate checks the reason invariants.
func (r *Reason) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrInvalidReasonName
	}
	if !r.Category.Valid() {
		return ErrInvalidReasonCategory
	}
	if r.DurationSeconds < 0 {
		return ErrInvalidDuration
	}
	return nil
}

// Permanent reports whether a ban created solely from this reason would
// never expire.
func (r *Reason) Permanent() bool {
	return r.DurationSeconds == 0
}

// NormalizeReasonName returns the canonical form used for storage and
// lookups. Reason names are matched case-insensitively everywhere, so they
// are folded to lower case once at the boundary.
func NormalizeReasonName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
