package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// BanCategory classifies a ban record.
type BanCategory string

const (
	BanCategoryTemporary BanCategory = "TEMPORARY"
	BanCategoryPermanent BanCategory = "PERMANENT"

	// BanCategoryAddress is reserved for IP-level bans. No current flow
	// creates one, but stored rows with this category must round-trip.
	BanCategoryAddress BanCategory = "ADDRESS"
)

// String returns the category name.
func (c BanCategory) String() string {
	return string(c)
}

// Valid reports whether the category is one of the known values.
func (c BanCategory) Valid() bool {
	switch c {
	case BanCategoryTemporary, BanCategoryPermanent, BanCategoryAddress:
		return true
	}
	return false
}

// ParseBanCategory parses a category from user input, case-insensitively.
func ParseBanCategory(s string) (BanCategory, error) {
	c := BanCategory(strings.ToUpper(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", ErrInvalidBanCategory
	}
	return c, nil
}

// Ban is a revocation record denying a player access.
//
// RemainingSeconds is the duration snapshot taken at creation time; 0 means
// the ban never expires. ExpiresAt is derived from it and is nil for
// permanent bans. Active is only eventually consistent with the wall clock:
// an expired ban stays Active until the sweeper deactivates it, so readers
// that need "is this player blocked right now" must also check ExpiresAt
// (see Ban.ExpiredAt).
type Ban struct {
	ID               int64
	PlayerID         uuid.UUID
	PlayerName       string
	Operator         string
	Category         BanCategory
	Reasons          []string
	RemainingSeconds int64
	Notice           string
	CreatedAt        time.Time
	ExpiresAt        *time.Time
	Active           bool
}

// NewBan builds a validated, not-yet-persisted Ban. The caller stamps
// CreatedAt and ExpiresAt before persisting; the store assigns ID and
// Active starts true.
func NewBan(playerID uuid.UUID, playerName, operator string, category BanCategory, reasons []string, remainingSeconds int64, notice string) (*Ban, error) {
	if playerID == uuid.Nil {
		return nil, ErrInvalidPlayerID
	}
	if strings.TrimSpace(playerName) == "" {
		return nil, ErrInvalidPlayerName
	}
	if !category.Valid() {
		return nil, ErrInvalidBanCategory
	}
	if remainingSeconds < 0 {
		remainingSeconds = 0
	}
	return &Ban{
		PlayerID:         playerID,
		PlayerName:       playerName,
		Operator:         operator,
		Category:         category,
		Reasons:          append([]string(nil), reasons...),
		RemainingSeconds: remainingSeconds,
		Notice:           notice,
	}, nil
}

// Permanent reports whether the ban never expires.
func (b *Ban) Permanent() bool {
	return b.ExpiresAt == nil
}

// Remaining returns the seconds left until expiry as seen at now,
// recomputed from ExpiresAt rather than the creation-time snapshot.
// Permanent bans return 0.
func (b *Ban) Remaining(now time.Time) int64 {
	if b.ExpiresAt == nil {
		return 0
	}
	secs := int64(b.ExpiresAt.Sub(now).Seconds())
	if secs < 0 {
		return 0
	}
	return secs
}

// ExpiredAt reports whether the ban's expiry has passed at now. A ban in
// this state may still carry Active=true until the next sweep.
func (b *Ban) ExpiredAt(now time.Time) bool {
	return b.ExpiresAt != nil && !b.ExpiresAt.After(now)
}
