package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Player is the identity record correlating a participant across sessions.
// ID is assigned once on first contact and never changes; Name is the last
// known display name and is informational only.
type Player struct {
	ID        uuid.UUID
	Name      string
	Points    int
	IPs       []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks the player invariants.
func (p *Player) Validate() error {
	if p.ID == uuid.Nil {
		return ErrInvalidPlayerID
	}
	if strings.TrimSpace(p.Name) == "" {
		return ErrInvalidPlayerName
	}
	return nil
}
