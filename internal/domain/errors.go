package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors
var (
	// Ban errors
	ErrInvalidBanID       = errors.New("invalid ban ID")
	ErrInvalidBanCategory = errors.New("invalid ban category")
	ErrBanNotFound        = errors.New("ban not found")
	ErrAlreadyBanned      = errors.New("player already has an active ban")

	// Reason errors
	ErrInvalidReasonName     = errors.New("invalid reason name")
	ErrInvalidReasonCategory = errors.New("invalid reason category")
	ErrInvalidDuration       = errors.New("duration must not be negative")
	ErrReasonNotFound        = errors.New("reason not found")
	ErrNoReasons             = errors.New("at least one reason is required")

	// Player errors
	ErrInvalidPlayerID   = errors.New("invalid player ID")
	ErrInvalidPlayerName = errors.New("invalid player name")
	ErrPlayerNotFound    = errors.New("player not found")
)

// UnknownReasonsError reports every reason name that failed validation
// against the catalog, not just the first one encountered.
type UnknownReasonsError struct {
	Names []string
}

func (e *UnknownReasonsError) Error() string {
	return fmt.Sprintf("unknown ban reasons: %s", strings.Join(e.Names, ", "))
}

// IsNotFound checks if the error is any of the domain not-found errors.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrBanNotFound) ||
		errors.Is(err, ErrReasonNotFound) ||
		errors.Is(err, ErrPlayerNotFound)
}
