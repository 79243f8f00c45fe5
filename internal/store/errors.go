package store

import (
	"errors"

	"github.com/AdamBeresnev/tiebreak/internal/bracket"
)

var (
	ErrNotFound = errors.New("not found")
	// Returned when a concurrent writer kept winning the race for the same tournament.
	ErrConflict = errors.New("concurrent update")
)

// UpdateFunc receives the stored tournament and returns the version to persist.
// Returning an error aborts the update and nothing is written.
type UpdateFunc func(*bracket.Tournament) (*bracket.Tournament, error)
