package domain

import "errors"

var (
	// ErrNotFound signals that a referenced team, player, task, day or
	// drop does not exist. Admin operations abort without mutation.
	ErrNotFound = errors.New("not found")

	// ErrConflict signals a uniqueness violation (duplicate team name or
	// RSN) on create or rename.
	ErrConflict = errors.New("already in use")

	// ErrFeedUnavailable signals a network or parse failure talking to
	// the external activity feed. Callers must not treat it as "no new
	// drops": the player's cursor stays untouched and the cycle moves on.
	ErrFeedUnavailable = errors.New("activity feed unavailable")
)
