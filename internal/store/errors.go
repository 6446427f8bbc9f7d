package store

import "errors"

var (
	// ErrNotFound is returned by Get-style lookups for an unknown id. Callers
	// on read paths are expected to treat it as a missing sentinel, not a
	// hard failure.
	ErrNotFound = errors.New("store: not found")

	// ErrInvalidSessionID is returned when a caller-supplied session id does
	// not parse as a UUID. Every session id accepted from outside the
	// store is validated against this before use.
	ErrInvalidSessionID = errors.New("store: invalid session id")
)
