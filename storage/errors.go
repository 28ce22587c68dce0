package storage

import "errors"

// Common storage errors.
var (
	// ErrNotFound is returned when a key has no stored value.
	ErrNotFound = errors.New("key not found")

	// ErrUnknownBackend is returned by Open for an unrecognized backend name.
	ErrUnknownBackend = errors.New("unknown storage backend")
)
