package values

import "errors"

// Sentinel errors for value operations.
var (
	// ErrNotFound is returned when no value is stored under an ID.
	ErrNotFound = errors.New("value not found")

	// ErrConflict is returned by Create when the ID is already taken.
	ErrConflict = errors.New("value already exists")
)
