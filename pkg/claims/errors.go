package claims

import "errors"

// Sentinel errors shared by the claims stores.
var (
	// ErrInvalidUser is returned when a user record cannot be stored
	// (blank login or missing password hash).
	ErrInvalidUser = errors.New("invalid user record")

	// ErrCorruptHash is returned when a stored password hash cannot be parsed.
	ErrCorruptHash = errors.New("corrupt password hash")
)
