package credentials

import "errors"

var (
	// ErrInvalidUser is returned when a caller tries to cache a nil user or
	// one without an id.
	ErrInvalidUser = errors.New("invalid user record")
)
