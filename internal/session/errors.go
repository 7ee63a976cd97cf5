package session

import "errors"

// Session errors.
var (
	ErrNotFound    = errors.New("session not found")
	ErrInvalidID   = errors.New("session id required")
	ErrUnsupported = errors.New("unsupported session driver")
)
