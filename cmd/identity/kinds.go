package identity

import "errors"

// Sentinel error kinds (stable for errors.Is and for mapping to API status codes).
var (
	ErrInvalidInput = errors.New("invalid_input")
	ErrNotFound     = errors.New("not_found")
	ErrConflict     = errors.New("conflict")

	// ErrAuth is the single failure returned for unknown identities and wrong secrets.
	ErrAuth = errors.New("invalid_credentials")

	// ErrStorage marks failures of the underlying credential store.
	ErrStorage = errors.New("storage")
)
