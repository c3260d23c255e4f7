package password

import (
	"errors"
	"fmt"
)

// Policy errors returned by Validate and Hash.
var (
	ErrPasswordTooShort = errors.New("password: too short")
	ErrPasswordTooLong  = errors.New("password: too long")
	ErrWeakPassword     = errors.New("password: too weak")
)

// ErrInvalidHash covers stored hashes Verify refuses to evaluate.
var ErrInvalidHash = errors.New("password: invalid hash")

// ErrHashTooCostly is an ErrInvalidHash whose cost exceeds twice the configured one.
var ErrHashTooCostly = fmt.Errorf("%w: cost above limit", ErrInvalidHash)
