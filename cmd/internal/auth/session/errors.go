package session

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidToken is the umbrella kind every TokenError unwraps to.
	ErrInvalidToken = errors.New("invalid token")

	// ErrConfig is returned for invalid configuration.
	ErrConfig = errors.New("invalid config")
)

// TokenReason classifies why a token was refused.
type TokenReason uint8

const (
	TokenMissing TokenReason = iota + 1
	TokenMalformed
	TokenExpired
)

func (r TokenReason) String() string {
	switch r {
	case TokenMissing:
		return "missing"
	case TokenMalformed:
		return "malformed"
	case TokenExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// TokenError reports a refused session token. Err holds the parser cause, if any;
// it is for logs only and never reaches clients.
type TokenError struct {
	Reason TokenReason
	Err    error
}

func (e *TokenError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%v: %s", ErrInvalidToken, e.Reason)
	}
	return fmt.Sprintf("%v: %s: %v", ErrInvalidToken, e.Reason, e.Err)
}

func (e *TokenError) Unwrap() error { return ErrInvalidToken }

// ReasonOf extracts the TokenReason from err.
func ReasonOf(err error) (TokenReason, bool) {
	var te *TokenError
	if errors.As(err, &te) {
		return te.Reason, true
	}
	return 0, false
}
