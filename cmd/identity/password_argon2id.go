package identity

import (
	"errors"

	"github.com/samuel-rapeti26/ScribeAssist-Backend-repo/cmd/security/password"
)

// HashPassword returns a PHC-style argon2id hash using the env-driven
// parameters and policy of cmd/security/password.
func HashPassword(plain string) (string, error) {
	cfg, err := password.FromEnv()
	if err != nil {
		// Invalid env is an operational error, never a reason to hash weaker.
		return "", err
	}

	enc, err := cfg.Hash(plain)
	if err != nil {
		switch {
		case errors.Is(err, password.ErrPasswordTooShort):
			return "", errors.New("password too short")
		case errors.Is(err, password.ErrPasswordTooLong):
			return "", errors.New("password too long")
		case errors.Is(err, password.ErrWeakPassword):
			return "", errors.New("weak password")
		default:
			return "", err
		}
	}
	return enc, nil
}

// VerifyPassword checks plain against a PHC argon2id hash.
// A malformed hash yields password.ErrInvalidHash.
func VerifyPassword(plain, encodedPHC string) (bool, error) {
	cfg, err := password.FromEnv()
	if err != nil {
		return false, err
	}
	return cfg.Verify(encodedPHC, plain)
}

// NeedsRehash reports whether encodedPHC was produced with parameters other
// than the current ones. An unreadable config counts as no.
func NeedsRehash(encodedPHC string) bool {
	cfg, err := password.FromEnv()
	if err != nil {
		return false
	}
	return cfg.NeedsRehash(encodedPHC)
}
