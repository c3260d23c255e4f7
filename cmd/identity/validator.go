package identity

import (
	"context"
	"log/slog"
	"strings"
	"sync"
)

// Validator checks submitted credentials against a Store.
type Validator struct {
	store Store
	log   *slog.Logger

	dummyOnce sync.Once
	dummyHash string
}

// NewValidator constructs a Validator over st.
func NewValidator(st Store, log *slog.Logger) *Validator {
	if log == nil {
		log = slog.Default()
	}
	return &Validator{store: st, log: log}
}

// Validate returns the principal for a matching identity+secret pair.
//
// Unknown identities and wrong secrets both yield ErrAuth. Store failures
// are returned as ErrStorage so callers can tell them apart from bad input.
func (v *Validator) Validate(ctx context.Context, username, secret string) (Principal, error) {
	const op = "identity.Validate"

	if strings.TrimSpace(username) == "" || secret == "" {
		return Principal{}, OpError{Op: op, Kind: ErrAuth, Msg: "missing identity or secret"}
	}

	creds, err := v.store.LookupCredentials(ctx, username)
	if err != nil {
		if IsNotFound(err) || IsInvalidInput(err) {
			// Spend roughly the same time as a real verify.
			if h := v.timingHash(); h != "" {
				_, _ = VerifyPassword(secret, h)
			}
			return Principal{}, OpError{Op: op, Kind: ErrAuth, Msg: "unknown identity"}
		}
		return Principal{}, err
	}

	ok, err := VerifyPassword(secret, creds.PasswordHash)
	if err != nil {
		v.log.Error("identity.verify.fail", "user_id", creds.User.ID, "err", err)
		return Principal{}, OpError{Op: op, Kind: ErrAuth, Msg: "unverifiable hash"}
	}
	if !ok {
		return Principal{}, OpError{Op: op, Kind: ErrAuth, Msg: "secret mismatch"}
	}

	if NeedsRehash(creds.PasswordHash) {
		// Hashes are only rewritten when users are reprovisioned.
		v.log.Info("identity.verify.rehash_needed", "user_id", creds.User.ID)
	}

	return Principal{Username: creds.User.Username, Role: creds.User.Role}, nil
}

func (v *Validator) timingHash() string {
	v.dummyOnce.Do(func() {
		h, err := HashPassword("dummy-password-for-timing-only")
		if err != nil {
			v.log.Warn("identity.dummy_hash.fail", "err", err)
			return
		}
		v.dummyHash = h
	})
	return v.dummyHash
}
