package identity

import (
	"context"
	"errors"
	"testing"
)

type failingStore struct{ Store }

func (failingStore) LookupCredentials(context.Context, string) (Credentials, error) {
	return Credentials{}, storage("identity.LookupCredentials", errors.New("connection refused"))
}

func newSeededValidator(t *testing.T) *Validator {
	t.Helper()
	cheapArgon2(t)

	st := NewMemoryStore()
	if _, err := st.CreateUser(context.Background(), CreateUserInput{
		Username: "Alice", Password: "alice-secret-1", Role: RoleEditor,
	}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return NewValidator(st, nil)
}

func TestValidator_Success(t *testing.T) {
	v := newSeededValidator(t)

	p, err := v.Validate(context.Background(), "alice", "alice-secret-1")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if p.Username != "Alice" || p.Role != RoleEditor {
		t.Fatalf("unexpected principal: %+v", p)
	}
}

func TestValidator_Failures(t *testing.T) {
	v := newSeededValidator(t)

	cases := []struct {
		name, user, secret string
	}{
		{name: "wrong secret", user: "alice", secret: "not-the-secret"},
		{name: "unknown user", user: "mallory", secret: "alice-secret-1"},
		{name: "empty user", user: "", secret: "x"},
		{name: "empty secret", user: "alice", secret: ""},
	}
	for _, tc := range cases {
		_, err := v.Validate(context.Background(), tc.user, tc.secret)
		if !IsAuth(err) {
			t.Fatalf("%s: err=%v; want ErrAuth", tc.name, err)
		}
	}
}

func TestValidator_StorageFailureIsNotAuth(t *testing.T) {
	t.Parallel()

	v := NewValidator(failingStore{}, nil)
	_, err := v.Validate(context.Background(), "alice", "alice-secret-1")
	if IsAuth(err) || !IsStorage(err) {
		t.Fatalf("err=%v; want storage error", err)
	}
}

func TestNeedsRehash_FollowsConfiguredCost(t *testing.T) {
	cheapArgon2(t)
	h, err := HashPassword("alice-secret-1")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if NeedsRehash(h) {
		t.Fatalf("fresh hash should not need a rehash")
	}

	t.Setenv("SCRIBE_ARGON2_ITERATIONS", "2")
	if !NeedsRehash(h) {
		t.Fatalf("hash with old iteration count should need a rehash")
	}
}
