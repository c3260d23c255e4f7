package identity

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MemoryStore is the credential store used when no database is configured.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]Credentials // username_norm -> credentials
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]Credentials)}
}

// CreateUser hashes the password and stores the user.
func (s *MemoryStore) CreateUser(ctx context.Context, in CreateUserInput) (User, error) {
	const op = "identity.CreateUser"

	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	u, hash, err := prepareUser(op, in)
	if err != nil {
		return User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[u.UsernameNorm]; exists {
		return User{}, ConflictError{Op: op, Field: "username"}
	}
	s.users[u.UsernameNorm] = Credentials{User: u, PasswordHash: hash}
	return u, nil
}

// LookupCredentials returns the stored credentials by normalized username.
func (s *MemoryStore) LookupCredentials(ctx context.Context, username string) (Credentials, error) {
	const op = "identity.LookupCredentials"

	if err := ctx.Err(); err != nil {
		return Credentials{}, err
	}

	norm := NormalizeUsername(username)
	if norm == "" {
		return Credentials{}, invalid(op, "username is required")
	}

	s.mu.RLock()
	c, ok := s.users[norm]
	s.mu.RUnlock()
	if !ok {
		return Credentials{}, NotFoundError{Op: op, Resource: "user"}
	}
	return c, nil
}

// SeedUser is one development account parsed from configuration.
type SeedUser struct {
	Username string
	Role     Role
	Password string
}

// ParseSeedUsers parses "user:role:secret" entries. The secret is everything
// after the second colon, so it may itself contain colons.
func ParseSeedUsers(entries []string) ([]SeedUser, error) {
	out := make([]SeedUser, 0, len(entries))
	for i, raw := range entries {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		parts := strings.SplitN(raw, ":", 3)
		if len(parts) != 3 || strings.TrimSpace(parts[0]) == "" || parts[2] == "" {
			return nil, fmt.Errorf("seed user #%d: want user:role:secret", i+1)
		}
		role, err := ParseRole(parts[1])
		if err != nil {
			return nil, fmt.Errorf("seed user #%d: %w", i+1, err)
		}
		out = append(out, SeedUser{
			Username: strings.TrimSpace(parts[0]),
			Role:     role,
			Password: parts[2],
		})
	}
	return out, nil
}

// Seed provisions the given users. Users that already exist are left as they are,
// so seeding a persistent store on every start is safe.
func Seed(ctx context.Context, st Store, users []SeedUser) (int, error) {
	created := 0
	for _, u := range users {
		_, err := st.CreateUser(ctx, CreateUserInput{
			Username: u.Username,
			Password: u.Password,
			Role:     u.Role,
		})
		switch {
		case err == nil:
			created++
		case IsConflict(err):
		default:
			return created, fmt.Errorf("seed %q: %w", u.Username, err)
		}
	}
	return created, nil
}
