package identity

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/samuel-rapeti26/ScribeAssist-Backend-repo/cmd/identity/ids"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements credential persistence over PostgreSQL.
//
// The pgx pool is owned by the caller and is never closed here.
// Schema identifiers are validated and quoted.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
}

// PostgresOption configures the store.
type PostgresOption func(*PostgresStore) error

var pgIdentRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// WithSchema sets the Postgres schema used by the identity store (default "scribe").
func WithSchema(schema string) PostgresOption {
	return func(s *PostgresStore) error {
		schema = strings.TrimSpace(schema)
		if schema == "" {
			return fmt.Errorf("identity: empty schema")
		}
		if !pgIdentRe.MatchString(schema) {
			return fmt.Errorf("identity: invalid schema identifier")
		}
		s.schema = schema
		return nil
	}
}

// NewPostgresStore constructs a PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool, opts ...PostgresOption) (*PostgresStore, error) {
	st := &PostgresStore{
		pool:   pool,
		schema: "scribe",
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(st); err != nil {
			return nil, err
		}
	}
	if st.pool == nil {
		return nil, fmt.Errorf("identity: nil pool")
	}
	return st, nil
}

// CreateUser hashes the password and inserts the user row.
func (s *PostgresStore) CreateUser(ctx context.Context, in CreateUserInput) (User, error) {
	const op = "identity.CreateUser"

	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	u, hash, err := prepareUser(op, in)
	if err != nil {
		return User{}, err
	}

	users := pgx.Identifier{s.schema, "users"}.Sanitize()
	_, err = s.pool.Exec(ctx,
		`INSERT INTO `+users+` (id, username, username_norm, password_hash, role, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, u.Username, u.UsernameNorm, hash, string(u.Role), u.CreatedAt,
	)
	if err != nil {
		if pgIsUniqueViolation(err) {
			return User{}, ConflictError{Op: op, Field: "username"}
		}
		return User{}, storage(op, err)
	}
	return u, nil
}

// LookupCredentials loads the user and hash by normalized username.
func (s *PostgresStore) LookupCredentials(ctx context.Context, username string) (Credentials, error) {
	const op = "identity.LookupCredentials"

	norm := NormalizeUsername(username)
	if norm == "" {
		return Credentials{}, invalid(op, "username is required")
	}

	users := pgx.Identifier{s.schema, "users"}.Sanitize()

	var (
		c    Credentials
		role string
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, username, username_norm, password_hash, role, created_at
		   FROM `+users+`
		  WHERE username_norm = $1`,
		norm,
	).Scan(&c.User.ID, &c.User.Username, &c.User.UsernameNorm, &c.PasswordHash, &role, &c.User.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Credentials{}, NotFoundError{Op: op, Resource: "user"}
		}
		return Credentials{}, storage(op, err)
	}

	r, err := ParseRole(role)
	if err != nil {
		// A row with an unknown role is a data error, not a login failure.
		return Credentials{}, storage(op, err)
	}
	c.User.Role = r
	return c, nil
}

// prepareUser validates input and produces the row to insert plus its hash.
func prepareUser(op string, in CreateUserInput) (User, string, error) {
	name := strings.TrimSpace(in.Username)
	norm := NormalizeUsername(name)
	if norm == "" {
		return User{}, "", invalid(op, "username is required")
	}
	if !in.Role.IsValid() {
		return User{}, "", invalid(op, "invalid role")
	}
	if strings.TrimSpace(in.Password) == "" {
		return User{}, "", invalid(op, "password is required")
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return User{}, "", invalid(op, err.Error())
	}

	id, err := ids.NewULID(now)
	if err != nil {
		return User{}, "", err
	}

	return User{
		ID:           id,
		Username:     name,
		UsernameNorm: norm,
		Role:         in.Role,
		CreatedAt:    now,
	}, hash, nil
}

func pgIsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "23505"
}
