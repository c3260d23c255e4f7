package identity

import (
	"context"
	"time"
)

// User is a ScribeAssist principal.
type User struct {
	ID           string
	Username     string
	UsernameNorm string
	Role         Role
	CreatedAt    time.Time
}

// Credentials pairs a user with the stored secret hash. It never leaves the identity boundary.
type Credentials struct {
	User         User
	PasswordHash string
}

// Principal is what a successful credential check yields.
type Principal struct {
	Username string
	Role     Role
}

// CreateUserInput describes a user provisioning request.
type CreateUserInput struct {
	Username string
	Password string
	Role     Role
	Now      time.Time
}

// Store is the credential persistence boundary.
type Store interface {
	CreateUser(ctx context.Context, in CreateUserInput) (User, error)

	// LookupCredentials returns NotFoundError when no user matches the normalized username.
	LookupCredentials(ctx context.Context, username string) (Credentials, error)
}
