package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samuel-rapeti26/ScribeAssist-Backend-repo/cmd/identity"
	"github.com/samuel-rapeti26/ScribeAssist-Backend-repo/cmd/identity/ids"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the identity envelope a verified token carries.
type Claims struct {
	ID        string
	Subject   string
	Role      identity.Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Principal returns the identity the claims are bound to.
func (c Claims) Principal() identity.Principal {
	return identity.Principal{Username: c.Subject, Role: c.Role}
}

// Remaining returns how long the token stays valid at now.
func (c Claims) Remaining(now time.Time) time.Duration {
	return c.ExpiresAt.Sub(now)
}

// Token is a signed session token plus the claims it was signed with.
type Token struct {
	Raw    string
	Claims Claims
}

type jwtClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// Issuer signs and verifies session tokens with the injected HS256 secret.
type Issuer struct {
	issuer string
	ttl    time.Duration
	secret []byte
}

// NewIssuer validates cfg and returns an Issuer. A missing or short secret is ErrConfig.
func NewIssuer(cfg Config) (*Issuer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	secret := make([]byte, len(cfg.Secret))
	copy(secret, cfg.Secret)

	return &Issuer{issuer: cfg.Issuer, ttl: cfg.TTL, secret: secret}, nil
}

// Issue signs a token for p valid from now until now+TTL.
// JWT timestamps have second precision, so now is truncated first.
func (i *Issuer) Issue(p identity.Principal, now time.Time) (Token, error) {
	if strings.TrimSpace(p.Username) == "" {
		return Token{}, errors.New("session: empty subject")
	}
	if !p.Role.IsValid() {
		return Token{}, fmt.Errorf("session: invalid role %q", p.Role)
	}

	now = now.UTC().Truncate(time.Second)
	exp := now.Add(i.ttl)

	jti, err := ids.NewULID(now)
	if err != nil {
		return Token{}, err
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   p.Username,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Role: string(p.Role),
	})

	raw, err := tok.SignedString(i.secret)
	if err != nil {
		return Token{}, err
	}

	return Token{
		Raw: raw,
		Claims: Claims{
			ID:        jti,
			Subject:   p.Username,
			Role:      p.Role,
			IssuedAt:  now,
			ExpiresAt: exp,
		},
	}, nil
}

// Verify checks raw at the instant now and returns its claims.
//
// Failures are *TokenError: TokenMissing for an empty token, TokenExpired
// when now >= exp, TokenMalformed for everything else (bad signature,
// unexpected algorithm, wrong issuer, missing claims).
func (i *Issuer) Verify(raw string, now time.Time) (Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Claims{}, &TokenError{Reason: TokenMissing}
	}

	var c jwtClaims
	tok, err := jwt.ParseWithClaims(raw, &c,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return i.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, &TokenError{Reason: TokenExpired, Err: err}
		}
		return Claims{}, &TokenError{Reason: TokenMalformed, Err: err}
	}
	if !tok.Valid {
		return Claims{}, &TokenError{Reason: TokenMalformed, Err: errors.New("token not valid")}
	}

	role, err := identity.ParseRole(c.Role)
	if err != nil {
		return Claims{}, &TokenError{Reason: TokenMalformed, Err: err}
	}
	if strings.TrimSpace(c.Subject) == "" || c.IssuedAt == nil {
		return Claims{}, &TokenError{Reason: TokenMalformed, Err: errors.New("missing sub or iat")}
	}

	return Claims{
		ID:        c.ID,
		Subject:   c.Subject,
		Role:      role,
		IssuedAt:  c.IssuedAt.Time.UTC(),
		ExpiresAt: c.ExpiresAt.Time.UTC(),
	}, nil
}
