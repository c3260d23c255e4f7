package session

import (
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// MinSecretBytes is the shortest accepted HS256 signing secret.
const MinSecretBytes = 32

// Config holds the token and cookie settings of the session subsystem.
// It is loaded once at startup and passed explicitly; nothing here is global.
type Config struct {
	// Issuer is written to and required in the "iss" claim.
	Issuer string

	// TTL is the fixed token lifetime.
	TTL time.Duration

	// RenewThreshold triggers reissue when the remaining lifetime drops below it.
	RenewThreshold time.Duration

	// Secret is the HS256 signing key.
	Secret []byte

	CookieName     string
	CookiePath     string
	CookieDomain   string
	CookieSecure   bool
	CookieSameSite http.SameSite
}

// DefaultConfig returns the session defaults. Secret is always left empty.
func DefaultConfig() Config {
	return Config{
		Issuer:         "scribeassist",
		TTL:            time.Hour,
		RenewThreshold: 30 * time.Minute,
		CookieName:     "access_token_cookie",
		CookiePath:     "/",
		CookieSameSite: http.SameSiteLaxMode,
	}
}

// Validate checks the invariants NewIssuer relies on.
func (c Config) Validate() error {
	switch {
	case len(c.Secret) < MinSecretBytes:
		return ErrConfig
	case c.TTL <= 0:
		return ErrConfig
	case c.RenewThreshold < 0 || c.RenewThreshold >= c.TTL:
		return ErrConfig
	case strings.TrimSpace(c.Issuer) == "":
		return ErrConfig
	case strings.TrimSpace(c.CookieName) == "":
		return ErrConfig
	}
	return nil
}

// LoadConfigFromEnv loads session configuration from environment variables.
//
// Required:
//   - SCRIBE_SESSION_SECRET (at least 32 bytes)
//
// Optional:
//   - SCRIBE_SESSION_ISSUER
//   - SCRIBE_SESSION_TTL
//   - SCRIBE_SESSION_RENEW_THRESHOLD
//   - SCRIBE_SESSION_COOKIE_NAME
//   - SCRIBE_SESSION_COOKIE_PATH
//   - SCRIBE_SESSION_COOKIE_DOMAIN
//   - SCRIBE_SESSION_COOKIE_SECURE
//   - SCRIBE_SESSION_COOKIE_SAMESITE (lax, strict, none)
//
// Returns ErrConfig if configuration is invalid.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := strings.TrimSpace(os.Getenv("SCRIBE_SESSION_ISSUER")); v != "" {
		cfg.Issuer = v
	}

	if v := os.Getenv("SCRIBE_SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.TTL = d
	}

	if v := os.Getenv("SCRIBE_SESSION_RENEW_THRESHOLD"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return Config{}, ErrConfig
		}
		cfg.RenewThreshold = d
	}

	if v := strings.TrimSpace(os.Getenv("SCRIBE_SESSION_COOKIE_NAME")); v != "" {
		cfg.CookieName = v
	}
	if v := strings.TrimSpace(os.Getenv("SCRIBE_SESSION_COOKIE_PATH")); v != "" {
		cfg.CookiePath = v
	}
	cfg.CookieDomain = strings.TrimSpace(os.Getenv("SCRIBE_SESSION_COOKIE_DOMAIN"))

	if v := os.Getenv("SCRIBE_SESSION_COOKIE_SECURE"); v != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return Config{}, ErrConfig
		}
		cfg.CookieSecure = b
	}

	if v := os.Getenv("SCRIBE_SESSION_COOKIE_SAMESITE"); v != "" {
		ss, ok := parseSameSite(v)
		if !ok {
			return Config{}, ErrConfig
		}
		cfg.CookieSameSite = ss
	}

	cfg.Secret = []byte(os.Getenv("SCRIBE_SESSION_SECRET"))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	// Browsers drop SameSite=None cookies that are not Secure.
	if cfg.CookieSameSite == http.SameSiteNoneMode && !cfg.CookieSecure {
		return Config{}, ErrConfig
	}
	return cfg, nil
}

func parseSameSite(v string) (http.SameSite, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "lax":
		return http.SameSiteLaxMode, true
	case "strict":
		return http.SameSiteStrictMode, true
	case "none":
		return http.SameSiteNoneMode, true
	default:
		return 0, false
	}
}
