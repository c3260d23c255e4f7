package authapi

import (
	"time"

	"github.com/samuel-rapeti26/ScribeAssist-Backend-repo/cmd/internal/envx"
)

// Config controls login handling and its throttling defaults.
type Config struct {
	TrustProxy   bool
	MaxBodyBytes int64

	// Failed logins allowed per client IP inside LoginIPWindow.
	LoginIPMax    int
	LoginIPWindow time.Duration

	// Failed logins allowed per identity inside LoginUserWindow.
	LoginUserMax    int
	LoginUserWindow time.Duration
}

// LoadConfigFromEnv loads auth config from environment variables with safe defaults.
func LoadConfigFromEnv() Config {
	return Config{
		TrustProxy:      envx.Bool("SCRIBE_AUTH_TRUST_PROXY", false),
		MaxBodyBytes:    envx.Int64("SCRIBE_AUTH_MAX_BODY_BYTES", 16<<10),
		LoginIPMax:      envx.Int("SCRIBE_AUTH_LOGIN_IP_MAX", 20),
		LoginIPWindow:   envx.Duration("SCRIBE_AUTH_LOGIN_IP_WINDOW", 5*time.Minute),
		LoginUserMax:    envx.Int("SCRIBE_AUTH_LOGIN_USER_MAX", 5),
		LoginUserWindow: envx.Duration("SCRIBE_AUTH_LOGIN_USER_WINDOW", 15*time.Minute),
	}
}
