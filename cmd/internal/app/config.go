package app

import (
	"time"

	"github.com/samuel-rapeti26/ScribeAssist-Backend-repo/cmd/internal/envx"
)

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr  string
	LogLevel  string
	LogFormat string

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	MaxHeaderBytes    int

	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32
	// DBMigrate applies embedded migrations at startup.
	DBMigrate bool

	// If true:
	// - /readyz returns 503 unless DB is configured and reachable.
	ReadinessRequireDB bool

	CORSAllowedOrigins   []string
	CORSAllowCredentials bool
	CORSMaxAgeSeconds    int

	// DevUsers seeds the in-memory identity store ("user:role:secret") when no DB is configured.
	DevUsers []string

	SummaryURL       string
	SummaryTimeout   time.Duration
	SummarySentences int

	MaxBodyBytes int64
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		HTTPAddr:  envx.String("SCRIBE_HTTP_ADDR", "0.0.0.0:8080"),
		LogLevel:  envx.String("SCRIBE_LOG_LEVEL", "info"),
		LogFormat: envx.String("SCRIBE_LOG_FORMAT", "json"),

		ReadHeaderTimeout: envx.Duration("SCRIBE_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       envx.Duration("SCRIBE_HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      envx.Duration("SCRIBE_HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:       envx.Duration("SCRIBE_HTTP_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout:   envx.Duration("SCRIBE_HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),

		MaxHeaderBytes: envx.Int("SCRIBE_HTTP_MAX_HEADER_BYTES", 1<<20),

		DatabaseURL: envx.String("SCRIBE_DATABASE_URL", ""),
		DBMaxConns:  envx.Int32("SCRIBE_DB_MAX_CONNS", 10),
		DBMinConns:  envx.Int32("SCRIBE_DB_MIN_CONNS", 0),
		DBMigrate:   envx.Bool("SCRIBE_DB_MIGRATE", true),

		ReadinessRequireDB: envx.Bool("SCRIBE_READINESS_REQUIRE_DB", false),

		CORSAllowedOrigins:   envx.CSV("SCRIBE_CORS_ALLOWED_ORIGINS", "http://localhost,http://127.0.0.1"),
		CORSAllowCredentials: envx.Bool("SCRIBE_CORS_ALLOW_CREDENTIALS", true),
		CORSMaxAgeSeconds:    envx.Int("SCRIBE_CORS_MAX_AGE", 600),

		DevUsers: envx.CSV("SCRIBE_DEV_USERS", ""),

		SummaryURL:       envx.String("SCRIBE_SUMMARY_URL", ""),
		SummaryTimeout:   envx.Duration("SCRIBE_SUMMARY_TIMEOUT", 10*time.Second),
		SummarySentences: envx.Int("SCRIBE_SUMMARY_SENTENCES", 3),

		MaxBodyBytes: envx.Int64("SCRIBE_HTTP_MAX_BODY_BYTES", 1<<20),
	}
}
