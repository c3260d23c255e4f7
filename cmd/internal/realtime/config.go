package realtime

import (
	"time"

	"github.com/samuel-rapeti26/ScribeAssist-Backend-repo/cmd/internal/envx"
)

const (
	// Inbound frames are tiny control messages.
	maxFrameBytes = 4 << 10

	heartbeatInterval = 25 * time.Second
	heartbeatTimeout  = 5 * time.Second

	// Inbound events per window, per connection.
	rateLimitEvents = 30
	rateLimitWindow = 10 * time.Second

	defaultSendQueueSize = 256
	minSendQueueSize     = 32

	defaultWriteTimeout = 5 * time.Second

	// Origin is required by default and only localhost is allowed.
	defaultOriginRequired = true
	defaultAllowedOrigins = "http://localhost,http://127.0.0.1"
)

// Config tunes the feed gateway.
type Config struct {
	OriginRequired bool
	AllowedOrigins []string

	SendQueueSize int
	WriteTimeout  time.Duration
	// ReadIdleTimeout closes connections that send nothing for this long. Zero disables it;
	// heartbeats already detect dead peers.
	ReadIdleTimeout time.Duration

	HeartbeatInterval time.Duration
	HeartbeatTimeout  time.Duration

	RateEvents int
	RateWindow time.Duration
}

func DefaultConfig() Config {
	return Config{
		OriginRequired:    defaultOriginRequired,
		AllowedOrigins:    envx.SplitCSV(defaultAllowedOrigins),
		SendQueueSize:     defaultSendQueueSize,
		WriteTimeout:      defaultWriteTimeout,
		HeartbeatInterval: heartbeatInterval,
		HeartbeatTimeout:  heartbeatTimeout,
		RateEvents:        rateLimitEvents,
		RateWindow:        rateLimitWindow,
	}
}

// LoadConfigFromEnv reads SCRIBE_EVENTS_* variables. Invalid values fall back to defaults.
func LoadConfigFromEnv() Config {
	cfg := DefaultConfig()
	cfg.OriginRequired = envx.Bool("SCRIBE_EVENTS_ORIGIN_REQUIRED", cfg.OriginRequired)
	cfg.AllowedOrigins = envx.CSV("SCRIBE_EVENTS_ALLOWED_ORIGINS", defaultAllowedOrigins)
	cfg.SendQueueSize = envx.Int("SCRIBE_EVENTS_SEND_QUEUE", cfg.SendQueueSize)
	cfg.WriteTimeout = envx.Duration("SCRIBE_EVENTS_WRITE_TIMEOUT", cfg.WriteTimeout)
	cfg.ReadIdleTimeout = envx.Duration("SCRIBE_EVENTS_READ_IDLE_TIMEOUT", cfg.ReadIdleTimeout)
	cfg.HeartbeatInterval = envx.Duration("SCRIBE_EVENTS_HEARTBEAT_INTERVAL", cfg.HeartbeatInterval)
	cfg.HeartbeatTimeout = envx.Duration("SCRIBE_EVENTS_HEARTBEAT_TIMEOUT", cfg.HeartbeatTimeout)
	cfg.RateEvents = envx.Int("SCRIBE_EVENTS_RATE_EVENTS", cfg.RateEvents)
	cfg.RateWindow = envx.Duration("SCRIBE_EVENTS_RATE_WINDOW", cfg.RateWindow)
	return cfg
}

func (c Config) normalized() Config {
	d := DefaultConfig()
	if c.SendQueueSize < minSendQueueSize {
		c.SendQueueSize = minSendQueueSize
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = d.HeartbeatInterval
	}
	if c.HeartbeatTimeout <= 0 {
		c.HeartbeatTimeout = d.HeartbeatTimeout
	}
	if c.RateEvents <= 0 {
		c.RateEvents = d.RateEvents
	}
	if c.RateWindow <= 0 {
		c.RateWindow = d.RateWindow
	}
	return c
}
