package password

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// Argon2idParams controls argon2id cost. MemoryKiB is in KiB as argon2.IDKey expects.
type Argon2idParams struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// Policy bounds what may be hashed.
type Policy struct {
	MinLength      int
	MaxLength      int
	RejectVeryWeak bool
}

// Config is the single configuration surface for this package.
type Config struct {
	Params Argon2idParams
	Policy Policy
}

// DefaultConfig returns the baseline cost and policy.
func DefaultConfig() Config {
	threads := runtime.NumCPU()
	if threads < 1 {
		threads = 1
	}
	if threads > 4 {
		threads = 4
	}

	return Config{
		Params: Argon2idParams{
			MemoryKiB:   64 * 1024,
			Iterations:  3,
			Parallelism: uint8(threads), // #nosec G115 -- clamped to [1..4].
			SaltLength:  16,
			KeyLength:   32,
		},
		Policy: Policy{
			MinLength: 8,
			MaxLength: 256,
		},
	}
}

type envKnob struct {
	key   string
	apply func(c *Config, raw string) error
}

var envKnobs = []envKnob{
	{"SCRIBE_PASSWORD_MIN_LEN", func(c *Config, raw string) (err error) {
		c.Policy.MinLength, err = parseIntIn(raw, 1, 1024)
		return err
	}},
	{"SCRIBE_PASSWORD_MAX_LEN", func(c *Config, raw string) (err error) {
		c.Policy.MaxLength, err = parseIntIn(raw, 1, 4096)
		return err
	}},
	{"SCRIBE_PASSWORD_REJECT_VERY_WEAK", func(c *Config, raw string) (err error) {
		c.Policy.RejectVeryWeak, err = strconv.ParseBool(strings.TrimSpace(raw))
		return err
	}},
	{"SCRIBE_ARGON2_MEMORY_KIB", func(c *Config, raw string) error {
		n, err := parseIntIn(raw, 8*1024, 1024*1024)
		c.Params.MemoryKiB = uint32(n) // #nosec G115 -- range checked.
		return err
	}},
	{"SCRIBE_ARGON2_ITERATIONS", func(c *Config, raw string) error {
		n, err := parseIntIn(raw, 1, 20)
		c.Params.Iterations = uint32(n) // #nosec G115 -- range checked.
		return err
	}},
	{"SCRIBE_ARGON2_PARALLELISM", func(c *Config, raw string) error {
		n, err := parseIntIn(raw, 1, 64)
		c.Params.Parallelism = uint8(n) // #nosec G115 -- range checked.
		return err
	}},
	{"SCRIBE_ARGON2_SALT_LEN", func(c *Config, raw string) error {
		n, err := parseIntIn(raw, 8, 64)
		c.Params.SaltLength = uint32(n) // #nosec G115 -- range checked.
		return err
	}},
	{"SCRIBE_ARGON2_KEY_LEN", func(c *Config, raw string) error {
		n, err := parseIntIn(raw, 16, 64)
		c.Params.KeyLength = uint32(n) // #nosec G115 -- range checked.
		return err
	}},
}

// FromEnv overlays the SCRIBE_PASSWORD_* and SCRIBE_ARGON2_* variables on DefaultConfig.
// Set but invalid values are errors, not silent fallbacks.
func FromEnv() (Config, error) {
	cfg := DefaultConfig()

	for _, k := range envKnobs {
		raw, ok := os.LookupEnv(k.key)
		if !ok {
			continue
		}
		if err := k.apply(&cfg, raw); err != nil {
			return Config{}, fmt.Errorf("%s: %w", k.key, err)
		}
	}

	if cfg.Policy.MinLength > cfg.Policy.MaxLength {
		return Config{}, fmt.Errorf("password policy invalid: min_len(%d) > max_len(%d)",
			cfg.Policy.MinLength, cfg.Policy.MaxLength)
	}
	return cfg, nil
}

func parseIntIn(raw string, lo, hi int) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("not an integer")
	}
	if n < lo || n > hi {
		return 0, fmt.Errorf("out of range [%d..%d]", lo, hi)
	}
	return n, nil
}
