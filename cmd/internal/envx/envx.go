// Package envx reads typed settings from the environment.
//
// Every reader is lenient: a blank, unparsable or out-of-range value yields the
// default, so a typo in one variable never stops the server from starting.
// Settings that must fail loudly (secrets, policy) are validated by their owners.
package envx

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// read trims the variable and hands it to parse. parse reports false to reject the value.
func read[T any](key string, def T, parse func(string) (T, bool)) T {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	if out, ok := parse(v); ok {
		return out
	}
	return def
}

// String returns the trimmed value or def.
func String(key, def string) string {
	return read(key, def, func(v string) (string, bool) { return v, true })
}

// Bool accepts anything strconv.ParseBool does.
func Bool(key string, def bool) bool {
	return read(key, def, func(v string) (bool, bool) {
		b, err := strconv.ParseBool(v)
		return b, err == nil
	})
}

// Int reads a positive int.
func Int(key string, def int) int {
	return read(key, def, func(v string) (int, bool) {
		n, err := strconv.Atoi(v)
		return n, err == nil && n > 0
	})
}

// Int32 reads a non-negative int32; pool sizes use zero as a real value.
func Int32(key string, def int32) int32 {
	return read(key, def, func(v string) (int32, bool) {
		n, err := strconv.ParseInt(v, 10, 32)
		return int32(n), err == nil && n >= 0
	})
}

// Int64 reads a positive int64.
func Int64(key string, def int64) int64 {
	return read(key, def, func(v string) (int64, bool) {
		n, err := strconv.ParseInt(v, 10, 64)
		return n, err == nil && n > 0
	})
}

// Duration reads a positive time.ParseDuration value.
func Duration(key string, def time.Duration) time.Duration {
	return read(key, def, func(v string) (time.Duration, bool) {
		d, err := time.ParseDuration(v)
		return d, err == nil && d > 0
	})
}

// CSV splits the value, or def when unset, on commas.
func CSV(key, def string) []string {
	return SplitCSV(String(key, def))
}

// SplitCSV splits raw on commas, trimming items and dropping blanks.
func SplitCSV(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
