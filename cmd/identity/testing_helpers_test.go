package identity

import "testing"

// cheapArgon2 lowers hashing cost for the duration of a test.
func cheapArgon2(t *testing.T) {
	t.Helper()
	t.Setenv("SCRIBE_ARGON2_MEMORY_KIB", "8192")
	t.Setenv("SCRIBE_ARGON2_ITERATIONS", "1")
	t.Setenv("SCRIBE_ARGON2_PARALLELISM", "1")
}
