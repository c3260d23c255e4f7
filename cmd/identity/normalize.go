package identity

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// NormalizeUsername canonicalizes a username for lookups and uniqueness:
// surrounding space is trimmed, compatibility forms are composed (NFKC) and
// case is folded, so "Ａlice" and "ALICE" name the same account.
func NormalizeUsername(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	// A Caser keeps state, so one is built per call.
	return cases.Fold().String(norm.NFKC.String(s))
}
