package engine

import (
	"strings"
	"unicode"
)

// Normalize canonicalizes a free-text item description for comparison.
// It lowercases, replaces everything outside [a-z0-9] with spaces, and
// collapses whitespace runs. The result is stable under repeated calls.
func Normalize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))

	for _, r := range raw {
		r = unicode.ToLower(r)
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			continue
		}
		b.WriteByte(' ')
	}

	return strings.Join(strings.Fields(b.String()), " ")
}
