package textutil

import (
	"strings"
	"unicode"
)

// JobID derives a stable, filesystem- and log-safe identifier from an input
// path. Letters and digits are lowercased and kept, every other rune becomes a
// dash, and leading or trailing dashes are trimmed. Runs of dashes are kept so
// distinct paths stay distinct. An empty result falls back to "job".
func JobID(path string) string {
	var b strings.Builder
	b.Grow(len(path))
	for _, r := range path {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteByte('-')
	}
	if id := strings.Trim(b.String(), "-"); id != "" {
		return id
	}
	return "job"
}
