package preprocess

import (
	"strings"
	"unicode"
)

// Normalize cleans a raw message text for scoring:
//   - drops every rune outside [a-zA-Z0-9 .,!?], which removes emoji and other
//     special characters without leaving a replacement rune behind
//   - lowercases the remainder
//   - collapses whitespace runs to single spaces and trims the ends
//
// Pure and total: empty input yields empty output.
func Normalize(raw string) string {
	var builder strings.Builder
	builder.Grow(len(raw))

	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			builder.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			builder.WriteRune(unicode.ToLower(r))
		case r == '.', r == ',', r == '!', r == '?':
			builder.WriteRune(r)
		case unicode.IsSpace(r):
			builder.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(builder.String()), " ")
}
