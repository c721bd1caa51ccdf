package service

import "strings"

// NormalizeText lowercases raw complaint text, replaces every character
// outside [a-z ] with a space, collapses whitespace runs and trims the result.
// Empty input yields an empty string.
func NormalizeText(raw string) string {
	lowered := strings.ToLower(raw)

	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		if (r >= 'a' && r <= 'z') || r == ' ' {
			b.WriteRune(r)
			continue
		}
		b.WriteByte(' ')
	}

	// Fields splits on any whitespace run and drops leading/trailing space
	return strings.Join(strings.Fields(b.String()), " ")
}
