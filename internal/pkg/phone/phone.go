// Package phone canonicalizes free-text phone input to "+<digits>".
package phone

import (
	"regexp"
	"strings"
)

// pattern loosely approximates E.164: optional +, a nonzero leading digit,
// then 6 to 14 more digits.
var pattern = regexp.MustCompile(`^\+?[1-9]\d{6,14}$`)

// Normalize drops everything except digits and a leading '+', then ensures
// the result starts with '+'. It never fails.
func Normalize(input string) string {
	var b strings.Builder
	b.Grow(len(input) + 1)
	b.WriteByte('+')
	for _, r := range input {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsValid reports whether input normalizes to a plausible international number.
func IsValid(input string) bool {
	return pattern.MatchString(Normalize(input))
}
