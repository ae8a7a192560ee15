package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeName reduces a personal name to the form the TRE form and the
// lookup cache agree on: diacritics stripped, anything outside
// [A-Z0-9 ] dropped, whitespace collapsed, uppercased.
// It is idempotent, normalizing twice changes nothing.
func NormalizeName(name string) string {
	stripped, _, err := transform.String(stripMarks, name)
	if err != nil {
		// transform only fails on malformed utf-8, fall back to the raw input
		stripped = name
	}

	var b strings.Builder
	for _, r := range stripped {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(unicode.ToUpper(r))
		case (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == ' ':
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// LookupKey derives the composite cache identity of a subject. Two people
// whose normalized name, birth date and normalized mother name collide are
// interchangeable as far as the cache is concerned.
func LookupKey(name, birthDate, motherName string) string {
	return NormalizeName(name) + "|" + strings.TrimSpace(birthDate) + "|" + NormalizeName(motherName)
}
