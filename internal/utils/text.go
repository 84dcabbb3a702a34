package utils

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var lowerCaser = cases.Lower(language.Und)

// NormalizeText trims surrounding whitespace and converts s to Unicode NFC,
// so that Thai tone marks and vowels typed in different orders compare
// equal during keyword matching.
func NormalizeText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// Lower case-folds s with language-neutral rules. Thai has no case and is
// returned unchanged.
func Lower(s string) string {
	return lowerCaser.String(s)
}

// RuneLen reports the number of code points in s.
func RuneLen(s string) int { return utf8.RuneCountInString(s) }

// TruncateRunes cuts s to at most max code points.
func TruncateRunes(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max])
}
