package search

import (
	"strings"
	"unicode"
)

func isThai(r rune) bool { return r >= 0x0E00 && r <= 0x0E7F }

// tokenize lower-cases s and returns its token set: Latin/digit words as
// whole tokens and Thai runs as overlapping character bigrams. A Thai run of
// a single character is kept as one token.
func tokenize(s string, stop map[string]struct{}) map[string]struct{} {
	out := map[string]struct{}{}
	var word []rune
	var thai []rune

	flushWord := func() {
		if len(word) == 0 {
			return
		}
		w := string(word)
		word = word[:0]
		if _, skip := stop[w]; skip {
			return
		}
		out[w] = struct{}{}
	}
	flushThai := func() {
		switch {
		case len(thai) == 1:
			out[string(thai)] = struct{}{}
		case len(thai) > 1:
			for i := 0; i+1 < len(thai); i++ {
				out[string(thai[i:i+2])] = struct{}{}
			}
		}
		thai = thai[:0]
	}

	for _, r := range strings.ToLower(s) {
		switch {
		case isThai(r) && !isThaiDigitOrPunct(r):
			flushWord()
			thai = append(thai, r)
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			flushThai()
			word = append(word, r)
		default:
			flushWord()
			flushThai()
		}
	}
	flushWord()
	flushThai()
	if len(out) == 0 {
		return nil
	}
	return out
}

// Thai digits and the paiyannoi/maiyamok/fongman marks act as separators.
func isThaiDigitOrPunct(r rune) bool {
	return (r >= 0x0E50 && r <= 0x0E5B) || r == 0x0E2F || r == 0x0E46 || r == 0x0E4F
}

// languageOf labels text "th" when it contains any Thai letter.
func languageOf(text string) string {
	for _, r := range text {
		if isThai(r) && !isThaiDigitOrPunct(r) {
			return "th"
		}
	}
	return "en"
}
