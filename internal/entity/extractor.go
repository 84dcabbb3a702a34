// Package entity pulls numbers, e-mail addresses and Thai phone numbers out
// of a message. Matches of different kinds may overlap; each is reported.
package entity

import (
	"regexp"

	"github.com/tbourn/iris-triage/internal/domain"
)

type rule struct {
	label      string
	re         *regexp.Regexp
	confidence float64
}

// rules run in this order, which is also the order of the output.
var rules = []rule{
	{domain.EntityNumber, regexp.MustCompile(`\b\d+(?:\.\d+)?\b`), 0.8},
	{domain.EntityEmail, regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`), 0.9},
	// +66 or a leading 0, then 8 or 9 digits with optional single separators.
	{domain.EntityPhone, regexp.MustCompile(`(?:\+66|\b0)\d(?:[ .-]?\d){7,8}\b`), 0.9},
}

// Extractor is stateless.
type Extractor struct{}

// NewExtractor returns an Extractor.
func NewExtractor() *Extractor { return &Extractor{} }

// Extract returns numbers, then e-mails, then phones, each group in input
// order. The result is never nil.
func (*Extractor) Extract(text string) []domain.Entity {
	out := []domain.Entity{}
	for _, r := range rules {
		for _, loc := range r.re.FindAllStringIndex(text, -1) {
			out = append(out, domain.Entity{
				Text:       text[loc[0]:loc[1]],
				Label:      r.label,
				Confidence: r.confidence,
				Start:      loc[0],
				End:        loc[1],
			})
		}
	}
	return out
}
