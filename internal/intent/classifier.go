// Package intent maps a message onto the fixed customer-service intent
// taxonomy using the keyword lexicon.
package intent

import (
	"strings"

	"github.com/tbourn/iris-triage/internal/domain"
	"github.com/tbourn/iris-triage/internal/utils"
)

// AbstainConfidence is reported with IntentUnknown when no keyword matched.
const AbstainConfidence = 0.5

// Result is the outcome of one classification. Scores holds the confidence
// of every intent with at least one match.
type Result struct {
	Intent     string             `json:"intent"`
	Confidence float64            `json:"confidence"`
	Scores     map[string]float64 `json:"scores,omitempty"`
}

// Classifier is stateless and safe for concurrent use.
type Classifier struct {
	tables map[string]map[string][]string
}

// NewClassifier returns a Classifier using the built-in lexicon.
func NewClassifier() *Classifier {
	return &Classifier{tables: map[string]map[string][]string{
		domain.LangThai:    thaiKeywords,
		domain.LangEnglish: englishKeywords,
	}}
}

// Classify scores text against the keyword table for lang. Any language
// other than Thai uses the English table.
func (c *Classifier) Classify(text, lang string) Result {
	table, ok := c.tables[lang]
	if !ok {
		table = c.tables[domain.LangEnglish]
	}
	lowered := utils.Lower(utils.NormalizeText(text))

	scores := map[string]float64{}
	for _, name := range Priority {
		n := 0
		for _, kw := range table[name] {
			if strings.Contains(lowered, kw) {
				n++
			}
		}
		if n > 0 {
			scores[name] = min(0.9, float64(n)*0.3)
		}
	}
	if len(scores) == 0 {
		return Result{Intent: domain.IntentUnknown, Confidence: AbstainConfidence}
	}

	best := ""
	for _, name := range Priority {
		if s, ok := scores[name]; ok && (best == "" || s > scores[best]) {
			best = name
		}
	}
	return Result{Intent: best, Confidence: scores[best], Scores: scores}
}
