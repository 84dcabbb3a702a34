// Package sentiment scores the polarity of a customer message.
//
// Non-Thai text goes through a polarity scorer (VADER by default). Thai text,
// or any text when the polarity scorer is missing or faults, is scored with
// bilingual marker lists.
package sentiment

import (
	"strings"

	"github.com/jonreiter/govader"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/iris-triage/internal/domain"
	"github.com/tbourn/iris-triage/internal/utils"
)

// Scoring methods reported in Result.Method.
const (
	MethodPolarity = "polarity"
	MethodKeyword  = "keyword"
)

const polarityThreshold = 0.1

var positiveMarkers = []string{"good", "great", "excellent", "ดี", "เยี่ยม", "ยอด", "ขอบคุณ", "thank", "love", "like", "ชอบ"}

var negativeMarkers = []string{"bad", "terrible", "awful", "แย่", "ไม่ดี", "เสีย", "บ่น", "ร้องเรียน", "angry", "hate", "เกลียด"}

// Result is the outcome of one scoring. Score is in [0,1] with 0.5 neutral;
// Confidence is the distance from neutral, also in [0,1].
type Result struct {
	Sentiment  string  `json:"sentiment"`
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
	Method     string  `json:"method"`
}

// PolarityScorer returns a polarity in [-1,1].
type PolarityScorer interface {
	Polarity(text string) float64
}

// Vader wraps govader's compound score.
type Vader struct {
	sia *govader.SentimentIntensityAnalyzer
}

// NewVader loads the VADER lexicon.
func NewVader() *Vader {
	return &Vader{sia: govader.NewSentimentIntensityAnalyzer()}
}

// Polarity implements PolarityScorer.
func (v *Vader) Polarity(text string) float64 {
	return v.sia.PolarityScores(text).Compound
}

// Scorer is safe for concurrent use as long as its PolarityScorer is.
type Scorer struct {
	polarity PolarityScorer
}

// NewScorer returns a Scorer. A nil polarity scorer leaves only the keyword
// path.
func NewScorer(p PolarityScorer) *Scorer {
	return &Scorer{polarity: p}
}

// Score classifies text. lang selects the path; Thai always uses keywords.
func (s *Scorer) Score(text, lang string) Result {
	if s.polarity != nil && lang != domain.LangThai {
		if res, ok := s.byPolarity(text); ok {
			return res
		}
	}
	return byKeywords(text)
}

func (s *Scorer) byPolarity(text string) (res Result, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn().Interface("panic", r).Msg("polarity scorer failed; using keyword sentiment")
			ok = false
		}
	}()
	p := max(-1, min(1, s.polarity.Polarity(text)))

	label := domain.SentimentNeutral
	switch {
	case p > polarityThreshold:
		label = domain.SentimentPositive
	case p < -polarityThreshold:
		label = domain.SentimentNegative
	}
	return newResult(label, (p+1)/2, MethodPolarity), true
}

func byKeywords(text string) Result {
	lowered := utils.Lower(utils.NormalizeText(text))
	pos, neg := 0, 0
	for _, w := range positiveMarkers {
		if strings.Contains(lowered, w) {
			pos++
		}
	}
	for _, w := range negativeMarkers {
		if strings.Contains(lowered, w) {
			neg++
		}
	}

	switch {
	case pos > neg:
		return newResult(domain.SentimentPositive, 0.7+0.1*float64(pos), MethodKeyword)
	case neg > pos:
		return newResult(domain.SentimentNegative, 0.3-0.1*float64(neg), MethodKeyword)
	default:
		return newResult(domain.SentimentNeutral, 0.5, MethodKeyword)
	}
}

// newResult clamps score into [0,1]; the keyword formula leaves that range
// once more than three markers of one kind match.
func newResult(label string, score float64, method string) Result {
	score = max(0, min(1, score))
	conf := 2*score - 1
	if conf < 0 {
		conf = -conf
	}
	return Result{Sentiment: label, Score: score, Confidence: conf, Method: method}
}
