package sentiment

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tbourn/iris-triage/internal/domain"
)

type fixedPolarity float64

func (f fixedPolarity) Polarity(string) float64 { return float64(f) }

type panicPolarity struct{}

func (panicPolarity) Polarity(string) float64 { panic("lexicon missing") }

func TestScore_PolarityThresholds(t *testing.T) {
	cases := []struct {
		p         float64
		label     string
		wantScore float64
	}{
		{0.8, domain.SentimentPositive, 0.9},
		{0.1, domain.SentimentNeutral, 0.55},
		{-0.1, domain.SentimentNeutral, 0.45},
		{-0.6, domain.SentimentNegative, 0.2},
		{-3, domain.SentimentNegative, 0},
	}
	for _, tc := range cases {
		res := NewScorer(fixedPolarity(tc.p)).Score("whatever", domain.LangEnglish)
		assert.Equal(t, tc.label, res.Sentiment, "p=%v", tc.p)
		assert.InDelta(t, tc.wantScore, res.Score, 1e-9, "p=%v", tc.p)
		assert.Equal(t, MethodPolarity, res.Method)
	}
}

func TestScore_ThaiUsesKeywords(t *testing.T) {
	s := NewScorer(fixedPolarity(-1))
	res := s.Score("ขอบคุณครับ บริการดีมาก", domain.LangThai)
	assert.Equal(t, domain.SentimentPositive, res.Sentiment)
	assert.Equal(t, MethodKeyword, res.Method)
	// ดี, ขอบคุณ
	assert.InDelta(t, 0.9, res.Score, 1e-9)
}

func TestScore_KeywordFallbackIsClamped(t *testing.T) {
	res := NewScorer(nil).Score("bad terrible awful, I hate this, so angry", domain.LangEnglish)
	assert.Equal(t, domain.SentimentNegative, res.Sentiment)
	assert.Equal(t, 0.0, res.Score)
	assert.Equal(t, 1.0, res.Confidence)

	res = NewScorer(nil).Score("good great excellent, thank you, love it", domain.LangEnglish)
	assert.Equal(t, domain.SentimentPositive, res.Sentiment)
	assert.Equal(t, 1.0, res.Score)
}

func TestScore_KeywordNeutral(t *testing.T) {
	res := NewScorer(nil).Score("where is my parcel", domain.LangEnglish)
	assert.Equal(t, domain.SentimentNeutral, res.Sentiment)
	assert.Equal(t, 0.5, res.Score)
	assert.Zero(t, res.Confidence)
}

func TestScore_PolarityPanicFallsBack(t *testing.T) {
	res := NewScorer(panicPolarity{}).Score("this is bad", domain.LangEnglish)
	assert.Equal(t, domain.SentimentNegative, res.Sentiment)
	assert.Equal(t, MethodKeyword, res.Method)
	assert.InDelta(t, 0.2, res.Score, 1e-9)
}

func TestVader(t *testing.T) {
	s := NewScorer(NewVader())

	pos := s.Score("I love this product, it is wonderful!", domain.LangEnglish)
	assert.Equal(t, domain.SentimentPositive, pos.Sentiment)

	neg := s.Score("This is terrible and I hate it.", domain.LangEnglish)
	assert.Equal(t, domain.SentimentNegative, neg.Sentiment)

	assert.Equal(t, pos, s.Score("I love this product, it is wonderful!", domain.LangEnglish))
}
