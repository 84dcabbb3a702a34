package conversation

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tbourn/iris-triage/internal/domain"
)

func entries(intents ...string) []domain.HistoryEntry {
	out := make([]domain.HistoryEntry, len(intents))
	for i, in := range intents {
		out[i] = domain.HistoryEntry{Intent: in, Confidence: 0.6, Sentiment: domain.SentimentNeutral, Language: domain.LangEnglish}
	}
	return out
}

func TestConversationFlow(t *testing.T) {
	f := conversationFlow(entries(domain.IntentGreeting))
	assert.Equal(t, "initial", f.Pattern)
	assert.Empty(t, f.Transitions)

	f = conversationFlow(entries(domain.IntentGreeting, domain.IntentGreeting))
	assert.Equal(t, "single_intent", f.Pattern)
	assert.Equal(t, 1, f.IntentDiversity)

	f = conversationFlow(entries(domain.IntentGreeting, domain.IntentOrderStatus))
	assert.Equal(t, "simple", f.Pattern)
	assert.Equal(t, []string{"greeting->order_status"}, f.Transitions)
	assert.InDelta(t, 0.6, f.AverageConfidence, 1e-9)

	f = conversationFlow(entries("a", "b", "a", "b", "a"))
	assert.Equal(t, "complex", f.Pattern)
	assert.Len(t, f.Transitions, 4)
}

func TestEngagement(t *testing.T) {
	start := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	c := &domain.ConversationContext{StartedAt: start, LastUpdated: start}
	assert.Zero(t, engagement(c))

	c.MessageCount = 1
	c.History = entries(domain.IntentGreeting)
	// 0.4*0.1 + 0.3 + 0.3*0.2
	assert.Equal(t, 0.4, engagement(c))

	c.MessageCount = 20
	c.History = entries("a", "b", "c", "d", "e")
	c.LastUpdated = start.Add(time.Minute)
	assert.Equal(t, 1.0, engagement(c))
}

func TestSessionSummary(t *testing.T) {
	assert.Equal(t, "no_activity", sessionSummary(&domain.ConversationContext{}).Status)

	start := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	h := entries(domain.IntentComplaint, domain.IntentGreeting, domain.IntentComplaint)
	h[0].Sentiment = domain.SentimentNegative
	h[1].Sentiment = domain.SentimentNegative
	c := &domain.ConversationContext{
		History:          h,
		UnresolvedIssues: []string{domain.IntentComplaint},
		StartedAt:        start,
		LastUpdated:      start.Add(90 * time.Second),
	}
	s := sessionSummary(c)
	assert.Equal(t, domain.IntentComplaint, s.PrimaryIntent)
	assert.Equal(t, domain.SentimentNegative, s.PrimarySentiment)
	assert.Equal(t, domain.LangEnglish, s.PrimaryLanguage)
	assert.Equal(t, 3, s.MessageCount)
	assert.Equal(t, 2, s.ResolvedIssues)
	assert.InDelta(t, 1.5, s.DurationMinutes, 1e-9)
	assert.Equal(t, "dissatisfied", s.SatisfactionIndicator)
}

func TestSatisfactionIndicator(t *testing.T) {
	assert.Equal(t, "unknown", satisfactionIndicator(nil))
	assert.Equal(t, "satisfied", satisfactionIndicator([]string{"positive", "positive", "positive", "negative"}))
	assert.Equal(t, "neutral", satisfactionIndicator([]string{"positive", "positive", "negative"}))
	assert.Equal(t, "dissatisfied", satisfactionIndicator([]string{"negative", "neutral"}))
}

func TestRecommendedActions_Order(t *testing.T) {
	h := entries(domain.IntentComplaint, domain.IntentComplaint, domain.IntentComplaint)
	for i := range h {
		h[i].Sentiment = domain.SentimentNegative
	}
	c := &domain.ConversationContext{History: h, UnresolvedIssues: []string{domain.IntentComplaint}, MessageCount: 16}
	assert.Equal(t, []string{ActionEscalate, ActionRecover, ActionSummarizeClose, ActionRaiseEngagement},
		recommendedActions(c, 0.1))
	assert.Empty(t, recommendedActions(&domain.ConversationContext{}, 0.5))
}

func TestTrackIssue(t *testing.T) {
	c := &domain.ConversationContext{History: entries(domain.IntentComplaint)}
	trackIssue(c, domain.IntentComplaint)
	trackIssue(c, domain.IntentComplaint)
	assert.Equal(t, []string{domain.IntentComplaint}, c.UnresolvedIssues)

	trackIssue(c, domain.IntentGreeting)
	assert.Len(t, c.UnresolvedIssues, 1)

	resolved := &domain.ConversationContext{History: entries(domain.IntentGoodbye, domain.IntentSupportRequest)}
	resolved.History[0].Sentiment = domain.SentimentPositive
	trackIssue(resolved, domain.IntentSupportRequest)
	assert.Empty(t, resolved.UnresolvedIssues)
}

func TestCommunicationStyle(t *testing.T) {
	assert.Equal(t, domain.StyleFormal, communicationStyle("Could you please help me, sir"))
	assert.Equal(t, domain.StyleInformal, communicationStyle("hey that's cool 555"))
	assert.Equal(t, domain.StyleNeutral, communicationStyle("where is my order"))
	assert.Equal(t, domain.StyleNeutral, communicationStyle(""))
	assert.Equal(t, domain.StyleFormal, communicationStyle("กรุณาตรวจสอบให้ด้วย"))
}

func TestSatisfaction(t *testing.T) {
	assert.Equal(t, 0.5, satisfaction(nil))
	assert.Equal(t, 0.5, satisfaction([]domain.SentimentRecord{{Sentiment: domain.SentimentPositive, Confidence: 0}}))

	got := satisfaction([]domain.SentimentRecord{
		{Sentiment: domain.SentimentNegative, Confidence: 1},
		{Sentiment: domain.SentimentPositive, Confidence: 1},
	})
	// (0*0.9 + 1*1) / (0.9 + 1)
	assert.InDelta(t, 1/1.9, got, 1e-9)
}

func TestSatisfaction_StaysInUnitInterval(t *testing.T) {
	r := rand.New(rand.NewPCG(42, 99))
	labels := []string{domain.SentimentPositive, domain.SentimentNegative, domain.SentimentNeutral, "garbage"}
	for run := 0; run < 500; run++ {
		var h []domain.SentimentRecord
		for i := 0; i < r.IntN(40); i++ {
			h = append(h, domain.SentimentRecord{
				Sentiment:  labels[r.IntN(len(labels))],
				Confidence: r.Float64()*3 - 1,
			})
			s := satisfaction(h)
			if s < 0 || s > 1 {
				t.Fatalf("satisfaction %v out of range for %+v", s, h)
			}
		}
	}
}
