package conversation

import (
	"math"
	"strings"

	"github.com/tbourn/iris-triage/internal/domain"
)

// Recommended actions, in the order they are emitted.
const (
	ActionEscalate        = "escalate_to_human"
	ActionRecover         = "apply_recovery_strategy"
	ActionSummarizeClose  = "summarize_and_close"
	ActionRaiseEngagement = "increase_engagement"
)

const (
	recentWindow      = 5
	sentimentWindow   = 3
	longSession       = 15
	lowEngagement     = 0.3
	satisfactionDecay = 0.9
)

// intents that open an issue, and intents that close one when positive
var (
	issueIntents      = map[string]bool{domain.IntentComplaint: true, domain.IntentSupportRequest: true, "problem": true}
	resolutionIntents = map[string]bool{domain.IntentCompliment: true, "satisfaction": true, domain.IntentGoodbye: true}
)

var (
	formalMarkers   = []string{"คุณ", "ท่าน", "กรุณา", "sir", "madam", "please", "thank you"}
	informalMarkers = []string{"555", "ฮ่า", "เฮ้", "hi", "hey", "cool", "awesome"}
)

func lastN(h []domain.HistoryEntry, n int) []domain.HistoryEntry {
	if len(h) > n {
		return h[len(h)-n:]
	}
	return h
}

func computeInsights(c *domain.ConversationContext) domain.Insights {
	recent := lastN(c.History, recentWindow)
	in := domain.Insights{
		RecentIntents:    make([]string, 0, len(recent)),
		RecentSentiments: make([]string, 0, len(recent)),
	}
	for _, h := range recent {
		in.RecentIntents = append(in.RecentIntents, h.Intent)
		in.RecentSentiments = append(in.RecentSentiments, h.Sentiment)
	}
	in.Flow = conversationFlow(c.History)
	in.Engagement = engagement(c)
	in.Summary = sessionSummary(c)
	in.RecommendedActions = recommendedActions(c, in.Engagement)
	return in
}

func conversationFlow(h []domain.HistoryEntry) domain.ConversationFlow {
	if len(h) < 2 {
		return domain.ConversationFlow{Pattern: "initial", Transitions: []string{}}
	}
	transitions := make([]string, 0, len(h)-1)
	for i := 1; i < len(h); i++ {
		transitions = append(transitions, h[i-1].Intent+"->"+h[i].Intent)
	}

	var sum float64
	for _, m := range h {
		sum += m.Confidence
	}
	diversity := distinctIntents(h)

	pattern := "complex"
	switch {
	case diversity == 1:
		pattern = "single_intent"
	case len(transitions) <= 3:
		pattern = "simple"
	}
	return domain.ConversationFlow{
		Pattern:           pattern,
		Transitions:       transitions,
		IntentDiversity:   diversity,
		AverageConfidence: sum / float64(len(h)),
	}
}

func distinctIntents(h []domain.HistoryEntry) int {
	seen := map[string]struct{}{}
	for _, m := range h {
		seen[m.Intent] = struct{}{}
	}
	return len(seen)
}

// engagement weighs message rate, a constant response-speed term and intent
// diversity; the result is rounded to two decimals.
func engagement(c *domain.ConversationContext) float64 {
	if c.MessageCount == 0 {
		return 0
	}
	minutes := c.LastUpdated.Sub(c.StartedAt).Minutes()
	perMinute := float64(c.MessageCount) / math.Max(1, minutes)
	const responseSpeed = 1.0
	score := math.Min(1, perMinute/10)*0.4 +
		responseSpeed*0.3 +
		math.Min(1, float64(distinctIntents(c.History))/5)*0.3
	return math.Round(score*100) / 100
}

func sessionSummary(c *domain.ConversationContext) domain.SessionSummary {
	if len(c.History) == 0 {
		return domain.SessionSummary{Status: "no_activity"}
	}
	intents := make([]string, len(c.History))
	sentiments := make([]string, len(c.History))
	languages := make([]string, len(c.History))
	for i, h := range c.History {
		intents[i], sentiments[i], languages[i] = h.Intent, h.Sentiment, h.Language
	}
	return domain.SessionSummary{
		PrimaryIntent:         mode(intents),
		PrimarySentiment:      mode(sentiments),
		PrimaryLanguage:       mode(languages),
		MessageCount:          len(c.History),
		DurationMinutes:       c.LastUpdated.Sub(c.StartedAt).Minutes(),
		ResolvedIssues:        max(0, len(intents)-len(c.UnresolvedIssues)),
		SatisfactionIndicator: satisfactionIndicator(sentiments),
	}
}

// mode returns the most frequent value; the earliest seen wins ties.
func mode(vals []string) string {
	counts := map[string]int{}
	best := ""
	for _, v := range vals {
		counts[v]++
		if best == "" || counts[v] > counts[best] {
			best = v
		}
	}
	return best
}

func satisfactionIndicator(sentiments []string) string {
	if len(sentiments) == 0 {
		return "unknown"
	}
	pos, neg := 0, 0
	for _, s := range sentiments {
		switch s {
		case domain.SentimentPositive:
			pos++
		case domain.SentimentNegative:
			neg++
		}
	}
	switch {
	case pos > neg*2:
		return "satisfied"
	case neg > pos:
		return "dissatisfied"
	default:
		return "neutral"
	}
}

func recommendedActions(c *domain.ConversationContext, engagementScore float64) []string {
	actions := []string{}
	if len(c.UnresolvedIssues) > 0 {
		actions = append(actions, ActionEscalate)
	}
	neg := 0
	for _, h := range lastN(c.History, sentimentWindow) {
		if h.Sentiment == domain.SentimentNegative {
			neg++
		}
	}
	if neg >= 2 {
		actions = append(actions, ActionRecover)
	}
	if c.MessageCount > longSession {
		actions = append(actions, ActionSummarizeClose)
	}
	if engagementScore < lowEngagement {
		actions = append(actions, ActionRaiseEngagement)
	}
	return actions
}

// trackIssue records intent as unresolved unless a positive closing turn
// appears in the recent window.
func trackIssue(c *domain.ConversationContext, intent string) {
	if !issueIntents[intent] {
		return
	}
	for _, h := range lastN(c.History, recentWindow) {
		if resolutionIntents[h.Intent] && h.Sentiment == domain.SentimentPositive {
			return
		}
	}
	for _, u := range c.UnresolvedIssues {
		if u == intent {
			return
		}
	}
	c.UnresolvedIssues = append(c.UnresolvedIssues, intent)
}

func communicationStyle(text string) string {
	if text == "" {
		return domain.StyleNeutral
	}
	lowered := strings.ToLower(text)
	formal, informal := 0, 0
	for _, m := range formalMarkers {
		if strings.Contains(lowered, m) {
			formal++
		}
	}
	for _, m := range informalMarkers {
		if strings.Contains(lowered, m) {
			informal++
		}
	}
	switch {
	case formal > informal:
		return domain.StyleFormal
	case informal > formal:
		return domain.StyleInformal
	default:
		return domain.StyleNeutral
	}
}

// satisfaction is the confidence- and recency-weighted mean of the
// sentiment history, 0.5 when there is no usable weight.
func satisfaction(history []domain.SentimentRecord) float64 {
	var total, weights float64
	n := len(history)
	for i, r := range history {
		var s float64
		switch r.Sentiment {
		case domain.SentimentPositive:
			s = 1
		case domain.SentimentNegative:
			s = 0
		default:
			s = 0.5
		}
		conf := r.Confidence
		if math.IsNaN(conf) || conf < 0 {
			conf = 0
		}
		w := conf * math.Pow(satisfactionDecay, float64(n-i-1))
		total += s * w
		weights += w
	}
	if weights <= 0 || math.IsInf(weights, 0) {
		return 0.5
	}
	return math.Max(0, math.Min(1, total/weights))
}
