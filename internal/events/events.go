// Package events publishes triage outcomes to NATS JetStream so downstream
// consumers (agent dashboards, escalation queues) can react to them.
package events

import "time"

// Stream and subject names.
const (
	StreamTriage = "TRIAGE"

	SubjectProcessed  = "triage.events.processed"
	SubjectEscalation = "triage.events.escalation"
)

// TriageEvent is the payload published for a processed message.
type TriageEvent struct {
	MessageID          string    `json:"message_id"`
	UserID             string    `json:"user_id"`
	SessionID          string    `json:"session_id"`
	Platform           string    `json:"platform"`
	Language           string    `json:"language"`
	Intent             string    `json:"intent"`
	Confidence         float64   `json:"confidence"`
	Sentiment          string    `json:"sentiment"`
	SentimentScore     float64   `json:"sentiment_score"`
	UnresolvedIssues   []string  `json:"unresolved_issues,omitempty"`
	RecommendedActions []string  `json:"recommended_actions,omitempty"`
	Timestamp          time.Time `json:"timestamp"`
}
