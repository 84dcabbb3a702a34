// Package domain defines the persistence models for user profiles,
// conversation contexts and processed messages. These types are mapped with
// GORM and serialized as JSON by the key-value backend, so both storage
// engines share a single shape.
package domain

import "time"

// Entity is a typed span found in a message.
//
// Start and End are byte offsets into the original text, End exclusive.
type Entity struct {
	Text       string  `json:"text"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
}

// SentimentRecord is one entry of a profile's sentiment history.
type SentimentRecord struct {
	Sentiment  string    `json:"sentiment"`
	Score      float64   `json:"score"`
	Confidence float64   `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
}

// HistoryEntry is one processed turn kept in a conversation's history.
type HistoryEntry struct {
	MessageID      string    `json:"message_id"`
	Text           string    `json:"text"`
	Intent         string    `json:"intent"`
	Confidence     float64   `json:"confidence"`
	Sentiment      string    `json:"sentiment"`
	SentimentScore float64   `json:"sentiment_score"`
	Language       string    `json:"language"`
	Entities       []Entity  `json:"entities,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// ConversationFlow describes how intents moved across a session.
type ConversationFlow struct {
	Pattern           string   `json:"pattern"`
	Transitions       []string `json:"transitions"`
	IntentDiversity   int      `json:"intent_diversity"`
	AverageConfidence float64  `json:"average_confidence"`
}

// SessionSummary aggregates a session. Status is set to "no_activity" and
// every other field left zero when the session has no history.
type SessionSummary struct {
	Status                string  `json:"status,omitempty"`
	PrimaryIntent         string  `json:"primary_intent,omitempty"`
	PrimarySentiment      string  `json:"primary_sentiment,omitempty"`
	PrimaryLanguage       string  `json:"primary_language,omitempty"`
	MessageCount          int     `json:"message_count"`
	DurationMinutes       float64 `json:"duration_minutes"`
	ResolvedIssues        int     `json:"resolved_issues"`
	SatisfactionIndicator string  `json:"satisfaction_indicator,omitempty"`
}

// Insights is recomputed from the history on every turn.
type Insights struct {
	RecentIntents      []string         `json:"recent_intents"`
	RecentSentiments   []string         `json:"recent_sentiments"`
	Flow               ConversationFlow `json:"conversation_flow"`
	Engagement         float64          `json:"engagement_level"`
	Summary            SessionSummary   `json:"session_summary"`
	RecommendedActions []string         `json:"recommended_actions"`
}

// UserProfile holds long-lived per-user preferences and statistics.
// Profiles are created on first contact and never deleted.
//
// Fields:
//   - UserID: primary key, the caller-supplied user identifier.
//   - Name: optional display name used to personalize replies.
//   - PreferredLanguage: last detected language other than "unknown".
//   - CommunicationStyle: formal, informal or neutral.
//   - FrequentIntents: intent -> count.
//   - SentimentHistory: most recent sentiments, capped.
//   - SatisfactionScore: decay-weighted satisfaction in [0,1].
//   - PlatformUsage: platform -> count.
//   - FirstSeen / LastSeen: first and latest interaction.
type UserProfile struct {
	UserID             string            `json:"user_id"             gorm:"type:varchar(64);primaryKey"`
	Name               string            `json:"name,omitempty"      gorm:"type:varchar(255)"`
	PreferredLanguage  string            `json:"preferred_language"  gorm:"type:varchar(16);not null;default:'en'"`
	CommunicationStyle string            `json:"communication_style" gorm:"type:varchar(16);not null;default:'neutral'"`
	FrequentIntents    map[string]int    `json:"frequent_intents"    gorm:"type:text;serializer:json"`
	SentimentHistory   []SentimentRecord `json:"sentiment_history"   gorm:"type:text;serializer:json"`
	Preferences        map[string]string `json:"preferences"         gorm:"type:text;serializer:json"`
	PlatformUsage      map[string]int    `json:"platform_usage"      gorm:"type:text;serializer:json"`
	InteractionCount   int               `json:"interaction_count"   gorm:"not null;default:0"`
	SatisfactionScore  float64           `json:"satisfaction_score"  gorm:"not null;default:0.5"`
	FirstSeen          time.Time         `json:"first_seen"`
	LastSeen           time.Time         `json:"last_seen"           gorm:"index"`
}

// TableName returns the database table name for UserProfile.
func (UserProfile) TableName() string { return "user_profiles" }

// NewUserProfile returns the profile assigned to a user on first contact.
func NewUserProfile(userID string, now time.Time) *UserProfile {
	return &UserProfile{
		UserID:             userID,
		PreferredLanguage:  LangEnglish,
		CommunicationStyle: StyleNeutral,
		FrequentIntents:    map[string]int{},
		SentimentHistory:   []SentimentRecord{},
		Preferences:        map[string]string{},
		PlatformUsage:      map[string]int{},
		SatisfactionScore:  0.5,
		FirstSeen:          now,
		LastSeen:           now,
	}
}

// Clone returns a deep copy of p.
func (p *UserProfile) Clone() *UserProfile {
	if p == nil {
		return nil
	}
	cp := *p
	cp.FrequentIntents = cloneCounts(p.FrequentIntents)
	cp.PlatformUsage = cloneCounts(p.PlatformUsage)
	cp.SentimentHistory = append([]SentimentRecord(nil), p.SentimentHistory...)
	cp.Preferences = make(map[string]string, len(p.Preferences))
	for k, v := range p.Preferences {
		cp.Preferences[k] = v
	}
	return &cp
}

// ConversationContext is the short-lived state of one (user, session) pair.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - UserID / SessionID: unique pair identifying the conversation.
//   - History: processed turns, oldest first, bounded by the store.
//   - CurrentIntent / CurrentSentiment: values from the latest turn.
//   - Insights: derived analytics, recomputed each turn.
//   - UnresolvedIssues: intents still awaiting resolution, no duplicates.
//   - Platform: channel of the latest message.
//   - MessageCount: turns processed, including ones evicted from History.
//   - StartedAt / LastUpdated: session start and latest mutation.
//   - Degraded: set on ephemeral contexts built after a storage failure;
//     never persisted.
type ConversationContext struct {
	ID               string         `json:"id"                gorm:"type:char(36);primaryKey"`
	UserID           string         `json:"user_id"           gorm:"type:varchar(64);not null;uniqueIndex:ux_ctx_user_session,priority:1"`
	SessionID        string         `json:"session_id"        gorm:"type:varchar(64);not null;uniqueIndex:ux_ctx_user_session,priority:2"`
	History          []HistoryEntry `json:"history"           gorm:"type:text;serializer:json"`
	CurrentIntent    string         `json:"current_intent"    gorm:"type:varchar(32)"`
	CurrentSentiment string         `json:"current_sentiment" gorm:"type:varchar(16)"`
	Insights         Insights       `json:"insights"          gorm:"type:text;serializer:json"`
	UnresolvedIssues []string       `json:"unresolved_issues" gorm:"type:text;serializer:json"`
	Platform         string         `json:"platform"          gorm:"type:varchar(32)"`
	MessageCount     int            `json:"message_count"     gorm:"not null;default:0"`
	StartedAt        time.Time      `json:"started_at"`
	LastUpdated      time.Time      `json:"last_updated"      gorm:"index"`
	Degraded         bool           `json:"degraded,omitempty" gorm:"-"`
}

// TableName returns the database table name for ConversationContext.
func (ConversationContext) TableName() string { return "conversation_contexts" }

// Clone returns a deep copy of c.
func (c *ConversationContext) Clone() *ConversationContext {
	if c == nil {
		return nil
	}
	cp := *c
	cp.History = make([]HistoryEntry, len(c.History))
	for i, h := range c.History {
		h.Entities = append([]Entity(nil), h.Entities...)
		cp.History[i] = h
	}
	cp.UnresolvedIssues = append([]string(nil), c.UnresolvedIssues...)
	cp.Insights = c.Insights.clone()
	return &cp
}

func (in Insights) clone() Insights {
	out := in
	out.RecentIntents = append([]string(nil), in.RecentIntents...)
	out.RecentSentiments = append([]string(nil), in.RecentSentiments...)
	out.RecommendedActions = append([]string(nil), in.RecommendedActions...)
	out.Flow.Transitions = append([]string(nil), in.Flow.Transitions...)
	return out
}

// ConversationMessage is the durable record of one processed message.
type ConversationMessage struct {
	ID             string    `json:"id"              gorm:"type:char(36);primaryKey"`
	UserID         string    `json:"user_id"         gorm:"type:varchar(64);not null;index:idx_session_msgs,priority:1"`
	SessionID      string    `json:"session_id"      gorm:"type:varchar(64);not null;index:idx_session_msgs,priority:2"`
	Text           string    `json:"text"            gorm:"type:text;not null"`
	Intent         string    `json:"intent"          gorm:"type:varchar(32);index"`
	Confidence     float64   `json:"confidence"`
	Sentiment      string    `json:"sentiment"       gorm:"type:varchar(16)"`
	SentimentScore float64   `json:"sentiment_score"`
	Language       string    `json:"language"        gorm:"type:varchar(16)"`
	Platform       string    `json:"platform"        gorm:"type:varchar(32)"`
	Entities       []Entity  `json:"entities"        gorm:"type:text;serializer:json"`
	ResponseText   string    `json:"response_text"   gorm:"type:text"`
	Timestamp      time.Time `json:"timestamp"       gorm:"index:idx_session_msgs,priority:3"`
}

// TableName returns the database table name for ConversationMessage.
func (ConversationMessage) TableName() string { return "conversation_messages" }

func cloneCounts(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
