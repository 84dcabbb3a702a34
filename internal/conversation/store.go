// Package conversation keeps per-session conversation context and per-user
// profiles. Active entries are held in bounded caches in front of a durable
// Backend; writes for one session are serialized while different sessions
// proceed in parallel. Storage failures never reach the caller: they are
// logged and answered with an ephemeral context.
package conversation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/iris-triage/internal/domain"
	"github.com/tbourn/iris-triage/internal/metrics"
)

// ErrMissingUser is returned when an operation is called without a user id.
var ErrMissingUser = errors.New("user id is required")

// Config bounds the store's memory and timing behavior.
type Config struct {
	MaxConversations    int           // cached contexts
	MaxProfiles         int           // cached profiles
	ContextExpiry       time.Duration // idle time after which a cached context is dropped
	ContextRetention    time.Duration // how old a stored context may be and still resume
	MaxHistory          int
	SentimentHistoryCap int
	StorageTimeout      time.Duration
}

// DefaultConfig mirrors the service defaults.
func DefaultConfig() Config {
	return Config{
		MaxConversations:    1000,
		MaxProfiles:         1000,
		ContextExpiry:       72 * time.Hour,
		ContextRetention:    30 * 24 * time.Hour,
		MaxHistory:          50,
		SentimentHistoryCap: 20,
		StorageTimeout:      30 * time.Second,
	}
}

// Turn is one analyzed message to fold into a conversation.
type Turn struct {
	UserID           string
	SessionID        string
	MessageID        string
	Text             string
	Platform         string
	DisplayName      string
	Language         string
	Intent           string
	IntentConfidence float64
	Sentiment        string
	SentimentScore   float64
	Entities         []domain.Entity
	Response         string // reply sent for this turn, persisted with the message
	Timestamp        time.Time
}

// Store is safe for concurrent use.
type Store struct {
	backend Backend
	cfg     Config

	contexts *lru.Cache[sessionKey, *domain.ConversationContext]
	profiles *lru.Cache[string, *domain.UserProfile]

	sessionLocks *keyedMutex[sessionKey]
	profileLocks *keyedMutex[string]

	now func() time.Time
}

// NewStore builds a Store over backend. A nil backend keeps state in memory
// only. Zero config fields take DefaultConfig values.
func NewStore(backend Backend, cfg Config) (*Store, error) {
	def := DefaultConfig()
	if cfg.MaxConversations <= 0 {
		cfg.MaxConversations = def.MaxConversations
	}
	if cfg.MaxProfiles <= 0 {
		cfg.MaxProfiles = def.MaxProfiles
	}
	if cfg.ContextExpiry <= 0 {
		cfg.ContextExpiry = def.ContextExpiry
	}
	if cfg.ContextRetention < cfg.ContextExpiry {
		cfg.ContextRetention = max(def.ContextRetention, cfg.ContextExpiry)
	}
	if cfg.MaxHistory <= 0 {
		cfg.MaxHistory = def.MaxHistory
	}
	if cfg.SentimentHistoryCap <= 0 {
		cfg.SentimentHistoryCap = def.SentimentHistoryCap
	}
	if cfg.StorageTimeout <= 0 {
		cfg.StorageTimeout = def.StorageTimeout
	}

	contexts, err := lru.New[sessionKey, *domain.ConversationContext](cfg.MaxConversations)
	if err != nil {
		return nil, err
	}
	profiles, err := lru.New[string, *domain.UserProfile](cfg.MaxProfiles)
	if err != nil {
		return nil, err
	}
	return &Store{
		backend:      backend,
		cfg:          cfg,
		contexts:     contexts,
		profiles:     profiles,
		sessionLocks: newKeyedMutex[sessionKey](),
		profileLocks: newKeyedMutex[string](),
		now:          time.Now,
	}, nil
}

var tracer = otel.Tracer("conversation/Store")

// sessionKey identifies one conversation. Session ids are only unique per
// user, so both parts are compared.
type sessionKey struct{ user, session string }

func contextKey(userID, sessionID string) sessionKey { return sessionKey{userID, sessionID} }

// NewSessionID derives a session id from the user and the current time.
// The id is a name-based UUID, so it is stable for the same input and
// unique across users and instants.
func NewSessionID(userID string, at time.Time) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(userID+":"+at.UTC().Format(time.RFC3339Nano))).String()
}

// GetContext returns a copy of the active context for (userID, sessionID),
// resuming it from storage or starting a new one. An empty sessionID starts
// a new session.
func (s *Store) GetContext(ctx context.Context, userID, sessionID string) (*domain.ConversationContext, error) {
	if userID == "" {
		return nil, ErrMissingUser
	}
	if sessionID == "" {
		sessionID = NewSessionID(userID, s.now())
	}
	ctx, span := tracer.Start(ctx, "GetContext", trace.WithAttributes(attribute.String("session.id", sessionID)))
	defer span.End()

	unlock := s.sessionLocks.Lock(contextKey(userID, sessionID))
	defer unlock()
	return s.loadContext(ctx, userID, sessionID).Clone(), nil
}

// loadContext must be called with the session lock held. The returned value
// may be the cached pointer and must not be mutated.
func (s *Store) loadContext(ctx context.Context, userID, sessionID string) *domain.ConversationContext {
	key := contextKey(userID, sessionID)
	now := s.now()

	if c, ok := s.contexts.Peek(key); ok {
		if now.Sub(c.LastUpdated) <= s.cfg.ContextExpiry {
			return c
		}
		s.contexts.Remove(key)
		s.reportCacheSize()
	}

	if s.backend != nil {
		sctx, cancel := context.WithTimeout(ctx, s.cfg.StorageTimeout)
		stored, err := s.backend.LoadContext(sctx, userID, sessionID)
		cancel()
		if err != nil {
			metrics.StorageFailures.WithLabelValues("load_context").Inc()
			log.Warn().Err(err).Str("user_id", userID).Str("session_id", sessionID).
				Msg("context load failed; continuing with an ephemeral context")
			c := newContext(userID, sessionID, now)
			c.CurrentIntent = domain.IntentUnknown
			c.Degraded = true
			return c
		}
		if stored != nil && now.Sub(stored.LastUpdated) <= s.cfg.ContextRetention {
			s.contexts.Add(key, stored)
			s.reportCacheSize()
			return stored
		}
	}

	c := newContext(userID, sessionID, now)
	s.contexts.Add(key, c)
	s.reportCacheSize()
	return c
}

func newContext(userID, sessionID string, now time.Time) *domain.ConversationContext {
	return &domain.ConversationContext{
		ID:               uuid.NewString(),
		UserID:           userID,
		SessionID:        sessionID,
		History:          []domain.HistoryEntry{},
		CurrentIntent:    domain.IntentGreeting,
		CurrentSentiment: domain.SentimentNeutral,
		Insights:         domain.Insights{Summary: domain.SessionSummary{Status: "no_activity"}},
		UnresolvedIssues: []string{},
		StartedAt:        now,
		LastUpdated:      now,
	}
}

// UpdateContext folds t into its conversation and the user's profile and
// returns a copy of the updated context.
func (s *Store) UpdateContext(ctx context.Context, t Turn) (*domain.ConversationContext, error) {
	if t.UserID == "" {
		return nil, ErrMissingUser
	}
	if t.SessionID == "" {
		t.SessionID = NewSessionID(t.UserID, s.now())
	}
	if t.MessageID == "" {
		t.MessageID = uuid.NewString()
	}
	if t.Platform == "" {
		t.Platform = domain.DefaultPlatform
	}
	now := s.now()
	if t.Timestamp.IsZero() {
		t.Timestamp = now
	}

	ctx, span := tracer.Start(ctx, "UpdateContext", trace.WithAttributes(
		attribute.String("session.id", t.SessionID),
		attribute.String("intent", t.Intent),
	))
	defer span.End()

	key := contextKey(t.UserID, t.SessionID)
	unlock := s.sessionLocks.Lock(key)
	defer unlock()

	// An abandoned request must not leave a turn behind.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := s.loadContext(ctx, t.UserID, t.SessionID).Clone()

	c.History = append(c.History, domain.HistoryEntry{
		MessageID:      t.MessageID,
		Text:           t.Text,
		Intent:         t.Intent,
		Confidence:     t.IntentConfidence,
		Sentiment:      t.Sentiment,
		SentimentScore: t.SentimentScore,
		Language:       t.Language,
		Entities:       append([]domain.Entity(nil), t.Entities...),
		Timestamp:      t.Timestamp,
	})
	if over := len(c.History) - s.cfg.MaxHistory; over > 0 {
		c.History = append([]domain.HistoryEntry(nil), c.History[over:]...)
	}
	c.CurrentIntent = t.Intent
	c.CurrentSentiment = t.Sentiment
	c.Platform = t.Platform
	c.MessageCount++
	c.LastUpdated = now

	// Insights see the issue list as it was before this turn.
	c.Insights = computeInsights(c)
	trackIssue(c, t.Intent)

	if !c.Degraded {
		s.contexts.Add(key, c)
		s.reportCacheSize()
		s.persist(ctx, "save_context", func(sctx context.Context) error { return s.backend.SaveContext(sctx, c) })
	}
	s.persist(ctx, "append_message", func(sctx context.Context) error {
		return s.backend.AppendMessage(sctx, &domain.ConversationMessage{
			ID:             t.MessageID,
			UserID:         t.UserID,
			SessionID:      t.SessionID,
			Text:           t.Text,
			Intent:         t.Intent,
			Confidence:     t.IntentConfidence,
			Sentiment:      t.Sentiment,
			SentimentScore: t.SentimentScore,
			Language:       t.Language,
			Platform:       t.Platform,
			Entities:       t.Entities,
			ResponseText:   t.Response,
			Timestamp:      t.Timestamp,
		})
	})

	s.updateProfile(ctx, t, now)
	return c.Clone(), nil
}

// persist runs op against the backend with the storage timeout, logging and
// counting failures.
func (s *Store) persist(ctx context.Context, op string, fn func(context.Context) error) {
	if s.backend == nil {
		return
	}
	sctx, cancel := context.WithTimeout(ctx, s.cfg.StorageTimeout)
	defer cancel()
	if err := fn(sctx); err != nil {
		metrics.StorageFailures.WithLabelValues(op).Inc()
		log.Warn().Err(err).Str("op", op).Msg("storage write failed")
	}
}

func (s *Store) updateProfile(ctx context.Context, t Turn, now time.Time) {
	unlock := s.profileLocks.Lock(t.UserID)
	defer unlock()

	stored, ok := s.loadProfile(ctx, t.UserID)
	if !ok {
		// Saving over an unreadable profile would reset it.
		log.Warn().Str("user_id", t.UserID).Msg("profile unavailable; skipping profile update")
		return
	}
	p := stored.Clone()
	p.InteractionCount++
	p.LastSeen = now
	if p.FrequentIntents == nil {
		p.FrequentIntents = map[string]int{}
	}
	p.FrequentIntents[t.Intent]++

	p.SentimentHistory = append(p.SentimentHistory, domain.SentimentRecord{
		Sentiment:  t.Sentiment,
		Score:      t.SentimentScore,
		Confidence: t.IntentConfidence,
		Timestamp:  t.Timestamp,
	})
	if over := len(p.SentimentHistory) - s.cfg.SentimentHistoryCap; over > 0 {
		p.SentimentHistory = append([]domain.SentimentRecord(nil), p.SentimentHistory[over:]...)
	}

	if t.Language != "" && t.Language != domain.LangUnknown {
		p.PreferredLanguage = t.Language
	}
	if p.PlatformUsage == nil {
		p.PlatformUsage = map[string]int{}
	}
	p.PlatformUsage[t.Platform]++
	p.CommunicationStyle = communicationStyle(t.Text)
	p.SatisfactionScore = satisfaction(p.SentimentHistory)
	if t.DisplayName != "" {
		p.Name = t.DisplayName
	}

	s.profiles.Add(t.UserID, p)
	s.reportCacheSize()
	s.persist(ctx, "save_profile", func(sctx context.Context) error { return s.backend.SaveProfile(sctx, p) })
}

// GetUserProfile returns a copy of the user's profile, creating a default
// one on first contact.
func (s *Store) GetUserProfile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	if userID == "" {
		return nil, ErrMissingUser
	}
	unlock := s.profileLocks.Lock(userID)
	defer unlock()
	p, _ := s.loadProfile(ctx, userID)
	return p.Clone(), nil
}

// loadProfile must be called with the profile lock held. When storage cannot
// be read it returns an uncached default profile and false.
func (s *Store) loadProfile(ctx context.Context, userID string) (*domain.UserProfile, bool) {
	if p, ok := s.profiles.Peek(userID); ok {
		return p, true
	}
	now := s.now()
	if s.backend != nil {
		sctx, cancel := context.WithTimeout(ctx, s.cfg.StorageTimeout)
		p, err := s.backend.LoadProfile(sctx, userID)
		cancel()
		if err != nil {
			metrics.StorageFailures.WithLabelValues("load_profile").Inc()
			log.Warn().Err(err).Str("user_id", userID).Msg("profile load failed; using defaults")
			return domain.NewUserProfile(userID, now), false
		}
		if p != nil {
			s.profiles.Add(userID, p)
			s.reportCacheSize()
			return p, true
		}
	}
	p := domain.NewUserProfile(userID, now)
	s.profiles.Add(userID, p)
	s.reportCacheSize()
	return p, true
}

// SessionSnapshot returns the current context without creating one. It
// reports false when the session is unknown or storage cannot be reached.
func (s *Store) SessionSnapshot(ctx context.Context, userID, sessionID string) (*domain.ConversationContext, bool) {
	if userID == "" || sessionID == "" {
		return nil, false
	}
	now := s.now()
	if c, ok := s.contexts.Peek(contextKey(userID, sessionID)); ok {
		if now.Sub(c.LastUpdated) <= s.cfg.ContextExpiry {
			return c.Clone(), true
		}
	}
	if s.backend == nil {
		return nil, false
	}
	sctx, cancel := context.WithTimeout(ctx, s.cfg.StorageTimeout)
	defer cancel()
	c, err := s.backend.LoadContext(sctx, userID, sessionID)
	if err != nil {
		metrics.StorageFailures.WithLabelValues("load_context").Inc()
		log.Warn().Err(err).Str("user_id", userID).Str("session_id", sessionID).Msg("snapshot load failed")
		return nil, false
	}
	if c == nil || now.Sub(c.LastUpdated) > s.cfg.ContextRetention {
		return nil, false
	}
	return c, true
}

// CacheLen reports the number of cached contexts and profiles.
func (s *Store) CacheLen() (contexts, profiles int) {
	return s.contexts.Len(), s.profiles.Len()
}

func (s *Store) reportCacheSize() {
	metrics.CacheEntries.WithLabelValues("contexts").Set(float64(s.contexts.Len()))
	metrics.CacheEntries.WithLabelValues("profiles").Set(float64(s.profiles.Len()))
}
