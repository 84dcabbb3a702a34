// Package handlers exposes the triage pipeline over REST:
//   - POST /messages                (triage one message; Idempotency-Key aware)
//   - POST /language/detect         (language detection only)
//   - GET  /profile                 (caller's learned profile)
//   - GET  /sessions/{id}/context   (conversation context snapshot)
//   - GET  /sessions/{id}/messages  (paginated message log, weak ETag)
//   - GET  /health                  (dependency checks)
//
// Handlers are transport-thin: they validate input, call the services and
// translate results and errors into HTTP responses. The caller is identified
// by the X-User-ID header (see middleware.Identity).
package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/iris-triage/internal/domain"
	"github.com/tbourn/iris-triage/internal/http/middleware"
	"github.com/tbourn/iris-triage/internal/language"
	"github.com/tbourn/iris-triage/internal/services"
	"github.com/tbourn/iris-triage/internal/utils"
)

//
// Service contracts
//

// MessageProcessor runs one message through the pipeline.
type MessageProcessor interface {
	Process(ctx context.Context, req services.Request) (*services.Result, error)
}

// LanguageDetector detects the language of a text.
type LanguageDetector interface {
	Detect(text string) language.Result
}

// SessionService serves read-only session views.
type SessionService interface {
	Profile(ctx context.Context, userID string) (*domain.UserProfile, error)
	Context(ctx context.Context, userID, sessionID string) (*domain.ConversationContext, error)
	ListPage(ctx context.Context, userID, sessionID string, page, pageSize int) ([]domain.ConversationMessage, int64, error)
}

// IdempotencyRecord is one response to keep for replay.
type IdempotencyRecord struct {
	UserID    string
	SessionID string
	Key       string
	MessageID string
	Status    int
	Body      []byte
	TTL       time.Duration
}

// IdempotencyRecorder stores responses for later replay by
// middleware.Idempotency. Failures are logged, not returned to clients.
type IdempotencyRecorder interface {
	Record(ctx context.Context, rec IdempotencyRecord) error
}

// MessageStatsFunc reports the message count and latest timestamp for a
// session. It backs the weak ETag on the message list.
type MessageStatsFunc func(ctx context.Context, userID, sessionID string) (count int64, latest *time.Time, err error)

// Pinger is a dependency checked by /health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators of Handlers. Pipeline, Detector and Sessions
// are required.
type Deps struct {
	Pipeline    MessageProcessor
	Detector    LanguageDetector
	Sessions    SessionService
	Idempotency IdempotencyRecorder
	Stats       MessageStatsFunc
	Checks      map[string]Pinger

	MaxInputRunes  int
	IdempotencyTTL time.Duration
	HealthTimeout  time.Duration
}

// Handlers groups the HTTP endpoints.
type Handlers struct {
	Deps
	started time.Time
}

// New returns Handlers bound to d, filling zero-valued limits.
func New(d Deps) *Handlers {
	if d.MaxInputRunes <= 0 {
		d.MaxInputRunes = 4000
	}
	if d.IdempotencyTTL <= 0 {
		d.IdempotencyTTL = 24 * time.Hour
	}
	if d.HealthTimeout <= 0 {
		d.HealthTimeout = 2 * time.Second
	}
	return &Handlers{Deps: d, started: time.Now()}
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

func newPagination(page, pageSize int, total int64) Pagination {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

// clampPagination parses page and page_size, defaulting to 1 and 20 and
// capping page_size at 100.
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = max(utils.AtoiDefault(c.Query("page"), 1), 1)
	pageSize = utils.Clamp(utils.AtoiDefault(c.Query("page_size"), defaultPageSize), 1, maxPageSize)
	return
}

func userID(c *gin.Context) string { return middleware.UserID(c) }
