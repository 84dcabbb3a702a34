package services

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/iris-triage/internal/domain"
)

// SessionReader is the read side of conversation.Store.
type SessionReader interface {
	SessionSnapshot(ctx context.Context, userID, sessionID string) (*domain.ConversationContext, bool)
	GetUserProfile(ctx context.Context, userID string) (*domain.UserProfile, error)
}

// MessageLister pages through a session's message log. The memory, SQLite
// and Redis backends all satisfy it.
type MessageLister interface {
	ListMessages(ctx context.Context, userID, sessionID string, offset, limit int) ([]domain.ConversationMessage, int64, error)
}

// SessionService serves read-only views of profiles, contexts and message
// history.
type SessionService struct {
	Store    SessionReader
	Messages MessageLister

	DefaultPageSize int
	MaxPageSize     int
}

// NewSessionService returns a SessionService with page sizes 20 and 100.
func NewSessionService(store SessionReader, messages MessageLister) *SessionService {
	return &SessionService{Store: store, Messages: messages, DefaultPageSize: 20, MaxPageSize: 100}
}

// Profile returns the user's profile.
func (s *SessionService) Profile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrMissingUser
	}
	return s.Store.GetUserProfile(ctx, userID)
}

// Context returns the session context or ErrSessionNotFound.
func (s *SessionService) Context(ctx context.Context, userID, sessionID string) (*domain.ConversationContext, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrMissingUser
	}
	c, ok := s.Store.SessionSnapshot(ctx, userID, sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return c, nil
}

// ListPage returns one page of a session's messages in arrival order along
// with the total count. page is 1-based.
func (s *SessionService) ListPage(ctx context.Context, userID, sessionID string, page, pageSize int) ([]domain.ConversationMessage, int64, error) {
	ctx, span := otel.Tracer("services/SessionService").Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.String("session.id", sessionID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if strings.TrimSpace(userID) == "" {
		return nil, 0, ErrMissingUser
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = s.DefaultPageSize
	}
	if s.MaxPageSize > 0 && pageSize > s.MaxPageSize {
		pageSize = s.MaxPageSize
	}
	if s.Messages == nil {
		return []domain.ConversationMessage{}, 0, nil
	}

	items, total, err := s.Messages.ListMessages(ctx, userID, sessionID, (page-1)*pageSize, pageSize)
	if err != nil {
		span.RecordError(err)
		return nil, 0, err
	}
	if total == 0 {
		if _, ok := s.Store.SessionSnapshot(ctx, userID, sessionID); !ok {
			return nil, 0, ErrSessionNotFound
		}
	}
	if items == nil {
		items = []domain.ConversationMessage{}
	}
	return items, total, nil
}
