package conversation

import (
	"context"
	"sync"

	"github.com/tbourn/iris-triage/internal/domain"
)

// Backend is the durable storage used by Store. Load methods return
// (nil, nil) when nothing is stored under the key.
type Backend interface {
	LoadContext(ctx context.Context, userID, sessionID string) (*domain.ConversationContext, error)
	SaveContext(ctx context.Context, c *domain.ConversationContext) error
	AppendMessage(ctx context.Context, m *domain.ConversationMessage) error
	LoadProfile(ctx context.Context, userID string) (*domain.UserProfile, error)
	SaveProfile(ctx context.Context, p *domain.UserProfile) error
}

// MemoryBackend keeps everything in process memory. It is meant for tests
// and single-node demos; nothing survives a restart.
type MemoryBackend struct {
	mu       sync.RWMutex
	contexts map[sessionKey]*domain.ConversationContext
	profiles map[string]*domain.UserProfile
	messages map[sessionKey][]domain.ConversationMessage
}

// NewMemoryBackend returns an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		contexts: map[sessionKey]*domain.ConversationContext{},
		profiles: map[string]*domain.UserProfile{},
		messages: map[sessionKey][]domain.ConversationMessage{},
	}
}

func (m *MemoryBackend) LoadContext(_ context.Context, userID, sessionID string) (*domain.ConversationContext, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.contexts[contextKey(userID, sessionID)].Clone(), nil
}

func (m *MemoryBackend) SaveContext(_ context.Context, c *domain.ConversationContext) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contexts[contextKey(c.UserID, c.SessionID)] = c.Clone()
	return nil
}

func (m *MemoryBackend) AppendMessage(_ context.Context, msg *domain.ConversationMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := contextKey(msg.UserID, msg.SessionID)
	cp := *msg
	cp.Entities = append([]domain.Entity(nil), msg.Entities...)
	m.messages[k] = append(m.messages[k], cp)
	return nil
}

func (m *MemoryBackend) LoadProfile(_ context.Context, userID string) (*domain.UserProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.profiles[userID].Clone(), nil
}

func (m *MemoryBackend) SaveProfile(_ context.Context, p *domain.UserProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.UserID] = p.Clone()
	return nil
}

// ListMessages returns a page of stored messages, oldest first, and the
// total count for the session.
func (m *MemoryBackend) ListMessages(_ context.Context, userID, sessionID string, offset, limit int) ([]domain.ConversationMessage, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	all := m.messages[contextKey(userID, sessionID)]
	total := int64(len(all))
	if offset >= len(all) {
		return []domain.ConversationMessage{}, total, nil
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return append([]domain.ConversationMessage(nil), all[offset:end]...), total, nil
}

// Ping always succeeds.
func (m *MemoryBackend) Ping(context.Context) error { return nil }
