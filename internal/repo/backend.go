package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tbourn/iris-triage/internal/domain"
)

// Backend adapts the repository functions to the conversation store's
// durable storage contract. Absent rows are reported as (nil, nil).
type Backend struct {
	DB *gorm.DB
}

// NewBackend returns a Backend over db.
func NewBackend(db *gorm.DB) *Backend { return &Backend{DB: db} }

func (b *Backend) LoadContext(ctx context.Context, userID, sessionID string) (*domain.ConversationContext, error) {
	c, err := GetContext(ctx, b.DB, userID, sessionID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return c, err
}

func (b *Backend) SaveContext(ctx context.Context, c *domain.ConversationContext) error {
	return UpsertContext(ctx, b.DB, c)
}

func (b *Backend) AppendMessage(ctx context.Context, m *domain.ConversationMessage) error {
	return CreateMessage(ctx, b.DB, m)
}

func (b *Backend) LoadProfile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	p, err := GetProfile(ctx, b.DB, userID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return p, err
}

func (b *Backend) SaveProfile(ctx context.Context, p *domain.UserProfile) error {
	return SaveProfile(ctx, b.DB, p)
}

// ListMessages returns a page of stored messages, oldest first, and the
// session total.
func (b *Backend) ListMessages(ctx context.Context, userID, sessionID string, offset, limit int) ([]domain.ConversationMessage, int64, error) {
	total, err := CountMessages(ctx, b.DB, userID, sessionID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.ConversationMessage{}, 0, nil
	}
	items, err := ListMessagesPage(ctx, b.DB, userID, sessionID, offset, limit)
	return items, total, err
}

// Ping checks that the database answers.
func (b *Backend) Ping(ctx context.Context) error {
	sqlDB, err := b.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
