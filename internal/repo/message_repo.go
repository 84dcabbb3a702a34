// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// ConversationMessage model.
package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tbourn/iris-triage/internal/domain"
)

// CreateMessage inserts a processed message row.
func CreateMessage(ctx context.Context, db *gorm.DB, m *domain.ConversationMessage) error {
	return db.WithContext(ctx).Create(m).Error
}

// CountMessages uses a raw COUNT so a missing table surfaces as an error.
func CountMessages(ctx context.Context, db *gorm.DB, userID, sessionID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Raw("SELECT COUNT(*) FROM conversation_messages WHERE user_id = ? AND session_id = ?", userID, sessionID).
		Scan(&total).Error
	return total, err
}

// ListMessagesPage returns a paginated slice ordered (Timestamp ASC, ID ASC).
func ListMessagesPage(ctx context.Context, db *gorm.DB, userID, sessionID string, offset, limit int) ([]domain.ConversationMessage, error) {
	out := []domain.ConversationMessage{}
	err := db.WithContext(ctx).
		Where("user_id = ? AND session_id = ?", userID, sessionID).
		Order("timestamp ASC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// GetMessage fetches a message by ID or returns ErrNotFound.
func GetMessage(ctx context.Context, db *gorm.DB, id string) (*domain.ConversationMessage, error) {
	var m domain.ConversationMessage
	err := db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}
