// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for conversation
// contexts, which are unique per (user_id, session_id).
package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/iris-triage/internal/domain"
)

// GetContext fetches the context for a (user, session) pair or returns
// ErrNotFound.
func GetContext(ctx context.Context, db *gorm.DB, userID, sessionID string) (*domain.ConversationContext, error) {
	var c domain.ConversationContext
	err := db.WithContext(ctx).
		Where("user_id = ? AND session_id = ?", userID, sessionID).
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// UpsertContext writes c, replacing any row stored for the same
// (user_id, session_id). The stored row keeps its original primary key.
func UpsertContext(ctx context.Context, db *gorm.DB, c *domain.ConversationContext) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "session_id"}},
			UpdateAll: true,
		}).
		Create(c).Error
}
