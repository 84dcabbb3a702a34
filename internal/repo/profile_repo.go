// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for user profiles.
package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tbourn/iris-triage/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound so callers can use errors.Is with
// either name.
var ErrNotFound = gorm.ErrRecordNotFound

// GetProfile fetches the profile for userID or returns ErrNotFound.
func GetProfile(ctx context.Context, db *gorm.DB, userID string) (*domain.UserProfile, error) {
	var p domain.UserProfile
	err := db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// SaveProfile inserts or replaces the row keyed by p.UserID.
func SaveProfile(ctx context.Context, db *gorm.DB, p *domain.UserProfile) error {
	return db.WithContext(ctx).Save(p).Error
}
