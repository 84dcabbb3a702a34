// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate queries used for
// conditional responses (ETag generation) in the HTTP layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/iris-triage/internal/domain"
)

// MessagesStats returns the number of stored messages for a session and the
// newest message timestamp. When the session has no messages, the returned
// count is 0 and latest is nil.
func MessagesStats(ctx context.Context, db *gorm.DB, userID, sessionID string) (count int64, latest *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.ConversationMessage{}).
		Where("user_id = ? AND session_id = ?", userID, sessionID)

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest timestamp (avoid MAX() -> TEXT in SQLite)
	var row struct {
		Timestamp time.Time
	}
	if err = q.Select("timestamp").Order("timestamp DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.Timestamp, nil
}
