package httpapi

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/iris-triage/internal/http/handlers"
	"github.com/tbourn/iris-triage/internal/http/middleware"
	"github.com/tbourn/iris-triage/internal/redisstore"
	"github.com/tbourn/iris-triage/internal/repo"
)

// IdempotencyStore records POST /messages responses and serves them back to
// retries carrying the same Idempotency-Key.
type IdempotencyStore interface {
	handlers.IdempotencyRecorder
	Lookup(ctx context.Context, userID, key string, now time.Time) (*middleware.StoredResponse, error)
}

// SQLIdempotency keeps responses in the idempotency table.
type SQLIdempotency struct {
	DB *gorm.DB
}

// Record implements handlers.IdempotencyRecorder. A concurrent retry that
// already stored a response wins.
func (s SQLIdempotency) Record(ctx context.Context, rec handlers.IdempotencyRecord) error {
	_, err := repo.CreateIdempotency(ctx, s.DB, repo.NewIdempotency{
		UserID:    rec.UserID,
		SessionID: rec.SessionID,
		Key:       rec.Key,
		MessageID: rec.MessageID,
		Status:    rec.Status,
		Response:  rec.Body,
		TTL:       rec.TTL,
	})
	if errors.Is(err, repo.ErrDuplicate) {
		return nil
	}
	return err
}

// Lookup implements middleware.IdempotencyLookup.
func (s SQLIdempotency) Lookup(ctx context.Context, userID, key string, now time.Time) (*middleware.StoredResponse, error) {
	rec, err := repo.GetIdempotency(ctx, s.DB, userID, key, now)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &middleware.StoredResponse{Status: rec.Status, Body: rec.Response}, nil
}

// RedisIdempotency keeps responses as expiring Redis keys.
type RedisIdempotency struct {
	Backend *redisstore.Backend
}

// Record implements handlers.IdempotencyRecorder.
func (r RedisIdempotency) Record(ctx context.Context, rec handlers.IdempotencyRecord) error {
	_, err := r.Backend.SaveIdempotency(ctx, rec.UserID, rec.Key, redisstore.IdempotentResponse{
		SessionID: rec.SessionID,
		MessageID: rec.MessageID,
		Status:    rec.Status,
		Body:      rec.Body,
	}, rec.TTL)
	return err
}

// Lookup implements middleware.IdempotencyLookup. Expiry is enforced by Redis.
func (r RedisIdempotency) Lookup(ctx context.Context, userID, key string, _ time.Time) (*middleware.StoredResponse, error) {
	res, err := r.Backend.GetIdempotency(ctx, userID, key)
	if err != nil || res == nil {
		return nil, err
	}
	return &middleware.StoredResponse{Status: res.Status, Body: res.Body}, nil
}
