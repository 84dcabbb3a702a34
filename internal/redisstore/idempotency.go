package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

func idempotencyKey(userID, key string) string { return scopedKey("idem", userID, key) }

// IdempotentResponse is a response remembered for an Idempotency-Key.
type IdempotentResponse struct {
	SessionID string `json:"session_id"`
	MessageID string `json:"message_id"`
	Status    int    `json:"status"`
	Body      []byte `json:"body"`
}

// SaveIdempotency stores r under (userID, key) for ttl. The first writer
// wins; it reports false when a response was already stored.
func (b *Backend) SaveIdempotency(ctx context.Context, userID, key string, r IdempotentResponse, ttl time.Duration) (bool, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return false, fmt.Errorf("encoding idempotent response: %w", err)
	}
	k := idempotencyKey(userID, key)
	ok, err := b.client.SetNX(ctx, k, data, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("setnx %s: %w", k, err)
	}
	return ok, nil
}

// GetIdempotency returns the stored response or nil when none is live.
func (b *Backend) GetIdempotency(ctx context.Context, userID, key string) (*IdempotentResponse, error) {
	var r IdempotentResponse
	ok, err := b.getJSON(ctx, idempotencyKey(userID, key), &r)
	if !ok || err != nil {
		return nil, err
	}
	return &r, nil
}
