package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tbourn/iris-triage/internal/domain"
)

const keyPrefix = "triage"

// DefaultMaxMessages caps each session's message log.
const DefaultMaxMessages = 1000

func profileKey(userID string) string { return fmt.Sprintf("%s:profile:%s", keyPrefix, userID) }

// scopedKey joins a user id and a second id. The user id is length
// prefixed because either part may contain the separator.
func scopedKey(kind, userID, id string) string {
	return fmt.Sprintf("%s:%s:%d:%s:%s", keyPrefix, kind, len(userID), userID, id)
}

func contextKey(userID, sessionID string) string { return scopedKey("ctx", userID, sessionID) }

func messagesKey(userID, sessionID string) string { return scopedKey("msgs", userID, sessionID) }

// Backend stores conversation state in Redis. Contexts and message logs
// expire after TTL; profiles never expire.
type Backend struct {
	client      redis.Cmdable
	ttl         time.Duration
	maxMessages int
}

// NewBackend returns a Backend using client. ttl <= 0 disables expiry and
// maxMessages <= 0 uses DefaultMaxMessages.
func NewBackend(client redis.Cmdable, ttl time.Duration, maxMessages int) *Backend {
	if maxMessages <= 0 {
		maxMessages = DefaultMaxMessages
	}
	return &Backend{client: client, ttl: ttl, maxMessages: maxMessages}
}

// expiry is the TTL for SET; zero means the key never expires.
func (b *Backend) expiry() time.Duration {
	return max(b.ttl, 0)
}

func (b *Backend) getJSON(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := b.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decoding %s: %w", key, err)
	}
	return true, nil
}

func (b *Backend) setJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	if err := b.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (b *Backend) LoadContext(ctx context.Context, userID, sessionID string) (*domain.ConversationContext, error) {
	var c domain.ConversationContext
	ok, err := b.getJSON(ctx, contextKey(userID, sessionID), &c)
	if !ok || err != nil {
		return nil, err
	}
	return &c, nil
}

func (b *Backend) SaveContext(ctx context.Context, c *domain.ConversationContext) error {
	return b.setJSON(ctx, contextKey(c.UserID, c.SessionID), c, b.expiry())
}

func (b *Backend) LoadProfile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	var p domain.UserProfile
	ok, err := b.getJSON(ctx, profileKey(userID), &p)
	if !ok || err != nil {
		return nil, err
	}
	return &p, nil
}

func (b *Backend) SaveProfile(ctx context.Context, p *domain.UserProfile) error {
	return b.setJSON(ctx, profileKey(p.UserID), p, 0)
}

// AppendMessage pushes m onto the session log and trims it to the newest
// maxMessages entries.
func (b *Backend) AppendMessage(ctx context.Context, m *domain.ConversationMessage) error {
	key := messagesKey(m.UserID, m.SessionID)
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding message: %w", err)
	}

	pipe := b.client.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.LTrim(ctx, key, int64(-b.maxMessages), -1)
	if b.ttl > 0 {
		pipe.Expire(ctx, key, b.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("pipeline exec for %s: %w", key, err)
	}
	return nil
}

// ListMessages returns a page of the session log, oldest first, and the
// number of retained messages.
func (b *Backend) ListMessages(ctx context.Context, userID, sessionID string, offset, limit int) ([]domain.ConversationMessage, int64, error) {
	key := messagesKey(userID, sessionID)
	total, err := b.client.LLen(ctx, key).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("llen %s: %w", key, err)
	}
	out := []domain.ConversationMessage{}
	if int64(offset) >= total || limit <= 0 {
		return out, total, nil
	}

	vals, err := b.client.LRange(ctx, key, int64(offset), int64(offset+limit-1)).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("lrange %s: %w", key, err)
	}
	for _, v := range vals {
		var m domain.ConversationMessage
		if err := json.Unmarshal([]byte(v), &m); err != nil {
			continue // skip malformed entries
		}
		out = append(out, m)
	}
	return out, total, nil
}

// Ping checks that Redis answers.
func (b *Backend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}
