package redisstore

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbourn/iris-triage/internal/conversation"
	"github.com/tbourn/iris-triage/internal/domain"
)

var _ conversation.Backend = (*Backend)(nil)

func setupMiniredis(t *testing.T, ttl time.Duration, maxMsgs int) (*Backend, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewBackend(client, ttl, maxMsgs), mr
}

func TestBackend_MissingKeysAreNil(t *testing.T) {
	b, _ := setupMiniredis(t, time.Hour, 10)
	ctx := context.Background()

	c, err := b.LoadContext(ctx, "u1", "s1")
	require.NoError(t, err)
	assert.Nil(t, c)

	p, err := b.LoadProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, p)

	msgs, total, err := b.ListMessages(ctx, "u1", "s1", 0, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, msgs)
}

func TestBackend_ContextRoundTripAndTTL(t *testing.T) {
	b, mr := setupMiniredis(t, time.Hour, 10)
	ctx := context.Background()
	now := time.Date(2025, 1, 17, 9, 0, 0, 0, time.UTC)

	in := &domain.ConversationContext{
		ID: "c1", UserID: "u1", SessionID: "s1",
		History:          []domain.HistoryEntry{{MessageID: "m1", Text: "สวัสดีครับ", Intent: domain.IntentGreeting, Language: domain.LangThai}},
		CurrentIntent:    domain.IntentGreeting,
		CurrentSentiment: domain.SentimentNeutral,
		UnresolvedIssues: []string{domain.IntentComplaint},
		MessageCount:     1,
		StartedAt:        now,
		LastUpdated:      now,
	}
	require.NoError(t, b.SaveContext(ctx, in))
	assert.True(t, mr.Exists("triage:ctx:2:u1:s1"))
	assert.Equal(t, time.Hour, mr.TTL("triage:ctx:2:u1:s1"))

	got, err := b.LoadContext(ctx, "u1", "s1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "สวัสดีครับ", got.History[0].Text)
	assert.Equal(t, []string{domain.IntentComplaint}, got.UnresolvedIssues)
	assert.True(t, got.LastUpdated.Equal(now))

	mr.FastForward(2 * time.Hour)
	got, err = b.LoadContext(ctx, "u1", "s1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestBackend_ProfilesDoNotExpire(t *testing.T) {
	b, mr := setupMiniredis(t, time.Hour, 10)
	ctx := context.Background()

	p := domain.NewUserProfile("u1", time.Now().UTC())
	p.PlatformUsage["line"] = 3
	require.NoError(t, b.SaveProfile(ctx, p))
	assert.Zero(t, mr.TTL("triage:profile:u1"))

	mr.FastForward(48 * time.Hour)
	got, err := b.LoadProfile(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 3, got.PlatformUsage["line"])
}

func TestBackend_MessageLogIsCappedAndPaged(t *testing.T) {
	b, mr := setupMiniredis(t, time.Hour, 3)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, b.AppendMessage(ctx, &domain.ConversationMessage{
			ID: fmt.Sprintf("m%d", i), UserID: "u1", SessionID: "s1", Text: fmt.Sprintf("text %d", i),
		}))
	}
	assert.Equal(t, time.Hour, mr.TTL("triage:msgs:2:u1:s1"))

	msgs, total, err := b.ListMessages(ctx, "u1", "s1", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, msgs, 3)
	assert.Equal(t, "m2", msgs[0].ID)
	assert.Equal(t, "m4", msgs[2].ID)

	page, total, err := b.ListMessages(ctx, "u1", "s1", 1, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, page, 1)
	assert.Equal(t, "m3", page[0].ID)

	past, _, err := b.ListMessages(ctx, "u1", "s1", 5, 10)
	require.NoError(t, err)
	assert.Empty(t, past)
}

func TestBackend_MalformedValueIsAnError(t *testing.T) {
	b, mr := setupMiniredis(t, 0, 0)
	require.NoError(t, mr.Set("triage:profile:u1", "{not json"))
	_, err := b.LoadProfile(context.Background(), "u1")
	assert.Error(t, err)
}

func TestBackend_StoreFailsSoftWhenRedisIsDown(t *testing.T) {
	b, mr := setupMiniredis(t, time.Hour, 10)
	s, err := conversation.NewStore(b, conversation.Config{StorageTimeout: time.Second})
	require.NoError(t, err)

	mr.Close()
	c, err := s.UpdateContext(context.Background(), conversation.Turn{
		UserID: "u1", SessionID: "s1", Text: "hello",
		Intent: domain.IntentGreeting, IntentConfidence: 0.6, Sentiment: domain.SentimentNeutral,
	})
	require.NoError(t, err)
	assert.True(t, c.Degraded)
	assert.Equal(t, 1, c.MessageCount)
	assert.Error(t, b.Ping(context.Background()))
}

func TestBackend_StoreResumesAcrossInstances(t *testing.T) {
	b, _ := setupMiniredis(t, time.Hour, 10)
	ctx := context.Background()

	s1, err := conversation.NewStore(b, conversation.Config{})
	require.NoError(t, err)
	_, err = s1.UpdateContext(ctx, conversation.Turn{
		UserID: "u1", SessionID: "s1", Text: "where is my order",
		Intent: domain.IntentOrderStatus, IntentConfidence: 0.6, Sentiment: domain.SentimentNeutral,
	})
	require.NoError(t, err)

	s2, err := conversation.NewStore(b, conversation.Config{})
	require.NoError(t, err)
	c, err := s2.GetContext(ctx, "u1", "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, c.MessageCount)
	assert.Equal(t, domain.IntentOrderStatus, c.CurrentIntent)
}

func TestNewClient_PingFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	_, err := NewClient(context.Background(), addr, "", 0)
	assert.Error(t, err)

	mr2 := miniredis.RunT(t)
	c, err := NewClient(context.Background(), mr2.Addr(), "", 0)
	require.NoError(t, err)
	_ = c.Close()
}

func TestBackend_ColonInIDsDoesNotShareKeys(t *testing.T) {
	b, _ := setupMiniredis(t, time.Hour, 10)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, b.SaveContext(ctx, &domain.ConversationContext{ID: "c1", UserID: "alice", SessionID: "x:1", MessageCount: 3, LastUpdated: now}))
	require.NoError(t, b.AppendMessage(ctx, &domain.ConversationMessage{ID: "m1", UserID: "alice", SessionID: "x:1", Text: "my order is broken", Timestamp: now}))

	c, err := b.LoadContext(ctx, "alice:x", "1")
	require.NoError(t, err)
	assert.Nil(t, c)

	msgs, total, err := b.ListMessages(ctx, "alice:x", "1", 0, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, msgs)

	assert.NotEqual(t, contextKey("alice", "x:1"), contextKey("alice:x", "1"))
	assert.NotEqual(t, idempotencyKey("a", "b:c"), idempotencyKey("a:b", "c"))
}
