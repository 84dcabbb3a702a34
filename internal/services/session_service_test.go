package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbourn/iris-triage/internal/conversation"
	"github.com/tbourn/iris-triage/internal/domain"
	"github.com/tbourn/iris-triage/internal/response"
)

type brokenLister struct{}

func (brokenLister) ListMessages(context.Context, string, string, int, int) ([]domain.ConversationMessage, int64, error) {
	return nil, 0, errors.New("disk gone")
}

func newSessionFixture(t *testing.T, turns int) *SessionService {
	t.Helper()
	backend := conversation.NewMemoryBackend()
	store, err := conversation.NewStore(backend, conversation.DefaultConfig())
	require.NoError(t, err)
	p := NewPipeline(store, response.NewTemplateSelector(response.ModeDeterministic, nil))
	for i := 0; i < turns; i++ {
		_, err := p.Process(context.Background(), Request{Text: "where is my order", UserID: "u1", SessionID: "s1"})
		require.NoError(t, err)
	}
	return NewSessionService(store, backend)
}

func TestSessionService_Context(t *testing.T) {
	svc := newSessionFixture(t, 2)

	c, err := svc.Context(context.Background(), "u1", "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, c.MessageCount)

	_, err = svc.Context(context.Background(), "u1", "nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = svc.Context(context.Background(), "u2", "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = svc.Context(context.Background(), "", "s1")
	assert.ErrorIs(t, err, ErrMissingUser)
}

func TestSessionService_Profile(t *testing.T) {
	svc := newSessionFixture(t, 3)

	p, err := svc.Profile(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, p.InteractionCount)

	fresh, err := svc.Profile(context.Background(), "newcomer")
	require.NoError(t, err)
	assert.Zero(t, fresh.InteractionCount)

	_, err = svc.Profile(context.Background(), " ")
	assert.ErrorIs(t, err, ErrMissingUser)
}

func TestSessionService_ListPage(t *testing.T) {
	svc := newSessionFixture(t, 5)
	ctx := context.Background()

	items, total, err := svc.ListPage(ctx, "u1", "s1", 1, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	assert.Len(t, items, 2)

	items, _, err = svc.ListPage(ctx, "u1", "s1", 3, 2)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	items, _, err = svc.ListPage(ctx, "u1", "s1", 9, 2)
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)

	// defaults and clamping
	items, _, err = svc.ListPage(ctx, "u1", "s1", 0, 0)
	require.NoError(t, err)
	assert.Len(t, items, 5)
	svc.MaxPageSize = 3
	items, _, err = svc.ListPage(ctx, "u1", "s1", 1, 50)
	require.NoError(t, err)
	assert.Len(t, items, 3)

	_, _, err = svc.ListPage(ctx, "u1", "unknown", 1, 10)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionService_ListPageErrors(t *testing.T) {
	svc := newSessionFixture(t, 1)
	svc.Messages = brokenLister{}

	_, _, err := svc.ListPage(context.Background(), "u1", "s1", 1, 10)
	assert.EqualError(t, err, "disk gone")

	_, _, err = svc.ListPage(context.Background(), "", "s1", 1, 10)
	assert.ErrorIs(t, err, ErrMissingUser)
}
