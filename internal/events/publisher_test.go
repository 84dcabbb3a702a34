package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	subject string
	payload []byte
	opts    int
}

type fakeStream struct {
	got []published
	err error
}

func (f *fakeStream) Publish(_ context.Context, subject string, payload []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.got = append(f.got, published{subject: subject, payload: payload, opts: len(opts)})
	return &jetstream.PubAck{Stream: StreamTriage}, nil
}

func TestPublisher_SubjectsAndPayload(t *testing.T) {
	fs := &fakeStream{}
	p := &JetStreamPublisher{js: fs}
	ev := TriageEvent{
		MessageID: "m1", UserID: "u1", SessionID: "s1", Intent: "complaint",
		RecommendedActions: []string{"escalate_to_human"},
		Timestamp:          time.Date(2025, 1, 17, 9, 0, 0, 0, time.UTC),
	}

	require.NoError(t, p.PublishProcessed(context.Background(), ev))
	require.NoError(t, p.PublishEscalation(context.Background(), ev))
	require.Len(t, fs.got, 2)
	assert.Equal(t, SubjectProcessed, fs.got[0].subject)
	assert.Equal(t, SubjectEscalation, fs.got[1].subject)
	assert.Equal(t, 1, fs.got[0].opts)

	var decoded TriageEvent
	require.NoError(t, json.Unmarshal(fs.got[0].payload, &decoded))
	assert.Equal(t, ev.MessageID, decoded.MessageID)
	assert.Equal(t, []string{"escalate_to_human"}, decoded.RecommendedActions)
}

func TestPublisher_NoMsgIDWithoutMessageID(t *testing.T) {
	fs := &fakeStream{}
	p := &JetStreamPublisher{js: fs}
	require.NoError(t, p.PublishProcessed(context.Background(), TriageEvent{UserID: "u1"}))
	assert.Zero(t, fs.got[0].opts)
}

func TestPublisher_WrapsErrors(t *testing.T) {
	boom := errors.New("no responders")
	p := &JetStreamPublisher{js: &fakeStream{err: boom}}
	err := p.PublishEscalation(context.Background(), TriageEvent{MessageID: "m1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), SubjectEscalation)
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	assert.NoError(t, p.PublishProcessed(context.Background(), TriageEvent{}))
	assert.NoError(t, p.PublishEscalation(context.Background(), TriageEvent{}))
}
