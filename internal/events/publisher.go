package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"
)

// Publisher emits triage events.
type Publisher interface {
	PublishProcessed(ctx context.Context, ev TriageEvent) error
	PublishEscalation(ctx context.Context, ev TriageEvent) error
}

// streamPublisher is the part of jetstream.JetStream used here.
type streamPublisher interface {
	Publish(ctx context.Context, subject string, payload []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// JetStreamPublisher publishes JSON events to JetStream subjects.
type JetStreamPublisher struct {
	js streamPublisher
}

// NewPublisher creates a JetStreamPublisher. Pass Client.JetStream().
func NewPublisher(js jetstream.JetStream) *JetStreamPublisher {
	return &JetStreamPublisher{js: js}
}

func (p *JetStreamPublisher) PublishProcessed(ctx context.Context, ev TriageEvent) error {
	return p.publish(ctx, SubjectProcessed, ev)
}

func (p *JetStreamPublisher) PublishEscalation(ctx context.Context, ev TriageEvent) error {
	return p.publish(ctx, SubjectEscalation, ev)
}

func (p *JetStreamPublisher) publish(ctx context.Context, subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshaling event for %s: %w", subject, err)
	}
	// Dedupe on redelivery of the same message.
	opts := []jetstream.PublishOpt{}
	if ev, ok := data.(TriageEvent); ok && ev.MessageID != "" {
		opts = append(opts, jetstream.WithMsgID(subject+":"+ev.MessageID))
	}
	if _, err := p.js.Publish(ctx, subject, payload, opts...); err != nil {
		return fmt.Errorf("publishing to %s: %w", subject, err)
	}
	return nil
}

// Nop discards events. It is used when NATS is disabled.
type Nop struct{}

func (Nop) PublishProcessed(context.Context, TriageEvent) error  { return nil }
func (Nop) PublishEscalation(context.Context, TriageEvent) error { return nil }
