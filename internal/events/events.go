// Package events defines domain events and the publishers that carry them.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	TypeUserRegistered     = "user.registered"
	TypeProofSubmitted     = "proof.submitted"
	TypeProofMintRequested = "proof.mint_requested"
	TypeProofMinted        = "proof.minted"
	TypeProofMintFailed    = "proof.mint_failed"
	TypeProofStatusChanged = "proof.status_changed"
	TypeMessageCreated     = "message.created"
)

// Envelope is the wire form of every event. The routing key equals Type.
type Envelope struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurredAt"`
	Data       json.RawMessage `json:"data"`
}

func NewEnvelope(eventType string, data any) (Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{ID: uuid.NewString(), Type: eventType, OccurredAt: time.Now().UTC(), Data: raw}, nil
}

type Publisher interface {
	Publish(ctx context.Context, eventType string, data any) error
}

// LogPublisher only logs events. Used when no broker is configured.
type LogPublisher struct{}

func (LogPublisher) Publish(ctx context.Context, eventType string, data any) error {
	env, err := NewEnvelope(eventType, data)
	if err != nil {
		return err
	}
	slog.Info("event", "type", env.Type, "event_id", env.ID, "data", string(env.Data))
	return nil
}

// Recorder keeps published envelopes in memory.
type Recorder struct {
	mu     sync.Mutex
	Events []Envelope
}

func (r *Recorder) Publish(ctx context.Context, eventType string, data any) error {
	env, err := NewEnvelope(eventType, data)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.Events = append(r.Events, env)
	r.mu.Unlock()
	return nil
}

// Types returns the recorded event types in order.
func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.Events))
	for i, e := range r.Events {
		out[i] = e.Type
	}
	return out
}
