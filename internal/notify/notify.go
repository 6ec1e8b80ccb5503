// Package notify delivers newly created messages to connected clients.
package notify

import (
	"context"
	"encoding/json"

	"ghonsi-proof/internal/domain"
)

const EventMessage = "message"

// Notifier is told about every created message.
type Notifier interface {
	Notify(ctx context.Context, msg *domain.Message) error
}

// Event is the frame sent to websocket clients and carried over NOTIFY.
type Event struct {
	Type       string          `json:"type"`
	ReceiverID string          `json:"receiverId"`
	Data       json.RawMessage `json:"data"`
}

func NewMessageEvent(msg *domain.Message) (Event, error) {
	raw, err := json.Marshal(msg)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: EventMessage, ReceiverID: msg.UserID.String(), Data: raw}, nil
}

// Direct pushes straight into a local hub. Used by single-instance deployments
// and tests.
type Direct struct {
	Hub *Hub
}

func (d Direct) Notify(ctx context.Context, msg *domain.Message) error {
	ev, err := NewMessageEvent(msg)
	if err != nil {
		return err
	}
	return d.Hub.Deliver(ev)
}

// Nop drops notifications.
type Nop struct{}

func (Nop) Notify(context.Context, *domain.Message) error { return nil }
