package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// Broker is the subset of mq.RabbitMQ the publisher needs.
type Broker interface {
	Publish(ctx context.Context, exchange, routingKey string, body []byte) error
}

type AMQPPublisher struct {
	Broker   Broker
	Exchange string
}

func (p *AMQPPublisher) Publish(ctx context.Context, eventType string, data any) error {
	env, err := NewEnvelope(eventType, data)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}
	body, err := json.Marshal(env)
	if err != nil {
		return err
	}
	if err := p.Broker.Publish(ctx, p.Exchange, eventType, body); err != nil {
		slog.Error("publish event failed", "type", eventType, "exchange", p.Exchange, "error", err)
		return fmt.Errorf("publish to rabbitmq: %w", err)
	}
	slog.Debug("event published", "type", eventType, "event_id", env.ID)
	return nil
}
