// Package mq wraps an AMQP connection with connect retry and a single channel.
package mq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

var ErrChannelUnavailable = errors.New("rabbitmq channel not available")

const (
	maxRetries    = 10
	maxRetryDelay = 30 * time.Second
	prefetch      = 10
)

type RabbitMQ struct {
	url    string
	conn   *amqp.Connection
	ch     *amqp.Channel
	mu     sync.RWMutex
	closed bool
}

// Dial connects with up to maxRetries attempts, growing the delay by half each time.
func Dial(ctx context.Context, url string) (*RabbitMQ, error) {
	mq := &RabbitMQ{url: url}
	retryDelay := time.Second

	for attempt := 1; attempt <= maxRetries; attempt++ {
		err := mq.connect()
		if err == nil {
			slog.Info("rabbitmq connected", "attempt", attempt)
			return mq, nil
		}
		slog.Warn("rabbitmq connection attempt failed", "attempt", attempt, "max_retries", maxRetries, "retry_in_sec", retryDelay.Seconds(), "error", err)
		if attempt == maxRetries {
			return nil, fmt.Errorf("failed to connect after %d attempts: %w", maxRetries, err)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelay):
			retryDelay = time.Duration(float64(retryDelay) * 1.5)
			if retryDelay > maxRetryDelay {
				retryDelay = maxRetryDelay
			}
		}
	}
	return nil, errors.New("unexpected error: retry loop completed without success")
}

func (mq *RabbitMQ) connect() error {
	conn, err := amqp.Dial(mq.url)
	if err != nil {
		return fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}
	if err := ch.Qos(prefetch, 0, false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("set qos: %w", err)
	}

	mq.mu.Lock()
	mq.conn = conn
	mq.ch = ch
	mq.mu.Unlock()
	return nil
}

func (mq *RabbitMQ) channel() *amqp.Channel {
	mq.mu.RLock()
	defer mq.mu.RUnlock()
	return mq.ch
}

// DeclareTopology declares a durable topic exchange and a durable queue bound to
// it for each routing key.
func (mq *RabbitMQ) DeclareTopology(exchange, queue string, keys ...string) error {
	ch := mq.channel()
	if ch == nil {
		return ErrChannelUnavailable
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	if queue == "" {
		return nil
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", queue, err)
	}
	for _, key := range keys {
		if err := ch.QueueBind(queue, key, exchange, false, nil); err != nil {
			return fmt.Errorf("bind %s to %s: %w", queue, key, err)
		}
	}
	return nil
}

// Publish sends a persistent JSON message.
func (mq *RabbitMQ) Publish(ctx context.Context, exchange, routingKey string, body []byte) error {
	ch := mq.channel()
	if ch == nil {
		return ErrChannelUnavailable
	}
	publishCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return ch.PublishWithContext(publishCtx, exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
	})
}

// Consume delivers messages to handler from a goroutine until ctx ends or the
// channel closes. Acknowledgement is left to the handler.
func (mq *RabbitMQ) Consume(ctx context.Context, queue, consumer string, handler func(amqp.Delivery)) error {
	ch := mq.channel()
	if ch == nil {
		return ErrChannelUnavailable
	}
	msgs, err := ch.Consume(queue, consumer, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}
	slog.Info("consumer started", "queue", queue, "consumer", consumer)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					slog.Info("consumer stopped", "queue", queue)
					return
				}
				handler(msg)
			}
		}
	}()
	return nil
}

// NotifyClose reports connection loss so callers can redial.
func (mq *RabbitMQ) NotifyClose() <-chan *amqp.Error {
	mq.mu.RLock()
	defer mq.mu.RUnlock()
	if mq.conn == nil {
		c := make(chan *amqp.Error)
		close(c)
		return c
	}
	return mq.conn.NotifyClose(make(chan *amqp.Error, 1))
}

func (mq *RabbitMQ) Close() {
	mq.mu.Lock()
	defer mq.mu.Unlock()
	if mq.closed {
		return
	}
	mq.closed = true
	if mq.ch != nil {
		_ = mq.ch.Close()
	}
	if mq.conn != nil {
		_ = mq.conn.Close()
	}
	slog.Info("rabbitmq closed")
}
