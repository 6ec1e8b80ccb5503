package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"ghonsi-proof/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPool opens a pgx pool used for LISTEN/NOTIFY.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}
	cfg.MaxConns = 4
	cfg.MinConns = 1
	cfg.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return pool, nil
}

// PG publishes message events with pg_notify so every API instance sees them.
type PG struct {
	Pool    *pgxpool.Pool
	Channel string
}

func (p PG) Notify(ctx context.Context, msg *domain.Message) error {
	ev, err := NewMessageEvent(msg)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = p.Pool.Exec(ctx, "SELECT pg_notify($1, $2)", p.Channel, string(raw))
	return err
}

const (
	minListenDelay = time.Second
	maxListenDelay = 30 * time.Second
)

// Listen holds a dedicated connection in LISTEN on channel and hands every
// payload to the hub. It reconnects until ctx is done.
func Listen(ctx context.Context, pool *pgxpool.Pool, channel string, hub *Hub) {
	reconnect(ctx, channel, func(ctx context.Context) (bool, error) {
		return listenOnce(ctx, pool, channel, hub)
	}, sleepCtx)
}

// reconnect runs once until ctx is done. The wait doubles after each failure
// and drops back to the minimum once a run got as far as listening.
func reconnect(ctx context.Context, channel string, once func(context.Context) (bool, error), wait func(context.Context, time.Duration) bool) {
	delay := minListenDelay
	for ctx.Err() == nil {
		listened, err := once(ctx)
		if ctx.Err() != nil {
			return
		}
		if listened {
			delay = minListenDelay
		}
		slog.Warn("notify listener stopped, reconnecting", "channel", channel, "error", err, "delay", delay)
		if !wait(ctx, delay) {
			return
		}
		delay = min(delay*2, maxListenDelay)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// listenOnce takes a connection out of the pool for good, so its LISTEN state
// never reaches another caller, and closes it on return.
func listenOnce(ctx context.Context, pool *pgxpool.Pool, channel string, hub *Hub) (listened bool, err error) {
	pc, err := pool.Acquire(ctx)
	if err != nil {
		return false, err
	}
	conn := pc.Hijack()
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = conn.Close(closeCtx)
	}()

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{channel}.Sanitize()); err != nil {
		return false, err
	}
	slog.Info("listening for notifications", "channel", channel)
	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return true, err
		}
		var ev Event
		if err := json.Unmarshal([]byte(n.Payload), &ev); err != nil {
			slog.Warn("bad notification payload", "channel", channel, "error", err)
			continue
		}
		if err := hub.Deliver(ev); err != nil {
			slog.Warn("notification delivery failed", "error", err)
		}
	}
}
