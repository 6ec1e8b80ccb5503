package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"ghonsi-proof/internal/domain"
	"ghonsi-proof/internal/events"
	"ghonsi-proof/internal/pipeline"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Resumer is the part of the pipeline the consumer drives.
type Resumer interface {
	Resume(ctx context.Context, proofID uuid.UUID, wallet string) (*domain.Proof, error)
}

var errMalformed = errors.New("malformed mint request")

const DefaultRetryDelay = 5 * time.Second

// MintConsumer handles proof.mint_requested deliveries.
type MintConsumer struct {
	Pipeline Resumer
	Timeout  time.Duration
	// RetryDelay is waited before a failed delivery is requeued.
	RetryDelay time.Duration
	Sleep      func(time.Duration)
}

func (c *MintConsumer) backoff() {
	d := c.RetryDelay
	if d <= 0 {
		d = DefaultRetryDelay
	}
	if c.Sleep != nil {
		c.Sleep(d)
		return
	}
	time.Sleep(d)
}

// Handle runs one delivery and settles it: ack on success, drop permanent
// failures and requeue the rest after RetryDelay. A minter without chain
// access drops requests; they can be minted again once it is configured.
func (c *MintConsumer) Handle(d amqp.Delivery) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err := c.process(ctx, d.Body)
	switch {
	case err == nil:
		if aerr := d.Ack(false); aerr != nil {
			slog.Error("ack failed", "delivery_tag", d.DeliveryTag, "error", aerr)
		}
	case errors.Is(err, errMalformed), errors.Is(err, pipeline.ErrPermanent), errors.Is(err, pipeline.ErrMintUnavailable):
		slog.Warn("mint request dropped", "message_id", d.MessageId, "error", err)
		_ = d.Nack(false, false)
	default:
		slog.Error("mint request failed, requeued", "message_id", d.MessageId, "error", err)
		c.backoff()
		_ = d.Nack(false, true)
	}
}

func (c *MintConsumer) process(ctx context.Context, body []byte) error {
	var env events.Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return errors.Join(errMalformed, err)
	}
	if env.Type != events.TypeProofMintRequested {
		return errMalformed
	}
	var req events.MintRequested
	if err := json.Unmarshal(env.Data, &req); err != nil {
		return errors.Join(errMalformed, err)
	}
	id, err := uuid.Parse(req.ProofID)
	if err != nil {
		return errors.Join(errMalformed, err)
	}
	p, err := c.Pipeline.Resume(ctx, id, req.WalletAddress)
	if err != nil {
		return err
	}
	slog.Info("proof minted from queue", "proof_id", id, "tx", p.BlockchainTx, "event_id", env.ID)
	return nil
}
