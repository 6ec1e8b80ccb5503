package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

type stubBroker struct {
	exchange, key string
	body          []byte
	err           error
}

func (s *stubBroker) Publish(ctx context.Context, exchange, routingKey string, body []byte) error {
	s.exchange, s.key, s.body = exchange, routingKey, body
	return s.err
}

func TestAMQPPublisherEnvelope(t *testing.T) {
	b := &stubBroker{}
	p := &AMQPPublisher{Broker: b, Exchange: "ghonsi.events"}
	if err := p.Publish(context.Background(), TypeProofMintRequested, MintRequested{ProofID: "p1"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if b.exchange != "ghonsi.events" || b.key != TypeProofMintRequested {
		t.Fatalf("routed to %s/%s", b.exchange, b.key)
	}
	var env Envelope
	if err := json.Unmarshal(b.body, &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	var data MintRequested
	if err := json.Unmarshal(env.Data, &data); err != nil || data.ProofID != "p1" {
		t.Fatalf("payload mismatch: %v %+v", err, data)
	}

	b.err = errors.New("down")
	if err := p.Publish(context.Background(), TypeProofMinted, nil); err == nil {
		t.Fatalf("expected broker error")
	}
}

func TestRecorder(t *testing.T) {
	var r Recorder
	_ = r.Publish(context.Background(), TypeUserRegistered, UserRegistered{UserID: "u"})
	_ = r.Publish(context.Background(), TypeMessageCreated, MessageCreated{MessageID: "m"})
	got := r.Types()
	if len(got) != 2 || got[0] != TypeUserRegistered || got[1] != TypeMessageCreated {
		t.Fatalf("unexpected types %v", got)
	}
}
