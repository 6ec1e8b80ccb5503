package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"ghonsi-proof/internal/chain"
	"ghonsi-proof/internal/domain"
	"ghonsi-proof/internal/events"
	"ghonsi-proof/internal/pipeline"
	"ghonsi-proof/internal/store"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	s := store.New(db)
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return s
}

type stubReader struct {
	statuses map[string]chain.SignatureStatus
	asked    []string
}

func (s *stubReader) SignatureStatuses(ctx context.Context, sigs []string) ([]chain.SignatureStatus, error) {
	s.asked = append(s.asked, sigs...)
	out := make([]chain.SignatureStatus, len(sigs))
	for i, sig := range sigs {
		st, ok := s.statuses[sig]
		if !ok {
			st = chain.SignatureStatus{Signature: sig, Status: chain.SigStatusUnknown}
		}
		out[i] = st
	}
	return out, nil
}

func submittedProof(t *testing.T, st *store.Store, userID uuid.UUID, sig string) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	p := &domain.Proof{UserID: userID, ProofType: "job", ProofName: "Acme", Summary: "Two years at Acme"}
	if err := st.Proofs().Create(ctx, p); err != nil {
		t.Fatalf("proof: %v", err)
	}
	if err := st.Proofs().SetChainResult(ctx, p.ID, "wallet", sig, "pda", "", time.Now()); err != nil {
		t.Fatalf("chain result: %v", err)
	}
	return p.ID
}

func TestReconcile(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	u := &domain.User{Role: domain.RoleUser}
	if err := st.Users().Create(ctx, u); err != nil {
		t.Fatalf("user: %v", err)
	}
	final := submittedProof(t, st, u.ID, "sig-final")
	failed := submittedProof(t, st, u.ID, "sig-failed")
	waiting := submittedProof(t, st, u.ID, "sig-waiting")

	reader := &stubReader{statuses: map[string]chain.SignatureStatus{
		"sig-final":  {Signature: "sig-final", Status: chain.SigStatusFinalized},
		"sig-failed": {Signature: "sig-failed", Status: chain.SigStatusFailed, Err: "InstructionError"},
	}}
	r := &Reconciler{Store: st, Reader: reader, Batch: 10}
	n, err := r.Reconcile(ctx)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if n != 2 || len(reader.asked) != 3 {
		t.Fatalf("expected 2 updates from 3 lookups, got %d from %v", n, reader.asked)
	}

	check := func(id uuid.UUID, want string) *domain.Proof {
		t.Helper()
		p, err := st.Proofs().Get(ctx, id)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if p.ChainStatus != want {
			t.Fatalf("proof %s: want %q, got %q", id, want, p.ChainStatus)
		}
		return p
	}
	if p := check(final, domain.ChainStatusFinalized); p.ConfirmedAt == nil {
		t.Fatalf("finalized proof should have a confirmation time")
	}
	if p := check(failed, domain.ChainStatusFailed); p.ChainError != "InstructionError" {
		t.Fatalf("expected chain error, got %q", p.ChainError)
	}
	check(waiting, domain.ChainStatusSubmitted)

	reader.asked = nil
	if n, err := r.Reconcile(ctx); err != nil || n != 0 || len(reader.asked) != 1 {
		t.Fatalf("second pass should only look at the waiting proof: %d %v %v", n, err, reader.asked)
	}
}

func TestReconcilePagesPastStuckRows(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	u := &domain.User{Role: domain.RoleUser}
	if err := st.Users().Create(ctx, u); err != nil {
		t.Fatalf("user: %v", err)
	}
	now := time.Now().UTC()
	submitAt := func(sig string, at time.Time) uuid.UUID {
		t.Helper()
		id := submittedProof(t, st, u.ID, sig)
		if err := st.Proofs().SetChainResult(ctx, id, "wallet", sig, "pda", "", at); err != nil {
			t.Fatalf("chain result: %v", err)
		}
		return id
	}
	dropped1 := submitAt("sig-dropped-1", now.Add(-time.Hour))
	dropped2 := submitAt("sig-dropped-2", now.Add(-59*time.Minute))
	good := submitAt("sig-good", now)

	reader := &stubReader{statuses: map[string]chain.SignatureStatus{
		"sig-good": {Signature: "sig-good", Status: chain.SigStatusFinalized},
	}}
	r := &Reconciler{Store: st, Reader: reader, Batch: 2, DropAfter: 48 * time.Hour, Now: func() time.Time { return now }}

	if n, err := r.Reconcile(ctx); err != nil || n != 0 {
		t.Fatalf("first run: %d %v", n, err)
	}
	if len(reader.asked) != 2 || reader.asked[0] != "sig-dropped-1" || reader.asked[1] != "sig-dropped-2" {
		t.Fatalf("first run should read the oldest page, asked %v", reader.asked)
	}
	reader.asked = nil
	if n, err := r.Reconcile(ctx); err != nil || n != 1 {
		t.Fatalf("second run: %d %v", n, err)
	}
	if len(reader.asked) != 1 || reader.asked[0] != "sig-good" {
		t.Fatalf("second run should continue after the stuck rows, asked %v", reader.asked)
	}
	if p, _ := st.Proofs().Get(ctx, good); p.ChainStatus != domain.ChainStatusFinalized {
		t.Fatalf("newer proof should be finalized, got %q", p.ChainStatus)
	}

	r.DropAfter = 10 * time.Minute
	if n, err := r.Reconcile(ctx); err != nil || n != 2 {
		t.Fatalf("third run should expire both stuck proofs: %d %v", n, err)
	}
	for _, id := range []uuid.UUID{dropped1, dropped2} {
		p, err := st.Proofs().Get(ctx, id)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if p.ChainStatus != domain.ChainStatusFailed || p.ChainError != errExpired {
			t.Fatalf("proof %s: want failed/expired, got %q %q", id, p.ChainStatus, p.ChainError)
		}
	}
}

type stubAck struct {
	acked    int
	nacked   int
	requeued bool
}

func (a *stubAck) Ack(tag uint64, multiple bool) error { a.acked++; return nil }
func (a *stubAck) Nack(tag uint64, multiple, requeue bool) error {
	a.nacked++
	a.requeued = requeue
	return nil
}
func (a *stubAck) Reject(tag uint64, requeue bool) error { return a.Nack(tag, false, requeue) }

type stubResumer struct {
	err   error
	calls []string
}

func (s *stubResumer) Resume(ctx context.Context, id uuid.UUID, wallet string) (*domain.Proof, error) {
	s.calls = append(s.calls, id.String()+"|"+wallet)
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Proof{ID: id, BlockchainTx: "sig"}, nil
}

func delivery(t *testing.T, ack *stubAck, data any) amqp.Delivery {
	t.Helper()
	env, err := events.NewEnvelope(events.TypeProofMintRequested, data)
	if err != nil {
		t.Fatalf("envelope: %v", err)
	}
	body, _ := json.Marshal(env)
	return amqp.Delivery{Acknowledger: ack, Body: body}
}

func TestMintConsumer(t *testing.T) {
	id := uuid.New()
	req := events.MintRequested{ProofID: id.String(), WalletAddress: "wallet"}

	cases := []struct {
		name     string
		resumer  *stubResumer
		data     any
		raw      []byte
		acked    bool
		requeued bool
	}{
		{name: "success", resumer: &stubResumer{}, data: req, acked: true},
		{name: "permanent", resumer: &stubResumer{err: fmt.Errorf("proof rejected: %w", pipeline.ErrPermanent)}, data: req},
		{name: "transient", resumer: &stubResumer{err: errors.New("rpc timeout")}, data: req, requeued: true},
		{name: "low balance", resumer: &stubResumer{err: chain.ErrInsufficientBalance}, data: req, requeued: true},
		{name: "minting unavailable", resumer: &stubResumer{err: &pipeline.StepError{Step: pipeline.StepMint, Err: pipeline.ErrMintUnavailable}}, data: req},
		{name: "bad id", resumer: &stubResumer{}, data: events.MintRequested{ProofID: "nope"}},
		{name: "not json", resumer: &stubResumer{}, raw: []byte("{")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ack := &stubAck{}
			var d amqp.Delivery
			if tc.raw != nil {
				d = amqp.Delivery{Acknowledger: ack, Body: tc.raw}
			} else {
				d = delivery(t, ack, tc.data)
			}
			var slept []time.Duration
			c := &MintConsumer{Pipeline: tc.resumer, RetryDelay: time.Second, Sleep: func(d time.Duration) { slept = append(slept, d) }}
			c.Handle(d)
			if tc.requeued && (len(slept) != 1 || slept[0] != time.Second) {
				t.Fatalf("requeue should wait the retry delay, slept %v", slept)
			}
			if !tc.requeued && len(slept) != 0 {
				t.Fatalf("no wait expected, slept %v", slept)
			}
			if tc.acked {
				if ack.acked != 1 || ack.nacked != 0 {
					t.Fatalf("expected ack, got %+v", ack)
				}
				if len(tc.resumer.calls) != 1 || tc.resumer.calls[0] != id.String()+"|wallet" {
					t.Fatalf("unexpected resume calls %v", tc.resumer.calls)
				}
				return
			}
			if ack.nacked != 1 || ack.requeued != tc.requeued {
				t.Fatalf("expected nack requeue=%v, got %+v", tc.requeued, ack)
			}
		})
	}
}
