package pipeline

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"ghonsi-proof/internal/chain"
	"ghonsi-proof/internal/config"
	"ghonsi-proof/internal/domain"
	"ghonsi-proof/internal/events"
	"ghonsi-proof/internal/ipfs"
	"ghonsi-proof/internal/store"
	"ghonsi-proof/internal/validate"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testWallet = "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"

type memBlob struct {
	mu      sync.Mutex
	objects map[string][]byte
	failFor map[string]bool
	puts    int
}

func (m *memBlob) Put(ctx context.Context, key, contentType string, r io.Reader) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	data, _ := io.ReadAll(r)
	for name := range m.failFor {
		if len(key) >= len(name) && key[len(key)-len(name):] == name {
			return "", errors.New("storage unavailable")
		}
	}
	if m.objects == nil {
		m.objects = map[string][]byte{}
	}
	m.objects[key] = data
	return "https://files.example/" + key, nil
}

func (m *memBlob) Delete(ctx context.Context, keys ...string) error { return nil }

type stubPinner struct {
	jsonCalls, fileCalls int
	err                  error
}

func (s *stubPinner) Configured() bool { return true }
func (s *stubPinner) PinJSON(ctx context.Context, content any, name string) (*ipfs.PinResult, error) {
	s.jsonCalls++
	if s.err != nil {
		return nil, s.err
	}
	return &ipfs.PinResult{IpfsHash: "QmMeta"}, nil
}
func (s *stubPinner) PinFile(ctx context.Context, name string, r io.Reader) (*ipfs.PinResult, error) {
	s.fileCalls++
	if s.err != nil {
		return nil, s.err
	}
	return &ipfs.PinResult{IpfsHash: "QmFile"}, nil
}
func (s *stubPinner) GatewayURL(cid string) string { return "https://gw.example/ipfs/" + cid }

type stubMinter struct {
	calls int
	err   error
}

func (s *stubMinter) Submit(ctx context.Context, req chain.SubmitRequest) (*chain.Result, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &chain.Result{Signature: "sig-" + req.ProofID, ProofPDA: "pda", At: time.Now().UTC()}, nil
}

func newStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
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

func newUser(t *testing.T, s *store.Store) uuid.UUID {
	t.Helper()
	email := uuid.NewString() + "@example.com"
	u := &domain.User{Email: &email}
	if err := s.Users().Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u.ID
}

func input(userID uuid.UUID, atts ...Attachment) Input {
	return Input{
		UserID:      userID,
		ProofType:   "certificate",
		ProofName:   "Go certification",
		Summary:     "Completed the advanced Go certification",
		Attachments: atts,
	}
}

func pdf(kind, name string) Attachment {
	return Attachment{Kind: kind, Filename: name, ContentType: "application/pdf", Data: []byte("%PDF-1.4")}
}

func countProofs(t *testing.T, s *store.Store) int64 {
	var n int64
	if err := s.DB.Model(&domain.Proof{}).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func TestSubmitComplete(t *testing.T) {
	s := newStore(t)
	user := newUser(t, s)
	b, pin, m := &memBlob{}, &stubPinner{}, &stubMinter{}
	rec := &events.Recorder{}
	p := &Pipeline{Store: s, Blob: b, IPFS: pin, Minter: m, Mode: config.MintModeInline, Events: rec}

	in := input(user, pdf(domain.FileTypeReference, "cert.pdf"), pdf(domain.FileTypeSupporting, "extra.pdf"))
	in.WalletAddress = testWallet
	res, err := p.Submit(context.Background(), in)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if countProofs(t, s) != 1 {
		t.Fatalf("expected exactly one proof row")
	}
	files, _ := s.Files().ListByProof(context.Background(), res.Proof.ID)
	if len(files) != 2 {
		t.Fatalf("expected one file row per attachment, got %d", len(files))
	}
	stored, _ := s.Proofs().Get(context.Background(), res.Proof.ID)
	if stored.IPFSHash != "QmMeta" || stored.FileIPFSHash != "QmFile" {
		t.Fatalf("ipfs not recorded: %+v", stored)
	}
	if stored.BlockchainTx != "sig-"+res.Proof.ID.String() || stored.ChainStatus != domain.ChainStatusSubmitted {
		t.Fatalf("chain result not recorded: %+v", stored)
	}
	types := rec.Types()
	if len(types) != 2 || types[0] != events.TypeProofMinted || types[1] != events.TypeProofSubmitted {
		t.Fatalf("unexpected events %v", types)
	}
}

func TestSubmitSkipsFailedUpload(t *testing.T) {
	s := newStore(t)
	user := newUser(t, s)
	b := &memBlob{failFor: map[string]bool{"broken.pdf": true}}
	p := &Pipeline{Store: s, Blob: b}

	res, err := p.Submit(context.Background(), input(user, pdf(domain.FileTypeReference, "cert.pdf"), pdf(domain.FileTypeSupporting, "broken.pdf")))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(res.Files) != 1 || len(res.Skipped) != 1 || res.Skipped[0] != "broken.pdf" {
		t.Fatalf("expected one stored and one skipped file, got %d/%v", len(res.Files), res.Skipped)
	}
}

func TestSubmitWithoutReferenceMakesNoCalls(t *testing.T) {
	s := newStore(t)
	user := newUser(t, s)
	b, pin, m := &memBlob{}, &stubPinner{}, &stubMinter{}
	p := &Pipeline{Store: s, Blob: b, IPFS: pin, Minter: m, Mode: config.MintModeInline}

	in := input(user, pdf(domain.FileTypeSupporting, "extra.pdf"))
	in.WalletAddress = testWallet
	_, err := p.Submit(context.Background(), in)
	var se *StepError
	if !errors.As(err, &se) || se.Step != StepValidate {
		t.Fatalf("expected validate step error, got %v", err)
	}
	if !errors.Is(err, validate.ErrInvalid) {
		t.Fatalf("validation errors should match ErrInvalid")
	}
	if b.puts != 0 || pin.jsonCalls+pin.fileCalls != 0 || m.calls != 0 {
		t.Fatalf("network touched before rejection: puts=%d pins=%d mints=%d", b.puts, pin.jsonCalls+pin.fileCalls, m.calls)
	}
	if countProofs(t, s) != 0 {
		t.Fatalf("no proof row expected")
	}
}

func TestSubmitWithWalletWhenMintingDisabled(t *testing.T) {
	s := newStore(t)
	user := newUser(t, s)
	p := &Pipeline{Store: s, Blob: &memBlob{}, Mode: config.MintModeInline}

	in := input(user, pdf(domain.FileTypeReference, "cert.pdf"))
	in.WalletAddress = testWallet
	res, err := p.Submit(context.Background(), in)
	if err != nil {
		t.Fatalf("submit should succeed without a minter: %v", err)
	}
	if res.Chain != nil || countProofs(t, s) != 1 {
		t.Fatalf("expected one off-chain proof, chain=%+v", res.Chain)
	}
	got, err := s.Proofs().Get(context.Background(), res.Proof.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ChainStatus != "" || got.WalletAddress != testWallet {
		t.Fatalf("chain status should stay empty, got %q wallet %q", got.ChainStatus, got.WalletAddress)
	}
}

func TestSubmitPinFailureKeepsEarlierWork(t *testing.T) {
	s := newStore(t)
	user := newUser(t, s)
	pin := &stubPinner{err: errors.New("pinata down")}
	p := &Pipeline{Store: s, Blob: &memBlob{}, IPFS: pin}

	res, err := p.Submit(context.Background(), input(user, pdf(domain.FileTypeReference, "cert.pdf")))
	var se *StepError
	if !errors.As(err, &se) || se.Step != StepPin {
		t.Fatalf("expected pin step error, got %v", err)
	}
	if res == nil || countProofs(t, s) != 1 {
		t.Fatalf("proof row should remain after a later step fails")
	}
}

func TestSubmitQueueMode(t *testing.T) {
	s := newStore(t)
	user := newUser(t, s)
	rec := &events.Recorder{}
	m := &stubMinter{}
	p := &Pipeline{Store: s, Blob: &memBlob{}, Minter: m, Mode: config.MintModeQueue, Events: rec}

	in := input(user, pdf(domain.FileTypeReference, "cert.pdf"))
	in.WalletAddress = testWallet
	res, err := p.Submit(context.Background(), in)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if m.calls != 0 {
		t.Fatalf("queue mode must not mint inline")
	}
	stored, _ := s.Proofs().Get(context.Background(), res.Proof.ID)
	if stored.ChainStatus != domain.ChainStatusQueued {
		t.Fatalf("chain status %q", stored.ChainStatus)
	}
	if rec.Types()[0] != events.TypeProofMintRequested {
		t.Fatalf("expected mint request event, got %v", rec.Types())
	}

	// the worker side
	worker := &Pipeline{Store: s, Minter: m, Mode: config.MintModeInline}
	proof, err := worker.Resume(context.Background(), res.Proof.ID, "")
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if proof.ChainStatus != domain.ChainStatusSubmitted || m.calls != 1 {
		t.Fatalf("resume did not mint: %+v", proof)
	}
	if _, err := worker.Resume(context.Background(), res.Proof.ID, ""); err != nil || m.calls != 1 {
		t.Fatalf("resume must be idempotent for minted proofs: %v calls=%d", err, m.calls)
	}
}

func TestResumePermanentFailures(t *testing.T) {
	s := newStore(t)
	user := newUser(t, s)
	p := &Pipeline{Store: s, Minter: &stubMinter{}}

	if _, err := p.Resume(context.Background(), uuid.New(), ""); !errors.Is(err, ErrPermanent) {
		t.Fatalf("missing proof should be permanent, got %v", err)
	}
	proof := &domain.Proof{UserID: user, ProofType: "job", ProofName: "Job", Summary: "a job proof here"}
	_ = s.Proofs().Create(context.Background(), proof)
	if _, err := p.Resume(context.Background(), proof.ID, ""); !errors.Is(err, ErrPermanent) {
		t.Fatalf("missing wallet should be permanent, got %v", err)
	}
	_ = s.Proofs().SetStatus(context.Background(), proof.ID, domain.ProofStatusRejected, nil, time.Now())
	if _, err := p.Resume(context.Background(), proof.ID, testWallet); !errors.Is(err, ErrPermanent) {
		t.Fatalf("rejected proof should be permanent, got %v", err)
	}
}

func TestMintFailureRecorded(t *testing.T) {
	s := newStore(t)
	user := newUser(t, s)
	m := &stubMinter{err: chain.ErrInsufficientBalance}
	p := &Pipeline{Store: s, Blob: &memBlob{}, Minter: m, Mode: config.MintModeInline}

	in := input(user, pdf(domain.FileTypeReference, "cert.pdf"))
	in.WalletAddress = testWallet
	res, err := p.Submit(context.Background(), in)
	if !errors.Is(err, chain.ErrInsufficientBalance) {
		t.Fatalf("expected balance error, got %v", err)
	}
	stored, _ := s.Proofs().Get(context.Background(), res.Proof.ID)
	if stored.ChainStatus != domain.ChainStatusFailed || stored.ChainError == "" {
		t.Fatalf("failure not recorded: %+v", stored)
	}
}
