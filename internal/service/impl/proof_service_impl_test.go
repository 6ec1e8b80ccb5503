package impl

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"ghonsi-proof/internal/blob"
	"ghonsi-proof/internal/chain"
	"ghonsi-proof/internal/config"
	"ghonsi-proof/internal/domain"
	"ghonsi-proof/internal/dto"
	"ghonsi-proof/internal/events"
	"ghonsi-proof/internal/ipfs"
	"ghonsi-proof/internal/pipeline"
	"ghonsi-proof/internal/store"

	"github.com/google/uuid"
)

const testProgram = "11111111111111111111111111111111"

type proofFixture struct {
	store  *store.Store
	dir    string
	events *events.Recorder
	svc    *ProofServiceImpl
}

func newProofFixture(t *testing.T, mode string) *proofFixture {
	t.Helper()
	st := newTestStore(t)
	dir := t.TempDir()
	b, err := blob.NewLocal(dir, "http://files.test")
	if err != nil {
		t.Fatalf("blob: %v", err)
	}
	sim, err := chain.NewSimulator(testProgram)
	if err != nil {
		t.Fatalf("simulator: %v", err)
	}
	rec := &events.Recorder{}
	p := &pipeline.Pipeline{
		Store:  st,
		Blob:   b,
		IPFS:   ipfs.New(ipfs.Config{}),
		Minter: sim,
		Mode:   mode,
		Events: rec,
	}
	return &proofFixture{store: st, dir: dir, events: rec, svc: NewProofService(st, p, b, rec, "devnet")}
}

func proofInput(userID uuid.UUID, wallet string) pipeline.Input {
	return pipeline.Input{
		UserID:        userID,
		ProofType:     "job",
		ProofName:     "Backend engineer at Acme",
		Summary:       "Built and ran the payments API for two years.",
		WalletAddress: wallet,
		Attachments: []pipeline.Attachment{
			{Kind: domain.FileTypeReference, Filename: "letter.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.4 reference")},
			{Kind: domain.FileTypeSupporting, Filename: "badge.png", ContentType: "image/png", Data: []byte("png bytes")},
		},
	}
}

func TestProofCreateAndChainStatus(t *testing.T) {
	f := newProofFixture(t, config.MintModeSimulate)
	ctx := context.Background()
	u := newTestUser(t, f.store, "kay@example.com")
	wallet := newWallet(t).PublicKey().String()

	res, err := f.svc.Create(ctx, proofInput(u.ID, wallet))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if res.Status != domain.ProofStatusPending || res.ChainStatus != domain.ChainStatusSubmitted || res.Tx == "" {
		t.Fatalf("unexpected result %+v", res)
	}
	id := uid(t, res.ProofID)
	status, err := f.svc.ChainStatus(ctx, id)
	if err != nil {
		t.Fatalf("chain status: %v", err)
	}
	if !status.OnChain || status.TxURL == "" || status.AddressURL == "" {
		t.Fatalf("expected explorer links, got %+v", status)
	}

	if _, err := f.svc.Mint(ctx, u.ID, uuid.New(), ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found for unknown proof, got %v", err)
	}
	other := newTestUser(t, f.store, "lee@example.com")
	if _, err := f.svc.Mint(ctx, other.ID, id, ""); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden for non-owner, got %v", err)
	}
	again, err := f.svc.Mint(ctx, u.ID, id, "")
	if err != nil || again.BlockchainTx != res.Tx {
		t.Fatalf("minting twice should return the recorded tx: %v %v", again, err)
	}
}

func TestProofCreateValidation(t *testing.T) {
	f := newProofFixture(t, config.MintModeSimulate)
	u := newTestUser(t, f.store, "max@example.com")
	in := proofInput(u.ID, "")
	in.Attachments = in.Attachments[1:]
	_, err := f.svc.Create(context.Background(), in)
	if !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected invalid request without a reference document, got %v", err)
	}
	var se *pipeline.StepError
	if !errors.As(err, &se) || se.Step != pipeline.StepValidate {
		t.Fatalf("expected validate step error, got %v", err)
	}
}

func TestProofUpdateStatusAndDelete(t *testing.T) {
	f := newProofFixture(t, config.MintModeSimulate)
	ctx := context.Background()
	u := newTestUser(t, f.store, "ned@example.com")
	admin := newTestUser(t, f.store, "admin@example.com")

	res, err := f.svc.Create(ctx, proofInput(u.ID, ""))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	id := uid(t, res.ProofID)

	if _, err := f.svc.Update(ctx, u.ID, id, dto.ProofPatchRequest{Summary: strPtr("short")}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected summary validation, got %v", err)
	}
	updated, err := f.svc.Update(ctx, u.ID, id, dto.ProofPatchRequest{ProofName: strPtr("Lead engineer at Acme")})
	if err != nil || updated.ProofName != "Lead engineer at Acme" {
		t.Fatalf("update: %v %v", updated, err)
	}

	if _, err := f.svc.UpdateStatus(ctx, admin.ID, id, "bogus"); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected invalid status, got %v", err)
	}
	verified, err := f.svc.UpdateStatus(ctx, admin.ID, id, domain.ProofStatusVerified)
	if err != nil || verified.Status != domain.ProofStatusVerified || verified.VerifierID == nil || *verified.VerifierID != admin.ID {
		t.Fatalf("update status: %+v %v", verified, err)
	}
	audit, err := f.store.Audit().ListByUser(ctx, u.ID, 10)
	if err != nil || len(audit) != 1 || audit[0].Action != AuditProofStatus || *audit[0].ActorID != admin.ID {
		t.Fatalf("expected a proof status audit entry, got %+v %v", audit, err)
	}
	if _, err := f.svc.Update(ctx, u.ID, id, dto.ProofPatchRequest{ProofName: strPtr("Too late now")}); !errors.Is(err, ErrConflict) {
		t.Fatalf("verified proofs are read only, got %v", err)
	}
	stats, err := f.svc.Stats(ctx, u.ID)
	if err != nil || stats.Total != 1 || stats.Verified != 1 {
		t.Fatalf("stats: %+v %v", stats, err)
	}

	if err := f.svc.Delete(ctx, admin.ID, id); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden delete, got %v", err)
	}
	if err := f.svc.Delete(ctx, u.ID, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	files, _ := f.store.Files().ListByProof(ctx, id)
	if len(files) != 0 {
		t.Fatalf("file rows should be removed, got %d", len(files))
	}
	var left int
	_ = filepath.Walk(f.dir, func(_ string, info os.FileInfo, _ error) error {
		if info != nil && !info.IsDir() {
			left++
		}
		return nil
	})
	if left != 0 {
		t.Fatalf("stored files should be removed, %d left", left)
	}
}

func TestProofMintQueueMode(t *testing.T) {
	f := newProofFixture(t, config.MintModeQueue)
	ctx := context.Background()
	u := newTestUser(t, f.store, "oda@example.com")

	res, err := f.svc.Create(ctx, proofInput(u.ID, ""))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.svc.Mint(ctx, u.ID, uid(t, res.ProofID), "bad-wallet"); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected invalid wallet, got %v", err)
	}
	p, err := f.svc.Mint(ctx, u.ID, uid(t, res.ProofID), newWallet(t).PublicKey().String())
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if p.ChainStatus != domain.ChainStatusQueued || p.BlockchainTx != "" {
		t.Fatalf("expected queued proof, got %+v", p)
	}
	types := f.events.Types()
	if types[len(types)-1] != events.TypeProofMintRequested {
		t.Fatalf("expected mint request event, got %v", types)
	}
}

func TestSubmitOnChain(t *testing.T) {
	f := newProofFixture(t, config.MintModeSimulate)
	ctx := context.Background()
	u := newTestUser(t, f.store, "pat@example.com")
	wallet := newWallet(t).PublicKey().String()

	if _, err := f.svc.SubmitOnChain(ctx, u.ID, dto.SubmitProofRequest{ProofID: "p1", Title: "t"}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected missing fields, got %v", err)
	}

	created, err := f.svc.Create(ctx, proofInput(u.ID, ""))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	resp, err := f.svc.SubmitOnChain(ctx, u.ID, dto.SubmitProofRequest{
		ProofID:       created.ProofID,
		Title:         "Backend engineer at Acme",
		Description:   "Built and ran the payments API.",
		ProofType:     "Software Development",
		IPFSURI:       "ipfs://QmExample",
		WalletAddress: wallet,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !resp.Success || resp.Status != "submitted" || resp.Tx == "" || resp.ProofPDA == "" || resp.URI != "ipfs://QmExample" {
		t.Fatalf("unexpected response %+v", resp)
	}
	stored, err := f.svc.Get(ctx, uid(t, created.ProofID))
	if err != nil || stored.BlockchainTx != resp.Tx || stored.WalletAddress != wallet {
		t.Fatalf("chain result not recorded: %+v %v", stored, err)
	}

	long := dto.SubmitProofRequest{
		ProofID:       "this-proof-id-is-much-longer-than-thirty-two-bytes",
		Title:         "x",
		Description:   "y",
		ProofType:     "Other",
		IPFSURI:       "ipfs://QmExample",
		WalletAddress: wallet,
	}
	if _, err := f.svc.SubmitOnChain(ctx, u.ID, long); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected seed length rejection, got %v", err)
	}
}

func storedFiles(dir string) int {
	n := 0
	_ = filepath.Walk(dir, func(_ string, info os.FileInfo, _ error) error {
		if info != nil && !info.IsDir() {
			n++
		}
		return nil
	})
	return n
}

func TestReleaseUserFiles(t *testing.T) {
	f := newProofFixture(t, config.MintModeSimulate)
	ctx := context.Background()
	u := newTestUser(t, f.store, "quinn@example.com")
	res, err := f.svc.Create(ctx, proofInput(u.ID, ""))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if storedFiles(f.dir) == 0 {
		t.Fatalf("expected stored attachments")
	}
	if err := f.svc.ReleaseUserFiles(ctx, u.ID); err != nil {
		t.Fatalf("release: %v", err)
	}
	if n := storedFiles(f.dir); n != 0 {
		t.Fatalf("stored files should be removed, %d left", n)
	}
	if _, err := f.store.Proofs().Get(ctx, uid(t, res.ProofID)); err != nil {
		t.Fatalf("proof row should remain for the caller to delete: %v", err)
	}
}
