package impl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"ghonsi-proof/internal/blob"
	"ghonsi-proof/internal/chain"
	"ghonsi-proof/internal/domain"
	"ghonsi-proof/internal/dto"
	"ghonsi-proof/internal/events"
	"ghonsi-proof/internal/ipfs"
	"ghonsi-proof/internal/observability/middleware"
	"ghonsi-proof/internal/pipeline"
	"ghonsi-proof/internal/store"
	"ghonsi-proof/internal/validate"

	"github.com/google/uuid"
)

const maxAdminPage = 200

type ProofServiceImpl struct {
	store    *store.Store
	pipeline *pipeline.Pipeline
	blob     blob.Store
	events   events.Publisher
	cluster  string
	Now      func() time.Time
}

func NewProofService(st *store.Store, p *pipeline.Pipeline, b blob.Store, pub events.Publisher, cluster string) *ProofServiceImpl {
	return &ProofServiceImpl{store: st, pipeline: p, blob: b, events: pub, cluster: cluster}
}

func (s *ProofServiceImpl) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Create runs the submission pipeline.
func (s *ProofServiceImpl) Create(ctx context.Context, in pipeline.Input) (*dto.SubmitProofResult, error) {
	res, err := s.pipeline.Submit(ctx, in)
	if err != nil {
		return nil, pipelineErr(err)
	}
	p := res.Proof
	return &dto.SubmitProofResult{
		ProofID:     p.ID.String(),
		Status:      p.Status,
		ChainStatus: p.ChainStatus,
		IPFSHash:    p.IPFSHash,
		Tx:          p.BlockchainTx,
		Skipped:     res.Skipped,
	}, nil
}

func (s *ProofServiceImpl) List(ctx context.Context, userID uuid.UUID) ([]domain.Proof, error) {
	return s.store.Proofs().ListByUser(ctx, userID)
}

func (s *ProofServiceImpl) Get(ctx context.Context, id uuid.UUID) (*domain.Proof, error) {
	p, err := s.store.Proofs().Get(ctx, id)
	if err != nil {
		return nil, notFound(err, "proof")
	}
	return p, nil
}

func (s *ProofServiceImpl) owned(ctx context.Context, owner, id uuid.UUID) (*domain.Proof, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.UserID != owner {
		return nil, fmt.Errorf("%w: proof belongs to another user", ErrForbidden)
	}
	return p, nil
}

// Update edits the descriptive fields of a pending proof.
func (s *ProofServiceImpl) Update(ctx context.Context, owner, id uuid.UUID, r dto.ProofPatchRequest) (*domain.Proof, error) {
	p, err := s.owned(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if p.Status != domain.ProofStatusPending {
		return nil, fmt.Errorf("%w: only pending proofs can be edited", ErrConflict)
	}
	fields := map[string]any{}
	set := func(col string, v *string, check func(string) error) error {
		if v == nil {
			return nil
		}
		val := strings.TrimSpace(*v)
		if err := check(val); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
		fields[col] = val
		return nil
	}
	for _, f := range []error{
		set("proof_name", r.ProofName, validate.ProofName),
		set("summary", r.Summary, validate.ProofSummary),
		set("proof_type", r.ProofType, validate.ProofType),
		set("reference_link", r.ReferenceLink, validate.ReferenceLink),
	} {
		if f != nil {
			return nil, f
		}
	}
	if len(fields) > 0 {
		if err := s.store.Proofs().Update(ctx, id, fields); err != nil {
			return nil, notFound(err, "proof")
		}
	}
	return s.Get(ctx, id)
}

// Delete removes stored files best effort, then file rows, then the proof.
func (s *ProofServiceImpl) Delete(ctx context.Context, owner, id uuid.UUID) error {
	p, err := s.owned(ctx, owner, id)
	if err != nil {
		return err
	}
	s.release(ctx, p)
	return s.store.WithTx(ctx, func(tx *store.Store) error {
		if _, err := tx.Files().DeleteByProof(ctx, id); err != nil {
			return err
		}
		if _, err := tx.Verifications().DeleteByProof(ctx, id); err != nil {
			return err
		}
		return notFound(tx.Proofs().Delete(ctx, id), "proof")
	})
}

// release removes a proof's stored files and pins. Failures are logged.
func (s *ProofServiceImpl) release(ctx context.Context, p *domain.Proof) {
	if len(p.Files) > 0 && s.blob != nil {
		keys := make([]string, 0, len(p.Files))
		for _, f := range p.Files {
			keys = append(keys, f.FilePath)
		}
		if err := s.blob.Delete(ctx, keys...); err != nil {
			slog.Warn("stored files not removed", append(middleware.LogAttrs(ctx), "proof_id", p.ID, "error", err)...)
		}
	}
	s.unpin(ctx, p)
}

// ReleaseUserFiles removes the stored files and pins of every proof a user
// owns. Rows are left for the caller to delete.
func (s *ProofServiceImpl) ReleaseUserFiles(ctx context.Context, userID uuid.UUID) error {
	proofs, err := s.store.Proofs().ListByUser(ctx, userID)
	if err != nil {
		return err
	}
	for i := range proofs {
		s.release(ctx, &proofs[i])
	}
	return nil
}

type unpinner interface {
	Unpin(ctx context.Context, cid string) error
}

// unpin releases the proof's pins when the pinning client supports it.
func (s *ProofServiceImpl) unpin(ctx context.Context, p *domain.Proof) {
	if s.pipeline == nil {
		return
	}
	u, ok := s.pipeline.IPFS.(unpinner)
	if !ok || !s.pipeline.IPFS.Configured() {
		return
	}
	for _, cid := range []string{p.IPFSHash, p.FileIPFSHash} {
		if cid == "" {
			continue
		}
		if err := u.Unpin(ctx, cid); err != nil {
			slog.Warn("ipfs unpin failed", append(middleware.LogAttrs(ctx), "proof_id", p.ID, "cid", cid, "error", err)...)
		}
	}
}

func (s *ProofServiceImpl) UpdateStatus(ctx context.Context, admin, id uuid.UUID, status string) (*domain.Proof, error) {
	if !domain.ValidProofStatus(status) {
		return nil, fmt.Errorf("%w: %w %q", ErrInvalidRequest, domain.ErrInvalidStatus, status)
	}
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	at := s.now()
	if err := s.store.Proofs().SetStatus(ctx, id, status, &admin, at); err != nil {
		return nil, notFound(err, "proof")
	}
	if s.events != nil {
		if err := s.events.Publish(ctx, events.TypeProofStatusChanged, events.ProofStatusChanged{
			ProofID:    id.String(),
			UserID:     p.UserID.String(),
			Status:     status,
			VerifierID: admin.String(),
			At:         at,
		}); err != nil {
			slog.Warn("event publish failed", "type", events.TypeProofStatusChanged, "error", err)
		}
	}
	owner := p.UserID
	recordAudit(ctx, s.store.Audit(), domain.AuditLog{UserID: &owner, ActorID: &admin, Action: AuditProofStatus, CreatedAt: at},
		map[string]any{"proofId": id.String(), "status": status})
	slog.Info("proof status changed", append(middleware.LogAttrs(ctx), "proof_id", id, "status", status, "admin_id", admin)...)
	return s.Get(ctx, id)
}

func (s *ProofServiceImpl) ListByStatus(ctx context.Context, status string, limit, offset int) ([]domain.Proof, error) {
	if status != "" && !domain.ValidProofStatus(status) {
		return nil, fmt.Errorf("%w: %w %q", ErrInvalidRequest, domain.ErrInvalidStatus, status)
	}
	if limit <= 0 || limit > maxAdminPage {
		limit = maxAdminPage
	}
	return s.store.Proofs().ListByStatus(ctx, status, limit, max(offset, 0))
}

func (s *ProofServiceImpl) Stats(ctx context.Context, userID uuid.UUID) (store.ProofStats, error) {
	return s.store.Proofs().Stats(ctx, &userID)
}

func (s *ProofServiceImpl) GlobalStats(ctx context.Context) (store.ProofStats, error) {
	return s.store.Proofs().Stats(ctx, nil)
}

func (s *ProofServiceImpl) ChainStatus(ctx context.Context, id uuid.UUID) (*dto.ChainStatusResponse, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	out := &dto.ChainStatusResponse{
		ProofID:     p.ID.String(),
		OnChain:     p.OnChain(),
		ChainStatus: p.ChainStatus,
		ChainError:  p.ChainError,
		Tx:          p.BlockchainTx,
		ProofPDA:    p.ProofPDA,
		Mint:        p.NFTMint,
		IPFSURL:     p.IPFSURL,
		SubmittedAt: p.SubmittedAt,
		ConfirmedAt: p.ConfirmedAt,
	}
	if p.BlockchainTx != "" {
		out.TxURL = chain.TxURL(p.BlockchainTx, s.cluster)
	}
	if p.ProofPDA != "" {
		out.AddressURL = chain.AddressURL(p.ProofPDA, s.cluster)
	}
	if p.IPFSHash != "" {
		out.Gateways = ipfs.AlternativeGateways(p.IPFSHash)
	}
	return out, nil
}

// Mint records an existing proof on chain, or queues it in queue mode.
func (s *ProofServiceImpl) Mint(ctx context.Context, owner, id uuid.UUID, wallet string) (*domain.Proof, error) {
	if _, err := s.owned(ctx, owner, id); err != nil {
		return nil, err
	}
	if wallet != "" {
		if err := validate.SolanaAddress(wallet); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
	}
	p, err := s.pipeline.Request(ctx, id, wallet)
	if err != nil {
		return nil, pipelineErr(err)
	}
	return p, nil
}

// SubmitOnChain backs POST /api/submit-proof: it submits caller supplied fields
// and, when the id names one of the caller's proofs, records the result on it.
func (s *ProofServiceImpl) SubmitOnChain(ctx context.Context, caller uuid.UUID, r dto.SubmitProofRequest) (*dto.SubmitProofResponse, error) {
	if !r.Complete() {
		return nil, fmt.Errorf("%w: Missing required fields", ErrInvalidRequest)
	}
	if err := validate.SolanaAddress(r.WalletAddress); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	res, err := s.pipeline.Anchor(ctx, chain.SubmitRequest{
		ProofID:     r.ProofID,
		Title:       r.Title,
		Description: r.Description,
		ProofType:   r.ProofType,
		URI:         r.IPFSURI,
		Wallet:      r.WalletAddress,
	})
	if err != nil {
		return nil, pipelineErr(err)
	}

	if id, err := uuid.Parse(r.ProofID); err == nil {
		if p, err := s.store.Proofs().Get(ctx, id); err == nil && p.UserID == caller {
			if err := s.store.Proofs().SetChainResult(ctx, id, r.WalletAddress, res.Signature, res.ProofPDA, res.Mint, res.At); err != nil {
				slog.Warn("chain result not recorded", append(middleware.LogAttrs(ctx), "proof_id", id, "error", err)...)
			}
		}
	}
	if s.events != nil {
		_ = s.events.Publish(ctx, events.TypeProofMinted, events.ProofMinted{
			ProofID:  r.ProofID,
			Tx:       res.Signature,
			ProofPDA: res.ProofPDA,
			Mint:     res.Mint,
			At:       res.At,
		})
	}
	return &dto.SubmitProofResponse{
		Success:   true,
		Tx:        res.Signature,
		ProofPDA:  res.ProofPDA,
		Mint:      res.Mint,
		URI:       r.IPFSURI,
		Status:    "submitted",
		Timestamp: res.At.UTC().Format(time.RFC3339),
	}, nil
}

// pipelineErr maps pipeline failures onto service sentinels while keeping the
// StepError in the chain.
func pipelineErr(err error) error {
	switch {
	case errors.Is(err, validate.ErrInvalid), errors.Is(err, chain.ErrSeedTooLong):
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	case errors.Is(err, pipeline.ErrPermanent):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	case errors.Is(err, pipeline.ErrMintUnavailable), errors.Is(err, chain.ErrInsufficientBalance):
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return err
}
