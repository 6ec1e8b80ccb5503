// Package pipeline runs the proof submission steps: validate, record, upload,
// pin, mint and status update. The first failing step aborts the run and work
// already done by earlier steps is left in place.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"ghonsi-proof/internal/blob"
	"ghonsi-proof/internal/chain"
	"ghonsi-proof/internal/config"
	"ghonsi-proof/internal/domain"
	"ghonsi-proof/internal/events"
	"ghonsi-proof/internal/ipfs"
	"ghonsi-proof/internal/observability/metrics"
	"ghonsi-proof/internal/observability/middleware"
	"ghonsi-proof/internal/store"
	"ghonsi-proof/internal/validate"

	"github.com/google/uuid"
)

const (
	StepValidate = "validate"
	StepRecord   = "record"
	StepUpload   = "upload"
	StepPin      = "pin"
	StepMint     = "mint"
	StepStatus   = "status_update"
)

var (
	ErrMissingReference = errors.New("a reference document is required")
	ErrMintUnavailable  = errors.New("on-chain submission is not configured")
	// ErrPermanent marks failures that retrying cannot fix.
	ErrPermanent = errors.New("permanent failure")
)

// StepError names the step that stopped the pipeline.
type StepError struct {
	Step    string
	ProofID uuid.UUID
	Err     error
}

func (e *StepError) Error() string { return fmt.Sprintf("%s: %v", e.Step, e.Err) }
func (e *StepError) Unwrap() error { return e.Err }

type Attachment struct {
	Kind        string
	Filename    string
	ContentType string
	Data        []byte
}

type Input struct {
	UserID        uuid.UUID
	ProofType     string
	ProofName     string
	Summary       string
	ReferenceLink string
	WalletAddress string
	Attachments   []Attachment
}

// Pinner is the subset of ipfs.Client the pipeline uses.
type Pinner interface {
	Configured() bool
	PinJSON(ctx context.Context, content any, name string) (*ipfs.PinResult, error)
	PinFile(ctx context.Context, name string, r io.Reader) (*ipfs.PinResult, error)
	GatewayURL(cid string) string
}

type Pipeline struct {
	Store  *store.Store
	Blob   blob.Store
	IPFS   Pinner
	Minter chain.Minter
	Mode   string
	Events events.Publisher
	Now    func() time.Time
}

type Result struct {
	Proof   *domain.Proof
	Files   []domain.File
	Skipped []string
	Chain   *chain.Result
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now().UTC()
	}
	return time.Now().UTC()
}

func (p *Pipeline) step(name string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	metrics.PipelineStepsTotal.WithLabelValues(name, result).Inc()
}

// MintEnabled reports whether a wallet submission can reach the chain: a
// queue to publish to or a configured Minter.
func (p *Pipeline) MintEnabled() bool {
	if p.Mode == config.MintModeQueue {
		return p.Events != nil
	}
	return p.Minter != nil
}

func fail(step string, id uuid.UUID, err error) *StepError {
	return &StepError{Step: step, ProofID: id, Err: err}
}

// Submit runs every step for a new proof.
func (p *Pipeline) Submit(ctx context.Context, in Input) (res *Result, err error) {
	defer func() {
		result := "success"
		if err != nil {
			result = "failure"
		}
		metrics.ProofsSubmittedTotal.WithLabelValues(result).Inc()
	}()
	log := slog.With(middleware.LogAttrs(ctx)...)

	err = Validate(in)
	p.step(StepValidate, err)
	if err != nil {
		return nil, fail(StepValidate, uuid.Nil, err)
	}

	proof := &domain.Proof{
		ID:            uuid.New(),
		UserID:        in.UserID,
		ProofType:     in.ProofType,
		ProofName:     in.ProofName,
		Summary:       in.Summary,
		ReferenceLink: in.ReferenceLink,
		WalletAddress: in.WalletAddress,
		Status:        domain.ProofStatusPending,
		CreatedAt:     p.now(),
	}
	err = p.Store.Proofs().Create(ctx, proof)
	p.step(StepRecord, err)
	if err != nil {
		return nil, fail(StepRecord, proof.ID, err)
	}
	res = &Result{Proof: proof}

	files, skipped, err := p.upload(ctx, proof, in.Attachments)
	p.step(StepUpload, err)
	if err != nil {
		return res, fail(StepUpload, proof.ID, err)
	}
	res.Files, res.Skipped = files, skipped
	proof.Files = files

	if p.IPFS != nil && p.IPFS.Configured() {
		err = p.pin(ctx, proof, in.Attachments, files)
		p.step(StepPin, err)
		if err != nil {
			return res, fail(StepPin, proof.ID, err)
		}
	}

	switch {
	case in.WalletAddress == "":
	case !p.MintEnabled():
		log.Info("minting disabled, proof left off chain", "proof_id", proof.ID)
	default:
		cr, err := p.mintOrQueue(ctx, proof)
		if err != nil {
			return res, err
		}
		res.Chain = cr
	}

	_ = p.publish(ctx, events.TypeProofSubmitted, events.ProofSubmitted{
		ProofID:  proof.ID.String(),
		UserID:   proof.UserID.String(),
		IPFSHash: proof.IPFSHash,
		Tx:       proof.BlockchainTx,
		ProofPDA: proof.ProofPDA,
		At:       p.now(),
	})
	log.Info("proof submitted", "proof_id", proof.ID, "user_id", proof.UserID, "files", len(files), "skipped", len(skipped), "chain_status", proof.ChainStatus)
	return res, nil
}

// Validate checks fields and attachments. It performs no I/O.
func Validate(in Input) error {
	if in.UserID == uuid.Nil {
		return &validate.Error{Field: "userId", Message: "User is required"}
	}
	checks := []error{
		validate.ProofName(in.ProofName),
		validate.ProofSummary(in.Summary),
		validate.ProofType(in.ProofType),
		validate.ReferenceLink(in.ReferenceLink),
	}
	if in.WalletAddress != "" {
		checks = append(checks, validate.SolanaAddress(in.WalletAddress))
	}
	for _, err := range checks {
		if err != nil {
			return err
		}
	}
	hasReference := false
	for _, a := range in.Attachments {
		if err := validate.File(int64(len(a.Data)), a.ContentType); err != nil {
			return fmt.Errorf("%s: %w", a.Filename, err)
		}
		switch a.Kind {
		case domain.FileTypeReference:
			hasReference = true
		case domain.FileTypeSupporting:
		default:
			return &validate.Error{Field: "fileType", Message: "Unknown attachment kind " + a.Kind}
		}
	}
	if !hasReference {
		return &validate.Error{Field: "reference", Message: ErrMissingReference.Error()}
	}
	return nil
}

// upload stores each attachment and records one row per stored attachment.
// Failed uploads are skipped.
func (p *Pipeline) upload(ctx context.Context, proof *domain.Proof, atts []Attachment) ([]domain.File, []string, error) {
	var files []domain.File
	var skipped []string
	for _, a := range atts {
		at := p.now()
		key := blob.Key(proof.UserID.String(), proof.ID.String(), a.Filename, at)
		url, err := p.Blob.Put(ctx, key, a.ContentType, bytes.NewReader(a.Data))
		if err != nil {
			slog.Warn("attachment upload failed", "proof_id", proof.ID, "filename", a.Filename, "error", err)
			skipped = append(skipped, a.Filename)
			continue
		}
		f := domain.File{
			ID:         uuid.New(),
			ProofID:    proof.ID,
			FileType:   a.Kind,
			Filename:   a.Filename,
			FileURL:    url,
			FilePath:   key,
			MimeType:   a.ContentType,
			Size:       int64(len(a.Data)),
			UploadedAt: at,
		}
		if err := p.Store.Files().Create(ctx, &f); err != nil {
			return files, skipped, err
		}
		files = append(files, f)
	}
	return files, skipped, nil
}

func (p *Pipeline) pin(ctx context.Context, proof *domain.Proof, atts []Attachment, files []domain.File) error {
	var fileHash, fileURL string
	for _, a := range atts {
		if a.Kind != domain.FileTypeReference {
			continue
		}
		r, err := p.IPFS.PinFile(ctx, a.Filename, bytes.NewReader(a.Data))
		metrics.PinsTotal.WithLabelValues("file", outcome(err)).Inc()
		if err != nil {
			return fmt.Errorf("pin reference document: %w", err)
		}
		fileHash, fileURL = r.IpfsHash, p.IPFS.GatewayURL(r.IpfsHash)
		break
	}

	external := proof.ReferenceLink
	if external == "" && fileURL != "" {
		external = fileURL
	}
	meta := ipfs.BuildProofMetadata(ipfs.MetadataInput{
		ProofID:     proof.ID.String(),
		Title:       proof.ProofName,
		Description: proof.Summary,
		ProofType:   proof.ProofType,
		ExternalURL: external,
		SubmittedAt: proof.CreatedAt,
	})
	r, err := p.IPFS.PinJSON(ctx, meta, ipfs.MetadataName(proof.ID.String()))
	metrics.PinsTotal.WithLabelValues("json", outcome(err)).Inc()
	if err != nil {
		return fmt.Errorf("pin metadata: %w", err)
	}
	url := p.IPFS.GatewayURL(r.IpfsHash)
	if err := p.Store.Proofs().SetIPFS(ctx, proof.ID, r.IpfsHash, url, fileHash, fileURL); err != nil {
		return err
	}
	proof.IPFSHash, proof.IPFSURL = r.IpfsHash, url
	proof.FileIPFSHash, proof.FileIPFSURL = fileHash, fileURL
	return nil
}

func outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

func (p *Pipeline) publish(ctx context.Context, eventType string, data any) error {
	if p.Events == nil {
		return nil
	}
	if err := p.Events.Publish(ctx, eventType, data); err != nil {
		slog.Warn("event publish failed", "type", eventType, "error", err)
		return err
	}
	return nil
}
