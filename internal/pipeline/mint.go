package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"ghonsi-proof/internal/chain"
	"ghonsi-proof/internal/config"
	"ghonsi-proof/internal/domain"
	"ghonsi-proof/internal/events"

	"github.com/google/uuid"
)

// mintOrQueue runs the mint step according to Mode, then the status update.
func (p *Pipeline) mintOrQueue(ctx context.Context, proof *domain.Proof) (*chain.Result, error) {
	if p.Mode == config.MintModeQueue {
		err := p.queue(ctx, proof)
		p.step(StepMint, err)
		if err != nil {
			return nil, fail(StepMint, proof.ID, err)
		}
		return nil, nil
	}
	return p.mintNow(ctx, proof)
}

func (p *Pipeline) queue(ctx context.Context, proof *domain.Proof) error {
	if p.Events == nil {
		return ErrMintUnavailable
	}
	if err := p.Events.Publish(ctx, events.TypeProofMintRequested, events.MintRequested{
		ProofID:       proof.ID.String(),
		UserID:        proof.UserID.String(),
		WalletAddress: proof.WalletAddress,
		At:            p.now(),
	}); err != nil {
		return err
	}
	if err := p.Store.Proofs().SetChainStatus(ctx, proof.ID, domain.ChainStatusQueued, "", nil); err != nil {
		return err
	}
	proof.ChainStatus = domain.ChainStatusQueued
	return nil
}

// mintNow submits through the configured Minter (real or simulated) and writes
// the result.
func (p *Pipeline) mintNow(ctx context.Context, proof *domain.Proof) (*chain.Result, error) {
	if p.Minter == nil {
		p.step(StepMint, ErrMintUnavailable)
		return nil, fail(StepMint, proof.ID, ErrMintUnavailable)
	}
	uri := proof.IPFSURL
	if uri == "" {
		uri = proof.ReferenceLink
	}
	res, err := p.Minter.Submit(ctx, chain.SubmitRequest{
		ProofID:     proof.ID.String(),
		Title:       proof.ProofName,
		Description: proof.Summary,
		ProofType:   proof.ProofType,
		URI:         uri,
		Wallet:      proof.WalletAddress,
	})
	p.step(StepMint, err)
	if err != nil {
		if serr := p.Store.Proofs().SetChainStatus(ctx, proof.ID, domain.ChainStatusFailed, err.Error(), nil); serr != nil {
			slog.Warn("record chain failure", "proof_id", proof.ID, "error", serr)
		}
		_ = p.publish(ctx, events.TypeProofMintFailed, events.ProofMintFailed{ProofID: proof.ID.String(), Step: StepMint, Error: err.Error(), At: p.now()})
		return nil, fail(StepMint, proof.ID, err)
	}

	err = p.Store.Proofs().SetChainResult(ctx, proof.ID, proof.WalletAddress, res.Signature, res.ProofPDA, res.Mint, res.At)
	p.step(StepStatus, err)
	if err != nil {
		return res, fail(StepStatus, proof.ID, err)
	}
	proof.BlockchainTx, proof.ProofPDA, proof.NFTMint = res.Signature, res.ProofPDA, res.Mint
	proof.ChainStatus = domain.ChainStatusSubmitted
	at := res.At
	proof.SubmittedAt = &at

	_ = p.publish(ctx, events.TypeProofMinted, events.ProofMinted{
		ProofID:  proof.ID.String(),
		Tx:       res.Signature,
		ProofPDA: res.ProofPDA,
		Mint:     res.Mint,
		At:       res.At,
	})
	return res, nil
}

// Resume runs the mint and status update steps for an existing proof. A wallet
// passed here overrides the one stored on the proof. Already minted proofs are
// returned unchanged.
func (p *Pipeline) Resume(ctx context.Context, proofID uuid.UUID, wallet string) (*domain.Proof, error) {
	proof, done, err := p.prepare(ctx, proofID, wallet)
	if err != nil || done {
		return proof, err
	}
	if _, err := p.mintNow(ctx, proof); err != nil {
		return nil, err
	}
	return proof, nil
}

// Request mints an existing proof the way Mode says: queued for the minter
// worker in queue mode, immediately otherwise.
func (p *Pipeline) Request(ctx context.Context, proofID uuid.UUID, wallet string) (*domain.Proof, error) {
	if p.Mode != config.MintModeQueue {
		return p.Resume(ctx, proofID, wallet)
	}
	proof, done, err := p.prepare(ctx, proofID, wallet)
	if err != nil || done {
		return proof, err
	}
	err = p.queue(ctx, proof)
	p.step(StepMint, err)
	if err != nil {
		return nil, fail(StepMint, proof.ID, err)
	}
	return proof, nil
}

// prepare loads a proof for minting. done reports that it is already on chain.
func (p *Pipeline) prepare(ctx context.Context, proofID uuid.UUID, wallet string) (proof *domain.Proof, done bool, err error) {
	proof, err = p.Store.Proofs().Get(ctx, proofID)
	if err != nil {
		return nil, false, fail(StepMint, proofID, fmt.Errorf("%w: %v", ErrPermanent, err))
	}
	if proof.Status == domain.ProofStatusRejected {
		return nil, false, fail(StepMint, proofID, fmt.Errorf("%w: proof was rejected", ErrPermanent))
	}
	if proof.OnChain() {
		return proof, true, nil
	}
	if wallet != "" && wallet != proof.WalletAddress {
		if err := p.Store.Proofs().Update(ctx, proof.ID, map[string]any{"wallet_address": wallet}); err != nil {
			return nil, false, fail(StepMint, proofID, err)
		}
		proof.WalletAddress = wallet
	}
	if proof.WalletAddress == "" {
		return nil, false, fail(StepMint, proofID, fmt.Errorf("%w: no wallet address", ErrPermanent))
	}
	return proof, false, nil
}

// Anchor submits caller-supplied fields without touching a stored proof.
func (p *Pipeline) Anchor(ctx context.Context, req chain.SubmitRequest) (*chain.Result, error) {
	if p.Minter == nil {
		return nil, ErrMintUnavailable
	}
	res, err := p.Minter.Submit(ctx, req)
	p.step(StepMint, err)
	return res, err
}
