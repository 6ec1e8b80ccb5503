package chain

import (
	"context"
	"crypto/rand"
	"time"

	"github.com/gagliardetto/solana-go"
)

// Minter records a proof on chain. Client submits for real, Simulator only
// derives addresses.
type Minter interface {
	Submit(ctx context.Context, req SubmitRequest) (*Result, error)
}

// Simulator derives the real proof PDA for the program but returns a random
// signature and mint without touching the network.
type Simulator struct {
	Program solana.PublicKey
}

func NewSimulator(programID string) (*Simulator, error) {
	pk, err := solana.PublicKeyFromBase58(programID)
	if err != nil {
		return nil, err
	}
	return &Simulator{Program: pk}, nil
}

func (s *Simulator) Submit(ctx context.Context, req SubmitRequest) (*Result, error) {
	user, err := solana.PublicKeyFromBase58(req.Wallet)
	if err != nil {
		return nil, err
	}
	pda, err := ProofRecordPDA(s.Program, user, req.ProofID)
	if err != nil {
		return nil, err
	}
	var raw [64]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return nil, err
	}
	mint, err := solana.NewRandomPrivateKey()
	if err != nil {
		return nil, err
	}
	return &Result{
		Signature: solana.SignatureFromBytes(raw[:]).String(),
		ProofPDA:  pda.String(),
		Mint:      mint.PublicKey().String(),
		At:        time.Now().UTC(),
	}, nil
}

// SignatureStatuses reports every signature as finalized, so simulated proofs
// settle on the next reconcile.
func (s *Simulator) SignatureStatuses(ctx context.Context, sigs []string) ([]SignatureStatus, error) {
	out := make([]SignatureStatus, len(sigs))
	for i, sig := range sigs {
		out[i] = SignatureStatus{Signature: sig, Status: SigStatusFinalized}
	}
	return out, nil
}
