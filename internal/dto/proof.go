package dto

import (
	"time"

	"ghonsi-proof/internal/store"
)

type ProofPatchRequest struct {
	ProofName     *string `json:"proofName,omitempty"`
	Summary       *string `json:"summary,omitempty"`
	ProofType     *string `json:"proofType,omitempty"`
	ReferenceLink *string `json:"referenceLink,omitempty"`
}

type ProofStatusRequest struct {
	Status string `json:"status"`
}

type MintRequest struct {
	WalletAddress string `json:"walletAddress,omitempty"`
}

type SubmitProofResult struct {
	ProofID     string   `json:"proofId"`
	Status      string   `json:"status"`
	ChainStatus string   `json:"chainStatus,omitempty"`
	IPFSHash    string   `json:"ipfsHash,omitempty"`
	Tx          string   `json:"tx,omitempty"`
	Skipped     []string `json:"skippedFiles,omitempty"`
}

type ChainStatusResponse struct {
	ProofID     string     `json:"proofId"`
	OnChain     bool       `json:"onChain"`
	ChainStatus string     `json:"chainStatus,omitempty"`
	ChainError  string     `json:"chainError,omitempty"`
	Tx          string     `json:"tx,omitempty"`
	ProofPDA    string     `json:"proofPda,omitempty"`
	Mint        string     `json:"mint,omitempty"`
	TxURL       string     `json:"explorerTx,omitempty"`
	AddressURL  string     `json:"explorerAddress,omitempty"`
	IPFSURL     string     `json:"ipfsUrl,omitempty"`
	Gateways    []string   `json:"gateways,omitempty"`
	SubmittedAt *time.Time `json:"submittedAt,omitempty"`
	ConfirmedAt *time.Time `json:"confirmedAt,omitempty"`
}

type StatsResponse = store.ProofStats

// SubmitProofRequest is the body of POST /api/submit-proof.
type SubmitProofRequest struct {
	ProofID       string `json:"proofId"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	ProofType     string `json:"proofType"`
	IPFSURI       string `json:"ipfsUri"`
	WalletAddress string `json:"walletAddress"`
}

// Complete reports whether every field is present.
func (r SubmitProofRequest) Complete() bool {
	return r.ProofID != "" && r.Title != "" && r.Description != "" &&
		r.ProofType != "" && r.IPFSURI != "" && r.WalletAddress != ""
}

type SubmitProofResponse struct {
	Success   bool   `json:"success"`
	Tx        string `json:"tx"`
	ProofPDA  string `json:"proofPda"`
	Mint      string `json:"mint,omitempty"`
	URI       string `json:"uri"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}
