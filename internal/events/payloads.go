package events

import "time"

type UserRegistered struct {
	UserID string    `json:"userId"`
	Email  string    `json:"email,omitempty"`
	Wallet string    `json:"wallet,omitempty"`
	Method string    `json:"method"`
	At     time.Time `json:"at"`
}

type ProofSubmitted struct {
	ProofID  string    `json:"proofId"`
	UserID   string    `json:"userId"`
	IPFSHash string    `json:"ipfsHash,omitempty"`
	Tx       string    `json:"tx,omitempty"`
	ProofPDA string    `json:"proofPda,omitempty"`
	At       time.Time `json:"at"`
}

// MintRequested is consumed by the minter worker.
type MintRequested struct {
	ProofID       string    `json:"proofId"`
	UserID        string    `json:"userId"`
	WalletAddress string    `json:"walletAddress"`
	At            time.Time `json:"at"`
}

type ProofMinted struct {
	ProofID  string    `json:"proofId"`
	Tx       string    `json:"tx"`
	ProofPDA string    `json:"proofPda"`
	Mint     string    `json:"mint,omitempty"`
	At       time.Time `json:"at"`
}

type ProofMintFailed struct {
	ProofID string    `json:"proofId"`
	Step    string    `json:"step"`
	Error   string    `json:"error"`
	At      time.Time `json:"at"`
}

type ProofStatusChanged struct {
	ProofID    string    `json:"proofId"`
	UserID     string    `json:"userId"`
	Status     string    `json:"status"`
	VerifierID string    `json:"verifierId,omitempty"`
	At         time.Time `json:"at"`
}

type MessageCreated struct {
	MessageID  string    `json:"messageId"`
	ReceiverID string    `json:"receiverId"`
	SenderID   string    `json:"senderId"`
	Type       string    `json:"type"`
	At         time.Time `json:"at"`
}
