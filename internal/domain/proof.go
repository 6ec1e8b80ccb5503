package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	ProofStatusPending  = "pending"
	ProofStatusVerified = "verified"
	ProofStatusRejected = "rejected"
)

// Chain progress of a proof, kept apart from the manual verification status.
const (
	ChainStatusNone      = ""
	ChainStatusQueued    = "queued"
	ChainStatusSubmitted = "submitted"
	ChainStatusConfirmed = "confirmed"
	ChainStatusFinalized = "finalized"
	ChainStatusFailed    = "failed"
)

func ValidProofStatus(s string) bool {
	switch s {
	case ProofStatusPending, ProofStatusVerified, ProofStatusRejected:
		return true
	}
	return false
}

type Proof struct {
	ID            ProofID    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        UserID     `gorm:"type:uuid;not null;index" json:"userId"`
	ProofType     string     `gorm:"type:text;not null" json:"proofType"`
	ProofName     string     `gorm:"type:text;not null" json:"proofName"`
	Summary       string     `gorm:"type:text;not null" json:"summary"`
	ReferenceLink string     `gorm:"type:text" json:"referenceLink,omitempty"`
	Status        string     `gorm:"type:text;not null;default:pending;index" json:"status"`
	IPFSHash      string     `gorm:"column:ipfs_hash;type:text" json:"ipfsHash,omitempty"`
	IPFSURL       string     `gorm:"column:ipfs_url;type:text" json:"ipfsUrl,omitempty"`
	FileIPFSHash  string     `gorm:"column:file_ipfs_hash;type:text" json:"fileIpfsHash,omitempty"`
	FileIPFSURL   string     `gorm:"column:file_ipfs_url;type:text" json:"fileIpfsUrl,omitempty"`
	WalletAddress string     `gorm:"type:text" json:"walletAddress,omitempty"`
	BlockchainTx  string     `gorm:"type:text;index" json:"blockchainTx,omitempty"`
	ProofPDA      string     `gorm:"column:proof_pda;type:text" json:"proofPda,omitempty"`
	NFTMint       string     `gorm:"column:nft_mint;type:text" json:"nftMint,omitempty"`
	ChainStatus   string     `gorm:"type:text;index" json:"chainStatus,omitempty"`
	ChainError    string     `gorm:"type:text" json:"chainError,omitempty"`
	SubmittedAt   *time.Time `json:"submittedAt,omitempty"`
	ConfirmedAt   *time.Time `json:"confirmedAt,omitempty"`
	VerifierID    *UserID    `gorm:"type:uuid" json:"verifierId,omitempty"`
	VerifiedAt    *time.Time `json:"verifiedAt,omitempty"`
	CreatedAt     time.Time  `gorm:"not null;index" json:"createdAt"`
	UpdatedAt     time.Time  `gorm:"not null" json:"updatedAt"`

	Files []File `gorm:"foreignKey:ProofID;constraint:OnDelete:CASCADE" json:"files,omitempty"`
}

func (Proof) TableName() string { return "proofs" }

// OnChain reports whether a transaction was ever recorded for the proof.
func (p *Proof) OnChain() bool { return p.BlockchainTx != "" }

const (
	FileTypeReference  = "reference"
	FileTypeSupporting = "supporting"
)

type File struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProofID    ProofID   `gorm:"type:uuid;not null;index" json:"proofId"`
	FileType   string    `gorm:"type:text;not null" json:"fileType"`
	Filename   string    `gorm:"type:text;not null" json:"filename"`
	FileURL    string    `gorm:"type:text;not null" json:"fileUrl"`
	FilePath   string    `gorm:"type:text;not null" json:"filePath"`
	MimeType   string    `gorm:"type:text" json:"mimeType"`
	Size       int64     `gorm:"not null" json:"size"`
	UploadedAt time.Time `gorm:"not null" json:"uploadedAt"`
}

func (File) TableName() string { return "files" }
