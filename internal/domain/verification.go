package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	VerificationPending  = "pending"
	VerificationApproved = "approved"
	VerificationRejected = "rejected"
)

type VerificationRequest struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           UserID     `gorm:"type:uuid;not null;index" json:"userId"`
	ProofID          ProofID    `gorm:"type:uuid;not null;index" json:"proofId"`
	VerifierEmail    string     `gorm:"type:text;not null" json:"verifierEmail"`
	VerifierName     string     `gorm:"type:text" json:"verifierName,omitempty"`
	Relationship     string     `gorm:"type:text" json:"relationship,omitempty"`
	Message          string     `gorm:"type:text" json:"message,omitempty"`
	Status           string     `gorm:"type:text;not null;default:pending" json:"status"`
	VerifierResponse string     `gorm:"type:text" json:"verifierResponse,omitempty"`
	RespondedAt      *time.Time `json:"respondedAt,omitempty"`
	CreatedAt        time.Time  `gorm:"not null" json:"createdAt"`
	UpdatedAt        time.Time  `gorm:"not null" json:"updatedAt"`
}

func (VerificationRequest) TableName() string { return "verification_requests" }
