package service

import (
	"context"

	"ghonsi-proof/internal/domain"
	"ghonsi-proof/internal/dto"

	"github.com/google/uuid"
)

type VerificationService interface {
	Create(ctx context.Context, userID uuid.UUID, r dto.VerificationCreateRequest) (*domain.VerificationRequest, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.VerificationRequest, error)
	ListForProof(ctx context.Context, userID, proofID uuid.UUID) ([]domain.VerificationRequest, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*domain.VerificationRequest, error)
	ListIncoming(ctx context.Context, verifierID uuid.UUID) ([]domain.VerificationRequest, error)
	Respond(ctx context.Context, verifierID, id uuid.UUID, r dto.VerificationRespondRequest) (*domain.VerificationRequest, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}
