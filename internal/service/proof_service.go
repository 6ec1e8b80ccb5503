package service

import (
	"context"

	"ghonsi-proof/internal/domain"
	"ghonsi-proof/internal/dto"
	"ghonsi-proof/internal/pipeline"
	"ghonsi-proof/internal/store"

	"github.com/google/uuid"
)

type ProofService interface {
	Create(ctx context.Context, in pipeline.Input) (*dto.SubmitProofResult, error)
	List(ctx context.Context, userID uuid.UUID) ([]domain.Proof, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Proof, error)
	Update(ctx context.Context, owner, id uuid.UUID, r dto.ProofPatchRequest) (*domain.Proof, error)
	Delete(ctx context.Context, owner, id uuid.UUID) error
	UpdateStatus(ctx context.Context, admin, id uuid.UUID, status string) (*domain.Proof, error)
	ListByStatus(ctx context.Context, status string, limit, offset int) ([]domain.Proof, error)
	Stats(ctx context.Context, userID uuid.UUID) (store.ProofStats, error)
	GlobalStats(ctx context.Context) (store.ProofStats, error)
	ChainStatus(ctx context.Context, id uuid.UUID) (*dto.ChainStatusResponse, error)
	Mint(ctx context.Context, owner, id uuid.UUID, wallet string) (*domain.Proof, error)
	SubmitOnChain(ctx context.Context, caller uuid.UUID, r dto.SubmitProofRequest) (*dto.SubmitProofResponse, error)
}
