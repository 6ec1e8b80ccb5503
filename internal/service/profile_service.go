package service

import (
	"context"

	"ghonsi-proof/internal/domain"
	"ghonsi-proof/internal/dto"

	"github.com/google/uuid"
)

type ProfileService interface {
	Create(ctx context.Context, userID uuid.UUID, r dto.ProfileRequest) (*domain.Profile, error)
	Update(ctx context.Context, userID uuid.UUID, r dto.ProfileRequest) (*domain.Profile, error)
	Get(ctx context.Context, userID uuid.UUID) (*domain.Profile, error)
	GetByWallet(ctx context.Context, address string) (*domain.Profile, error)
	List(ctx context.Context, limit, offset int) ([]domain.Profile, error)
	Exists(ctx context.Context, userID uuid.UUID) (bool, error)
}
