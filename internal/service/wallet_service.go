package service

import (
	"context"

	"ghonsi-proof/internal/domain"
	"ghonsi-proof/internal/dto"

	"github.com/google/uuid"
)

type WalletService interface {
	List(ctx context.Context, userID uuid.UUID) ([]domain.UserWallet, error)
	Bind(ctx context.Context, userID uuid.UUID, r dto.WalletSignInRequest) (*domain.UserWallet, error)
	SetPrimary(ctx context.Context, userID uuid.UUID, address string) error
	Unbind(ctx context.Context, userID uuid.UUID, address string) error
}
