package service

import (
	"context"

	"ghonsi-proof/internal/domain"
	"ghonsi-proof/internal/dto"

	"github.com/google/uuid"
)

type TokenService interface {
	Issue(ctx context.Context, user *domain.User, method, ip, ua string) (*dto.TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string, ip, ua string) (*dto.TokenResponse, error)
	Revoke(ctx context.Context, refreshToken string) error
	RevokeAll(ctx context.Context, userID uuid.UUID) error
}
