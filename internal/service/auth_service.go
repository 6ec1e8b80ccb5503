package service

import (
	"context"

	"ghonsi-proof/internal/domain"
	"ghonsi-proof/internal/dto"

	"github.com/google/uuid"
)

type AuthService interface {
	SendOTP(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, r dto.VerifyOTPRequest, ip, ua string) (*dto.AuthResponse, error)
	Register(ctx context.Context, r dto.RegisterRequest, ip, ua string) (*dto.AuthResponse, error)
	Login(ctx context.Context, r dto.LoginRequest, ip, ua string) (*dto.AuthResponse, error)
	WalletSignIn(ctx context.Context, r dto.WalletSignInRequest, ip, ua string) (*dto.AuthResponse, error)
	Refresh(ctx context.Context, refreshToken, ip, ua string) (*dto.TokenResponse, error)
	Logout(ctx context.Context, refreshToken string) error

	Me(ctx context.Context, userID uuid.UUID) (*dto.MeResponse, error)
	LinkWallet(ctx context.Context, userID uuid.UUID, r dto.WalletSignInRequest) (*dto.UserResponse, error)
	LinkEmail(ctx context.Context, userID uuid.UUID, r dto.LinkEmailRequest) (*dto.UserResponse, error)
	DeleteAccount(ctx context.Context, userID uuid.UUID) (map[string]int64, error)
	Activity(ctx context.Context, userID uuid.UUID, limit int) ([]domain.AuditLog, error)

	SetUserDisabled(ctx context.Context, actor, userID uuid.UUID, disabled bool) (*dto.UserResponse, error)
}
