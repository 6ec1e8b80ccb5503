package dto

import (
	"time"

	"ghonsi-proof/internal/domain"
)

type UserResponse struct {
	ID            string    `json:"id"`
	Email         string    `json:"email,omitempty"`
	EmailVerified bool      `json:"emailVerified"`
	WalletAddress string    `json:"walletAddress,omitempty"`
	WalletType    string    `json:"walletType,omitempty"`
	Role          string    `json:"role"`
	Disabled      bool      `json:"disabled,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:            u.ID.String(),
		Email:         u.EmailOrEmpty(),
		EmailVerified: u.EmailVerified,
		WalletAddress: u.WalletOrEmpty(),
		WalletType:    u.WalletType,
		Role:          u.Role,
		Disabled:      u.IsDisabled,
		CreatedAt:     u.CreatedAt,
	}
}

type MeResponse struct {
	User       UserResponse        `json:"user"`
	Profile    *domain.Profile     `json:"profile,omitempty"`
	Wallets    []domain.UserWallet `json:"wallets"`
	HasProfile bool                `json:"hasProfile"`
}

type DeleteAccountResponse struct {
	Deleted map[string]int64 `json:"deleted"`
}

type UserDisabledRequest struct {
	Disabled bool `json:"disabled"`
}
