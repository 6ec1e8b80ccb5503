package domain

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID            UserID    `gorm:"type:uuid;primaryKey" json:"id"`
	Email         *string   `gorm:"type:citext;uniqueIndex:ux_users_email" json:"email,omitempty"`
	EmailVerified bool      `gorm:"not null;default:false" json:"emailVerified"`
	WalletAddress *string   `gorm:"type:text;uniqueIndex:ux_users_wallet" json:"walletAddress,omitempty"`
	WalletType    string    `gorm:"type:text" json:"walletType,omitempty"`
	Role          string    `gorm:"type:text;not null;default:user" json:"role"`
	IsDisabled    bool      `gorm:"not null;default:false" json:"isDisabled"`
	CreatedAt     time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt     time.Time `gorm:"not null" json:"updatedAt"`
}

func (User) TableName() string { return "users" }

func (u *User) EmailOrEmpty() string {
	if u.Email == nil {
		return ""
	}
	return *u.Email
}

func (u *User) WalletOrEmpty() string {
	if u.WalletAddress == nil {
		return ""
	}
	return *u.WalletAddress
}

// EmailOTP is a one-time sign-in code. Only the bcrypt hash is stored.
type EmailOTP struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email      string    `gorm:"type:citext;not null;index"`
	CodeHash   []byte    `gorm:"type:bytea;not null"`
	Attempts   int       `gorm:"not null;default:0"`
	ExpiresAt  time.Time `gorm:"not null"`
	ConsumedAt *time.Time
	CreatedAt  time.Time `gorm:"not null"`
}

func (EmailOTP) TableName() string { return "email_otps" }

// WalletLogin records a consumed wallet sign-in signature so it cannot be replayed.
type WalletLogin struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	WalletAddress string    `gorm:"type:text;not null;index"`
	Signature     string    `gorm:"type:text;not null;uniqueIndex:ux_wallet_logins_sig"`
	SignedAt      time.Time `gorm:"not null"`
	CreatedAt     time.Time `gorm:"not null"`
}

func (WalletLogin) TableName() string { return "wallet_logins" }
