package domain

import (
	"time"

	"github.com/google/uuid"
)

type UserWallet struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        UserID    `gorm:"type:uuid;not null;uniqueIndex:ux_user_wallets_user_addr,priority:1" json:"userId"`
	WalletAddress string    `gorm:"type:text;not null;uniqueIndex:ux_user_wallets_user_addr,priority:2;index" json:"walletAddress"`
	WalletName    string    `gorm:"type:text" json:"walletName,omitempty"`
	IsPrimary     bool      `gorm:"not null;default:false" json:"isPrimary"`
	IsVerified    bool      `gorm:"not null;default:false" json:"isVerified"`
	AddedAt       time.Time `gorm:"not null" json:"addedAt"`
}

func (UserWallet) TableName() string { return "user_wallets" }
