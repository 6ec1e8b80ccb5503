package store

import (
	"context"
	"time"

	"ghonsi-proof/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WalletStore struct{ db *gorm.DB }

func (s *Store) Wallets() *WalletStore { return &WalletStore{s.DB} }

// ListByUser returns bound wallets, oldest first.
func (w *WalletStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.UserWallet, error) {
	var out []domain.UserWallet
	err := w.db.WithContext(ctx).Where("user_id = ?", userID).Order("added_at asc").Find(&out).Error
	return out, err
}

func (w *WalletStore) Get(ctx context.Context, userID uuid.UUID, address string) (*domain.UserWallet, error) {
	var uw domain.UserWallet
	err := w.db.WithContext(ctx).First(&uw, "user_id = ? AND wallet_address = ?", userID, address).Error
	if err != nil {
		return nil, mapErr(err)
	}
	return &uw, nil
}

// FindByAddress looks the address up across all users.
func (w *WalletStore) FindByAddress(ctx context.Context, address string) (*domain.UserWallet, error) {
	var uw domain.UserWallet
	if err := w.db.WithContext(ctx).First(&uw, "wallet_address = ?", address).Error; err != nil {
		return nil, mapErr(err)
	}
	return &uw, nil
}

func (w *WalletStore) Create(ctx context.Context, uw *domain.UserWallet) error {
	if uw.ID == uuid.Nil {
		uw.ID = uuid.New()
	}
	if uw.AddedAt.IsZero() {
		uw.AddedAt = time.Now().UTC()
	}
	return mapErr(w.db.WithContext(ctx).Create(uw).Error)
}

func (w *WalletStore) Count(ctx context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	err := w.db.WithContext(ctx).Model(&domain.UserWallet{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}

// SetPrimary makes address the only primary wallet of userID. Call inside WithTx.
func (w *WalletStore) SetPrimary(ctx context.Context, userID uuid.UUID, address string) error {
	db := w.db.WithContext(ctx)
	if err := db.Model(&domain.UserWallet{}).Where("user_id = ?", userID).Update("is_primary", false).Error; err != nil {
		return err
	}
	tx := db.Model(&domain.UserWallet{}).
		Where("user_id = ? AND wallet_address = ?", userID, address).
		Update("is_primary", true)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (w *WalletStore) Delete(ctx context.Context, userID uuid.UUID, address string) error {
	tx := w.db.WithContext(ctx).Where("user_id = ? AND wallet_address = ?", userID, address).Delete(&domain.UserWallet{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}
