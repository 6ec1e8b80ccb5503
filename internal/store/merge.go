package store

import (
	"context"

	"ghonsi-proof/internal/domain"

	"github.com/google/uuid"
)

// MergeUsers moves everything owned by from onto into and deletes from.
// The surviving profile is into's when both exist.
func (s *Store) MergeUsers(ctx context.Context, from, into uuid.UUID) error {
	return s.WithTx(ctx, func(tx *Store) error {
		db := tx.DB.WithContext(ctx)

		for _, model := range []any{&domain.Proof{}, &domain.VerificationRequest{}, &domain.Message{}, &domain.AuditLog{}} {
			if err := db.Model(model).Where("user_id = ?", from).Update("user_id", into).Error; err != nil {
				return err
			}
		}
		if err := db.Model(&domain.Message{}).Where("sender_id = ?", from.String()).Update("sender_id", into.String()).Error; err != nil {
			return err
		}

		existing := db.Model(&domain.UserWallet{}).Select("wallet_address").Where("user_id = ?", into)
		if err := db.Where("user_id = ? AND wallet_address IN (?)", from, existing).Delete(&domain.UserWallet{}).Error; err != nil {
			return err
		}
		var intoWallets int64
		if err := db.Model(&domain.UserWallet{}).Where("user_id = ?", into).Count(&intoWallets).Error; err != nil {
			return err
		}
		moved := map[string]any{"user_id": into}
		if intoWallets > 0 {
			moved["is_primary"] = false
		}
		if err := db.Model(&domain.UserWallet{}).Where("user_id = ?", from).Updates(moved).Error; err != nil {
			return err
		}

		hasProfile, err := tx.Profiles().Exists(ctx, into)
		if err != nil {
			return err
		}
		if hasProfile {
			if err := db.Where("user_id = ?", from).Delete(&domain.Profile{}).Error; err != nil {
				return err
			}
		} else if err := db.Model(&domain.Profile{}).Where("user_id = ?", from).Update("user_id", into).Error; err != nil {
			return err
		}

		if err := db.Where("user_id = ?", from).Delete(&domain.Session{}).Error; err != nil {
			return err
		}
		if err := db.Where("user_id = ?", from).Delete(&domain.PasswordCredential{}).Error; err != nil {
			return err
		}
		return mapErr(db.Where("id = ?", from).Delete(&domain.User{}).Error)
	})
}
