package store

import (
	"context"

	"ghonsi-proof/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DeleteUserData removes the user and everything owned by it, returning counts
// of affected rows captured before deletion.
func (s *Store) DeleteUserData(ctx context.Context, userID uuid.UUID) (map[string]int64, error) {
	deleted := map[string]int64{}

	err := s.WithTx(ctx, func(tx *Store) error {
		db := tx.DB.WithContext(ctx)
		proofIDs := db.Model(&domain.Proof{}).Select("id").Where("user_id = ?", userID)

		steps := []struct {
			label string
			model any
			query func() *gorm.DB
		}{
			{"files", &domain.File{}, func() *gorm.DB { return db.Where("proof_id IN (?)", proofIDs) }},
			{"verificationRequests", &domain.VerificationRequest{}, func() *gorm.DB { return db.Where("user_id = ?", userID) }},
			{"proofs", &domain.Proof{}, func() *gorm.DB { return db.Where("user_id = ?", userID) }},
			{"messages", &domain.Message{}, func() *gorm.DB { return db.Where("user_id = ? OR sender_id = ?", userID, userID.String()) }},
			{"wallets", &domain.UserWallet{}, func() *gorm.DB { return db.Where("user_id = ?", userID) }},
			{"profiles", &domain.Profile{}, func() *gorm.DB { return db.Where("user_id = ?", userID) }},
			{"sessions", &domain.Session{}, func() *gorm.DB { return db.Where("user_id = ?", userID) }},
			{"passwordCredentials", &domain.PasswordCredential{}, func() *gorm.DB { return db.Where("user_id = ?", userID) }},
			{"auditLogs", &domain.AuditLog{}, func() *gorm.DB { return db.Where("user_id = ?", userID) }},
			{"users", &domain.User{}, func() *gorm.DB { return db.Where("id = ?", userID) }},
		}

		for _, step := range steps {
			var total int64
			if err := step.query().Model(step.model).Count(&total).Error; err != nil {
				return err
			}
			deleted[step.label] = total
			if total == 0 {
				continue
			}
			if err := step.query().Delete(step.model).Error; err != nil {
				return err
			}
		}
		return nil
	})

	return deleted, err
}
