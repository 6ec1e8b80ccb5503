package store

import (
	"context"
	"time"

	"ghonsi-proof/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VerificationStore struct{ db *gorm.DB }

func (s *Store) Verifications() *VerificationStore { return &VerificationStore{s.DB} }

func (v *VerificationStore) Create(ctx context.Context, r *domain.VerificationRequest) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now
	if r.Status == "" {
		r.Status = domain.VerificationPending
	}
	return mapErr(v.db.WithContext(ctx).Create(r).Error)
}

func (v *VerificationStore) Get(ctx context.Context, id uuid.UUID) (*domain.VerificationRequest, error) {
	var r domain.VerificationRequest
	if err := v.db.WithContext(ctx).First(&r, "id = ?", id).Error; err != nil {
		return nil, mapErr(err)
	}
	return &r, nil
}

func (v *VerificationStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.VerificationRequest, error) {
	var out []domain.VerificationRequest
	err := v.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at desc").Find(&out).Error
	return out, err
}

// ListForVerifier returns requests addressed to a verifier email.
func (v *VerificationStore) ListForVerifier(ctx context.Context, email string) ([]domain.VerificationRequest, error) {
	var out []domain.VerificationRequest
	err := v.db.WithContext(ctx).Where("lower(verifier_email) = lower(?)", email).Order("created_at desc").Find(&out).Error
	return out, err
}

// Respond only transitions pending requests.
func (v *VerificationStore) Respond(ctx context.Context, id uuid.UUID, status, response string, at time.Time) error {
	tx := v.db.WithContext(ctx).Model(&domain.VerificationRequest{}).
		Where("id = ? AND status = ?", id, domain.VerificationPending).
		Updates(map[string]any{
			"status":            status,
			"verifier_response": response,
			"responded_at":      at,
			"updated_at":        at,
		})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (v *VerificationStore) Delete(ctx context.Context, userID, id uuid.UUID) error {
	tx := v.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&domain.VerificationRequest{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (v *VerificationStore) DeleteByProof(ctx context.Context, proofID uuid.UUID) (int64, error) {
	tx := v.db.WithContext(ctx).Where("proof_id = ?", proofID).Delete(&domain.VerificationRequest{})
	return tx.RowsAffected, tx.Error
}
