package store

import (
	"context"
	"time"

	"ghonsi-proof/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProfileStore struct{ db *gorm.DB }

func (s *Store) Profiles() *ProfileStore { return &ProfileStore{s.DB} }

func (ps *ProfileStore) Create(ctx context.Context, p *domain.Profile) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	return mapErr(ps.db.WithContext(ctx).Create(p).Error)
}

func (ps *ProfileStore) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	var p domain.Profile
	if err := ps.db.WithContext(ctx).First(&p, "user_id = ?", userID).Error; err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

// GetByWallet resolves a profile through the sign-in wallet or any bound wallet.
func (ps *ProfileStore) GetByWallet(ctx context.Context, address string) (*domain.Profile, error) {
	var p domain.Profile
	err := ps.db.WithContext(ctx).
		Where("user_id IN (?)", ps.db.Model(&domain.User{}).Select("id").Where("wallet_address = ?", address)).
		Or("user_id IN (?)", ps.db.Model(&domain.UserWallet{}).Select("user_id").Where("wallet_address = ?", address)).
		First(&p).Error
	if err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

func (ps *ProfileStore) List(ctx context.Context, limit, offset int) ([]domain.Profile, error) {
	var out []domain.Profile
	q := ps.db.WithContext(ctx).Order("created_at desc")
	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (ps *ProfileStore) Update(ctx context.Context, userID uuid.UUID, fields map[string]any) error {
	fields["updated_at"] = time.Now().UTC()
	tx := ps.db.WithContext(ctx).Model(&domain.Profile{}).Where("user_id = ?", userID).Updates(fields)
	if tx.Error != nil {
		return mapErr(tx.Error)
	}
	if tx.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (ps *ProfileStore) Exists(ctx context.Context, userID uuid.UUID) (bool, error) {
	var n int64
	err := ps.db.WithContext(ctx).Model(&domain.Profile{}).Where("user_id = ?", userID).Count(&n).Error
	return n > 0, err
}
