package store

import (
	"context"
	"strings"
	"time"

	"ghonsi-proof/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserStore struct{ db *gorm.DB }

func (s *Store) Users() *UserStore { return &UserStore{db: s.DB} }

func (u *UserStore) Create(ctx context.Context, usr *domain.User) error {
	if usr.ID == uuid.Nil {
		usr.ID = uuid.New()
	}
	now := time.Now().UTC()
	if usr.CreatedAt.IsZero() {
		usr.CreatedAt = now
	}
	usr.UpdatedAt = now
	if usr.Role == "" {
		usr.Role = domain.RoleUser
	}
	return mapErr(u.db.WithContext(ctx).Create(usr).Error)
}

func (u *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	if err := u.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, mapErr(err)
	}
	return &user, nil
}

func (u *UserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	if err := u.db.WithContext(ctx).First(&user, "lower(email) = ?", strings.ToLower(email)).Error; err != nil {
		return nil, mapErr(err)
	}
	return &user, nil
}

func (u *UserStore) GetByWallet(ctx context.Context, address string) (*domain.User, error) {
	var user domain.User
	if err := u.db.WithContext(ctx).First(&user, "wallet_address = ?", address).Error; err != nil {
		return nil, mapErr(err)
	}
	return &user, nil
}

func (u *UserStore) update(ctx context.Context, userID uuid.UUID, fields map[string]any) error {
	fields["updated_at"] = time.Now().UTC()
	tx := u.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", userID).Updates(fields)
	if tx.Error != nil {
		return mapErr(tx.Error)
	}
	if tx.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (u *UserStore) SetEmail(ctx context.Context, userID uuid.UUID, email string, verified bool) error {
	return u.update(ctx, userID, map[string]any{"email": email, "email_verified": verified})
}

func (u *UserStore) SetEmailVerified(ctx context.Context, userID uuid.UUID) error {
	return u.update(ctx, userID, map[string]any{"email_verified": true})
}

func (u *UserStore) SetWallet(ctx context.Context, userID uuid.UUID, address, walletType string) error {
	return u.update(ctx, userID, map[string]any{"wallet_address": address, "wallet_type": walletType})
}

func (u *UserStore) SetRole(ctx context.Context, userID uuid.UUID, role string) error {
	return u.update(ctx, userID, map[string]any{"role": role})
}

func (u *UserStore) SetDisabled(ctx context.Context, userID uuid.UUID, disabled bool) error {
	return u.update(ctx, userID, map[string]any{"is_disabled": disabled})
}
