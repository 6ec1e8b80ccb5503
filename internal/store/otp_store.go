package store

import (
	"context"
	"strings"
	"time"

	"ghonsi-proof/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OTPStore struct{ db *gorm.DB }

func (s *Store) OTPs() *OTPStore { return &OTPStore{s.DB} }

// Replace invalidates outstanding codes for the address and stores a new one.
func (o *OTPStore) Replace(ctx context.Context, otp *domain.EmailOTP) error {
	if otp.ID == uuid.Nil {
		otp.ID = uuid.New()
	}
	otp.Email = strings.ToLower(otp.Email)
	db := o.db.WithContext(ctx)
	if err := db.Model(&domain.EmailOTP{}).
		Where("email = ? AND consumed_at IS NULL", otp.Email).
		Update("consumed_at", otp.CreatedAt).Error; err != nil {
		return err
	}
	return db.Create(otp).Error
}

// Latest returns the newest unconsumed code for the address.
func (o *OTPStore) Latest(ctx context.Context, email string) (*domain.EmailOTP, error) {
	var out domain.EmailOTP
	err := o.db.WithContext(ctx).
		Where("email = ? AND consumed_at IS NULL", strings.ToLower(email)).
		Order("created_at desc").
		First(&out).Error
	if err != nil {
		return nil, mapErr(err)
	}
	return &out, nil
}

func (o *OTPStore) IncrementAttempts(ctx context.Context, id uuid.UUID) error {
	return o.db.WithContext(ctx).Model(&domain.EmailOTP{}).
		Where("id = ?", id).
		UpdateColumn("attempts", gorm.Expr("attempts + 1")).Error
}

func (o *OTPStore) Consume(ctx context.Context, id uuid.UUID, at time.Time) error {
	tx := o.db.WithContext(ctx).Model(&domain.EmailOTP{}).
		Where("id = ? AND consumed_at IS NULL", id).
		Update("consumed_at", at)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// PurgeExpired deletes codes that expired before cutoff.
func (o *OTPStore) PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	tx := o.db.WithContext(ctx).Where("expires_at < ?", cutoff).Delete(&domain.EmailOTP{})
	return tx.RowsAffected, tx.Error
}

type WalletLoginStore struct{ db *gorm.DB }

func (s *Store) WalletLogins() *WalletLoginStore { return &WalletLoginStore{s.DB} }

// Record stores a consumed signature; ErrDuplicate means it was used before.
func (ws *WalletLoginStore) Record(ctx context.Context, l *domain.WalletLogin) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	var n int64
	if err := ws.db.WithContext(ctx).Model(&domain.WalletLogin{}).Where("signature = ?", l.Signature).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return ErrDuplicate
	}
	return mapErr(ws.db.WithContext(ctx).Create(l).Error)
}
