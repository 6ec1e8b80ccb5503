package store

import (
	"context"
	"time"

	"ghonsi-proof/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MessageStore struct{ db *gorm.DB }

func (s *Store) Messages() *MessageStore { return &MessageStore{s.DB} }

func (m *MessageStore) Create(ctx context.Context, msg *domain.Message) error {
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	if msg.Type == "" {
		msg.Type = domain.MessageTypeGeneral
	}
	return mapErr(m.db.WithContext(ctx).Create(msg).Error)
}

func (m *MessageStore) Get(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	var msg domain.Message
	if err := m.db.WithContext(ctx).First(&msg, "id = ?", id).Error; err != nil {
		return nil, mapErr(err)
	}
	return &msg, nil
}

// ListForUser returns the receiver's inbox, newest first.
func (m *MessageStore) ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Message, error) {
	var out []domain.Message
	q := m.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

func (m *MessageStore) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	err := m.db.WithContext(ctx).Model(&domain.Message{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&n).Error
	return n, err
}

// MarkRead flags one message owned by userID.
func (m *MessageStore) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	tx := m.db.WithContext(ctx).Model(&domain.Message{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (m *MessageStore) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	tx := m.db.WithContext(ctx).Model(&domain.Message{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	return tx.RowsAffected, tx.Error
}

// SetStatus records a response and marks the message read.
func (m *MessageStore) SetStatus(ctx context.Context, userID, id uuid.UUID, status string) error {
	tx := m.db.WithContext(ctx).Model(&domain.Message{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]any{"status": status, "is_read": true})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (m *MessageStore) Delete(ctx context.Context, userID, id uuid.UUID) error {
	tx := m.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&domain.Message{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}
