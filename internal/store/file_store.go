package store

import (
	"context"

	"ghonsi-proof/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FileStore struct{ db *gorm.DB }

func (s *Store) Files() *FileStore { return &FileStore{s.DB} }

func (fs *FileStore) Create(ctx context.Context, f *domain.File) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return mapErr(fs.db.WithContext(ctx).Create(f).Error)
}

func (fs *FileStore) ListByProof(ctx context.Context, proofID uuid.UUID) ([]domain.File, error) {
	var out []domain.File
	err := fs.db.WithContext(ctx).Where("proof_id = ?", proofID).Order("uploaded_at asc").Find(&out).Error
	return out, err
}

func (fs *FileStore) DeleteByProof(ctx context.Context, proofID uuid.UUID) (int64, error) {
	tx := fs.db.WithContext(ctx).Where("proof_id = ?", proofID).Delete(&domain.File{})
	return tx.RowsAffected, tx.Error
}
