package store

import (
	"context"
	"time"

	"ghonsi-proof/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProofStore struct{ db *gorm.DB }

func (s *Store) Proofs() *ProofStore { return &ProofStore{s.DB} }

func (ps *ProofStore) Create(ctx context.Context, p *domain.Proof) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	if p.Status == "" {
		p.Status = domain.ProofStatusPending
	}
	return mapErr(ps.db.WithContext(ctx).Omit("Files").Create(p).Error)
}

func (ps *ProofStore) Get(ctx context.Context, id uuid.UUID) (*domain.Proof, error) {
	var p domain.Proof
	err := ps.db.WithContext(ctx).
		Preload("Files", func(db *gorm.DB) *gorm.DB { return db.Order("uploaded_at asc") }).
		First(&p, "id = ?", id).Error
	if err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

func (ps *ProofStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Proof, error) {
	var out []domain.Proof
	err := ps.db.WithContext(ctx).
		Preload("Files").
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// ListByStatus pages proofs by verification status; empty status lists all.
func (ps *ProofStore) ListByStatus(ctx context.Context, status string, limit, offset int) ([]domain.Proof, error) {
	var out []domain.Proof
	q := ps.db.WithContext(ctx).Preload("Files").Order("created_at desc")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}
	err := q.Find(&out).Error
	return out, err
}

func (ps *ProofStore) ListByChainStatus(ctx context.Context, chainStatus string, limit int) ([]domain.Proof, error) {
	return ps.ListByChainStatusAfter(ctx, chainStatus, ChainCursor{}, limit)
}

// ChainCursor marks the last row of a page ordered by submitted_at then id.
type ChainCursor struct {
	SubmittedAt time.Time
	ID          uuid.UUID
}

func (c ChainCursor) IsZero() bool { return c.ID == uuid.Nil }

// ListByChainStatusAfter pages through proofs in a chain status, oldest
// submission first, starting after the cursor.
func (ps *ProofStore) ListByChainStatusAfter(ctx context.Context, chainStatus string, after ChainCursor, limit int) ([]domain.Proof, error) {
	var out []domain.Proof
	q := ps.db.WithContext(ctx).Where("chain_status = ?", chainStatus)
	if !after.IsZero() {
		q = q.Where("submitted_at > ? OR (submitted_at = ? AND id > ?)", after.SubmittedAt, after.SubmittedAt, after.ID)
	}
	q = q.Order("submitted_at asc").Order("id asc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

func (ps *ProofStore) Update(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	fields["updated_at"] = time.Now().UTC()
	tx := ps.db.WithContext(ctx).Model(&domain.Proof{}).Where("id = ?", id).Updates(fields)
	if tx.Error != nil {
		return mapErr(tx.Error)
	}
	if tx.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (ps *ProofStore) SetIPFS(ctx context.Context, id uuid.UUID, hash, url, fileHash, fileURL string) error {
	return ps.Update(ctx, id, map[string]any{
		"ipfs_hash":      hash,
		"ipfs_url":       url,
		"file_ipfs_hash": fileHash,
		"file_ipfs_url":  fileURL,
	})
}

// SetChainResult records a sent transaction.
func (ps *ProofStore) SetChainResult(ctx context.Context, id uuid.UUID, wallet, tx, pda, mint string, at time.Time) error {
	return ps.Update(ctx, id, map[string]any{
		"wallet_address": wallet,
		"blockchain_tx":  tx,
		"proof_pda":      pda,
		"nft_mint":       mint,
		"chain_status":   domain.ChainStatusSubmitted,
		"chain_error":    "",
		"submitted_at":   at.UTC(),
	})
}

func (ps *ProofStore) SetChainStatus(ctx context.Context, id uuid.UUID, status, errMsg string, confirmedAt *time.Time) error {
	fields := map[string]any{"chain_status": status, "chain_error": errMsg}
	if confirmedAt != nil {
		fields["confirmed_at"] = *confirmedAt
	}
	return ps.Update(ctx, id, fields)
}

func (ps *ProofStore) SetStatus(ctx context.Context, id uuid.UUID, status string, verifier *uuid.UUID, at time.Time) error {
	fields := map[string]any{"status": status}
	if status == domain.ProofStatusVerified {
		fields["verified_at"] = at
		fields["verifier_id"] = verifier
	} else {
		fields["verified_at"] = nil
		fields["verifier_id"] = nil
	}
	return ps.Update(ctx, id, fields)
}

func (ps *ProofStore) Delete(ctx context.Context, id uuid.UUID) error {
	tx := ps.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Proof{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

type ProofStats struct {
	Total    int64            `json:"total"`
	Verified int64            `json:"verified"`
	Pending  int64            `json:"pending"`
	Rejected int64            `json:"rejected"`
	OnChain  int64            `json:"onChain"`
	ByType   map[string]int64 `json:"byType"`
}

type groupCount struct {
	Label string
	Count int64
}

// Stats aggregates proofs of one user, or of everyone when userID is nil.
func (ps *ProofStore) Stats(ctx context.Context, userID *uuid.UUID) (ProofStats, error) {
	out := ProofStats{ByType: map[string]int64{}}
	base := func() *gorm.DB {
		q := ps.db.WithContext(ctx).Model(&domain.Proof{})
		if userID != nil {
			q = q.Where("user_id = ?", *userID)
		}
		return q
	}

	var byStatus []groupCount
	if err := base().Select("status AS label, count(*) AS count").Group("status").Scan(&byStatus).Error; err != nil {
		return out, err
	}
	for _, g := range byStatus {
		out.Total += g.Count
		switch g.Label {
		case domain.ProofStatusVerified:
			out.Verified = g.Count
		case domain.ProofStatusPending:
			out.Pending = g.Count
		case domain.ProofStatusRejected:
			out.Rejected = g.Count
		}
	}

	var byType []groupCount
	if err := base().Select("proof_type AS label, count(*) AS count").Group("proof_type").Scan(&byType).Error; err != nil {
		return out, err
	}
	for _, g := range byType {
		out.ByType[g.Label] = g.Count
	}

	if err := base().Where("blockchain_tx <> ''").Count(&out.OnChain).Error; err != nil {
		return out, err
	}
	return out, nil
}
