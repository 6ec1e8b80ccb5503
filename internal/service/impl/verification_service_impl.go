package impl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"ghonsi-proof/internal/domain"
	"ghonsi-proof/internal/dto"
	"ghonsi-proof/internal/observability/middleware"
	"ghonsi-proof/internal/service"
	"ghonsi-proof/internal/store"
	"ghonsi-proof/internal/validate"

	"github.com/google/uuid"
)

const maxVerificationMessage = 1000

type VerificationServiceImpl struct {
	store *store.Store
	email service.EmailService
	Now   func() time.Time
}

func NewVerificationService(st *store.Store, email service.EmailService) *VerificationServiceImpl {
	return &VerificationServiceImpl{store: st, email: email}
}

func (v *VerificationServiceImpl) now() time.Time {
	if v.Now != nil {
		return v.Now().UTC()
	}
	return time.Now().UTC()
}

// Create files a request against one of the caller's proofs and mails the
// verifier. A failed mail does not fail the request.
func (v *VerificationServiceImpl) Create(ctx context.Context, userID uuid.UUID, r dto.VerificationCreateRequest) (*domain.VerificationRequest, error) {
	proofID, err := uuid.Parse(r.ProofID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid proof id", ErrInvalidRequest)
	}
	email := normalizeEmail(r.VerifierEmail)
	if err := validate.Email(email); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if len(r.Message) > maxVerificationMessage {
		return nil, fmt.Errorf("%w: message must not exceed %d characters", ErrInvalidRequest, maxVerificationMessage)
	}
	proof, err := v.store.Proofs().Get(ctx, proofID)
	if err != nil {
		return nil, notFound(err, "proof")
	}
	if proof.UserID != userID {
		return nil, fmt.Errorf("%w: proof belongs to another user", ErrForbidden)
	}

	req := &domain.VerificationRequest{
		UserID:        userID,
		ProofID:       proofID,
		VerifierEmail: email,
		VerifierName:  strings.TrimSpace(r.VerifierName),
		Relationship:  strings.TrimSpace(r.Relationship),
		Message:       strings.TrimSpace(r.Message),
	}
	if err := v.store.Verifications().Create(ctx, req); err != nil {
		return nil, err
	}

	if v.email != nil {
		requester := v.requesterName(ctx, userID)
		if err := v.email.SendVerificationRequest(ctx, email, requester, proof.ProofName, req.Message); err != nil {
			slog.Warn("verification email not sent", append(middleware.LogAttrs(ctx), "request_id", req.ID, "error", err)...)
		}
	}
	return req, nil
}

func (v *VerificationServiceImpl) requesterName(ctx context.Context, userID uuid.UUID) string {
	if p, err := v.store.Profiles().GetByUserID(ctx, userID); err == nil && p.DisplayName != "" {
		return p.DisplayName
	}
	if u, err := v.store.Users().GetByID(ctx, userID); err == nil && u.EmailOrEmpty() != "" {
		return u.EmailOrEmpty()
	}
	return "A Ghonsi Proof user"
}

func (v *VerificationServiceImpl) ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.VerificationRequest, error) {
	return v.store.Verifications().ListByUser(ctx, userID)
}

func (v *VerificationServiceImpl) ListForProof(ctx context.Context, userID, proofID uuid.UUID) ([]domain.VerificationRequest, error) {
	all, err := v.store.Verifications().ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.VerificationRequest, 0, len(all))
	for _, r := range all {
		if r.ProofID == proofID {
			out = append(out, r)
		}
	}
	return out, nil
}

// Get is visible to the requester and to the addressed verifier.
func (v *VerificationServiceImpl) Get(ctx context.Context, userID, id uuid.UUID) (*domain.VerificationRequest, error) {
	r, err := v.store.Verifications().Get(ctx, id)
	if err != nil {
		return nil, notFound(err, "verification request")
	}
	if r.UserID == userID {
		return r, nil
	}
	if ok, err := v.isVerifier(ctx, userID, r); err != nil {
		return nil, err
	} else if !ok {
		return nil, fmt.Errorf("%w: verification request", ErrNotFound)
	}
	return r, nil
}

func (v *VerificationServiceImpl) ListIncoming(ctx context.Context, verifierID uuid.UUID) ([]domain.VerificationRequest, error) {
	email, err := v.verifiedEmail(ctx, verifierID)
	if err != nil {
		return nil, err
	}
	return v.store.Verifications().ListForVerifier(ctx, email)
}

// Respond lets the verifier approve or reject a pending request.
func (v *VerificationServiceImpl) Respond(ctx context.Context, verifierID, id uuid.UUID, r dto.VerificationRespondRequest) (*domain.VerificationRequest, error) {
	switch r.Status {
	case domain.VerificationApproved, domain.VerificationRejected:
	default:
		return nil, fmt.Errorf("%w: %w %q", ErrInvalidRequest, domain.ErrInvalidStatus, r.Status)
	}
	req, err := v.store.Verifications().Get(ctx, id)
	if err != nil {
		return nil, notFound(err, "verification request")
	}
	ok, err := v.isVerifier(ctx, verifierID, req)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: not the addressed verifier", ErrForbidden)
	}
	if req.Status != domain.VerificationPending {
		return nil, fmt.Errorf("%w: request already %s", ErrConflict, req.Status)
	}
	if err := v.store.Verifications().Respond(ctx, id, r.Status, strings.TrimSpace(r.Response), v.now()); err != nil {
		return nil, fmt.Errorf("%w: request already answered", ErrConflict)
	}
	slog.Info("verification answered", append(middleware.LogAttrs(ctx), "request_id", id, "status", r.Status)...)
	return v.store.Verifications().Get(ctx, id)
}

func (v *VerificationServiceImpl) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return notFound(v.store.Verifications().Delete(ctx, userID, id), "verification request")
}

func (v *VerificationServiceImpl) isVerifier(ctx context.Context, userID uuid.UUID, r *domain.VerificationRequest) (bool, error) {
	email, err := v.verifiedEmail(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrForbidden) {
			return false, nil
		}
		return false, err
	}
	return strings.EqualFold(email, r.VerifierEmail), nil
}

// verifiedEmail returns the caller's email when it has been confirmed.
func (v *VerificationServiceImpl) verifiedEmail(ctx context.Context, userID uuid.UUID) (string, error) {
	u, err := v.store.Users().GetByID(ctx, userID)
	if err != nil {
		return "", notFound(err, "user")
	}
	if u.EmailOrEmpty() == "" || !u.EmailVerified {
		return "", ErrForbidden
	}
	return u.EmailOrEmpty(), nil
}
