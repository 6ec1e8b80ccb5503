package impl

import (
	"context"
	"errors"
	"testing"

	"ghonsi-proof/internal/domain"
	"ghonsi-proof/internal/dto"
)

func TestVerificationFlow(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	owner := newTestUser(t, st, "quinn@example.com")
	verifier := newTestUser(t, st, "manager@acme.test")
	stranger := newTestUser(t, st, "stranger@example.com")
	proof := &domain.Proof{UserID: owner.ID, ProofType: "job", ProofName: "Acme", Summary: "Two years at Acme"}
	if err := st.Proofs().Create(ctx, proof); err != nil {
		t.Fatalf("proof: %v", err)
	}
	mail := &stubEmail{}
	svc := NewVerificationService(st, mail)

	if _, err := svc.Create(ctx, stranger.ID, dto.VerificationCreateRequest{ProofID: proof.ID.String(), VerifierEmail: "manager@acme.test"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("only the owner may request verification, got %v", err)
	}
	if _, err := svc.Create(ctx, owner.ID, dto.VerificationCreateRequest{ProofID: proof.ID.String(), VerifierEmail: "nope"}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected invalid email, got %v", err)
	}
	req, err := svc.Create(ctx, owner.ID, dto.VerificationCreateRequest{
		ProofID:       proof.ID.String(),
		VerifierEmail: " Manager@Acme.test ",
		VerifierName:  "Morgan",
		Relationship:  "Manager",
		Message:       "Could you confirm my role?",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if req.Status != domain.VerificationPending || req.VerifierEmail != "manager@acme.test" {
		t.Fatalf("unexpected request %+v", req)
	}
	if len(mail.verify) != 1 || mail.verify[0] != "manager@acme.test|quinn@example.com|Acme" {
		t.Fatalf("unexpected verification mail %v", mail.verify)
	}

	incoming, err := svc.ListIncoming(ctx, verifier.ID)
	if err != nil || len(incoming) != 1 {
		t.Fatalf("incoming: %v %v", incoming, err)
	}
	if _, err := svc.Get(ctx, stranger.ID, req.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("strangers must not see the request, got %v", err)
	}
	if _, err := svc.Respond(ctx, stranger.ID, req.ID, dto.VerificationRespondRequest{Status: domain.VerificationApproved}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden responder, got %v", err)
	}
	if _, err := svc.Respond(ctx, verifier.ID, req.ID, dto.VerificationRespondRequest{Status: "maybe"}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected invalid status, got %v", err)
	}
	done, err := svc.Respond(ctx, verifier.ID, req.ID, dto.VerificationRespondRequest{Status: domain.VerificationApproved, Response: "Confirmed."})
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if done.Status != domain.VerificationApproved || done.RespondedAt == nil {
		t.Fatalf("unexpected response %+v", done)
	}
	if _, err := svc.Respond(ctx, verifier.ID, req.ID, dto.VerificationRespondRequest{Status: domain.VerificationRejected}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict on second response, got %v", err)
	}

	byProof, err := svc.ListForProof(ctx, owner.ID, proof.ID)
	if err != nil || len(byProof) != 1 {
		t.Fatalf("list for proof: %v %v", byProof, err)
	}
	if err := svc.Delete(ctx, stranger.ID, req.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found deleting another user's request, got %v", err)
	}
	if err := svc.Delete(ctx, owner.ID, req.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
}
