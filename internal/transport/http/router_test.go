package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ghonsi-proof/internal/domain"
	"ghonsi-proof/internal/dto"
	"ghonsi-proof/internal/pipeline"
	"ghonsi-proof/internal/service"
	"ghonsi-proof/internal/service/impl"
	"ghonsi-proof/internal/store"
	"ghonsi-proof/internal/validate"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	userID  = uuid.MustParse("3f2504e0-4f89-11d3-9a0c-0305e82c3301")
	adminID = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
)

// stubTokens accepts "user" and "admin" as bearer tokens.
type stubTokens struct{}

func (stubTokens) VerifyAccess(_ context.Context, token string) (*impl.AccessClaims, error) {
	switch token {
	case "user":
		return &impl.AccessClaims{Type: "access", Role: domain.RoleUser,
			RegisteredClaims: jwt.RegisteredClaims{Subject: userID.String()}}, nil
	case "admin":
		return &impl.AccessClaims{Type: "access", Role: domain.RoleAdmin,
			RegisteredClaims: jwt.RegisteredClaims{Subject: adminID.String()}}, nil
	}
	return nil, impl.ErrInvalidToken
}

type stubProofs struct {
	service.ProofService
	submitted []dto.SubmitProofRequest
}

func (s *stubProofs) Get(_ context.Context, id uuid.UUID) (*domain.Proof, error) {
	return nil, fmt.Errorf("%w: proof", impl.ErrNotFound)
}

func (s *stubProofs) SubmitOnChain(_ context.Context, _ uuid.UUID, r dto.SubmitProofRequest) (*dto.SubmitProofResponse, error) {
	s.submitted = append(s.submitted, r)
	return &dto.SubmitProofResponse{Success: true, Tx: "sig", ProofPDA: "pda", URI: r.IPFSURI, Status: "submitted"}, nil
}

func (s *stubProofs) GlobalStats(context.Context) (store.ProofStats, error) {
	return store.ProofStats{Total: 3}, nil
}

func newTestRouter(proofs *stubProofs) http.Handler {
	return NewRouter(Services{Proofs: proofs, Tokens: stubTokens{}}, Options{})
}

func do(h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	rec := do(newTestRouter(&stubProofs{}), http.MethodGet, "/healthz", "", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("unexpected healthz response %d %q", rec.Code, rec.Body.String())
	}
}

func TestAuthenticateRejectsMissingAndBadTokens(t *testing.T) {
	h := newTestRouter(&stubProofs{})
	if rec := do(h, http.MethodGet, "/v1/proofs/stats", "", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
	if rec := do(h, http.MethodGet, "/v1/proofs/stats", "forged", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad token, got %d", rec.Code)
	}
}

func TestSubmitProofMissingFields(t *testing.T) {
	proofs := &stubProofs{}
	h := newTestRouter(proofs)
	rec := do(h, http.MethodPost, "/api/submit-proof", "user", `{"proofId":"p1","title":"t"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"error":"Missing required fields"}` {
		t.Fatalf("unexpected body %s", got)
	}
	if len(proofs.submitted) != 0 {
		t.Fatalf("incomplete request must not reach the service")
	}
}

func TestSubmitProofSuccess(t *testing.T) {
	proofs := &stubProofs{}
	h := newTestRouter(proofs)
	body := `{"proofId":"p1","title":"Title","description":"Desc","proofType":"certificate",` +
		`"ipfsUri":"ipfs://bafy","walletAddress":"11111111111111111111111111111111"}`
	rec := do(h, http.MethodPost, "/api/submit-proof", "user", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(proofs.submitted) != 1 || proofs.submitted[0].IPFSURI != "ipfs://bafy" {
		t.Fatalf("unexpected submissions %+v", proofs.submitted)
	}
	if !strings.Contains(rec.Body.String(), `"success":true`) {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	h := newTestRouter(&stubProofs{})
	if rec := do(h, http.MethodGet, "/v1/admin/stats", "user", ""); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", rec.Code)
	}
	rec := do(h, http.MethodGet, "/v1/admin/stats", "admin", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"total":3`) {
		t.Fatalf("unexpected admin stats %d %s", rec.Code, rec.Body.String())
	}
}

func TestProofPathValidationAndNotFound(t *testing.T) {
	h := newTestRouter(&stubProofs{})
	if rec := do(h, http.MethodGet, "/v1/proofs/not-a-uuid", "user", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id, got %d", rec.Code)
	}
	if rec := do(h, http.MethodGet, "/v1/proofs/"+uuid.NewString(), "user", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: Missing required fields", impl.ErrInvalidRequest), http.StatusBadRequest},
		{validate.ProofName(""), http.StatusBadRequest},
		{domain.ErrOTPExpired, http.StatusUnauthorized},
		{domain.ErrSignatureReused, http.StatusUnauthorized},
		{impl.ErrForbidden, http.StatusForbidden},
		{fmt.Errorf("%w: proof", impl.ErrNotFound), http.StatusNotFound},
		{domain.ErrLastWallet, http.StatusConflict},
		{impl.ErrUnavailable, http.StatusServiceUnavailable},
		{&pipeline.StepError{Step: pipeline.StepPin, Err: errors.New("pinata down")}, http.StatusBadGateway},
		{&pipeline.StepError{Step: pipeline.StepRecord, Err: errors.New("db")}, http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := statusFor(tc.err); got != tc.want {
			t.Fatalf("statusFor(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

type stubAuth struct {
	service.AuthService
	actor, target uuid.UUID
	disabled      bool
}

func (s *stubAuth) SetUserDisabled(_ context.Context, actor, userID uuid.UUID, disabled bool) (*dto.UserResponse, error) {
	if actor == userID {
		return nil, impl.ErrInvalidRequest
	}
	s.actor, s.target, s.disabled = actor, userID, disabled
	return &dto.UserResponse{ID: userID.String(), Disabled: disabled}, nil
}

func TestAdminDisableUser(t *testing.T) {
	auth := &stubAuth{}
	h := NewRouter(Services{Auth: auth, Proofs: &stubProofs{}, Tokens: stubTokens{}}, Options{})
	path := "/v1/admin/users/" + userID.String() + "/disabled"

	if rec := do(h, http.MethodPatch, path, "user", `{"disabled":true}`); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", rec.Code)
	}
	rec := do(h, http.MethodPatch, path, "admin", `{"disabled":true}`)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"disabled":true`) {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
	if auth.actor != adminID || auth.target != userID || !auth.disabled {
		t.Fatalf("unexpected call %+v", auth)
	}
	self := "/v1/admin/users/" + adminID.String() + "/disabled"
	if rec := do(h, http.MethodPatch, self, "admin", `{"disabled":true}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for self disable, got %d", rec.Code)
	}
}
