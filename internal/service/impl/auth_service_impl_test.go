package impl

import (
	"context"
	"errors"
	"testing"
	"time"

	"ghonsi-proof/internal/domain"
	"ghonsi-proof/internal/dto"
	"ghonsi-proof/internal/events"

	"github.com/google/uuid"
)

func TestOTPSignInCreatesUserOnce(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	if err := f.auth.SendOTP(ctx, " Ada@Example.com "); err != nil {
		t.Fatalf("send otp: %v", err)
	}
	code := f.email.code("ada@example.com")
	if len(code) != 6 {
		t.Fatalf("expected 6-digit code, got %q", code)
	}
	resp, err := f.auth.VerifyOTP(ctx, dto.VerifyOTPRequest{Email: "ada@example.com", Code: code}, "10.0.0.1", "test")
	if err != nil {
		t.Fatalf("verify otp: %v", err)
	}
	if !resp.IsNewUser || resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if got := f.events.Types(); len(got) != 1 || got[0] != events.TypeUserRegistered {
		t.Fatalf("expected user.registered event, got %v", got)
	}

	if _, err := f.auth.VerifyOTP(ctx, dto.VerifyOTPRequest{Email: "ada@example.com", Code: code}, "", ""); !errors.Is(err, domain.ErrOTPExpired) {
		t.Fatalf("consumed code should be rejected, got %v", err)
	}

	if err := f.auth.SendOTP(ctx, "ada@example.com"); err != nil {
		t.Fatalf("resend otp: %v", err)
	}
	again, err := f.auth.VerifyOTP(ctx, dto.VerifyOTPRequest{Email: "ada@example.com", Code: f.email.code("ada@example.com")}, "", "")
	if err != nil {
		t.Fatalf("second sign-in: %v", err)
	}
	if again.IsNewUser || again.User.ID != resp.User.ID {
		t.Fatalf("expected the same user, got %+v", again.User)
	}
}

func TestOTPAttemptsAreLimited(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	if err := f.auth.SendOTP(ctx, "bob@example.com"); err != nil {
		t.Fatalf("send otp: %v", err)
	}
	code := f.email.code("bob@example.com")
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	for i := 0; i < 3; i++ {
		if _, err := f.auth.VerifyOTP(ctx, dto.VerifyOTPRequest{Email: "bob@example.com", Code: wrong}, "", ""); !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected invalid credentials, got %v", i, err)
		}
	}
	if _, err := f.auth.VerifyOTP(ctx, dto.VerifyOTPRequest{Email: "bob@example.com", Code: code}, "", ""); !errors.Is(err, domain.ErrOTPAttempts) {
		t.Fatalf("expected attempts exhausted, got %v", err)
	}
}

func TestOTPRejectsInvalidEmail(t *testing.T) {
	f := newAuthFixture(t)
	if err := f.auth.SendOTP(context.Background(), "not-an-email"); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected invalid request, got %v", err)
	}
}

func TestRegisterLoginAndRefresh(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	reg, err := f.auth.Register(ctx, dto.RegisterRequest{Email: "cy@example.com", Password: "correct horse"}, "", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := f.auth.Register(ctx, dto.RegisterRequest{Email: "CY@example.com", Password: "another one"}, "", ""); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict on duplicate email, got %v", err)
	}
	if _, err := f.auth.Register(ctx, dto.RegisterRequest{Email: "dee@example.com", Password: "short"}, "", ""); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected short password rejection, got %v", err)
	}
	if _, err := f.auth.Login(ctx, dto.LoginRequest{Email: "cy@example.com", Password: "wrong password"}, "", ""); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	login, err := f.auth.Login(ctx, dto.LoginRequest{Email: "cy@example.com", Password: "correct horse"}, "", "")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if login.User.ID != reg.User.ID {
		t.Fatalf("login returned another user")
	}

	claims, err := f.tokens.VerifyAccess(ctx, login.AccessToken)
	if err != nil {
		t.Fatalf("verify access: %v", err)
	}
	if claims.Subject != reg.User.ID {
		t.Fatalf("unexpected subject %q", claims.Subject)
	}
	if _, err := f.tokens.VerifyAccess(ctx, login.RefreshToken); err == nil {
		t.Fatalf("refresh token must not pass as access token")
	}

	next, err := f.auth.Refresh(ctx, login.RefreshToken, "", "")
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if _, err := f.auth.Refresh(ctx, login.RefreshToken, "", ""); err == nil {
		t.Fatalf("rotated refresh token must not be reusable")
	}
	if err := f.auth.Logout(ctx, next.RefreshToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := f.tokens.VerifyAccess(ctx, next.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("access token of a revoked session should fail, got %v", err)
	}
}

func TestAdminEmailIsPromoted(t *testing.T) {
	f := newAuthFixture(t, "root@example.com")
	resp, err := f.auth.Register(context.Background(), dto.RegisterRequest{Email: "root@example.com", Password: "password123"}, "", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if resp.User.Role != domain.RoleAdmin {
		t.Fatalf("expected admin role, got %q", resp.User.Role)
	}
}

func TestWalletSignInAndReplay(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	key := newWallet(t)
	req := signIn(t, key, time.Now())

	first, err := f.auth.WalletSignIn(ctx, req, "", "")
	if err != nil {
		t.Fatalf("wallet sign-in: %v", err)
	}
	if !first.IsNewUser {
		t.Fatalf("expected a new user")
	}
	if _, err := f.auth.WalletSignIn(ctx, req, "", ""); !errors.Is(err, domain.ErrSignatureReused) {
		t.Fatalf("expected replay rejection, got %v", err)
	}

	second, err := f.auth.WalletSignIn(ctx, signIn(t, key, time.Now().Add(time.Second)), "", "")
	if err != nil {
		t.Fatalf("second sign-in: %v", err)
	}
	if second.IsNewUser || second.User.ID != first.User.ID {
		t.Fatalf("expected the existing user")
	}
	wallets, err := f.store.Wallets().ListByUser(ctx, uid(t, first.User.ID))
	if err != nil || len(wallets) != 1 || !wallets[0].IsPrimary {
		t.Fatalf("expected one primary wallet, got %v %v", wallets, err)
	}

	stale := signIn(t, key, time.Now().Add(-time.Hour))
	if _, err := f.auth.WalletSignIn(ctx, stale, "", ""); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected stale message rejection, got %v", err)
	}
}

func TestLinkEmailMergesExistingAccount(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	walletUser, err := f.auth.WalletSignIn(ctx, signIn(t, newWallet(t), time.Now()), "", "")
	if err != nil {
		t.Fatalf("wallet sign-in: %v", err)
	}
	emailUser := newTestUser(t, f.store, "eve@example.com")
	if err := f.store.Proofs().Create(ctx, &domain.Proof{UserID: emailUser.ID, ProofType: "job_history", ProofName: "Old job", Summary: "A summary long enough"}); err != nil {
		t.Fatalf("create proof: %v", err)
	}

	if err := f.auth.SendOTP(ctx, "eve@example.com"); err != nil {
		t.Fatalf("send otp: %v", err)
	}
	resp, err := f.auth.LinkEmail(ctx, uid(t, walletUser.User.ID), dto.LinkEmailRequest{Email: "eve@example.com", Code: f.email.code("eve@example.com")})
	if err != nil {
		t.Fatalf("link email: %v", err)
	}
	if resp.Email != "eve@example.com" || !resp.EmailVerified {
		t.Fatalf("email not linked: %+v", resp)
	}
	proofs, err := f.store.Proofs().ListByUser(ctx, uid(t, walletUser.User.ID))
	if err != nil || len(proofs) != 1 {
		t.Fatalf("expected merged proof, got %v %v", proofs, err)
	}
	if _, err := f.store.Users().GetByID(ctx, emailUser.ID); err == nil {
		t.Fatalf("merged account should be gone")
	}
}

type stubReleaser struct{ users []uuid.UUID }

func (s *stubReleaser) ReleaseUserFiles(ctx context.Context, userID uuid.UUID) error {
	s.users = append(s.users, userID)
	return nil
}

func TestDeleteAccount(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	rel := &stubReleaser{}
	f.auth.Files = rel
	u := newTestUser(t, f.store, "gone@example.com")
	deleted, err := f.auth.DeleteAccount(ctx, u.ID)
	if err != nil {
		t.Fatalf("delete account: %v", err)
	}
	if deleted["users"] != 1 {
		t.Fatalf("unexpected counts %v", deleted)
	}
	if len(rel.users) != 1 || rel.users[0] != u.ID {
		t.Fatalf("stored files should be released for the user, got %v", rel.users)
	}
	if _, err := f.auth.DeleteAccount(ctx, u.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
	if _, err := f.auth.Me(ctx, u.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found from me, got %v", err)
	}
}

func TestSetUserDisabledEndsSessions(t *testing.T) {
	f := newAuthFixture(t, "root@example.com")
	ctx := context.Background()

	root, err := f.auth.Register(ctx, dto.RegisterRequest{Email: "root@example.com", Password: "admin password"}, "", "")
	if err != nil {
		t.Fatalf("register admin: %v", err)
	}
	user, err := f.auth.Register(ctx, dto.RegisterRequest{Email: "eve@example.com", Password: "user password"}, "10.0.0.9", "curl")
	if err != nil {
		t.Fatalf("register user: %v", err)
	}

	if _, err := f.auth.SetUserDisabled(ctx, uid(t, root.User.ID), uid(t, root.User.ID), true); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("self disable should be rejected, got %v", err)
	}
	res, err := f.auth.SetUserDisabled(ctx, uid(t, root.User.ID), uid(t, user.User.ID), true)
	if err != nil || !res.Disabled {
		t.Fatalf("disable: %+v %v", res, err)
	}
	if _, err := f.tokens.VerifyAccess(ctx, user.AccessToken); err == nil {
		t.Fatalf("access token of a disabled user should fail")
	}
	if _, err := f.auth.Login(ctx, dto.LoginRequest{Email: "eve@example.com", Password: "user password"}, "", ""); !errors.Is(err, domain.ErrUserDisabled) {
		t.Fatalf("expected disabled login, got %v", err)
	}

	if _, err := f.auth.SetUserDisabled(ctx, uid(t, root.User.ID), uid(t, user.User.ID), false); err != nil {
		t.Fatalf("enable: %v", err)
	}
	if _, err := f.auth.Login(ctx, dto.LoginRequest{Email: "eve@example.com", Password: "user password"}, "", ""); err != nil {
		t.Fatalf("login after enable: %v", err)
	}

	log, err := f.auth.Activity(ctx, uid(t, user.User.ID), 0)
	if err != nil {
		t.Fatalf("activity: %v", err)
	}
	seen := map[string]bool{}
	for _, e := range log {
		seen[e.Action] = true
	}
	for _, want := range []string{AuditSignIn, AuditUserDisabled, AuditUserEnabled} {
		if !seen[want] {
			t.Fatalf("activity missing %q: %+v", want, log)
		}
	}
}

func TestSetUserDisabledUnknownUser(t *testing.T) {
	f := newAuthFixture(t)
	admin := newTestUser(t, f.store, "ops@example.com")
	if _, err := f.auth.SetUserDisabled(context.Background(), admin.ID, uid(t, "6f1c8a52-4d43-4e7b-9a57-0a3c2f1d9b10"), true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
