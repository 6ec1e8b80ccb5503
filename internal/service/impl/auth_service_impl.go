package impl

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"ghonsi-proof/internal/domain"
	"ghonsi-proof/internal/dto"
	"ghonsi-proof/internal/events"
	"ghonsi-proof/internal/observability/metrics"
	"ghonsi-proof/internal/observability/middleware"
	"ghonsi-proof/internal/service"
	"ghonsi-proof/internal/store"
	"ghonsi-proof/internal/validate"
	"ghonsi-proof/internal/walletauth"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	MethodOTP      = "otp"
	MethodPassword = "password"
	MethodWallet   = "wallet"
)

type AuthConfig struct {
	OTPTTL         time.Duration
	OTPMaxAttempts int
	WalletWindow   time.Duration
	IsAdmin        func(email string) bool
}

type AuthServiceImpl struct {
	Store           dataStore
	PasswordService service.PasswordService
	TService        service.TokenService
	Email           service.EmailService
	Events          events.Publisher
	Cfg             AuthConfig
	Now             func() time.Time
	// Files releases stored attachments and pins when an account is deleted.
	Files fileReleaser
}

type fileReleaser interface {
	ReleaseUserFiles(ctx context.Context, userID uuid.UUID) error
}

func NewAuthServiceImpl(st *store.Store, passwordService service.PasswordService, tokenService service.TokenService, email service.EmailService, pub events.Publisher, cfg AuthConfig) *AuthServiceImpl {
	return &AuthServiceImpl{
		Store:           gormStoreAdapter{store: st},
		PasswordService: passwordService,
		TService:        tokenService,
		Email:           email,
		Events:          pub,
		Cfg:             cfg,
	}
}

type dataStore interface {
	storeTx
	WithTx(ctx context.Context, fn func(tx storeTx) error) error
}

type storeTx interface {
	Users() userStore
	Credentials() credentialStore
	OTPs() otpStore
	WalletLogins() walletLoginStore
	Wallets() walletStore
	Profiles() profileStore
	Audit() auditStore
	MergeUsers(ctx context.Context, from, into uuid.UUID) error
	DeleteUserData(ctx context.Context, userID uuid.UUID) (map[string]int64, error)
}

type userStore interface {
	Create(ctx context.Context, usr *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByWallet(ctx context.Context, address string) (*domain.User, error)
	SetEmail(ctx context.Context, userID uuid.UUID, email string, verified bool) error
	SetEmailVerified(ctx context.Context, userID uuid.UUID) error
	SetWallet(ctx context.Context, userID uuid.UUID, address, walletType string) error
	SetRole(ctx context.Context, userID uuid.UUID, role string) error
	SetDisabled(ctx context.Context, userID uuid.UUID, disabled bool) error
}

type credentialStore interface {
	UpsertPassword(ctx context.Context, c *domain.PasswordCredential) error
	GetPasswordByUserID(ctx context.Context, userID uuid.UUID) (*domain.PasswordCredential, error)
}

type otpStore interface {
	Replace(ctx context.Context, otp *domain.EmailOTP) error
	Latest(ctx context.Context, email string) (*domain.EmailOTP, error)
	IncrementAttempts(ctx context.Context, id uuid.UUID) error
	Consume(ctx context.Context, id uuid.UUID, at time.Time) error
}

type walletLoginStore interface {
	Record(ctx context.Context, l *domain.WalletLogin) error
}

type walletStore interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.UserWallet, error)
	Get(ctx context.Context, userID uuid.UUID, address string) (*domain.UserWallet, error)
	FindByAddress(ctx context.Context, address string) (*domain.UserWallet, error)
	Create(ctx context.Context, uw *domain.UserWallet) error
	Count(ctx context.Context, userID uuid.UUID) (int64, error)
}

type profileStore interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Profile, error)
}

type gormStoreAdapter struct {
	store *store.Store
}

func (g gormStoreAdapter) WithTx(ctx context.Context, fn func(tx storeTx) error) error {
	if g.store == nil {
		return errors.New("nil store")
	}
	return g.store.WithTx(ctx, func(tx *store.Store) error {
		return fn(gormTxAdapter{tx: tx})
	})
}

func (g gormStoreAdapter) Users() userStore               { return g.store.Users() }
func (g gormStoreAdapter) Credentials() credentialStore   { return g.store.Credentials() }
func (g gormStoreAdapter) OTPs() otpStore                 { return g.store.OTPs() }
func (g gormStoreAdapter) WalletLogins() walletLoginStore { return g.store.WalletLogins() }
func (g gormStoreAdapter) Wallets() walletStore           { return g.store.Wallets() }
func (g gormStoreAdapter) Profiles() profileStore         { return g.store.Profiles() }
func (g gormStoreAdapter) Audit() auditStore              { return g.store.Audit() }
func (g gormStoreAdapter) MergeUsers(ctx context.Context, from, into uuid.UUID) error {
	return g.store.MergeUsers(ctx, from, into)
}
func (g gormStoreAdapter) DeleteUserData(ctx context.Context, userID uuid.UUID) (map[string]int64, error) {
	return g.store.DeleteUserData(ctx, userID)
}

type gormTxAdapter struct {
	tx *store.Store
}

func (g gormTxAdapter) Users() userStore               { return g.tx.Users() }
func (g gormTxAdapter) Credentials() credentialStore   { return g.tx.Credentials() }
func (g gormTxAdapter) OTPs() otpStore                 { return g.tx.OTPs() }
func (g gormTxAdapter) WalletLogins() walletLoginStore { return g.tx.WalletLogins() }
func (g gormTxAdapter) Wallets() walletStore           { return g.tx.Wallets() }
func (g gormTxAdapter) Profiles() profileStore         { return g.tx.Profiles() }
func (g gormTxAdapter) Audit() auditStore              { return g.tx.Audit() }
func (g gormTxAdapter) MergeUsers(ctx context.Context, from, into uuid.UUID) error {
	return g.tx.MergeUsers(ctx, from, into)
}
func (g gormTxAdapter) DeleteUserData(ctx context.Context, userID uuid.UUID) (map[string]int64, error) {
	return g.tx.DeleteUserData(ctx, userID)
}

func (a *AuthServiceImpl) now() time.Time {
	if a.Now != nil {
		return a.Now().UTC()
	}
	return time.Now().UTC()
}

// SendOTP stores a bcrypt hash of a fresh 6-digit code and mails the code.
func (a *AuthServiceImpl) SendOTP(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if err := validate.Email(email); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	code, err := otpCode()
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	now := a.now()
	otp := &domain.EmailOTP{Email: email, CodeHash: hash, ExpiresAt: now.Add(a.Cfg.OTPTTL), CreatedAt: now}
	if err := a.Store.OTPs().Replace(ctx, otp); err != nil {
		return err
	}
	if err := a.Email.SendOTP(ctx, email, code, a.Cfg.OTPTTL); err != nil {
		return err
	}
	slog.Info("otp sent", append(middleware.LogAttrs(ctx), "email", email)...)
	return nil
}

func (a *AuthServiceImpl) VerifyOTP(ctx context.Context, r dto.VerifyOTPRequest, ip, ua string) (*dto.AuthResponse, error) {
	email := normalizeEmail(r.Email)
	if email == "" || strings.TrimSpace(r.Code) == "" {
		return nil, fmt.Errorf("%w: email and code are required", ErrInvalidRequest)
	}
	if err := a.checkOTP(ctx, email, strings.TrimSpace(r.Code)); err != nil {
		metrics.AuthLoginsTotal.WithLabelValues(MethodOTP, "failure").Inc()
		return nil, err
	}

	var user *domain.User
	created := false
	err := a.Store.WithTx(ctx, func(tx storeTx) error {
		u, err := tx.Users().GetByEmail(ctx, email)
		switch {
		case errors.Is(err, store.ErrRecordNotFound):
			u = &domain.User{Email: &email, EmailVerified: true, Role: a.roleFor(email)}
			if err := tx.Users().Create(ctx, u); err != nil {
				return err
			}
			created = true
		case err != nil:
			return err
		case !u.EmailVerified:
			if err := tx.Users().SetEmailVerified(ctx, u.ID); err != nil {
				return err
			}
			u.EmailVerified = true
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return a.finish(ctx, user, created, MethodOTP, ip, ua)
}

// checkOTP consumes the latest code for email when it matches. Failed attempts
// are counted outside any transaction so they persist.
func (a *AuthServiceImpl) checkOTP(ctx context.Context, email, code string) error {
	otp, err := a.Store.OTPs().Latest(ctx, email)
	if errors.Is(err, store.ErrRecordNotFound) {
		return domain.ErrOTPExpired
	}
	if err != nil {
		return err
	}
	now := a.now()
	if now.After(otp.ExpiresAt) {
		return domain.ErrOTPExpired
	}
	if otp.Attempts >= a.Cfg.OTPMaxAttempts {
		return domain.ErrOTPAttempts
	}
	if bcrypt.CompareHashAndPassword(otp.CodeHash, []byte(code)) != nil {
		if err := a.Store.OTPs().IncrementAttempts(ctx, otp.ID); err != nil {
			slog.Warn("otp attempt not recorded", "error", err)
		}
		return domain.ErrInvalidCredentials
	}
	if err := a.Store.OTPs().Consume(ctx, otp.ID, now); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return domain.ErrOTPExpired
		}
		return err
	}
	return nil
}

func (a *AuthServiceImpl) Register(ctx context.Context, r dto.RegisterRequest, ip, ua string) (*dto.AuthResponse, error) {
	email := normalizeEmail(r.Email)
	if err := validate.Email(email); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if err := validate.Password(r.Password); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	var user *domain.User
	err := a.Store.WithTx(ctx, func(tx storeTx) error {
		now := a.now()
		u := &domain.User{Email: &email, Role: a.roleFor(email), CreatedAt: now}
		if err := tx.Users().Create(ctx, u); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return fmt.Errorf("%w: email already registered", ErrConflict)
			}
			return err
		}
		hash, salt, paramsJSON, algo, ver, err := a.PasswordService.Hash(r.Password)
		if err != nil {
			return err
		}
		cred := &domain.PasswordCredential{
			ID:          uuid.New(),
			UserID:      u.ID,
			Algo:        algo,
			Hash:        hash,
			Salt:        salt,
			ParamsJSON:  paramsJSON,
			PasswordVer: ver,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := tx.Credentials().UpsertPassword(ctx, cred); err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return a.finish(ctx, user, true, MethodPassword, ip, ua)
}

func (a *AuthServiceImpl) Login(ctx context.Context, r dto.LoginRequest, ip, ua string) (*dto.AuthResponse, error) {
	email := normalizeEmail(r.Email)
	if email == "" || r.Password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrInvalidRequest)
	}

	var user *domain.User
	err := a.Store.WithTx(ctx, func(tx storeTx) error {
		u, err := tx.Users().GetByEmail(ctx, email)
		if err != nil {
			return domain.ErrInvalidCredentials
		}
		cred, err := tx.Credentials().GetPasswordByUserID(ctx, u.ID)
		if err != nil {
			return domain.ErrInvalidCredentials
		}
		rehashNeeded, ok := a.PasswordService.Verify(r.Password, cred)
		if !ok {
			return domain.ErrInvalidCredentials
		}
		if rehashNeeded {
			hash, salt, paramsJSON, algo, ver, err := a.PasswordService.Hash(r.Password)
			if err != nil {
				return err
			}
			cred.Algo, cred.Hash, cred.Salt, cred.ParamsJSON, cred.PasswordVer = algo, hash, salt, paramsJSON, ver
			cred.UpdatedAt = a.now()
			if err := tx.Credentials().UpsertPassword(ctx, cred); err != nil {
				return err
			}
		}
		user = u
		return nil
	})
	if err != nil {
		metrics.AuthLoginsTotal.WithLabelValues(MethodPassword, "failure").Inc()
		return nil, err
	}
	return a.finish(ctx, user, false, MethodPassword, ip, ua)
}

func (a *AuthServiceImpl) WalletSignIn(ctx context.Context, r dto.WalletSignInRequest, ip, ua string) (*dto.AuthResponse, error) {
	proof, signedAt, err := a.verifyWallet(r)
	if err != nil {
		metrics.AuthLoginsTotal.WithLabelValues(MethodWallet, "failure").Inc()
		return nil, err
	}
	addr := proof.PublicKey

	var user *domain.User
	created := false
	err = a.Store.WithTx(ctx, func(tx storeTx) error {
		if err := a.recordSignature(ctx, tx, proof, signedAt); err != nil {
			return err
		}
		u, err := userByWallet(ctx, tx, addr)
		if err == nil {
			user = u
			return nil
		}
		if !errors.Is(err, store.ErrRecordNotFound) {
			return err
		}
		u = &domain.User{WalletAddress: &addr, WalletType: r.WalletType, Role: domain.RoleUser}
		if err := tx.Users().Create(ctx, u); err != nil {
			return err
		}
		if err := tx.Wallets().Create(ctx, &domain.UserWallet{
			UserID:        u.ID,
			WalletAddress: addr,
			WalletName:    r.WalletName,
			IsPrimary:     true,
			IsVerified:    true,
			AddedAt:       a.now(),
		}); err != nil {
			return err
		}
		user, created = u, true
		return nil
	})
	if err != nil {
		metrics.AuthLoginsTotal.WithLabelValues(MethodWallet, "failure").Inc()
		return nil, err
	}
	return a.finish(ctx, user, created, MethodWallet, ip, ua)
}

func (a *AuthServiceImpl) Refresh(ctx context.Context, refreshToken, ip, ua string) (*dto.TokenResponse, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("%w: refresh token required", ErrInvalidRequest)
	}
	return a.TService.Refresh(ctx, refreshToken, ip, ua)
}

func (a *AuthServiceImpl) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return fmt.Errorf("%w: refresh token required", ErrInvalidRequest)
	}
	return a.TService.Revoke(ctx, refreshToken)
}

func (a *AuthServiceImpl) Me(ctx context.Context, userID uuid.UUID) (*dto.MeResponse, error) {
	u, err := a.Store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "user")
	}
	out := &dto.MeResponse{User: dto.NewUserResponse(u)}
	if p, err := a.Store.Profiles().GetByUserID(ctx, userID); err == nil {
		out.Profile, out.HasProfile = p, true
	} else if !errors.Is(err, store.ErrRecordNotFound) {
		return nil, err
	}
	if out.Wallets, err = a.Store.Wallets().ListByUser(ctx, userID); err != nil {
		return nil, err
	}
	return out, nil
}

// LinkWallet attaches a signed wallet to the user. A different account owning
// the wallet is merged into this one.
func (a *AuthServiceImpl) LinkWallet(ctx context.Context, userID uuid.UUID, r dto.WalletSignInRequest) (*dto.UserResponse, error) {
	proof, signedAt, err := a.verifyWallet(r)
	if err != nil {
		return nil, err
	}
	addr := proof.PublicKey

	var out *domain.User
	err = a.Store.WithTx(ctx, func(tx storeTx) error {
		if err := a.recordSignature(ctx, tx, proof, signedAt); err != nil {
			return err
		}
		if err := mergeOwner(ctx, tx, userID, func() (*domain.User, error) { return userByWallet(ctx, tx, addr) }); err != nil {
			return err
		}
		u, err := tx.Users().GetByID(ctx, userID)
		if err != nil {
			return notFound(err, "user")
		}
		if u.WalletAddress == nil {
			if err := tx.Users().SetWallet(ctx, userID, addr, r.WalletType); err != nil {
				return err
			}
		}
		if _, err := tx.Wallets().Get(ctx, userID, addr); errors.Is(err, store.ErrRecordNotFound) {
			n, err := tx.Wallets().Count(ctx, userID)
			if err != nil {
				return err
			}
			if err := tx.Wallets().Create(ctx, &domain.UserWallet{
				UserID:        userID,
				WalletAddress: addr,
				WalletName:    r.WalletName,
				IsPrimary:     n == 0,
				IsVerified:    true,
				AddedAt:       a.now(),
			}); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
		out, err = tx.Users().GetByID(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	a.audit(ctx, domain.AuditLog{UserID: &userID, ActorID: &userID, Action: AuditLinkWallet}, map[string]any{"wallet": addr})
	slog.Info("wallet linked", append(middleware.LogAttrs(ctx), "user_id", userID, "wallet", addr)...)
	resp := dto.NewUserResponse(out)
	return &resp, nil
}

// LinkEmail attaches an OTP-verified email to the user, merging any account that
// already owns it.
func (a *AuthServiceImpl) LinkEmail(ctx context.Context, userID uuid.UUID, r dto.LinkEmailRequest) (*dto.UserResponse, error) {
	email := normalizeEmail(r.Email)
	if err := validate.Email(email); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if err := a.checkOTP(ctx, email, strings.TrimSpace(r.Code)); err != nil {
		return nil, err
	}

	var out *domain.User
	err := a.Store.WithTx(ctx, func(tx storeTx) error {
		if err := mergeOwner(ctx, tx, userID, func() (*domain.User, error) { return tx.Users().GetByEmail(ctx, email) }); err != nil {
			return err
		}
		u, err := tx.Users().GetByID(ctx, userID)
		if err != nil {
			return notFound(err, "user")
		}
		if u.Email != nil && !strings.EqualFold(*u.Email, email) {
			return fmt.Errorf("%w: account already has an email address", ErrConflict)
		}
		if err := tx.Users().SetEmail(ctx, userID, email, true); err != nil {
			return err
		}
		if a.roleFor(email) == domain.RoleAdmin && u.Role != domain.RoleAdmin {
			if err := tx.Users().SetRole(ctx, userID, domain.RoleAdmin); err != nil {
				return err
			}
		}
		out, err = tx.Users().GetByID(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	a.audit(ctx, domain.AuditLog{UserID: &userID, ActorID: &userID, Action: AuditLinkEmail}, nil)
	slog.Info("email linked", append(middleware.LogAttrs(ctx), "user_id", userID)...)
	resp := dto.NewUserResponse(out)
	return &resp, nil
}

func (a *AuthServiceImpl) DeleteAccount(ctx context.Context, userID uuid.UUID) (map[string]int64, error) {
	if a.Files != nil {
		if err := a.Files.ReleaseUserFiles(ctx, userID); err != nil {
			slog.Warn("account files not released", append(middleware.LogAttrs(ctx), "user_id", userID, "error", err)...)
		}
	}
	deleted, err := a.Store.DeleteUserData(ctx, userID)
	if err != nil {
		return nil, err
	}
	if deleted["users"] == 0 {
		return nil, fmt.Errorf("%w: user", ErrNotFound)
	}
	slog.Info("account deleted", append(middleware.LogAttrs(ctx), "user_id", userID, "deleted", deleted)...)
	return deleted, nil
}

func (a *AuthServiceImpl) verifyWallet(r dto.WalletSignInRequest) (walletauth.Proof, time.Time, error) {
	proof := walletauth.Proof{PublicKey: strings.TrimSpace(r.PublicKey), Message: r.Message, Signature: r.Signature}
	if proof.PublicKey == "" || proof.Message == "" || len(proof.Signature) == 0 {
		return proof, time.Time{}, fmt.Errorf("%w: publicKey, message and signature are required", ErrInvalidRequest)
	}
	signedAt, err := walletauth.Verify(proof, a.now(), a.Cfg.WalletWindow)
	if err != nil {
		return proof, time.Time{}, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	return proof, signedAt, nil
}

func (a *AuthServiceImpl) recordSignature(ctx context.Context, tx storeTx, proof walletauth.Proof, signedAt time.Time) error {
	err := tx.WalletLogins().Record(ctx, &domain.WalletLogin{
		WalletAddress: proof.PublicKey,
		Signature:     walletauth.SignatureKey(proof),
		SignedAt:      signedAt,
		CreatedAt:     a.now(),
	})
	if errors.Is(err, store.ErrDuplicate) {
		return domain.ErrSignatureReused
	}
	return err
}

// finish promotes admins, issues tokens and announces new users.
func (a *AuthServiceImpl) finish(ctx context.Context, user *domain.User, created bool, method, ip, ua string) (*dto.AuthResponse, error) {
	if user.IsDisabled {
		metrics.AuthLoginsTotal.WithLabelValues(method, "failure").Inc()
		return nil, domain.ErrUserDisabled
	}
	if email := user.EmailOrEmpty(); email != "" && user.Role != domain.RoleAdmin && a.roleFor(email) == domain.RoleAdmin {
		if err := a.Store.Users().SetRole(ctx, user.ID, domain.RoleAdmin); err != nil {
			return nil, err
		}
		user.Role = domain.RoleAdmin
	}
	tokens, err := a.TService.Issue(ctx, user, method, ip, ua)
	if err != nil {
		metrics.AuthLoginsTotal.WithLabelValues(method, "failure").Inc()
		return nil, err
	}
	metrics.AuthLoginsTotal.WithLabelValues(method, "success").Inc()
	a.audit(ctx, domain.AuditLog{UserID: &user.ID, ActorID: &user.ID, Action: AuditSignIn, IP: ip, UserAgent: ua},
		map[string]any{"method": method, "newUser": created})
	if created && a.Events != nil {
		if err := a.Events.Publish(ctx, events.TypeUserRegistered, events.UserRegistered{
			UserID: user.ID.String(),
			Email:  user.EmailOrEmpty(),
			Wallet: user.WalletOrEmpty(),
			Method: method,
			At:     a.now(),
		}); err != nil {
			slog.Warn("event publish failed", "type", events.TypeUserRegistered, "error", err)
		}
	}
	slog.Info("signed in", append(middleware.LogAttrs(ctx), "user_id", user.ID, "method", method, "new_user", created)...)
	return &dto.AuthResponse{TokenResponse: *tokens, User: dto.NewUserResponse(user), IsNewUser: created}, nil
}

func (a *AuthServiceImpl) roleFor(email string) string {
	if a.Cfg.IsAdmin != nil && a.Cfg.IsAdmin(email) {
		return domain.RoleAdmin
	}
	return domain.RoleUser
}

func userByWallet(ctx context.Context, tx storeTx, addr string) (*domain.User, error) {
	u, err := tx.Users().GetByWallet(ctx, addr)
	if !errors.Is(err, store.ErrRecordNotFound) {
		return u, err
	}
	uw, err := tx.Wallets().FindByAddress(ctx, addr)
	if err != nil {
		return nil, err
	}
	return tx.Users().GetByID(ctx, uw.UserID)
}

// mergeOwner merges the account returned by lookup into userID when it is a
// different account.
func mergeOwner(ctx context.Context, tx storeTx, userID uuid.UUID, lookup func() (*domain.User, error)) error {
	owner, err := lookup()
	if errors.Is(err, store.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if owner.ID == userID {
		return nil
	}
	if err := tx.MergeUsers(ctx, owner.ID, userID); err != nil {
		return fmt.Errorf("merge accounts: %w", err)
	}
	slog.Info("accounts merged", append(middleware.LogAttrs(ctx), "from", owner.ID, "into", userID)...)
	return nil
}

func notFound(err error, what string) error {
	if errors.Is(err, store.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return err
}

func normalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

func otpCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

const maxActivity = 100

// Activity returns the user's most recent audit entries.
func (a *AuthServiceImpl) Activity(ctx context.Context, userID uuid.UUID, limit int) ([]domain.AuditLog, error) {
	if limit <= 0 || limit > maxActivity {
		limit = maxActivity
	}
	return a.Store.Audit().ListByUser(ctx, userID, limit)
}

// SetUserDisabled blocks or restores sign-in for a user. Disabling also ends
// every live session.
func (a *AuthServiceImpl) SetUserDisabled(ctx context.Context, actor, userID uuid.UUID, disabled bool) (*dto.UserResponse, error) {
	if actor == userID {
		return nil, fmt.Errorf("%w: cannot change your own account state", ErrInvalidRequest)
	}
	if err := a.Store.Users().SetDisabled(ctx, userID, disabled); err != nil {
		return nil, notFound(err, "user")
	}
	action := AuditUserEnabled
	if disabled {
		action = AuditUserDisabled
		if err := a.TService.RevokeAll(ctx, userID); err != nil {
			return nil, err
		}
	}
	u, err := a.Store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "user")
	}
	a.audit(ctx, domain.AuditLog{UserID: &userID, ActorID: &actor, Action: action}, nil)
	slog.Info("user state changed", append(middleware.LogAttrs(ctx), "user_id", userID, "actor", actor, "disabled", disabled)...)
	resp := dto.NewUserResponse(u)
	return &resp, nil
}

func (a *AuthServiceImpl) audit(ctx context.Context, entry domain.AuditLog, meta map[string]any) {
	entry.CreatedAt = a.now()
	recordAudit(ctx, a.Store.Audit(), entry, meta)
}
