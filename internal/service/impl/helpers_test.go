package impl

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"ghonsi-proof/internal/domain"
	"ghonsi-proof/internal/dto"
	"ghonsi-proof/internal/events"
	"ghonsi-proof/internal/jwtsigner"
	"ghonsi-proof/internal/store"
	"ghonsi-proof/internal/walletauth"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	s := store.New(db)
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return s
}

func newTestUser(t *testing.T, s *store.Store, email string) *domain.User {
	t.Helper()
	u := &domain.User{Role: domain.RoleUser}
	if email != "" {
		u.Email = &email
		u.EmailVerified = true
	}
	if err := s.Users().Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

type stubEmail struct {
	mu     sync.Mutex
	codes  map[string]string
	verify []string
	err    error
}

func (s *stubEmail) SendOTP(ctx context.Context, to, code string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.codes == nil {
		s.codes = map[string]string{}
	}
	s.codes[to] = code
	return s.err
}

func (s *stubEmail) SendVerificationRequest(ctx context.Context, to, requester, proofName, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verify = append(s.verify, to+"|"+requester+"|"+proofName)
	return s.err
}

func (s *stubEmail) code(to string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.codes[to]
}

type authFixture struct {
	store  *store.Store
	email  *stubEmail
	tokens *TokenServiceImpl
	events *events.Recorder
	auth   *AuthServiceImpl
}

func newAuthFixture(t *testing.T, admins ...string) *authFixture {
	t.Helper()
	st := newTestStore(t)
	signer, err := jwtsigner.NewFromBase64("", "test", "ghonsi-test")
	if err != nil {
		t.Fatalf("signer: %v", err)
	}
	tokens := NewTokenService(TokenConfig{Audience: "ghonsi", AccessTTL: time.Minute, RefreshTTL: time.Hour}, signer, st)
	email := &stubEmail{}
	rec := &events.Recorder{}
	cfg := AuthConfig{
		OTPTTL:         5 * time.Minute,
		OTPMaxAttempts: 3,
		WalletWindow:   time.Minute,
		IsAdmin: func(e string) bool {
			for _, a := range admins {
				if a == e {
					return true
				}
			}
			return false
		},
	}
	pw := NewPasswordService(Argon2Params{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16}, 1)
	return &authFixture{
		store:  st,
		email:  email,
		tokens: tokens,
		events: rec,
		auth:   NewAuthServiceImpl(st, pw, tokens, email, rec, cfg),
	}
}

func signIn(t *testing.T, key solana.PrivateKey, at time.Time) dto.WalletSignInRequest {
	t.Helper()
	msg := walletauth.BuildMessage(key.PublicKey().String(), at)
	sig, err := key.Sign([]byte(msg))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	raw, _ := json.Marshal(sig.String())
	return dto.WalletSignInRequest{
		PublicKey:  key.PublicKey().String(),
		Message:    msg,
		Signature:  raw,
		WalletType: "phantom",
		WalletName: "Phantom",
	}
}

func uid(t *testing.T, s string) uuid.UUID {
	t.Helper()
	id, err := uuid.Parse(s)
	if err != nil {
		t.Fatalf("parse id %q: %v", s, err)
	}
	return id
}

func newWallet(t *testing.T) solana.PrivateKey {
	t.Helper()
	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		t.Fatalf("wallet key: %v", err)
	}
	return key
}
