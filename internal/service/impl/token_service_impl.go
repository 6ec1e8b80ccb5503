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
	"ghonsi-proof/internal/jwtsigner"
	"ghonsi-proof/internal/netutil"
	"ghonsi-proof/internal/observability/metrics"
	"ghonsi-proof/internal/observability/middleware"
	"ghonsi-proof/internal/store"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type TokenConfig struct {
	Audience   string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

type AccessClaims struct {
	Type   string `json:"typ"`
	SID    string `json:"sid"`
	Role   string `json:"role"`
	Wallet string `json:"wallet,omitempty"`
	jwt.RegisteredClaims
}

type RefreshClaims struct {
	Type                 string `json:"typ"`
	SID                  string `json:"sid"`
	jwt.RegisteredClaims        // jti == refresh_id
}

// UserID returns the subject as a uuid.
func (c *AccessClaims) UserID() (uuid.UUID, error) { return uuid.Parse(c.Subject) }

type TokenServiceImpl struct {
	cfg    TokenConfig
	signer *jwtsigner.Signer
	store  *store.Store
}

func NewTokenService(cfg TokenConfig, signer *jwtsigner.Signer, st *store.Store) *TokenServiceImpl {
	return &TokenServiceImpl{cfg: cfg, signer: signer, store: st}
}

// Issue creates a Session row with a fresh refresh id and returns access and
// refresh tokens.
func (t *TokenServiceImpl) Issue(ctx context.Context, user *domain.User, method, ip, ua string) (*dto.TokenResponse, error) {
	result := "success"
	defer func() {
		metrics.TokensIssuedTotal.WithLabelValues("issue", result).Inc()
	}()
	now := time.Now().UTC()

	sess := &domain.Session{
		ID:        uuid.New(),
		UserID:    user.ID,
		RefreshID: uuid.New(),
		Method:    method,
		ExpiresAt: now.Add(t.cfg.RefreshTTL),
		CreatedAt: now,
		IP:        normalizeIP(ip),
		UserAgent: netutil.TruncateUserAgent(ua),
	}
	if err := t.store.Sessions().Create(ctx, sess); err != nil {
		result = "failure"
		return nil, err
	}
	out, err := t.sign(user, sess, now)
	if err != nil {
		result = "failure"
		return nil, err
	}
	slog.Info("issued tokens", append(middleware.LogAttrs(ctx), "session_id", sess.ID, "user_id", user.ID, "method", method)...)
	return out, nil
}

// Refresh validates the refresh JWT, checks session state, rotates the refresh id
// and returns new tokens.
func (t *TokenServiceImpl) Refresh(ctx context.Context, refreshToken string, ip, ua string) (*dto.TokenResponse, error) {
	result := "success"
	defer func() {
		metrics.TokensIssuedTotal.WithLabelValues("refresh", result).Inc()
	}()
	now := time.Now().UTC()

	sess, err := t.sessionFor(ctx, refreshToken)
	if err != nil {
		result = "failure"
		return nil, err
	}
	if sess.RevokedAt != nil || now.After(sess.ExpiresAt) {
		result = "failure"
		return nil, fmt.Errorf("%w: session expired or revoked", ErrUnauthorized)
	}
	user, err := t.store.Users().GetByID(ctx, sess.UserID)
	if err != nil {
		result = "failure"
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if user.IsDisabled {
		result = "failure"
		return nil, domain.ErrUserDisabled
	}

	newRID := uuid.New()
	newExp := now.Add(t.cfg.RefreshTTL)
	ip, ua = normalizeIP(ip), netutil.TruncateUserAgent(ua)
	if err := t.store.Sessions().Rotate(ctx, sess.ID, sess.RefreshID, newRID, newExp, ip, ua); err != nil {
		result = "failure"
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: refresh token already used", ErrUnauthorized)
		}
		return nil, err
	}
	sess.RefreshID, sess.ExpiresAt = newRID, newExp

	out, err := t.sign(user, sess, now)
	if err != nil {
		result = "failure"
		return nil, err
	}
	slog.Info("refreshed tokens", append(middleware.LogAttrs(ctx), "session_id", sess.ID, "user_id", sess.UserID)...)
	return out, nil
}

// Revoke ends the session bound to a refresh token.
func (t *TokenServiceImpl) Revoke(ctx context.Context, refreshToken string) error {
	sess, err := t.sessionFor(ctx, refreshToken)
	if err != nil {
		return err
	}
	return t.store.Sessions().Revoke(ctx, sess.ID, time.Now().UTC())
}

// VerifyAccess parses an access token and checks that its session is still live.
func (t *TokenServiceImpl) VerifyAccess(ctx context.Context, token string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := t.signer.Parse(token, claims, jwt.WithAudience(t.cfg.Audience)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Type != tokenTypeAccess {
		return nil, ErrInvalidToken
	}
	sid, err := uuid.Parse(claims.SID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	sess, err := t.store.Sessions().GetByID(ctx, sid)
	if err != nil || sess.RevokedAt != nil {
		return nil, fmt.Errorf("%w: session revoked", ErrInvalidToken)
	}
	return claims, nil
}

// RevokeAll ends every session of a user.
func (t *TokenServiceImpl) RevokeAll(ctx context.Context, userID uuid.UUID) error {
	_, err := t.store.Sessions().RevokeAllForUser(ctx, userID, time.Now().UTC())
	return err
}

func (t *TokenServiceImpl) sessionFor(ctx context.Context, refreshToken string) (*domain.Session, error) {
	claims := &RefreshClaims{}
	if err := t.signer.Parse(refreshToken, claims, jwt.WithAudience(t.cfg.Audience)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Type != tokenTypeRefresh {
		return nil, ErrInvalidToken
	}
	rid, err := uuid.Parse(claims.ID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	sess, err := t.store.Sessions().GetByRefreshID(ctx, rid)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown session", ErrInvalidToken)
	}
	return sess, nil
}

func (t *TokenServiceImpl) sign(user *domain.User, sess *domain.Session, now time.Time) (*dto.TokenResponse, error) {
	access, err := t.signer.Sign(AccessClaims{
		Type:   tokenTypeAccess,
		SID:    sess.ID.String(),
		Role:   user.Role,
		Wallet: user.WalletOrEmpty(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.signer.Issuer,
			Subject:   user.ID.String(),
			Audience:  jwt.ClaimStrings{t.cfg.Audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(t.cfg.AccessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	})
	if err != nil {
		return nil, err
	}
	refresh, err := t.signer.Sign(RefreshClaims{
		Type: tokenTypeRefresh,
		SID:  sess.ID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.signer.Issuer,
			Subject:   user.ID.String(),
			Audience:  jwt.ClaimStrings{t.cfg.Audience},
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        sess.RefreshID.String(),
		},
	})
	if err != nil {
		return nil, err
	}
	return &dto.TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(t.cfg.AccessTTL.Seconds()),
	}, nil
}

func normalizeIP(ip string) string {
	if normalized, ok := netutil.NormalizeIP(ip); ok {
		return normalized
	}
	return strings.TrimSpace(ip)
}
