package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"ghonsi-proof/internal/domain"
	"ghonsi-proof/internal/httpx"
	"ghonsi-proof/internal/netutil"
	obsmw "ghonsi-proof/internal/observability/middleware"

	"github.com/google/uuid"
)

// Principal is the authenticated caller.
type Principal struct {
	UserID    uuid.UUID
	SessionID string
	Role      string
	Wallet    string
}

func (p Principal) IsAdmin() bool { return p.Role == domain.RoleAdmin }

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

func bearerToken(r *http.Request) string {
	raw := r.Header.Get("Authorization")
	if len(raw) < len("bearer ") || !strings.EqualFold(raw[:len("bearer ")], "bearer ") {
		return ""
	}
	return strings.TrimSpace(raw[len("bearer "):])
}

// authenticate requires a valid access token on the request.
func (h *handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := bearerToken(r)
		if tok == "" {
			httpx.WriteError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		claims, err := h.svc.Tokens.VerifyAccess(r.Context(), tok)
		if err != nil {
			slog.Warn("access token rejected", append(obsmw.LogAttrs(r.Context()), "error", err)...)
			httpx.WriteError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		userID, err := claims.UserID()
		if err != nil {
			httpx.WriteError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		ctx := WithPrincipal(r.Context(), Principal{
			UserID:    userID,
			SessionID: claims.SID,
			Role:      claims.Role,
			Wallet:    claims.Wallet,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFrom(r.Context())
		if !ok || !p.IsAdmin() {
			httpx.WriteError(w, http.StatusForbidden, "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// principal returns the caller; only used behind authenticate.
func principal(r *http.Request) Principal {
	p, _ := PrincipalFrom(r.Context())
	return p
}

func (h *handler) clientIP(r *http.Request) string {
	return netutil.ClientIP(r, h.opts.TrustProxy)
}
