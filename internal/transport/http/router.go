package http

import (
	"context"
	"net/http"
	"time"

	"ghonsi-proof/internal/httpx"
	obsmw "ghonsi-proof/internal/observability/middleware"
	"ghonsi-proof/internal/service"
	"ghonsi-proof/internal/service/impl"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// TokenVerifier checks bearer access tokens.
type TokenVerifier interface {
	VerifyAccess(ctx context.Context, token string) (*impl.AccessClaims, error)
}

type Services struct {
	Auth          service.AuthService
	Profiles      service.ProfileService
	Proofs        service.ProofService
	Messages      service.MessageService
	Wallets       service.WalletService
	Verifications service.VerificationService
	Tokens        TokenVerifier
	// JWKS returns the public signing keys; nil disables the endpoint.
	JWKS func() []map[string]any
	// Notifications serves the websocket endpoint; nil disables it.
	Notifications http.Handler
	// Files serves locally stored attachments under /files/.
	Files http.Handler
}

type Options struct {
	CORSOrigins        []string
	RateLimitPerMinute int
	MaxUploadBytes     int64
	TrustProxy         bool
	RequestTimeout     time.Duration
}

type handler struct {
	svc  Services
	opts Options
}

func NewRouter(svc Services, opts Options) http.Handler {
	if opts.RateLimitPerMinute <= 0 {
		opts.RateLimitPerMinute = 100
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 25 << 20
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	h := &handler{svc: svc, opts: opts}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(obsmw.WithRequestAndTrace)
	r.Use(obsmw.WithMetrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   originsOrAll(opts.CORSOrigins),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", httpx.Health)
	r.Handle("/metrics", promhttp.Handler())
	if svc.Notifications != nil {
		r.Get("/v1/notifications/ws", svc.Notifications.ServeHTTP)
	}
	if svc.Files != nil {
		r.Handle("/files/*", http.StripPrefix("/files/", svc.Files))
	}

	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(opts.RequestTimeout))
		r.Use(httprate.LimitByIP(opts.RateLimitPerMinute, time.Minute))

		r.Route("/v1/auth", func(r chi.Router) {
			r.Get("/jwks", h.jwks)
			r.Post("/otp/send", h.sendOTP)
			r.Post("/otp/verify", h.verifyOTP)
			r.Post("/register", h.register)
			r.Post("/login", h.login)
			r.Post("/wallet", h.walletSignIn)
			r.Post("/refresh", h.refresh)
			r.Post("/logout", h.logout)
		})

		r.Get("/v1/profiles", h.listProfiles)
		r.Get("/v1/profiles/by-wallet/{address}", h.profileByWallet)

		r.Group(func(r chi.Router) {
			r.Use(h.authenticate)

			r.Get("/v1/me", h.me)
			r.Post("/v1/account/link-wallet", h.linkWallet)
			r.Post("/v1/account/link-email", h.linkEmail)
			r.Delete("/v1/account", h.deleteAccount)
			r.Get("/v1/account/activity", h.accountActivity)

			r.Get("/v1/profiles/me", h.myProfile)
			r.Post("/v1/profiles/me", h.createProfile)
			r.Patch("/v1/profiles/me", h.updateProfile)

			r.Route("/v1/proofs", func(r chi.Router) {
				r.Post("/", h.createProof)
				r.Get("/", h.listProofs)
				r.Get("/stats", h.proofStats)
				r.Get("/{id}", h.getProof)
				r.Patch("/{id}", h.updateProof)
				r.Delete("/{id}", h.deleteProof)
				r.Get("/{id}/chain", h.proofChainStatus)
				r.Post("/{id}/mint", h.mintProof)
			})
			r.Post("/api/submit-proof", h.submitProof)

			r.Route("/v1/messages", func(r chi.Router) {
				r.Get("/", h.listMessages)
				r.Post("/", h.sendMessage)
				r.Get("/unread-count", h.unreadCount)
				r.Patch("/read-all", h.markAllRead)
				r.Patch("/{id}/read", h.markRead)
				r.Patch("/{id}/respond", h.respondMessage)
				r.Delete("/{id}", h.deleteMessage)
			})
			r.Post("/v1/portfolio-requests", h.requestPortfolio)

			r.Route("/v1/wallets", func(r chi.Router) {
				r.Get("/", h.listWallets)
				r.Post("/", h.bindWallet)
				r.Post("/{address}/primary", h.setPrimaryWallet)
				r.Delete("/{address}", h.unbindWallet)
			})

			r.Route("/v1/verification-requests", func(r chi.Router) {
				r.Get("/", h.listVerifications)
				r.Post("/", h.createVerification)
				r.Get("/incoming", h.incomingVerifications)
				r.Get("/{id}", h.getVerification)
				r.Patch("/{id}/respond", h.respondVerification)
				r.Delete("/{id}", h.deleteVerification)
			})

			r.Route("/v1/admin", func(r chi.Router) {
				r.Use(requireAdmin)
				r.Get("/stats", h.adminStats)
				r.Get("/proofs", h.adminProofs)
				r.Patch("/proofs/{id}/status", h.adminSetStatus)
				r.Patch("/users/{id}/disabled", h.adminSetUserDisabled)
			})
		})

		r.Get("/v1/profiles/{userID}", h.getProfile)
		r.Get("/v1/profiles/{userID}/proofs", h.profileProofs)
	})
	return r
}

func (h *handler) jwks(w http.ResponseWriter, r *http.Request) {
	if h.svc.JWKS == nil {
		httpx.WriteError(w, http.StatusNotFound, "not found")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"keys": h.svc.JWKS()})
}

func originsOrAll(in []string) []string {
	if len(in) == 0 {
		return []string{"*"}
	}
	return in
}
