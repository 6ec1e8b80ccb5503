package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ghonsi-proof/internal/blob"
	"ghonsi-proof/internal/chain"
	"ghonsi-proof/internal/config"
	"ghonsi-proof/internal/db"
	"ghonsi-proof/internal/events"
	"ghonsi-proof/internal/ipfs"
	"ghonsi-proof/internal/jwtsigner"
	"ghonsi-proof/internal/mq"
	"ghonsi-proof/internal/notify"
	"ghonsi-proof/internal/observability/logging"
	"ghonsi-proof/internal/observability/metrics"
	"ghonsi-proof/internal/pipeline"
	"ghonsi-proof/internal/service"
	impl "ghonsi-proof/internal/service/impl"
	"ghonsi-proof/internal/store"
	transport "ghonsi-proof/internal/transport/http"
)

func main() {
	cfg := config.Load()

	logger := logging.NewLogger(logging.Config{
		ServiceName: "api",
		Environment: cfg.Environment,
		Level:       cfg.LogLevel,
	})
	slog.SetDefault(logger)
	metrics.MustRegister("api")

	logger.Info("starting service", "mint_mode", cfg.MintMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Error("api stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	gdb, err := db.OpenGorm(db.Config{DSN: cfg.DatabaseURL, LogSQL: cfg.LogSQL})
	if err != nil {
		return err
	}
	st := store.New(gdb)
	if cfg.AutoMigrate {
		if err := st.Migrate(ctx); err != nil {
			return err
		}
	}

	signer, err := jwtsigner.NewFromBase64(cfg.JWTPrivateKey, cfg.JWTKeyID, cfg.Issuer)
	if err != nil {
		return err
	}
	if cfg.JWTPrivateKey == "" {
		slog.Warn("JWT_PRIVATE_KEY not set, using an ephemeral signing key")
	}
	tokens := impl.NewTokenService(impl.TokenConfig{
		Audience:   cfg.Audience,
		AccessTTL:  cfg.AccessTTL,
		RefreshTTL: cfg.RefreshTTL,
	}, signer, st)

	var email service.EmailService = impl.LogEmailService{}
	if cfg.SMTPAddr != "" {
		email = impl.NewSMTPEmailService(cfg.SMTPAddr, cfg.SMTPFrom, cfg.SMTPUser, cfg.SMTPPassword)
	}

	var pub events.Publisher = events.LogPublisher{}
	if cfg.AMQPURL != "" {
		broker, err := mq.Dial(ctx, cfg.AMQPURL)
		if err != nil {
			return err
		}
		defer broker.Close()
		if err := broker.DeclareTopology(cfg.AMQPExchange, cfg.MintQueue, events.TypeProofMintRequested); err != nil {
			return err
		}
		pub = &events.AMQPPublisher{Broker: broker, Exchange: cfg.AMQPExchange}
	}

	hub := notify.NewHub(func(ctx context.Context, token string) (string, error) {
		claims, err := tokens.VerifyAccess(ctx, token)
		if err != nil {
			return "", err
		}
		return claims.Subject, nil
	}, cfg.CORSOrigins)
	defer hub.Close()

	var notifier notify.Notifier = notify.Direct{Hub: hub}
	if db.IsPostgres(cfg.DatabaseURL) {
		pool, err := notify.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()
		go notify.Listen(ctx, pool, cfg.NotifyChannel, hub)
		notifier = notify.PG{Pool: pool, Channel: cfg.NotifyChannel}
	}

	files, filesHandler, err := newBlobStore(cfg)
	if err != nil {
		return err
	}

	p := &pipeline.Pipeline{
		Store:  st,
		Blob:   files,
		IPFS:   ipfs.New(ipfs.Config{JWT: cfg.PinataJWT, APIURL: cfg.PinataAPIURL, GatewayURL: cfg.PinataGatewayURL}),
		Minter: newMinter(cfg),
		Mode:   cfg.MintMode,
		Events: pub,
	}
	if !p.IPFS.Configured() {
		slog.Warn("PINATA_JWT not set, IPFS pinning is skipped")
	}

	messages := impl.NewMessageService(st, notifier, pub)
	proofs := impl.NewProofService(st, p, files, pub, cfg.SolanaCluster)
	auth := impl.NewAuthServiceImpl(st, impl.NewPasswordServiceArgon2id(), tokens, email, pub, impl.AuthConfig{
		OTPTTL:         cfg.OTPTTL,
		OTPMaxAttempts: cfg.OTPMaxAttempts,
		WalletWindow:   cfg.WalletLoginWindow,
		IsAdmin:        cfg.IsAdminEmail,
	})
	auth.Files = proofs
	svc := transport.Services{
		Auth:          auth,
		Profiles:      impl.NewProfileService(st, messages),
		Proofs:        proofs,
		Messages:      messages,
		Wallets:       impl.NewWalletService(st, cfg.WalletLoginWindow),
		Verifications: impl.NewVerificationService(st, email),
		Tokens:        tokens,
		JWKS:          func() []map[string]any { return []map[string]any{signer.PublicJWK()} },
		Notifications: http.HandlerFunc(hub.ServeWS),
		Files:         filesHandler,
	}
	router := transport.NewRouter(svc, transport.Options{
		CORSOrigins:        cfg.CORSOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		MaxUploadBytes:     cfg.MaxUploadBytes,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		slog.Info("api listening", "addr", cfg.Addr, "issuer", cfg.Issuer)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newBlobStore picks Supabase storage or the local directory. Local files are
// also served by the API.
func newBlobStore(cfg config.Config) (blob.Store, http.Handler, error) {
	if cfg.StorageBackend == "supabase" {
		if cfg.SupabaseURL == "" || cfg.SupabaseServiceKey == "" {
			return nil, nil, errors.New("STORAGE_BACKEND=supabase needs SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY")
		}
		return blob.NewSupabase(cfg.SupabaseURL, cfg.SupabaseServiceKey, cfg.StorageBucket), nil, nil
	}
	local, err := blob.NewLocal(cfg.StorageDir, cfg.StoragePublicURL)
	if err != nil {
		return nil, nil, err
	}
	return local, http.FileServer(http.Dir(cfg.StorageDir)), nil
}

// newMinter returns nil when no signing key is available; minting then answers
// as unavailable.
func newMinter(cfg config.Config) chain.Minter {
	if cfg.MintMode == config.MintModeSimulate {
		sim, err := chain.NewSimulator(cfg.ProgramID)
		if err != nil {
			slog.Error("invalid PROGRAM_ID, minting disabled", "error", err)
			return nil
		}
		return sim
	}
	client, err := chain.NewClient(chain.Config{
		RPCURL:        cfg.SolanaRPCURL,
		Cluster:       cfg.SolanaCluster,
		ProgramID:     cfg.ProgramID,
		BackendKey:    cfg.BackendKey,
		MinBalanceSOL: cfg.MinBalanceSOL,
	})
	if err != nil {
		slog.Warn("solana client unavailable, minting disabled", "error", err)
		return nil
	}
	return client
}
