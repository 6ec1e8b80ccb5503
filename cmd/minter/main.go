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

	"ghonsi-proof/internal/chain"
	"ghonsi-proof/internal/config"
	"ghonsi-proof/internal/db"
	"ghonsi-proof/internal/events"
	"ghonsi-proof/internal/httpx"
	"ghonsi-proof/internal/ipfs"
	"ghonsi-proof/internal/mq"
	"ghonsi-proof/internal/observability/logging"
	"ghonsi-proof/internal/observability/metrics"
	"ghonsi-proof/internal/pipeline"
	"ghonsi-proof/internal/store"
	"ghonsi-proof/internal/worker"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// backend mints and reports signature statuses.
type backend interface {
	chain.Minter
	chain.StatusReader
}

func main() {
	cfg := config.Load()

	logger := logging.NewLogger(logging.Config{
		ServiceName: "minter",
		Environment: cfg.Environment,
		Level:       cfg.LogLevel,
	})
	slog.SetDefault(logger)
	metrics.MustRegister("minter")

	logger.Info("starting service", "mint_mode", cfg.MintMode, "queue", cfg.MintQueue)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Error("minter stopped", "error", err)
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

	chainBackend, err := newBackend(cfg)
	if err != nil {
		return err
	}

	reconciler := &worker.Reconciler{Store: st, Reader: chainBackend, Batch: cfg.ReconcileBatch}
	if err := reconciler.Start(cfg.ReconcileSpec); err != nil {
		return err
	}
	defer reconciler.Stop()

	var closed <-chan struct{}
	if cfg.AMQPURL != "" {
		broker, err := mq.Dial(ctx, cfg.AMQPURL)
		if err != nil {
			return err
		}
		defer broker.Close()
		if err := broker.DeclareTopology(cfg.AMQPExchange, cfg.MintQueue, events.TypeProofMintRequested); err != nil {
			return err
		}
		p := &pipeline.Pipeline{
			Store:  st,
			IPFS:   ipfs.New(ipfs.Config{JWT: cfg.PinataJWT, APIURL: cfg.PinataAPIURL, GatewayURL: cfg.PinataGatewayURL}),
			Minter: chainBackend,
			Mode:   config.MintModeInline,
			Events: &events.AMQPPublisher{Broker: broker, Exchange: cfg.AMQPExchange},
		}
		consumer := &worker.MintConsumer{Pipeline: p}
		if err := broker.Consume(ctx, cfg.MintQueue, "ghonsi-minter", consumer.Handle); err != nil {
			return err
		}
		closed = connLost(broker)
	} else {
		slog.Warn("AMQP_URL not set, only the reconciler runs")
	}

	r := chi.NewRouter()
	r.Get("/healthz", httpx.Health)
	r.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: cfg.MinterAddr, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() {
		slog.Info("minter listening", "addr", cfg.MinterAddr)
		errc <- srv.ListenAndServe()
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case <-closed:
		runErr = errors.New("rabbitmq connection lost")
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	return runErr
}

// connLost closes its channel once the broker connection drops.
func connLost(broker *mq.RabbitMQ) <-chan struct{} {
	done := make(chan struct{})
	notify := broker.NotifyClose()
	go func() {
		if err := <-notify; err != nil {
			slog.Error("rabbitmq connection closed", "error", err)
			close(done)
		}
	}()
	return done
}

func newBackend(cfg config.Config) (backend, error) {
	if cfg.MintMode == config.MintModeSimulate {
		sim, err := chain.NewSimulator(cfg.ProgramID)
		if err != nil {
			return nil, err
		}
		return sim, nil
	}
	client, err := chain.NewClient(chain.Config{
		RPCURL:        cfg.SolanaRPCURL,
		Cluster:       cfg.SolanaCluster,
		ProgramID:     cfg.ProgramID,
		BackendKey:    cfg.BackendKey,
		MinBalanceSOL: cfg.MinBalanceSOL,
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}
