package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"covault/internal/identity"
	"covault/internal/platform/config"
	"covault/internal/platform/httpserver"
	"covault/internal/platform/logger"
	httpmetrics "covault/internal/platform/metrics"
	"covault/internal/vault/handler"
	vaultmetrics "covault/internal/vault/metrics"
	"covault/internal/vault/service"
	"covault/internal/vault/store"
	"covault/internal/vault/sweeper"
	auditpublisher "covault/pkg/platform/audit/publisher"
)

const (
	shutdownTimeout = httpserver.DefaultShutdownTimeout
	auditBuffer     = 256
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "covault: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	vaultMetrics := vaultmetrics.New(reg)

	blobs, closeBlobs, err := openBlobStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeBlobs()

	auditStore, closeAudit, err := openAuditStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeAudit()
	publisher := auditpublisher.NewPublisher(auditStore,
		auditpublisher.WithAsyncBuffer(auditBuffer),
		auditpublisher.WithLogger(log),
	)
	// Drain buffered audit events before the sink closes.
	defer publisher.Close()

	gateway := store.NewGateway(blobs,
		store.WithKey(cfg.Store.Key),
		store.WithTimeout(cfg.Store.Timeout),
		store.WithLogger(log),
		store.WithLostUpdateObserver(vaultMetrics.IncLostUpdates),
	)
	vaults, err := service.New(gateway,
		service.WithLogger(log),
		service.WithAuditPublisher(publisher),
		service.WithMetrics(vaultMetrics),
	)
	if err != nil {
		return err
	}

	resolver := identity.NewResolver(cfg.JWTSigningKey, cfg.JWTIssuer)
	if cfg.JWTSigningKey == "" {
		log.Warn("JWT_SIGNING_KEY not set, trusting X-Participant-ID header")
	}

	router := chi.NewRouter()
	router.Get("/healthz", handler.Health)
	router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	handler.New(vaults, resolver, log, httpmetrics.New(reg)).Register(router)

	srv := httpserver.New(cfg.Addr, router)
	sweep := sweeper.New(vaults, cfg.SweepInterval, sweeper.WithLogger(log))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting covault", "addr", cfg.Addr, "store", cfg.Store.Backend)
		return httpserver.Serve(gctx, srv, shutdownTimeout, log)
	})
	g.Go(func() error {
		if err := sweep.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	return g.Wait()
}
