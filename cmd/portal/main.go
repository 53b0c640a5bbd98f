package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"moul.io/chizap"

	"github.com/objaverse/platform/internal/config"
	"github.com/objaverse/platform/internal/health"
	"github.com/objaverse/platform/internal/portal"
	"github.com/objaverse/platform/internal/token"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load(logger)
	if err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}
	if cfg.Upstream.AuthServiceURL == "" || cfg.Upstream.APIServiceURL == "" {
		logger.Fatal("invalid configuration",
			zap.String("required", "AUTH_SERVICE_URL and API_SERVICE_URL"))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	authClient := portal.NewClient(cfg.Upstream.AuthServiceURL, cfg.Upstream.CallTimeout)
	apiClient := portal.NewClient(cfg.Upstream.APIServiceURL, cfg.Upstream.CallTimeout)

	tokens := token.NewService(logger, cfg.TokenConfig, nil)
	portalHandler := portal.NewHandler(authClient, apiClient, tokens, logger)

	probeClient := &http.Client{Timeout: cfg.HealthConfig.ProbeTimeout}
	checker := health.NewChecker(cfg.HealthConfig, logger,
		health.UpstreamProbe("auth-service", authClient.BaseURL(), probeClient),
		health.UpstreamProbe("resource-service", apiClient.BaseURL(), probeClient),
	)
	healthHandler := health.NewHandler(checker)

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))
	r.Use(chizap.New(logger, &chizap.Opts{}))
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Mount("/portal", portalHandler.Routes())

	srv := &http.Server{
		Addr:         ":" + cfg.AppConfig.Port,
		Handler:      r,
		ReadTimeout:  cfg.AppConfig.ReadTimeout,
		WriteTimeout: cfg.AppConfig.WriteTimeout,
		IdleTimeout:  cfg.AppConfig.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		checker.Run(gctx)
		return nil
	})
	g.Go(func() error {
		logger.Info("portal listening", zap.String("port", cfg.AppConfig.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("portal exited", zap.Error(err))
	}
	logger.Info("portal stopped")
}
