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

	"github.com/objaverse/platform/internal/assignment"
	"github.com/objaverse/platform/internal/config"
	"github.com/objaverse/platform/internal/database"
	"github.com/objaverse/platform/internal/health"
	"github.com/objaverse/platform/internal/object"
	"github.com/objaverse/platform/internal/principal"
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
	if cfg.Upstream.AuthServiceURL == "" {
		logger.Fatal("invalid configuration", zap.String("missing", "AUTH_SERVICE_URL"))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Init(ctx, cfg.DbConfig)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	database.SetMigrationLogger(logger)
	if err := database.Migrate(ctx, db); err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}

	// Tokens verify locally against the shared secret; no per-request call
	// to the auth service is needed.
	tokens := token.NewService(logger, cfg.TokenConfig, nil)

	principals := principal.NewPostgresRepo(db, logger)
	objectRepo := object.NewPostgresRepo(db, logger)
	objectService := object.NewService(objectRepo, object.NewMemoryMediaStore(), logger)
	objectHandler := object.NewHandler(objectService, tokens, logger)

	assignmentRepo := assignment.NewPostgresRepo(db, logger)
	assignmentService := assignment.NewService(assignmentRepo, principals, cfg.Assignment, logger)
	assignmentHandler := assignment.NewHandler(assignmentService, tokens, logger)

	probeClient := &http.Client{Timeout: cfg.HealthConfig.ProbeTimeout}
	checker := health.NewChecker(cfg.HealthConfig, logger,
		health.DatabaseProbe(db),
		health.UpstreamProbe("auth-service", cfg.Upstream.AuthServiceURL, probeClient),
	)
	healthHandler := health.NewHandler(checker)

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))
	r.Use(chizap.New(logger, &chizap.Opts{}))
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Mount("/api/objects", objectHandler.Routes())
	r.Mount("/api/search", objectHandler.SearchRoutes())
	r.Mount("/api/assignments", assignmentHandler.Routes())

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
		logger.Info("resource service listening", zap.String("port", cfg.AppConfig.Port))
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
		logger.Fatal("resource service exited", zap.Error(err))
	}
	logger.Info("resource service stopped")
}
