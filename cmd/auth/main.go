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
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"moul.io/chizap"

	"github.com/objaverse/platform/internal/auth"
	"github.com/objaverse/platform/internal/config"
	"github.com/objaverse/platform/internal/database"
	"github.com/objaverse/platform/internal/health"
	"github.com/objaverse/platform/internal/lockout"
	"github.com/objaverse/platform/internal/middleware"
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
		// Refuse to start rather than run with a missing or malformed
		// secret. Safe to log in full: no request context yet.
		logger.Fatal("invalid configuration", zap.Error(err))
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

	// Redis is optional: without it the denylist and lockout state stay in
	// process, which is fine for a single instance.
	var denylist token.Denylist
	var lockoutStore lockout.Store
	probes := []health.Probe{health.DatabaseProbe(db)}
	if cfg.RedisConfig.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisConfig.Addr,
			Password: cfg.RedisConfig.Password,
			DB:       cfg.RedisConfig.DB,
		})
		defer rdb.Close()
		denylist = token.NewRedisDenylist(rdb)
		lockoutStore = lockout.NewRedisStore(rdb)
		probes = append(probes, health.RedisProbe(rdb))
	} else {
		denylist = token.NewMemoryDenylist()
		lockoutStore = lockout.NewMemoryStore()
	}

	principals := principal.NewPostgresRepo(db, logger)
	tokens := token.NewService(logger, cfg.TokenConfig, denylist)
	lockouts := lockout.NewService(lockoutStore, cfg.LockoutConfig, logger)
	authService := auth.NewService(principals, tokens, lockouts, logger)
	authHandler := auth.NewHandler(authService, tokens, logger)

	checker := health.NewChecker(cfg.HealthConfig, logger, probes...)
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
	r.With(middleware.RateLimit(20, time.Minute)).Mount("/", authHandler.Routes())

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
		logger.Info("auth service listening", zap.String("port", cfg.AppConfig.Port))
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
		logger.Fatal("auth service exited", zap.Error(err))
	}
	logger.Info("auth service stopped")
}
