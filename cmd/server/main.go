package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ai-board-of-directors/backend/internal/models"
	"ai-board-of-directors/backend/pkg/cache"
	"ai-board-of-directors/backend/pkg/config"
	"ai-board-of-directors/backend/pkg/di"
	"ai-board-of-directors/backend/pkg/grpcserver"
	"ai-board-of-directors/backend/pkg/health"
	"ai-board-of-directors/backend/pkg/logger"
	"ai-board-of-directors/backend/pkg/observability"
	"ai-board-of-directors/backend/pkg/router"
	"ai-board-of-directors/backend/pkg/secrets"
)

func main() {
	cfg := config.New()

	logConfig := logger.DefaultConfig()
	logConfig.Level = cfg.Logging.Level
	logConfig.JSON = cfg.Logging.Format != "text"

	log := logger.New(logConfig)
	logger.SetGlobal(log)

	log.Info("Starting application", "version", os.Getenv("APP_VERSION"), "env", cfg.Server.Env)

	if err := run(cfg, log); err != nil {
		log.LogError(err, "Server exited with error")
		os.Exit(1)
	}
	log.Info("Server exited gracefully")
}

func run(cfg *config.Config, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := config.NewDB(ctx, log)
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		return err
	}

	secretManager, err := secrets.New(log)
	if err != nil {
		log.LogError(err, "Vault unavailable, falling back to environment secrets")
		secretManager = secrets.EnvManager{}
	}

	checker := health.NewChecker(log, 30*time.Second)
	checker.RegisterPinger("database", true, func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	})

	store, closeCache := newCache(ctx, cfg, log, checker)
	defer closeCache()

	var metricsHandler http.Handler
	metrics := observability.NoopMetrics()
	if cfg.Observability.MetricsEnabled {
		prom, err := observability.SetupPrometheus()
		if err != nil {
			return err
		}
		defer func() { _ = prom.Provider.Shutdown(context.Background()) }()
		if metrics, err = observability.NewMetrics(prom.Provider); err != nil {
			return err
		}
		metricsHandler = prom.Handler
	}

	if cfg.Observability.EnableTracing {
		shutdownTracing, err := observability.SetupTracing(cfg.Observability.ServiceName, os.Stdout)
		if err != nil {
			return err
		}
		defer func() { _ = shutdownTracing(context.Background()) }()
	}

	// The hub outlives request contexts but stops with the process
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()

	container, err := di.New(hubCtx, db, cfg, di.Deps{
		Logger:  log,
		Secrets: secretManager,
		Cache:   store,
		Metrics: metrics,
	})
	if err != nil {
		return err
	}
	go container.Hub.Run()

	r := router.New(container, router.Options{
		Health:  checker,
		Metrics: metricsHandler,
		Tracing: cfg.Observability.EnableTracing,
	})
	r.SetupRoutes()

	go checker.Start(ctx)
	go r.RunCleanup(ctx)

	if lis, err := grpcserver.Listen(cfg.Server.GRPCPort); err != nil {
		log.LogError(err, "gRPC health server disabled")
	} else {
		go func() {
			if err := grpcserver.New(checker, log).Serve(ctx, lis, 10*time.Second); err != nil {
				log.LogError(err, "gRPC health server stopped")
			}
		}()
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down server...")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.Timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.LogError(err, "Server forced to shutdown")
	}

	// Let in-flight board replies land before closing the database
	stopHub()
	done := make(chan struct{})
	go func() {
		container.Hub.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-shutdownCtx.Done():
		log.Warn("Timed out waiting for in-flight chat submissions")
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	return nil
}

// newCache picks the translation cache backend. Redis failures fall back to memory.
func newCache(ctx context.Context, cfg *config.Config, log *logger.Logger, checker *health.Checker) (cache.Store, func()) {
	if cfg.Cache.Backend == "redis" {
		r, err := cache.NewRedis(ctx, cfg.Cache.RedisURL, "board:translation:", cfg.Cache.TTL)
		if err == nil {
			checker.RegisterPinger("redis", false, r.Ping)
			log.Info("Using redis cache", "addr", cfg.Cache.RedisURL)
			return r, func() { _ = r.Close() }
		}
		log.LogError(err, "Redis unavailable, using in-memory cache")
	}

	m := cache.NewMemory(cache.Options{
		DefaultTTL:      cfg.Cache.TTL,
		MaxItems:        cfg.Cache.MaxSize,
		CleanupInterval: cfg.Cache.PurgeWindow,
	})
	return m, m.Close
}
