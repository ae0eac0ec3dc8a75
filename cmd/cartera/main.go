package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coopvalles/cartera-castigada-api/internal/config"
	"github.com/coopvalles/cartera-castigada-api/internal/domain"
	"github.com/coopvalles/cartera-castigada-api/internal/handler"
	"github.com/coopvalles/cartera-castigada-api/internal/infra/cache"
	"github.com/coopvalles/cartera-castigada-api/internal/infra/client"
	"github.com/coopvalles/cartera-castigada-api/internal/infra/observability"
	"github.com/coopvalles/cartera-castigada-api/internal/infra/resilience"
	"github.com/coopvalles/cartera-castigada-api/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("core_api_url", cfg.CoreAPIURL),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("snapshot_rows", cfg.SnapshotRows),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Duration("jwt_access_ttl", cfg.JWTAccessTTL),
		zap.Duration("jwt_refresh_ttl", cfg.JWTRefreshTTL),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "cartera-castigada-api")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Caches ---
	snapshotCache := cache.New[[]domain.AccountRecord](cfg.CacheTTL)
	gestionCache := cache.New[[]domain.Gestion](cfg.CacheTTL)
	sessionCache := cache.New[domain.RefreshSession](cfg.JWTRefreshTTL)

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("core-api")
	exportsBH := resilience.NewBulkhead(cfg.MaxConcurrency)

	// --- Clients ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	core := client.NewCore(httpClient, cfg.CoreAPIURL, cfg.CoreAPIKey, cb, resilienceCfg, logger)
	accountsClient := client.NewAccounts(core, cfg.SnapshotRows)
	gestionesClient := client.NewGestiones(core)

	// --- Services ---
	carteraSvc := service.NewCartera(
		accountsClient,
		accountsClient,
		gestionesClient,
		gestionesClient,
		snapshotCache,
		exportsBH,
		metrics,
		logger,
	)
	gestionSvc := service.NewGestionService(gestionesClient, gestionCache, metrics, logger)
	authSvc := service.NewAuthService(
		gestionesClient,
		sessionCache,
		cfg.JWTSecret,
		cfg.JWTAccessTTL,
		cfg.JWTRefreshTTL,
		logger,
	)

	// --- Router ---
	router := handler.NewRouter(carteraSvc, gestionSvc, authSvc, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
