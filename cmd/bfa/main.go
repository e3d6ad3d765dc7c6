package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/realbarber/rbc-wallet-bfa-go/internal/config"
	"github.com/realbarber/rbc-wallet-bfa-go/internal/handler"
	"github.com/realbarber/rbc-wallet-bfa-go/internal/infra/cache"
	"github.com/realbarber/rbc-wallet-bfa-go/internal/infra/client"
	"github.com/realbarber/rbc-wallet-bfa-go/internal/infra/guard"
	"github.com/realbarber/rbc-wallet-bfa-go/internal/infra/observability"
	"github.com/realbarber/rbc-wallet-bfa-go/internal/infra/resilience"
	"github.com/realbarber/rbc-wallet-bfa-go/internal/port"
	"github.com/realbarber/rbc-wallet-bfa-go/internal/service"
	"github.com/realbarber/rbc-wallet-bfa-go/internal/wallet"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	// --- Load .env file (for local development) ---
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to read .env: %v\n", err)
	}

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("ledger_base_url", cfg.LedgerBaseURL),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Float64("ledger_rate_limit", cfg.LedgerRateLimit),
		zap.Int("history_page_size", cfg.HistoryPageSize),
		zap.Duration("submit_guard_ttl", cfg.SubmitGuardTTL),
		zap.Bool("redis_guard", cfg.RedisURL != ""),
		zap.String("locale", cfg.Locale),
		zap.String("time_zone", cfg.TimeZone),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "rbc-wallet-bfa")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("ledger")

	var limiter *rate.Limiter
	if cfg.LedgerRateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.LedgerRateLimit), cfg.LedgerRateBurst)
	}

	// --- Clients ---
	zone, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		logger.Warn("unknown time zone, using UTC", zap.String("time_zone", cfg.TimeZone), zap.Error(err))
		zone = time.UTC
	}
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	ledgerClient := client.NewLedgerClient(httpClient, cfg.LedgerBaseURL, cb, resilienceCfg, limiter, zone)

	// --- Submission guard ---
	var submitGuard port.SubmissionGuard
	if cfg.RedisURL != "" {
		rdb, err := guard.NewRedisClient(context.Background(), cfg.RedisURL)
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer rdb.Close()
		submitGuard = guard.NewRedis(rdb, cfg.SubmitGuardTTL, logger)
		logger.Info("submission guard backed by redis")
	} else {
		store := cache.New[string](cfg.SubmitGuardTTL)
		defer store.Close()
		submitGuard = guard.NewMemory(store)
		logger.Info("submission guard in process memory")
	}

	// --- Presentation ---
	presenter := wallet.NewPresenter(
		wallet.LocaleFor(cfg.Locale),
		wallet.Avatars{Transfer: cfg.AvatarTransferURL, Business: cfg.AvatarBusinessURL},
		zone,
	)

	// --- Services ---
	walletSvc := service.NewWalletService(ledgerClient, submitGuard, presenter, metrics, logger, cfg.HistoryPageSize)

	// --- Router ---
	router := handler.NewRouter(walletSvc, metrics, logger, cfg.CORSAllowedOrigins)

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
