package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/crisvalt/billrelay-go/internal/config"
	"github.com/crisvalt/billrelay-go/internal/domain"
	"github.com/crisvalt/billrelay-go/internal/handler"
	"github.com/crisvalt/billrelay-go/internal/infra/cache"
	"github.com/crisvalt/billrelay-go/internal/infra/gateway"
	"github.com/crisvalt/billrelay-go/internal/infra/memstore"
	"github.com/crisvalt/billrelay-go/internal/infra/observability"
	"github.com/crisvalt/billrelay-go/internal/infra/resilience"
	"github.com/crisvalt/billrelay-go/internal/service"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	if cfg.WebhookSecret == "" {
		logger.Fatal("WEBHOOK_SECRET must be set")
	}
	if cfg.PrintAPIKey == "" && cfg.PrintAPIKeyHash == "" {
		logger.Fatal("PRINT_API_KEY or PRINT_API_KEY_HASH must be set")
	}

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("item_source", cfg.ItemSource),
		zap.Duration("bill_retention", cfg.BillRetention),
		zap.Duration("token_retention", cfg.TokenRetention),
		zap.Duration("reaper_interval", cfg.ReaperInterval),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
	)

	// --- Tracing ---
	shutdownTracer, err := observability.InitTracer(cfg.OTLPEndpoint, "billrelay")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdownTracer(context.Background())

	// --- Stores ---
	billStore := memstore.NewBillStore()
	tokenStore := memstore.NewTokenStore()

	// --- Metrics ---
	metrics := observability.NewMetrics(billStore.UnprintedCount)

	// --- Order idempotency cache ---
	orderCache := cache.New[*domain.GatewayOrder](cfg.OrderCacheTTL)
	defer orderCache.Stop()

	// --- Gateway client ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxBackoff:     2 * time.Second,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("payment-gateway")
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	gatewayClient := gateway.NewClient(httpClient, cfg.GatewayBaseURL, cfg.GatewayKeyID, cfg.GatewayKeySecret, cb, resilienceCfg)

	// --- Services ---
	ingestSvc := service.NewIngestService(billStore, tokenStore, cfg.WebhookSecret, cfg.ItemSource, metrics, logger)
	printSvc := service.NewPrintService(billStore, cfg.BillRetention, metrics, logger)
	tokenSvc := service.NewTokenService(tokenStore, cfg.TokenRetention, metrics, logger)
	orderSvc := service.NewOrderService(gatewayClient, tokenSvc, orderCache, cfg.ItemSource, cfg.Currency, metrics, logger)
	reaper := service.NewReaper(printSvc, tokenSvc, cfg.ReaperInterval, logger)

	// --- Router ---
	router := handler.NewRouter(handler.Services{
		Ingest: ingestSvc,
		Print:  printSvc,
		Tokens: tokenSvc,
		Orders: orderSvc,
	}, cfg, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		err := reaper.Run(gCtx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("server shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}

	logger.Info("server stopped")
}
