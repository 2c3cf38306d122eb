package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/chatflow-io/whatsapp-adapter/internal/api/router"
	"github.com/chatflow-io/whatsapp-adapter/internal/audit"
	appconfig "github.com/chatflow-io/whatsapp-adapter/internal/config"
	"github.com/chatflow-io/whatsapp-adapter/internal/conversation"
	"github.com/chatflow-io/whatsapp-adapter/internal/http/handlers"
	observemetrics "github.com/chatflow-io/whatsapp-adapter/internal/observability/metrics"
	"github.com/chatflow-io/whatsapp-adapter/internal/whatsapp"
	"github.com/chatflow-io/whatsapp-adapter/pkg/logging"
)

func main() {
	// Load .env if present; real environments set variables directly.
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting whatsapp-adapter",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	metrics := observemetrics.NewAdapterMetrics(nil)

	// Audit sink: structured log always, Postgres when configured.
	recorders := audit.MultiRecorder{audit.NewLogRecorder(logger)}
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect audit database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		recorders = append(recorders, audit.NewStore(pool, logger))
	}

	var responder conversation.Responder
	if cfg.EngineURL != "" {
		responder = conversation.NewHTTPResponder(cfg.EngineURL, cfg.GatewayAuthToken, cfg.EngineTimeout, logger)
	} else {
		logger.Warn("no engine configured; webhooks will be answered with empty envelopes")
	}

	dispatcher := whatsapp.NewDispatcher(cfg.CallbackTimeout, recorders, logger, metrics)

	webhook := handlers.NewWebhookHandler(handlers.WebhookConfig{
		Dialects: []whatsapp.Dialect{
			whatsapp.NewFormDialect(cfg.MatchingData),
			whatsapp.NewJSONDialect(cfg.GatewayBaseURL, cfg.GatewayAuthToken),
		},
		Responder:  responder,
		Dispatcher: dispatcher,
		Logger:     logger,
		Metrics:    metrics,
	})

	r := router.New(&router.Config{
		Logger:             logger,
		Webhook:            webhook,
		MetricsHandler:     promhttp.Handler(),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitRPS:       cfg.RateLimitRPS,
		RateLimitBurst:     cfg.RateLimitBurst,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
