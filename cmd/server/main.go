package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/DukeRupert/mailgate/internal"
	"github.com/DukeRupert/mailgate/internal/email"
	"github.com/DukeRupert/mailgate/internal/handler"
	"github.com/DukeRupert/mailgate/internal/metrics"
	"github.com/DukeRupert/mailgate/internal/middleware"
)

func run() error {
	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	mailCfg := email.Config{
		Mode:         cfg.MailMode,
		ResendAPIKey: cfg.ResendAPIKey,
		SMTPHost:     cfg.SMTPHost,
		SMTPPort:     cfg.SMTPPort,
		SMTPSecure:   cfg.SMTPSecure,
		SMTPUser:     cfg.SMTPUser,
		SMTPPass:     cfg.SMTPPass,
		From:         cfg.MailFrom,
		EtherealUser: cfg.EtherealUser,
		EtherealPass: cfg.EtherealPass,
		Timeout:      cfg.SendTimeout,
	}

	// Probe the transport configuration once at startup so a misconfigured
	// deployment is visible in the logs immediately. Deliberately not fatal:
	// /health must stay up and each /send reports the problem itself.
	if _, err := email.NewSender(mailCfg, logger); err != nil {
		logger.Warn("mail transport not ready", "mode", cfg.MailMode, "error", err)
	} else {
		logger.Info("mail transport configured", "mode", cfg.MailMode)
	}

	if len(cfg.CORSOrigins) == 0 {
		logger.Warn("CORS_ORIGIN unset, allowing any origin (development only)")
	}

	// Initialize middleware
	isSecure := cfg.Env != "development"
	securityMw := middleware.NewSecurityHeadersMiddleware(isSecure)
	corsMw := middleware.NewCORSMiddleware(cfg.CORSOrigins)
	loggingMw := middleware.NewRequestLoggingMiddleware(logger)
	metricsAuthMw := middleware.NewMetricsAuthMiddleware(cfg.MetricsUsername, cfg.MetricsPassword)

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handler.Health)
	mux.Handle("POST /send", handler.NewSendHandler(mailCfg, logger))
	mux.Handle("GET /metrics", metricsAuthMw.Handler(promhttp.Handler()))

	stack := middleware.Stack(
		securityMw.Handler,
		corsMw.Handler,
		loggingMw.Handler,
		metrics.Middleware,
	)

	// ==========================================================================
	// Start server
	// ==========================================================================

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: stack(mux),
	}

	// Channel to listen for interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		logger.Info("Server started", "address", server.Addr, "env", cfg.Env, "mail_mode", cfg.MailMode)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
		}
	}()

	// Wait for interrupt signal
	<-sigChan
	logger.Info("Shutdown signal received, initiating graceful shutdown...")

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Graceful shutdown complete")
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
