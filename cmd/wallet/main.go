package main

import (
	"context"
	"os"
	"time"

	"wallet/internal/cli"
	apphttp "wallet/internal/http"
	applog "wallet/internal/log"
	"wallet/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	res := cli.OpenBackend(context.Background(), logger, cfg)
	reports := cli.NewReportService(res, cfg, logger)

	// AMQP is optional: without it the worker's periodic reconcile keeps
	// the mirror current.
	publisher, err := cli.ConnectAMQP(logger, cfg)
	if err != nil {
		logger.Warn("Failed to initialize AMQP client, continuing without sync", applog.FieldError, err)
	}
	var ledger *services.LedgerService
	if publisher != nil {
		ledger = services.NewLedgerService(res.Store, publisher, logger)
	} else {
		ledger = services.NewLedgerService(res.Store, nil, logger)
	}

	srv := apphttp.NewServer(apphttp.Config{
		Addr:               cfg.Addr(),
		PageSize:           cfg.PageSize,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		TrustedProxies:     cfg.TrustedProxies,
	}, reports, ledger, res.Store, logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		if publisher != nil {
			if err := publisher.Close(); err != nil {
				logger.Error("AMQP close error", applog.FieldError, err)
			}
		}
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", applog.FieldError, err)
		}
	})

	logger.Info("Starting wallet server",
		"addr", cfg.Addr(),
		"backend", cfg.DataBackend,
		"cache", cfg.CacheBackend,
		"strict_categories", cfg.StrictCategories)
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("Server error", applog.FieldError, err, "addr", cfg.Addr())
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
