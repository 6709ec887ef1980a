package main

import (
	"context"
	"errors"
	"os"
	"time"

	"wallet/internal/cli"
	applog "wallet/internal/log"
	"wallet/internal/services"
	"wallet/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentWorker)
	logger.Info("Starting wallet-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	res := cli.OpenBackend(context.Background(), logger, cfg)

	mirror, err := cli.OpenMirror(context.Background(), logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", applog.FieldError, err)
		res.Cleanup()
		os.Exit(1)
	}

	amqpClient, err := cli.ConnectAMQP(logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		res.Cleanup()
		os.Exit(1)
	}

	syncWorker := worker.NewSyncWorker(res.Store, mirror, logger)
	processor := services.NewSyncProcessor(res.Store, syncWorker, services.SyncProcessorConfig{
		PollInterval: cfg.SyncInterval,
	}, logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := processor.Stop(shutdownCtx); err != nil {
			logger.Error("Sync processor stop error", applog.FieldError, err)
		}
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Error("AMQP close error", applog.FieldError, err)
			}
		}
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", applog.FieldError, err)
		}
	})

	// The first reconcile runs immediately, covering writes made while
	// the worker was down.
	if err := processor.Start(ctx); err != nil {
		logger.Error("Failed to start sync processor", applog.FieldError, err)
		os.Exit(1)
	}

	if amqpClient != nil {
		go func() {
			err := amqpClient.ConsumeSync(ctx, syncWorker.HandleSyncMessage)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", applog.FieldError, err)
			}
		}()
	} else {
		logger.Info("Skipping AMQP message consumption - relying on periodic reconcile",
			"interval", cfg.SyncInterval)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}
