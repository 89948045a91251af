package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"financitos/internal/amqp"
	"financitos/internal/cli"
	"financitos/internal/services"
	"financitos/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	logger.Info("Starting financitos-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(cfg.LogLevel, cfg.LogFormat)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the sync worker")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := cli.InitWorkerBackend(ctx, logger, cfg)
	defer store.Cleanup()

	uploader := cli.InitUploader(ctx, logger, cfg)
	if uploader == nil {
		logger.Warn("No Drive uploader available, sync requests will be rejected")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	// The worker performs uploads itself, so its backup service has no publisher.
	backup := services.NewBackupService(store.Accessor, uploader, nil, services.Options{Location: cli.InitLocation(logger, cfg)})
	settings := services.NewSettingsService(store.Accessor)
	syncWorker := worker.NewSyncWorker(backup, settings, cfg.SyncMaxAge)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Performing startup sync check...")
		if err := syncWorker.StartupSyncCheck(gctx); err != nil {
			// Not fatal; the next request retries.
			logger.Error("Failed startup sync check", "error", err)
		}
		return nil
	})

	g.Go(func() error {
		logger.Info("Consuming sync requests", "queue", cfg.AMQPQueue)
		return amqpClient.ConsumeSyncRequests(gctx, syncWorker.HandleSyncMessage)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
