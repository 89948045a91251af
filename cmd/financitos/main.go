package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"financitos/internal/amqp"
	"financitos/internal/cli"
	apphttp "financitos/internal/http"
	applog "financitos/internal/log"
	"financitos/internal/services"
)

func main() {
	cli.LoadEnvFile()

	// Logging is configured before validation so config errors are structured.
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()
	store := cli.InitBackend(ctx, logger, cfg)
	uploader := cli.InitUploader(ctx, logger, cfg)

	// Sync requests go through the worker when a broker is configured,
	// otherwise POST /api/sync uploads inline.
	var publisher services.SyncPublisher
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, syncing inline", "error", err)
		} else {
			amqpClient = client
			publisher = client
			logger.Info("AMQP client initialized, sync requests will be queued", "queue", cfg.AMQPQueue)
		}
	}

	opts := services.Options{Location: cli.InitLocation(logger, cfg)}
	svc := apphttp.Services{
		Months:   services.NewMonthService(store.Accessor, opts),
		Shopping: services.NewShoppingService(store.Accessor, opts),
		Settings: services.NewSettingsService(store.Accessor),
		Backup:   services.NewBackupService(store.Accessor, uploader, publisher, opts),
		Rates:    services.NewRatesService(time.Now),
	}

	srv := apphttp.NewServer(apphttp.Config{
		Addr:               ":" + cfg.Port,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		AllowedOrigins:     cfg.CORSAllowedOrigins,
		Logger:             applog.Wrap(logger, applog.ComponentHTTP),
	}, svc, store)

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if amqpClient != nil {
			_ = amqpClient.Close()
		}
		store.Cleanup()
	})

	logger.Info("Starting financitos server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
}
