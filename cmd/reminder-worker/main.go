package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"financitos/internal/amqp"
	"financitos/internal/cli"
	"financitos/internal/remote"
	"financitos/internal/scheduler"
	"financitos/internal/services"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	logger.Info("Starting reminder-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(cfg.LogLevel, cfg.LogFormat)

	loc := cli.InitLocation(logger, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := cli.InitWorkerBackend(ctx, logger, cfg)
	defer store.Cleanup()

	// Auto-sync is handed to financitos-worker when a broker is available.
	var (
		publisher      services.SyncPublisher
		reminderClient *amqp.Client
	)
	if cfg.AMQPURL != "" {
		syncClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP sync client, syncing inline", "error", err)
		} else {
			defer syncClient.Close()
			publisher = syncClient
		}

		reminderClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPReminderQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP reminder client, reminders disabled", "error", err)
			reminderClient = nil
		} else {
			defer reminderClient.Close()
		}
	} else {
		logger.Info("AMQP disabled - reminders will not be published")
	}

	var uploader remote.BackupUploader
	if publisher == nil {
		uploader = cli.InitUploader(ctx, logger, cfg)
	}

	opts := services.Options{Location: loc}
	settings := services.NewSettingsService(store.Accessor)
	months := services.NewMonthService(store.Accessor, opts)
	backup := services.NewBackupService(store.Accessor, uploader, publisher, opts)

	sched := scheduler.New(ctx, loc, cfg.JobTimeout)

	if err := sched.AddJob(cfg.AutoSyncSchedule, scheduler.NewAutoSyncJob(settings, backup)); err != nil {
		logger.Error("Failed to schedule auto sync", "error", err, "schedule", cfg.AutoSyncSchedule)
		os.Exit(1)
	}

	if reminderClient != nil {
		reminder := scheduler.NewReminderJob(settings, months, reminderClient, func() time.Time { return time.Now().In(loc) })
		watch := scheduler.NewReminderScheduleJob(sched, settings, reminder)
		if err := sched.AddJob(scheduler.DefaultReminderWatcher, watch); err != nil {
			logger.Error("Failed to schedule reminder watcher", "error", err)
			os.Exit(1)
		}
		// Register the reminder right away instead of waiting for the first tick.
		if err := sched.RunNow(watch); err != nil {
			logger.Warn("Initial reminder schedule failed", "error", err)
		}
	}

	sched.Start()
	logger.Info("Scheduler running",
		"auto_sync_schedule", cfg.AutoSyncSchedule,
		"timezone", loc.String(),
		"reminders", reminderClient != nil)

	<-ctx.Done()
	logger.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sched.Stop(shutdownCtx)
	logger.Info("Reminder worker stopped")
}
