// Package cli provides common CLI initialization utilities shared by
// cmd/financitos, cmd/financitos-worker and cmd/reminder-worker.
package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"financitos/internal/backend"
	"financitos/internal/config"
	applog "financitos/internal/log"
	"financitos/internal/remote"
	"financitos/internal/remote/google"
)

// SetupLogger initializes structured logging from LOG_LEVEL / LOG_FORMAT.
// Returns the configured logger and sets it as the default logger.
func SetupLogger(level, format string) *slog.Logger {
	return setupLogger(os.Stdout, level, format)
}

func setupLogger(w io.Writer, level, format string) *slog.Logger {
	logger := slog.New(applog.NewHandler(w, format, applog.ParseLevel(level)))
	slog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *slog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// InitLocation resolves the configured time zone or exits the process.
func InitLocation(logger *slog.Logger, cfg *config.Config) *time.Location {
	loc, err := cfg.Location()
	if err != nil {
		logger.Error("Invalid timezone", "error", err, "timezone", cfg.Timezone)
		os.Exit(1)
	}
	return loc
}

// InitBackend opens the configured storage backend.
// Returns the backend or exits the process on failure.
func InitBackend(ctx context.Context, logger *slog.Logger, cfg *config.Config) *backend.BackendResult {
	return initBackend(ctx, logger, cfg, true)
}

// InitWorkerBackend opens the backend without the read cache. Workers
// share the medium with the API server, so every read must hit it.
func InitWorkerBackend(ctx context.Context, logger *slog.Logger, cfg *config.Config) *backend.BackendResult {
	return initBackend(ctx, logger, cfg, false)
}

func initBackend(ctx context.Context, logger *slog.Logger, cfg *config.Config, cached bool) *backend.BackendResult {
	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	if !cached {
		bc.CacheSize = 0
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bc)
	if err != nil {
		logger.Error("Failed to initialize storage backend", "error", err, "backend", bc.Type.String())
		os.Exit(1)
	}
	return res
}

// InitUploader builds the Drive uploader when OAuth material is configured.
// A nil uploader means backups cannot be synced; the services report
// that as "not configured".
func InitUploader(ctx context.Context, logger *slog.Logger, cfg *config.Config) remote.BackupUploader {
	if !cfg.DriveConfigured() {
		logger.Info("Google Drive not configured, remote sync disabled")
		return nil
	}
	client, err := google.NewFromConfig(ctx, google.Config{
		ClientJSON: cfg.GoogleOAuthClientJSON,
		ClientFile: cfg.GoogleOAuthClientFile,
		TokenJSON:  cfg.GoogleOAuthTokenJSON,
		TokenFile:  cfg.GoogleOAuthTokenFile,
		RootFolder: cfg.DriveRootFolder,
		DataFolder: cfg.DriveDataFolder,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Drive client, remote sync disabled", "error", err)
		return nil
	}
	logger.Info("Google Drive uploader ready", "root", cfg.DriveRootFolder, "data", cfg.DriveDataFolder)
	return client
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete.
func GracefulShutdown(logger *slog.Logger, timeout time.Duration, cleanup func()) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()

		finished := make(chan struct{})
		go func() {
			if cleanup != nil {
				cleanup()
			}
			close(finished)
		}()

		select {
		case <-finished:
			logger.Info("Shutdown complete")
		case <-time.After(timeout):
			logger.Warn("Shutdown timeout reached")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup ran.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
