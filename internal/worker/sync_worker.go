package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"financitos/internal/amqp"
	"financitos/internal/core"
	applog "financitos/internal/log"
	"financitos/internal/services"
)

// Syncer performs one full export-and-upload.
type Syncer interface {
	Sync(ctx context.Context) (services.SyncResult, error)
}

type SettingsReader interface {
	Get(ctx context.Context) core.AppSettings
}

// SyncWorker handles sync requests delivered over AMQP
type SyncWorker struct {
	syncer   Syncer
	settings SettingsReader
	maxAge   time.Duration
	now      func() time.Time

	mu          sync.Mutex
	lastSuccess time.Time
}

// NewSyncWorker builds a worker. maxAge is how old the last successful sync
// may be before StartupSyncCheck runs one.
func NewSyncWorker(syncer Syncer, settings SettingsReader, maxAge time.Duration) *SyncWorker {
	if maxAge <= 0 {
		maxAge = 24 * time.Hour
	}
	return &SyncWorker{
		syncer:   syncer,
		settings: settings,
		maxAge:   maxAge,
		now:      time.Now,
	}
}

// HandleSyncMessage processes a single sync request. Requests issued before
// the last successful sync are already covered and are skipped. A sync that
// cannot succeed because Drive is disabled or not configured is logged and
// acknowledged.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.SyncRequestMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		applog.FieldComponent, applog.ComponentWorker,
		"reason", msg.Reason,
		"requested_at", msg.Timestamp)

	w.mu.Lock()
	last := w.lastSuccess
	w.mu.Unlock()
	if !last.IsZero() && !msg.Timestamp.IsZero() && msg.Timestamp.Before(last) {
		slog.InfoContext(ctx, "Sync request already covered, skipping",
			applog.FieldComponent, applog.ComponentWorker,
			"last_sync", last.Format(time.RFC3339))
		return nil
	}

	res, err := w.syncer.Sync(ctx)
	switch {
	case errors.Is(err, services.ErrSyncDisabled), errors.Is(err, services.ErrSyncNotConfigured):
		slog.WarnContext(ctx, "Sync request dropped", applog.FieldComponent, applog.ComponentWorker, "error", err)
		return nil
	case err != nil:
		return fmt.Errorf("sync backup: %w", err)
	}

	w.mu.Lock()
	w.lastSuccess = w.now()
	w.mu.Unlock()

	slog.InfoContext(ctx, "Successfully synced backup",
		applog.FieldComponent, applog.ComponentWorker,
		"file_name", res.FileName,
		"file_id", res.FileID)
	return nil
}

// StartupSyncCheck runs a sync at worker startup when auto-sync is on and
// the last recorded sync is missing or older than maxAge. This recovers
// from requests lost while the worker was down.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	settings := w.settings.Get(ctx)
	if !settings.AutoSync || !settings.DriveEnabled {
		slog.InfoContext(ctx, "Auto sync disabled, skipping startup sync", applog.FieldComponent, applog.ComponentWorker)
		return nil
	}
	if settings.LastSync != nil && w.now().Sub(*settings.LastSync) < w.maxAge {
		slog.InfoContext(ctx, "Last sync is recent, skipping startup sync",
			applog.FieldComponent, applog.ComponentWorker,
			"last_sync", settings.LastSync.Format(time.RFC3339))
		return nil
	}

	slog.InfoContext(ctx, "Backup is stale, syncing on startup", applog.FieldComponent, applog.ComponentWorker)
	return w.HandleSyncMessage(ctx, &amqp.SyncRequestMessage{Reason: "startup", Timestamp: w.now()})
}
