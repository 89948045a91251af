package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	applog "financitos/internal/log"
	"financitos/internal/remote"
	"financitos/internal/storage"
)

// ErrMalformedImport rejects an import payload as a whole.
var ErrMalformedImport = storage.ErrMalformedImport

var (
	ErrSyncNotConfigured = fmt.Errorf("%w: remote store not configured", remote.ErrSyncFailed)
	ErrSyncDisabled      = fmt.Errorf("%w: drive sync disabled in settings", remote.ErrSyncFailed)
)

// SyncPublisher enqueues a sync request for the worker.
type SyncPublisher interface {
	PublishSyncRequest(ctx context.Context, reason string) error
}

// SyncResult is returned to callers of Sync and RequestSync.
type SyncResult struct {
	remote.UploadResult
	FileName string `json:"fileName,omitempty"`
	Queued   bool   `json:"queued,omitempty"`
}

// BackupService handles full-state export, import and remote sync.
type BackupService struct {
	store     *storage.Accessor
	uploader  remote.BackupUploader
	publisher SyncPublisher
	opts      Options
}

// NewBackupService wires the export/import path. uploader and publisher
// are optional; without an uploader Sync fails with ErrSyncNotConfigured
// and without a publisher RequestSync runs the sync inline.
func NewBackupService(store *storage.Accessor, uploader remote.BackupUploader, publisher SyncPublisher, opts Options) *BackupService {
	return &BackupService{
		store:     store,
		uploader:  uploader,
		publisher: publisher,
		opts:      opts.withDefaults(),
	}
}

func (s *BackupService) Export(ctx context.Context) storage.Snapshot {
	return s.store.Export(ctx)
}

// ExportJSON serializes the full state in the backup file format.
func (s *BackupService) ExportJSON(ctx context.Context) ([]byte, error) {
	return s.store.ExportAll(ctx)
}

func (s *BackupService) Import(ctx context.Context, data []byte) (storage.ImportResult, error) {
	return s.store.ImportAll(ctx, data)
}

// ClearAll removes every stored record.
func (s *BackupService) ClearAll(ctx context.Context) error {
	if err := s.store.ClearAll(ctx); err != nil {
		return err
	}
	slog.InfoContext(ctx, "All data cleared", applog.FieldComponent, applog.ComponentBackup, "operation", "delete")
	return nil
}

// Sync uploads a fresh export to the remote store and stamps
// settings.lastSync on success. Failures wrap remote.ErrSyncFailed and are
// not retried.
func (s *BackupService) Sync(ctx context.Context) (SyncResult, error) {
	if s.uploader == nil {
		return SyncResult{UploadResult: remote.UploadResult{Error: ErrSyncNotConfigured.Error()}}, ErrSyncNotConfigured
	}
	settings := s.store.GetSettings(ctx)
	if !settings.DriveEnabled {
		return SyncResult{UploadResult: remote.UploadResult{Error: ErrSyncDisabled.Error()}}, ErrSyncDisabled
	}

	content, err := s.store.ExportAll(ctx)
	if err != nil {
		err = fmt.Errorf("%w: %w", remote.ErrSyncFailed, err)
		return SyncResult{UploadResult: remote.UploadResult{Error: err.Error()}}, err
	}

	now := s.opts.now()
	name := remote.BackupFileName(now)
	res, err := s.uploader.UploadBackup(ctx, name, content)
	result := SyncResult{UploadResult: res, FileName: name}
	if err != nil {
		if !errors.Is(err, remote.ErrSyncFailed) {
			err = fmt.Errorf("%w: %w", remote.ErrSyncFailed, err)
		}
		if result.Error == "" {
			result.Error = err.Error()
		}
		result.Success = false
		slog.ErrorContext(ctx, "Remote sync failed",
			applog.FieldComponent, applog.ComponentBackup, "operation", "sync", "file_name", name, "error", err)
		return result, err
	}

	settings.LastSync = &now
	if err := s.store.SaveSettings(ctx, settings); err != nil {
		// the upload itself succeeded
		slog.ErrorContext(ctx, "Failed to record last sync time",
			applog.FieldComponent, applog.ComponentBackup, "operation", "sync", "error", err)
	}

	slog.InfoContext(ctx, "Remote sync completed",
		applog.FieldComponent, applog.ComponentBackup,
		"operation", "sync",
		"file_name", name,
		"file_id", res.FileID)
	return result, nil
}

// RequestSync enqueues a sync for the worker when a publisher is wired and
// otherwise syncs inline.
func (s *BackupService) RequestSync(ctx context.Context, reason string) (SyncResult, error) {
	if s.publisher == nil {
		return s.Sync(ctx)
	}
	if err := s.publisher.PublishSyncRequest(ctx, reason); err != nil {
		slog.WarnContext(ctx, "Could not enqueue sync request, syncing inline",
			applog.FieldComponent, applog.ComponentBackup, "operation", "sync", "error", err)
		return s.Sync(ctx)
	}
	return SyncResult{UploadResult: remote.UploadResult{Success: true}, Queued: true}, nil
}
