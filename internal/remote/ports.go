// Package remote defines the outbound port used to push backups to a
// remote file store.
package remote

import (
	"context"
	"errors"
	"time"
)

// ErrSyncFailed wraps any failure reported by a remote uploader.
var ErrSyncFailed = errors.New("sync failed")

// UploadResult is what a remote store reports for one upload.
type UploadResult struct {
	Success bool   `json:"success"`
	FileID  string `json:"fileId,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Ports for outbound adapters.
type (
	// BackupUploader stores content under name, replacing an existing file
	// with the same name.
	BackupUploader interface {
		UploadBackup(ctx context.Context, name string, content []byte) (UploadResult, error)
	}
)

// BackupFileName names the backup for the day of t: backup_<yyyy-mm-dd>.json.
func BackupFileName(t time.Time) string {
	return "backup_" + t.Format("2006-01-02") + ".json"
}
