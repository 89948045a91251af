package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financitos/internal/amqp"
	"financitos/internal/core"
	"financitos/internal/remote"
	"financitos/internal/services"
)

type fakeSyncer struct {
	calls int
	err   error
}

func (f *fakeSyncer) Sync(context.Context) (services.SyncResult, error) {
	f.calls++
	if f.err != nil {
		return services.SyncResult{}, f.err
	}
	return services.SyncResult{UploadResult: remote.UploadResult{Success: true, FileID: "f1"}, FileName: "backup.json"}, nil
}

type staticSettings core.AppSettings

func (s staticSettings) Get(context.Context) core.AppSettings { return core.AppSettings(s) }

var now = time.Date(2024, 2, 10, 12, 0, 0, 0, time.UTC)

func newTestWorker(syncer Syncer, settings core.AppSettings) *SyncWorker {
	w := NewSyncWorker(syncer, staticSettings(settings), 0)
	w.now = func() time.Time { return now }
	return w
}

func TestHandleSyncMessage(t *testing.T) {
	ctx := context.Background()
	syncer := &fakeSyncer{}
	w := newTestWorker(syncer, core.DefaultSettings())

	require.NoError(t, w.HandleSyncMessage(ctx, &amqp.SyncRequestMessage{Reason: "manual", Timestamp: now.Add(-time.Minute)}))
	assert.Equal(t, 1, syncer.calls)

	// issued before the sync that just ran
	require.NoError(t, w.HandleSyncMessage(ctx, &amqp.SyncRequestMessage{Reason: "manual", Timestamp: now.Add(-time.Second)}))
	assert.Equal(t, 1, syncer.calls)

	require.NoError(t, w.HandleSyncMessage(ctx, &amqp.SyncRequestMessage{Reason: "manual", Timestamp: now.Add(time.Second)}))
	assert.Equal(t, 2, syncer.calls)
}

func TestHandleSyncMessageErrors(t *testing.T) {
	ctx := context.Background()
	msg := &amqp.SyncRequestMessage{Reason: "auto", Timestamp: now}

	dropped := newTestWorker(&fakeSyncer{err: services.ErrSyncDisabled}, core.DefaultSettings())
	assert.NoError(t, dropped.HandleSyncMessage(ctx, msg), "disabled sync is acknowledged")

	failing := newTestWorker(&fakeSyncer{err: errors.Join(remote.ErrSyncFailed, errors.New("timeout"))}, core.DefaultSettings())
	err := failing.HandleSyncMessage(ctx, msg)
	assert.ErrorIs(t, err, remote.ErrSyncFailed)
}

func TestStartupSyncCheck(t *testing.T) {
	ctx := context.Background()
	recent := now.Add(-time.Hour)
	stale := now.Add(-48 * time.Hour)

	tests := []struct {
		name     string
		settings core.AppSettings
		want     int
	}{
		{"auto sync off", core.AppSettings{DriveEnabled: true, NotificationTime: "10:00"}, 0},
		{"drive off", core.AppSettings{AutoSync: true, NotificationTime: "10:00"}, 0},
		{"never synced", core.AppSettings{AutoSync: true, DriveEnabled: true, NotificationTime: "10:00"}, 1},
		{"recent sync", core.AppSettings{AutoSync: true, DriveEnabled: true, LastSync: &recent, NotificationTime: "10:00"}, 0},
		{"stale sync", core.AppSettings{AutoSync: true, DriveEnabled: true, LastSync: &stale, NotificationTime: "10:00"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			syncer := &fakeSyncer{}
			require.NoError(t, newTestWorker(syncer, tt.settings).StartupSyncCheck(ctx))
			assert.Equal(t, tt.want, syncer.calls)
		})
	}
}
