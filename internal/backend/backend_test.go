package backend

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financitos/internal/config"
	"financitos/internal/core"
	"financitos/internal/storage"
)

func TestBackendType(t *testing.T) {
	for _, bt := range GetBackendTypes() {
		assert.True(t, bt.IsValid(), bt.String())
	}
	assert.False(t, BackendType("postgres").IsValid())
	assert.False(t, BackendType("").IsValid())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: "x.db"}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"redis without url", Config{Type: RedisBackend}, true},
		{"unknown", Config{Type: "postgres"}, true},
		{"negative cache", Config{Type: MemoryBackend, CacheSize: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFromAppConfig(t *testing.T) {
	_, err := FromAppConfig(nil)
	assert.Error(t, err)

	_, err = FromAppConfig(&config.Config{DataBackend: "postgres"})
	assert.Error(t, err)

	cfg, err := FromAppConfig(&config.Config{
		DataBackend: "redis",
		RedisURL:    "redis://localhost:6379/0",
		RedisPrefix: "fin",
		CacheSize:   10,
		CacheTTL:    time.Minute,
	})
	require.NoError(t, err)
	assert.Equal(t, RedisBackend, cfg.Type)
	assert.Equal(t, "fin", cfg.RedisPrefix)
	assert.Equal(t, 10, cfg.CacheSize)
	assert.Equal(t, time.Minute, cfg.CacheTTL)
}

func roundTrip(t *testing.T, res *BackendResult) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, res.Ping(ctx))

	rec := core.NewMonthlyRecord("2024-03")
	require.NoError(t, res.Accessor.SaveMonth(ctx, rec))

	got, ok := res.Accessor.GetMonth(ctx, "2024-03")
	require.True(t, ok)
	assert.Equal(t, "2024-03", got.Month)
	assert.Equal(t, []string{"2024-03"}, res.Accessor.ListMonths(ctx))
}

func TestCreateMemoryBackend(t *testing.T) {
	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: MemoryBackend})
	require.NoError(t, err)
	defer res.Cleanup()

	assert.Nil(t, res.Caches)
	_, cached := res.Medium.(*storage.CachedMedium)
	assert.False(t, cached)
	roundTrip(t, res)
}

func TestCreateSQLiteBackendWithCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fin.db")
	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{
		Type:         SQLiteBackend,
		SQLiteDBPath: path,
		CacheSize:    8,
		CacheTTL:     time.Minute,
	})
	require.NoError(t, err)
	defer res.Cleanup()

	require.NotNil(t, res.Caches)
	_, cached := res.Medium.(*storage.CachedMedium)
	assert.True(t, cached)
	roundTrip(t, res)
}

func TestCreateRedisBackend(t *testing.T) {
	mr := miniredis.RunT(t)
	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{
		Type:        RedisBackend,
		RedisURL:    "redis://" + mr.Addr() + "/0",
		RedisPrefix: "test",
	})
	require.NoError(t, err)
	defer res.Cleanup()

	roundTrip(t, res)
}

func TestCreateBackendRejectsInvalidConfig(t *testing.T) {
	_, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: SQLiteBackend})
	assert.Error(t, err)
}

func TestTwoBackendsShareOneSQLiteFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "shared.db")
	cfg, err := FromAppConfig(&config.Config{DataBackend: "sqlite", SQLiteDBPath: path})
	require.NoError(t, err)
	require.Zero(t, cfg.CacheSize)

	server, err := NewFactory(nil).CreateBackend(ctx, cfg)
	require.NoError(t, err)
	defer server.Cleanup()
	worker, err := NewFactory(nil).CreateBackend(ctx, cfg)
	require.NoError(t, err)
	defer worker.Cleanup()

	rec := core.NewMonthlyRecord("2024-03")
	rec.Income = append(rec.Income, core.IncomeEntry{ID: "a", Source: "Salary", Amount: decimal.NewFromInt(100)})
	require.NoError(t, server.Accessor.SaveMonth(ctx, rec))

	got, ok := worker.Accessor.GetMonth(ctx, "2024-03")
	require.True(t, ok)
	assert.Len(t, got.Income, 1)

	rec.Income = append(rec.Income, core.IncomeEntry{ID: "b", Source: "Bonus", Amount: decimal.NewFromInt(50)})
	require.NoError(t, server.Accessor.SaveMonth(ctx, rec))

	got, ok = worker.Accessor.GetMonth(ctx, "2024-03")
	require.True(t, ok)
	assert.Len(t, got.Income, 2)

	s := core.DefaultSettings()
	s.DriveEnabled = true
	require.NoError(t, server.Accessor.SaveSettings(ctx, s))
	assert.True(t, worker.Accessor.GetSettings(ctx).DriveEnabled)
}
