package backend

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"financitos/internal/cache"
	applog "financitos/internal/log"
	"financitos/internal/storage"
)

const cacheCleanupInterval = time.Minute

// Factory opens backends
type Factory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{logger: logger}
}

// CreateBackend opens the configured medium, wraps it with an LRU read
// cache when CacheSize > 0 and builds the accessor on top.
func (f *Factory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var medium storage.Medium
	switch config.Type {
	case SQLiteBackend:
		m, err := storage.NewSQLiteMedium(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite medium: %w", err)
		}
		medium = m
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath, "schema_version", m.SchemaVersion())
	case RedisBackend:
		m, err := storage.NewRedisMedium(ctx, config.RedisURL, config.RedisPrefix)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Redis medium: %w", err)
		}
		medium = m
		f.logger.Info("Initialized Redis backend", "prefix", config.RedisPrefix)
	case MemoryBackend:
		medium = storage.NewMemoryMedium()
		f.logger.Info("Initialized memory backend")
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	var caches *cache.Manager
	if config.CacheSize > 0 {
		lru := cache.NewLRUCache[[]byte](config.CacheSize, config.CacheTTL)
		caches = cache.NewManager(f.logger)
		caches.Register(lru)
		caches.StartCleanup(cacheCleanupInterval)
		medium = storage.NewCachedMedium(medium, lru)
		f.logger.Info("Enabled storage read cache", "size", config.CacheSize, "ttl", config.CacheTTL)
	}

	accessor := storage.NewAccessor(medium, storage.WithLogger(applog.Wrap(f.logger, applog.ComponentStorage)))

	cleanup := func() {
		if caches != nil {
			caches.Stop()
		}
		if err := medium.Close(); err != nil {
			f.logger.Error("Failed to close storage medium", "error", err)
		}
	}

	return &BackendResult{
		Medium:   medium,
		Accessor: accessor,
		Caches:   caches,
		Cleanup:  cleanup,
	}, nil
}
