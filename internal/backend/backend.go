// Package backend builds the storage stack selected by configuration:
// a storage medium, an optional read cache in front of it, and the
// Storage Accessor the services run on.
package backend

import (
	"context"
	"fmt"
	"time"

	"financitos/internal/cache"
	"financitos/internal/config"
	"financitos/internal/storage"
)

// BackendType represents the type of storage backend
type BackendType string

const (
	MemoryBackend BackendType = "memory"
	SQLiteBackend BackendType = "sqlite"
	RedisBackend  BackendType = "redis"
)

func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, RedisBackend:
		return true
	}
	return false
}

func (bt BackendType) String() string { return string(bt) }

// Config holds the settings needed to open a backend
type Config struct {
	Type         BackendType
	SQLiteDBPath string
	RedisURL     string
	RedisPrefix  string
	CacheSize    int
	CacheTTL     time.Duration
}

// Pinger is implemented by media that can report liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// BackendResult is what the factory hands back to the commands.
type BackendResult struct {
	Medium   storage.Medium
	Accessor *storage.Accessor
	Caches   *cache.Manager
	Cleanup  func()
}

// Ping checks the underlying medium when it supports it.
func (r *BackendResult) Ping(ctx context.Context) error {
	if p, ok := r.Medium.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type:         backendType,
		SQLiteDBPath: appConfig.SQLiteDBPath,
		RedisURL:     appConfig.RedisURL,
		RedisPrefix:  appConfig.RedisPrefix,
		CacheSize:    appConfig.CacheSize,
		CacheTTL:     appConfig.CacheTTL,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
	case RedisBackend:
		if c.RedisURL == "" {
			return fmt.Errorf("Redis URL is required for redis backend")
		}
	case MemoryBackend:
		// nothing to check
	}

	if c.CacheSize < 0 {
		return fmt.Errorf("cache size cannot be negative")
	}
	return nil
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{MemoryBackend, SQLiteBackend, RedisBackend}
}
