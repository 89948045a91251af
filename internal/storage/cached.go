package storage

import (
	"context"
	"slices"

	"financitos/internal/cache"
)

// CachedMedium keeps recently read records in an LRU cache in front of
// another medium. Writes go through to the inner medium first and only
// touch the cache once they succeed.
type CachedMedium struct {
	inner Medium
	cache cache.Cache[[]byte]
}

func NewCachedMedium(inner Medium, c cache.Cache[[]byte]) *CachedMedium {
	return &CachedMedium{inner: inner, cache: c}
}

func (c *CachedMedium) Get(ctx context.Context, kind Kind, key string) ([]byte, error) {
	ck := kind.FlatKey(key)
	if data, ok := c.cache.Get(ck); ok {
		return slices.Clone(data), nil
	}
	data, err := c.inner.Get(ctx, kind, key)
	if err != nil {
		return nil, err
	}
	c.cache.Set(ck, slices.Clone(data))
	return data, nil
}

func (c *CachedMedium) Set(ctx context.Context, kind Kind, key string, data []byte) error {
	if err := c.inner.Set(ctx, kind, key, data); err != nil {
		c.cache.Delete(kind.FlatKey(key))
		return err
	}
	c.cache.Set(kind.FlatKey(key), slices.Clone(data))
	return nil
}

func (c *CachedMedium) Delete(ctx context.Context, kind Kind, key string) error {
	c.cache.Delete(kind.FlatKey(key))
	return c.inner.Delete(ctx, kind, key)
}

func (c *CachedMedium) ListKeys(ctx context.Context, kind Kind) ([]string, error) {
	return c.inner.ListKeys(ctx, kind)
}

func (c *CachedMedium) Close() error {
	return c.inner.Close()
}

// Ping forwards to the inner medium when it supports health checks.
func (c *CachedMedium) Ping(ctx context.Context) error {
	if p, ok := c.inner.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}
