package storage

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/redis/go-redis/v9"
)

// RedisMedium stores records as plain string values under
// <prefix><kind key>, e.g. financitos:financial_2024-01.
type RedisMedium struct {
	client *redis.Client
	prefix string
}

// NewRedisMedium connects to the server at url and verifies it with a ping.
func NewRedisMedium(ctx context.Context, url, prefix string) (*RedisMedium, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedisMediumFromClient(client, prefix), nil
}

func NewRedisMediumFromClient(client *redis.Client, prefix string) *RedisMedium {
	return &RedisMedium{client: client, prefix: prefix}
}

func (r *RedisMedium) key(kind Kind, key string) string {
	return r.prefix + kind.FlatKey(key)
}

func (r *RedisMedium) Get(ctx context.Context, kind Kind, key string) ([]byte, error) {
	if err := validateKind(kind); err != nil {
		return nil, err
	}
	data, err := r.client.Get(ctx, r.key(kind, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s/%s: %w", kind, key, err)
	}
	return data, nil
}

func (r *RedisMedium) Set(ctx context.Context, kind Kind, key string, data []byte) error {
	if err := validateKind(kind); err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key(kind, key), data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s/%s: %w", kind, key, err)
	}
	return nil
}

func (r *RedisMedium) Delete(ctx context.Context, kind Kind, key string) error {
	if err := validateKind(kind); err != nil {
		return err
	}
	if err := r.client.Del(ctx, r.key(kind, key)).Err(); err != nil {
		return fmt.Errorf("redis del %s/%s: %w", kind, key, err)
	}
	return nil
}

func (r *RedisMedium) ListKeys(ctx context.Context, kind Kind) ([]string, error) {
	if err := validateKind(kind); err != nil {
		return nil, err
	}

	if kind.singleton() {
		n, err := r.client.Exists(ctx, r.key(kind, "")).Result()
		if err != nil {
			return nil, fmt.Errorf("redis exists %s: %w", kind, err)
		}
		if n == 0 {
			return []string{}, nil
		}
		return []string{string(kind)}, nil
	}

	base := r.prefix + string(kind) + "_"
	keys := []string{}
	iter := r.client.Scan(ctx, 0, base+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), base))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan %s: %w", kind, err)
	}
	slices.Sort(keys)
	return keys, nil
}

// Ping reports whether the server is reachable.
func (r *RedisMedium) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisMedium) Close() error {
	return r.client.Close()
}
