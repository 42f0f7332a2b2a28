package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisBackend keeps the blob in a single string value under the
// namespace key. No TTL: projects live until deleted.
type RedisBackend struct {
	client *redis.Client
	ctx    context.Context
}

func NewRedisBackend(addr string) (*RedisBackend, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return &RedisBackend{client: client, ctx: ctx}, nil
}

// NewRedisBackendWithClient wraps an existing client, used by tests.
func NewRedisBackendWithClient(client *redis.Client) *RedisBackend {
	return &RedisBackend{client: client, ctx: context.Background()}
}

func (b *RedisBackend) Load() ([]byte, error) {
	data, err := b.client.Get(b.ctx, StorageKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load state key: %w", err)
	}
	return data, nil
}

func (b *RedisBackend) Save(data []byte) error {
	if err := b.client.Set(b.ctx, StorageKey, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save state key: %w", err)
	}
	return nil
}

func (b *RedisBackend) Close() error {
	return b.client.Close()
}
