package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	appErrors "github.com/TomaX04/Voz-del-Caser-o/pkg/errors"
)

// RedisKVRepository keeps records as plain Redis strings without expiry.
type RedisKVRepository struct {
	client *redis.Client
	prefix string
}

// NewRedisKVRepository constructs the repository. prefix is prepended to every key.
func NewRedisKVRepository(client *redis.Client, prefix string) *RedisKVRepository {
	return &RedisKVRepository{client: client, prefix: prefix}
}

// Get fetches the raw record.
func (r *RedisKVRepository) Get(ctx context.Context, key string) ([]byte, error) {
	if r.client == nil {
		return nil, appErrors.Clone(appErrors.ErrStorageUnavailable, "redis client not configured")
	}
	raw, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, appErrors.ErrRecordNotFound
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return raw, nil
}

// Set stores the raw record.
func (r *RedisKVRepository) Set(ctx context.Context, key string, value []byte) error {
	if r.client == nil {
		return appErrors.Clone(appErrors.ErrStorageUnavailable, "redis client not configured")
	}
	if err := r.client.Set(ctx, r.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}
