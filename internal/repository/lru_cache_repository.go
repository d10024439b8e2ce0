package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	appErrors "github.com/TomaX04/Voz-del-Caser-o/pkg/errors"
)

type lruEntry struct {
	payload   []byte
	expiresAt time.Time
}

// LRUCacheRepository is an in-process cache with per-entry expiry. Values are
// stored JSON encoded so callers get independent copies, like with Redis.
type LRUCacheRepository struct {
	cache *lru.Cache[string, lruEntry]
	now   func() time.Time
}

// NewLRUCacheRepository builds a cache holding at most size entries.
func NewLRUCacheRepository(size int) (*LRUCacheRepository, error) {
	if size <= 0 {
		size = 256
	}
	cache, err := lru.New[string, lruEntry](size)
	if err != nil {
		return nil, fmt.Errorf("create lru cache: %w", err)
	}
	return &LRUCacheRepository{cache: cache, now: time.Now}, nil
}

// Get decodes the cached value into dest or returns ErrCacheMiss.
func (r *LRUCacheRepository) Get(ctx context.Context, key string, dest interface{}) error {
	entry, ok := r.cache.Get(key)
	if !ok {
		return appErrors.ErrCacheMiss
	}
	if r.now().After(entry.expiresAt) {
		r.cache.Remove(key)
		return appErrors.ErrCacheMiss
	}
	if err := json.Unmarshal(entry.payload, dest); err != nil {
		return fmt.Errorf("unmarshal cache value for %s: %w", key, err)
	}
	return nil
}

// Set stores value until ttl elapses.
func (r *LRUCacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value for %s: %w", key, err)
	}
	r.cache.Add(key, lruEntry{payload: payload, expiresAt: r.now().Add(ttl)})
	return nil
}

// DeleteByPattern removes entries whose key matches a glob pattern.
func (r *LRUCacheRepository) DeleteByPattern(ctx context.Context, pattern string) error {
	for _, key := range r.cache.Keys() {
		matched, err := path.Match(pattern, key)
		if err != nil {
			return fmt.Errorf("match cache pattern %s: %w", pattern, err)
		}
		if matched {
			r.cache.Remove(key)
		}
	}
	return nil
}
