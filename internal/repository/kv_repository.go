package repository

import (
	"context"
	"sync"

	appErrors "github.com/TomaX04/Voz-del-Caser-o/pkg/errors"
)

// MemoryKVRepository keeps records in process memory. Used by tests and by
// the memory store driver.
type MemoryKVRepository struct {
	mu      sync.RWMutex
	records map[string][]byte
}

// NewMemoryKVRepository constructs an empty in-memory store.
func NewMemoryKVRepository() *MemoryKVRepository {
	return &MemoryKVRepository{records: make(map[string][]byte)}
}

// Get returns a copy of the stored value or ErrRecordNotFound.
func (r *MemoryKVRepository) Get(ctx context.Context, key string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	value, ok := r.records[key]
	if !ok {
		return nil, appErrors.ErrRecordNotFound
	}
	return append([]byte(nil), value...), nil
}

// Set stores a copy of value under key.
func (r *MemoryKVRepository) Set(ctx context.Context, key string, value []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[key] = append([]byte(nil), value...)
	return nil
}
