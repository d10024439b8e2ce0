package repository

import (
	"context"
	"errors"
	"fmt"

	appErrors "github.com/TomaX04/Voz-del-Caser-o/pkg/errors"
	"github.com/TomaX04/Voz-del-Caser-o/pkg/storage"
)

// FileKVRepository stores each record as <key>.json under the local storage
// directory.
type FileKVRepository struct {
	storage *storage.LocalStorage
}

// NewFileKVRepository constructs the repository.
func NewFileKVRepository(storage *storage.LocalStorage) *FileKVRepository {
	return &FileKVRepository{storage: storage}
}

// Get reads the record file.
func (r *FileKVRepository) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.storage.Read(fileName(key))
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return nil, appErrors.ErrRecordNotFound
		}
		return nil, fmt.Errorf("read record %s: %w", key, err)
	}
	return data, nil
}

// Set replaces the record file atomically.
func (r *FileKVRepository) Set(ctx context.Context, key string, value []byte) error {
	if _, err := r.storage.Save(fileName(key), value); err != nil {
		return fmt.Errorf("write record %s: %w", key, err)
	}
	return nil
}

func fileName(key string) string {
	return key + ".json"
}
