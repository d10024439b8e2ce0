package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	appErrors "github.com/TomaX04/Voz-del-Caser-o/pkg/errors"
)

// PostgresKVRepository persists records in the kv_store table.
type PostgresKVRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewPostgresKVRepository constructs the repository.
func NewPostgresKVRepository(db *sqlx.DB) *PostgresKVRepository {
	return &PostgresKVRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Get returns the JSON value stored under key.
func (r *PostgresKVRepository) Get(ctx context.Context, key string) ([]byte, error) {
	const query = `SELECT value FROM kv_store WHERE key = $1`
	var value []byte
	if err := r.db.GetContext(ctx, &value, query, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrRecordNotFound
		}
		return nil, fmt.Errorf("get kv %s: %w", key, err)
	}
	return value, nil
}

// Set upserts the JSON value stored under key.
func (r *PostgresKVRepository) Set(ctx context.Context, key string, value []byte) error {
	const query = `INSERT INTO kv_store (key, value, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (key)
DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query, key, string(value), r.now()); err != nil {
		return fmt.Errorf("upsert kv %s: %w", key, err)
	}
	return nil
}
