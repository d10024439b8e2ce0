package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TomaX04/Voz-del-Caser-o/internal/models"
	appErrors "github.com/TomaX04/Voz-del-Caser-o/pkg/errors"
)

func TestLRUCacheRepositorySetGet(t *testing.T) {
	ctx := context.Background()
	repo, err := NewLRUCacheRepository(4)
	require.NoError(t, err)

	counts := models.ReportCounts{Total: 2, ByStatus: map[string]int{"reported": 2}}
	require.NoError(t, repo.Set(ctx, "reports:1:counts", counts, time.Minute))

	var got models.ReportCounts
	require.NoError(t, repo.Get(ctx, "reports:1:counts", &got))
	assert.Equal(t, counts, got)

	var miss models.ReportCounts
	require.True(t, errors.Is(repo.Get(ctx, "reports:2:counts", &miss), appErrors.ErrCacheMiss))
}

func TestLRUCacheRepositoryExpiry(t *testing.T) {
	ctx := context.Background()
	repo, err := NewLRUCacheRepository(4)
	require.NoError(t, err)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	require.NoError(t, repo.Set(ctx, "k", "v", time.Second))
	now = now.Add(2 * time.Second)

	var got string
	require.True(t, errors.Is(repo.Get(ctx, "k", &got), appErrors.ErrCacheMiss))
}

func TestLRUCacheRepositoryDeleteByPattern(t *testing.T) {
	ctx := context.Background()
	repo, err := NewLRUCacheRepository(8)
	require.NoError(t, err)

	require.NoError(t, repo.Set(ctx, "reports:1:list", 1, time.Minute))
	require.NoError(t, repo.Set(ctx, "reports:1:counts", 2, time.Minute))
	require.NoError(t, repo.Set(ctx, "other", 3, time.Minute))

	require.NoError(t, repo.DeleteByPattern(ctx, "reports:*"))

	var v int
	require.True(t, errors.Is(repo.Get(ctx, "reports:1:list", &v), appErrors.ErrCacheMiss))
	require.NoError(t, repo.Get(ctx, "other", &v))
	assert.Equal(t, 3, v)
}

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, "vdc:", nil)
	var v int
	require.True(t, errors.Is(repo.Get(context.Background(), "k", &v), appErrors.ErrCacheMiss))
	require.NoError(t, repo.Set(context.Background(), "k", 1, time.Minute))
	require.NoError(t, repo.DeleteByPattern(context.Background(), "*"))
}

func TestCacheRepositoryNamespaceSeparator(t *testing.T) {
	assert.Equal(t, "vozdelcaserio:", NewCacheRepository(nil, "vozdelcaserio", nil).namespace)
	assert.Equal(t, "vozdelcaserio:", NewCacheRepository(nil, "vozdelcaserio:", nil).namespace)
	assert.Equal(t, "", NewCacheRepository(nil, "", nil).namespace)
}
