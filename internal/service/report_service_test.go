package service

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/TomaX04/Voz-del-Caser-o/internal/dto"
	"github.com/TomaX04/Voz-del-Caser-o/internal/models"
	"github.com/TomaX04/Voz-del-Caser-o/internal/repository"
	appErrors "github.com/TomaX04/Voz-del-Caser-o/pkg/errors"
)

type stubReportStore struct {
	mu      sync.Mutex
	loaded  []models.Report
	loadErr error
	saves   [][]models.Report
}

func (s *stubReportStore) Load(ctx context.Context) ([]models.Report, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	if s.loaded == nil {
		return nil, appErrors.ErrRecordNotFound
	}
	return s.loaded, nil
}

func (s *stubReportStore) Save(ctx context.Context, reports []models.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves = append(s.saves, reports)
	return nil
}

func (s *stubReportStore) lastSave() []models.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.saves) == 0 {
		return nil
	}
	return s.saves[len(s.saves)-1]
}

func (s *stubReportStore) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saves)
}

func newReportServiceForTest(t *testing.T, store *stubReportStore, cache *CacheService) *ReportService {
	t.Helper()
	clock := &fakeClock{t: time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)}
	persister := NewReportPersister(store, nil, zap.NewNop())
	return NewReportService(store, persister, cache, nil, nil, nil, zap.NewNop(), ReportServiceConfig{
		SeedOnEmpty: true,
		Now:         clock.Now,
		NewID:       sequentialIDs("rep"),
	})
}

func bootstrappedService(t *testing.T) (*ReportService, *stubReportStore) {
	t.Helper()
	store := &stubReportStore{}
	svc := newReportServiceForTest(t, store, nil)
	require.NoError(t, svc.Bootstrap(context.Background()))
	return svc, store
}

func TestReportServiceBootstrapSeedsEmptyStore(t *testing.T) {
	svc, store := bootstrappedService(t)

	counts := svc.Counts(context.Background())
	assert.Equal(t, 3, counts.Total)
	require.Equal(t, 1, store.saveCount())
	assert.Len(t, store.lastSave(), 3)
	assert.NoError(t, svc.Ready())
}

func TestReportServiceBootstrapKeepsExistingReports(t *testing.T) {
	store := &stubReportStore{loaded: []models.Report{{ID: "r1", Status: models.ReportStatusReported, Category: models.CategoryWater}}}
	svc := newReportServiceForTest(t, store, nil)
	require.NoError(t, svc.Bootstrap(context.Background()))

	assert.Equal(t, 1, svc.Counts(context.Background()).Total)
	assert.Equal(t, 0, store.saveCount())
}

func TestReportServiceBootstrapStorageUnavailable(t *testing.T) {
	store := &stubReportStore{loadErr: errors.New("disk on fire")}
	svc := newReportServiceForTest(t, store, nil)

	err := svc.Bootstrap(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrStorageUnavailable))
	assert.True(t, errors.Is(svc.Ready(), appErrors.ErrStorageUnavailable))

	list, err := svc.List(context.Background(), dto.ReportQuery{})
	require.NoError(t, err)
	assert.Empty(t, list.Items)

	_, err = svc.Create(context.Background(), dto.CreateReportRequest{Title: "t", Description: "d", Category: "road"}, nil, resident)
	assert.True(t, errors.Is(err, appErrors.ErrStorageUnavailable))
	assert.Equal(t, 0, store.saveCount(), "a broken store must not be overwritten")
}

func TestReportServiceCreatePrependsAndPersists(t *testing.T) {
	svc, store := bootstrappedService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, dto.CreateReportRequest{
		Title:       "  Fuga de agua\x00 ",
		Description: "Tubo roto",
		Category:    "water",
	}, nil, resident)
	require.NoError(t, err)
	assert.Equal(t, "Fuga de agua", created.Title)
	assert.Equal(t, models.PlacePlaceholder, created.Place)

	saved := store.lastSave()
	require.Len(t, saved, 4)
	assert.Equal(t, created.ID, saved[0].ID)

	list, err := svc.List(ctx, dto.ReportQuery{})
	require.NoError(t, err)
	assert.Equal(t, created.ID, list.Items[0].ID)
}

func TestReportServiceCreateValidation(t *testing.T) {
	svc, store := bootstrappedService(t)
	before := store.saveCount()

	_, err := svc.Create(context.Background(), dto.CreateReportRequest{Title: "  ", Description: "x", Category: "road"}, nil, resident)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.Create(context.Background(), dto.CreateReportRequest{Title: "x", Description: "y", Category: "parks"}, nil, resident)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	assert.Equal(t, before, store.saveCount())
	assert.Equal(t, 3, svc.Counts(context.Background()).Total)
}

func TestReportServiceCreateWithUpload(t *testing.T) {
	svc, _ := bootstrappedService(t)

	created, err := svc.Create(context.Background(), dto.CreateReportRequest{
		Title: "Poste caído", Description: "Sobre la vía", Category: "energy",
	}, []ImageUpload{{Filename: "foto.png", Size: int64(len(pngHeader)), Content: bytes.NewReader(pngHeader)}}, resident)
	require.NoError(t, err)
	require.Len(t, created.Images, 1)
	assert.Equal(t, "foto.png", created.Images[0].Name)
	assert.Contains(t, created.Images[0].DataURL, "data:image/png;base64,")
}

func TestReportServiceBlankCommentDoesNotPersist(t *testing.T) {
	svc, store := bootstrappedService(t)
	ctx := context.Background()
	target := store.lastSave()[0]
	before := store.saveCount()

	got, err := svc.AddComment(ctx, target.ID, dto.AddCommentRequest{Text: "  "}, resident)
	require.NoError(t, err)
	assert.Len(t, got.Comments, len(target.Comments))
	assert.Len(t, got.History, len(target.History))
	assert.Equal(t, before, store.saveCount())
}

func TestReportServiceCommentStatusAndVote(t *testing.T) {
	svc, store := bootstrappedService(t)
	ctx := context.Background()
	id := store.lastSave()[0].ID

	commented, err := svc.AddComment(ctx, id, dto.AddCommentRequest{Text: "Sigue igual"}, resident)
	require.NoError(t, err)
	assert.Equal(t, "Sigue igual", commented.Comments[len(commented.Comments)-1].Text)

	_, err = svc.ChangeStatus(ctx, id, dto.ChangeStatusRequest{Status: "resolved"}, resident)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorizedRole))

	resolved, err := svc.ChangeStatus(ctx, id, dto.ChangeStatusRequest{Status: "resolved", Note: "Tapado"}, moderator)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusResolved, resolved.Status)

	voted, err := svc.Vote(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, resolved.Votes+1, voted.Votes)

	persisted := store.lastSave()
	for _, r := range persisted {
		if r.ID == id {
			assert.Equal(t, voted.Votes, r.Votes)
			assert.Equal(t, models.ReportStatusResolved, r.Status)
		}
	}
}

func TestReportServiceNotFound(t *testing.T) {
	svc, _ := bootstrappedService(t)
	_, err := svc.Vote(context.Background(), "missing")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
	_, err = svc.Get(context.Background(), "missing")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestReportServiceListValidatesAndPaginates(t *testing.T) {
	svc, _ := bootstrappedService(t)
	ctx := context.Background()

	_, err := svc.List(ctx, dto.ReportQuery{Status: "closed"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	page, err := svc.List(ctx, dto.ReportQuery{Page: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, models.Pagination{Page: 2, PageSize: 2, TotalCount: 3}, *page.Pagination)
	assert.Equal(t, models.CategoryRoad, page.Items[0].Category, "oldest seed report is last")

	beyond, err := svc.List(ctx, dto.ReportQuery{Page: 5, Limit: 2})
	require.NoError(t, err)
	assert.Empty(t, beyond.Items)
}

func TestReportServiceCacheFollowsRevision(t *testing.T) {
	repo, err := repository.NewLRUCacheRepository(16)
	require.NoError(t, err)
	metrics := NewMetricsService()
	cache := NewCacheService(repo, metrics, time.Minute, zap.NewNop())

	store := &stubReportStore{}
	svc := newReportServiceForTest(t, store, cache)
	require.NoError(t, svc.Bootstrap(context.Background()))
	ctx := context.Background()

	assert.Equal(t, 3, svc.Counts(ctx).Total)
	assert.Equal(t, 3, svc.Counts(ctx).Total)
	assert.Equal(t, uint64(1), metrics.Snapshot().CacheHits)

	_, err = svc.Create(ctx, dto.CreateReportRequest{Title: "t", Description: "d", Category: "other"}, nil, resident)
	require.NoError(t, err)
	assert.Equal(t, 4, svc.Counts(ctx).Total, "a mutation must never serve stale counts")
}

func TestReportServiceKeepsAngleBracketsVerbatim(t *testing.T) {
	svc, store := bootstrappedService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, dto.CreateReportRequest{
		Title:       "Poste <frente> a la tienda",
		Description: "a<b",
		Place:       "<b>",
		Category:    "energy",
	}, nil, resident)
	require.NoError(t, err)
	assert.Equal(t, "Poste <frente> a la tienda", created.Title)
	assert.Equal(t, "a<b", created.Description)
	assert.Equal(t, "<b>", created.Place)

	before := store.saveCount()
	commented, err := svc.AddComment(ctx, created.ID, dto.AddCommentRequest{Text: "<b>"}, resident)
	require.NoError(t, err)
	require.Len(t, commented.Comments, 1)
	assert.Equal(t, "<b>", commented.Comments[0].Text)
	assert.Equal(t, before+1, store.saveCount())

	_, err = svc.Create(ctx, dto.CreateReportRequest{Title: "<script>", Description: "<i></i>", Category: "other"}, nil, resident)
	require.NoError(t, err, "markup-only text is still text")
}

func TestReportServiceCacheScopedToLoadedCollection(t *testing.T) {
	repo, err := repository.NewLRUCacheRepository(16)
	require.NoError(t, err)
	cache := NewCacheService(repo, NewMetricsService(), time.Minute, zap.NewNop())
	ctx := context.Background()

	store := &stubReportStore{}
	first := newReportServiceForTest(t, store, cache)
	require.NoError(t, first.Bootstrap(ctx))
	_, err = first.Create(ctx, dto.CreateReportRequest{Title: "uno", Description: "d", Category: "other"}, nil, resident)
	require.NoError(t, err)
	assert.Equal(t, 4, first.Counts(ctx).Total)

	store.loaded = store.lastSave()
	second := newReportServiceForTest(t, store, cache)
	require.NoError(t, second.Bootstrap(ctx))
	for _, title := range []string{"dos", "tres"} {
		_, err = second.Create(ctx, dto.CreateReportRequest{Title: title, Description: "d", Category: "other"}, nil, resident)
		require.NoError(t, err)
	}

	assert.Equal(t, 6, second.Counts(ctx).Total, "a restarted service must not read the previous run's entries")
	list, err := second.List(ctx, dto.ReportQuery{})
	require.NoError(t, err)
	assert.Len(t, list.Items, 6)
}
