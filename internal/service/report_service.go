package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/TomaX04/Voz-del-Caser-o/internal/dto"
	"github.com/TomaX04/Voz-del-Caser-o/internal/models"
	"github.com/TomaX04/Voz-del-Caser-o/pkg/config"
	appErrors "github.com/TomaX04/Voz-del-Caser-o/pkg/errors"
)

const reportCachePrefix = "reports:"

// Mutation actions, used as metric labels.
const (
	actionCreate  = "create"
	actionComment = "comment"
	actionStatus  = "status"
	actionVote    = "vote"
)

type reportLoader interface {
	Load(ctx context.Context) ([]models.Report, error)
}

type reportPersister interface {
	Persist(ctx context.Context, revision uint64, reports []models.Report)
}

// ReportServiceConfig tunes bootstrap and caching.
type ReportServiceConfig struct {
	SeedOnEmpty bool
	CacheTTL    time.Duration
	Now         func() time.Time
	NewID       func() string
}

// ReportService owns the report collection. Mutations run under the write
// lock and swap in a new slice, so a slice taken under the read lock stays
// valid after the lock is released.
type ReportService struct {
	repo      reportLoader
	persister reportPersister
	cache     *CacheService
	metrics   *MetricsService
	images    *ImageIntake
	lifecycle *Lifecycle
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ReportServiceConfig

	mu       sync.RWMutex
	reports  []models.Report
	revision uint64
	// generation scopes cache keys to one loaded collection. Revisions restart
	// on every Bootstrap while a shared cache outlives the process.
	generation string
	storeErr   error
}

// NewReportService constructs the report store. Call Bootstrap before serving.
func NewReportService(repo reportLoader, persister reportPersister, cache *CacheService, metrics *MetricsService, images *ImageIntake, validate *validator.Validate, logger *zap.Logger, cfg ReportServiceConfig) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if images == nil {
		images = NewImageIntake(defaultImagesConfig())
	}
	return &ReportService{
		repo:      repo,
		persister: persister,
		cache:     cache,
		metrics:   metrics,
		images:    images,
		lifecycle: NewLifecycle(cfg.Now, cfg.NewID),
		validator: validate,
		logger:    logger,
		cfg:        cfg,
		reports:    []models.Report{},
		generation: uuid.NewString(),
	}
}

// Bootstrap loads the persisted collection and installs the example reports
// when the store holds none. When loading fails the service keeps serving an
// empty collection, refuses mutations and returns STORAGE_UNAVAILABLE.
func (s *ReportService) Bootstrap(ctx context.Context) error {
	reports, err := s.repo.Load(ctx)
	if err != nil && !errors.Is(err, appErrors.ErrRecordNotFound) {
		wrapped := appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to load reports")
		s.mu.Lock()
		s.reports = []models.Report{}
		s.generation = uuid.NewString()
		s.storeErr = wrapped
		s.mu.Unlock()
		s.metrics.SetStoreUnavailable(true)
		s.metrics.SetReportCount(0)
		s.logger.Error("report store unavailable, serving empty collection", zap.Error(err))
		return wrapped
	}

	seeded := false
	if len(reports) == 0 && s.cfg.SeedOnEmpty {
		reports = SeedReports(s.lifecycle.now, s.lifecycle.newID)
		seeded = true
	}
	if reports == nil {
		reports = []models.Report{}
	}

	s.mu.Lock()
	s.reports = reports
	s.generation = uuid.NewString()
	s.storeErr = nil
	if seeded {
		s.revision++
	}
	revision := s.revision
	s.mu.Unlock()

	s.metrics.SetStoreUnavailable(false)
	s.metrics.SetReportCount(len(reports))
	if seeded {
		s.logger.Info("seeded example reports", zap.Int("count", len(reports)))
		s.persister.Persist(ctx, revision, reports)
	} else {
		s.logger.Info("reports loaded", zap.Int("count", len(reports)))
	}
	return nil
}

// Ready returns the load failure, if any.
func (s *ReportService) Ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.storeErr
}

// List returns the filtered projection, newest first. A positive limit
// paginates the result.
func (s *ReportService) List(ctx context.Context, query dto.ReportQuery) (*dto.ReportList, error) {
	filter := query.Filter()
	items, err := s.Filtered(ctx, filter)
	if err != nil {
		return nil, err
	}

	total := len(items)
	page, limit := query.Page, query.Limit
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		return &dto.ReportList{Items: items, Pagination: &models.Pagination{Page: 1, PageSize: total, TotalCount: total}}, nil
	}
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	return &dto.ReportList{
		Items:      items[start:end],
		Pagination: &models.Pagination{Page: page, PageSize: limit, TotalCount: total},
	}, nil
}

// Filtered returns every report matching filter, newest first.
func (s *ReportService) Filtered(ctx context.Context, filter models.ReportFilter) ([]models.Report, error) {
	if err := validateFilter(filter); err != nil {
		return nil, err
	}
	all, scope := s.snapshot()
	key := scope + "list:" + filterDigest(filter)

	var cached []models.Report
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}
	items := Project(all, filter)
	s.cache.Set(ctx, key, items, s.cfg.CacheTTL)
	return items, nil
}

// Counts aggregates the whole collection.
func (s *ReportService) Counts(ctx context.Context) models.ReportCounts {
	all, scope := s.snapshot()
	key := scope + "counts"

	var cached models.ReportCounts
	if s.cache.Get(ctx, key, &cached) {
		return cached
	}
	counts := Aggregate(all)
	s.cache.Set(ctx, key, counts, s.cfg.CacheTTL)
	return counts
}

// Get returns one report.
func (s *ReportService) Get(ctx context.Context, id string) (*models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.indexOf(id)
	if idx < 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
	}
	report := s.reports[idx]
	return &report, nil
}

// Create validates the request, attaches images and prepends the new report.
func (s *ReportService) Create(ctx context.Context, req dto.CreateReportRequest, uploads []ImageUpload, actor models.Actor) (*models.Report, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report payload")
	}
	images, err := s.images.FromDataURLs(req.Images)
	if err != nil {
		return nil, err
	}
	uploaded, err := s.images.FromUploads(uploads)
	if err != nil {
		return nil, err
	}
	images = append(images, uploaded...)
	if len(images) > s.images.maxCount {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("at most %d images are allowed", s.images.maxCount))
	}

	report, err := s.lifecycle.CreateReport(models.ReportFields{
		Title:       cleanText(req.Title),
		Description: cleanText(req.Description),
		Place:       cleanText(req.Place),
		Category:    models.ReportCategory(req.Category),
		Images:      images,
	}, s.cleanActor(actor))
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.storeErr != nil {
		s.mu.Unlock()
		return nil, s.unavailable()
	}
	for s.indexOf(report.ID) >= 0 {
		report.ID = s.lifecycle.newID()
	}
	reports := make([]models.Report, 0, len(s.reports)+1)
	reports = append(reports, report)
	reports = append(reports, s.reports...)
	revision, stale := s.commit(reports)
	s.mu.Unlock()

	s.afterMutation(ctx, actionCreate, revision, stale, reports)
	s.logger.Info("report created", zap.String("report_id", report.ID), zap.String("category", string(report.Category)), zap.String("actor_id", actor.ID))
	return &report, nil
}

// AddComment appends a comment. Blank text leaves the report untouched and is
// not an error.
func (s *ReportService) AddComment(ctx context.Context, id string, req dto.AddCommentRequest, actor models.Actor) (*models.Report, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid comment payload")
	}
	text := cleanText(req.Text)
	actor = s.cleanActor(actor)
	return s.mutate(ctx, id, actionComment, func(r models.Report) (models.Report, bool, error) {
		next, changed := s.lifecycle.AddComment(r, actor, text)
		return next, changed, nil
	})
}

// ChangeStatus moves a report to another status on behalf of a moderator or admin.
func (s *ReportService) ChangeStatus(ctx context.Context, id string, req dto.ChangeStatusRequest, actor models.Actor) (*models.Report, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	target := models.ReportStatus(req.Status)
	note := cleanText(req.Note)
	actor = s.cleanActor(actor)
	return s.mutate(ctx, id, actionStatus, func(r models.Report) (models.Report, bool, error) {
		next, err := s.lifecycle.ChangeStatus(r, actor, target, note)
		if err != nil {
			return r, false, err
		}
		return next, true, nil
	})
}

// Vote adds one supporting vote.
func (s *ReportService) Vote(ctx context.Context, id string) (*models.Report, error) {
	return s.mutate(ctx, id, actionVote, func(r models.Report) (models.Report, bool, error) {
		return s.lifecycle.Vote(r), true, nil
	})
}

func (s *ReportService) mutate(ctx context.Context, id, action string, apply func(models.Report) (models.Report, bool, error)) (*models.Report, error) {
	s.mu.Lock()
	if s.storeErr != nil {
		s.mu.Unlock()
		return nil, s.unavailable()
	}
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
	}
	next, changed, err := apply(s.reports[idx])
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if !changed {
		s.mu.Unlock()
		return &next, nil
	}
	reports := make([]models.Report, len(s.reports))
	copy(reports, s.reports)
	reports[idx] = next
	revision, stale := s.commit(reports)
	s.mu.Unlock()

	s.afterMutation(ctx, action, revision, stale, reports)
	return &next, nil
}

// commit installs reports as the new collection and returns the new revision
// with the cache scope it replaced. Callers hold the write lock.
func (s *ReportService) commit(reports []models.Report) (uint64, string) {
	stale := s.cacheScope()
	s.reports = reports
	s.revision++
	return s.revision, stale
}

func (s *ReportService) afterMutation(ctx context.Context, action string, revision uint64, stale string, reports []models.Report) {
	s.metrics.RecordReportMutation(action)
	s.metrics.SetReportCount(len(reports))
	s.persister.Persist(context.WithoutCancel(ctx), revision, reports)
	s.cache.Invalidate(ctx, stale+"*")
}

func (s *ReportService) snapshot() ([]models.Report, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reports, s.cacheScope()
}

// cacheScope is the key prefix for projections of the current collection.
// Callers hold the lock.
func (s *ReportService) cacheScope() string {
	return fmt.Sprintf("%s%s:%d:", reportCachePrefix, s.generation, s.revision)
}

func (s *ReportService) indexOf(id string) int {
	for i := range s.reports {
		if s.reports[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *ReportService) unavailable() error {
	return appErrors.Clone(appErrors.ErrStorageUnavailable, "report storage unavailable, changes are disabled")
}

func (s *ReportService) cleanActor(actor models.Actor) models.Actor {
	actor.Name = cleanText(actor.Name)
	return actor
}

func validateFilter(filter models.ReportFilter) error {
	if !isAll(filter.Status) && !models.ReportStatus(filter.Status).Valid() {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown status filter %q", filter.Status))
	}
	if !isAll(filter.Category) && !models.ReportCategory(filter.Category).Valid() {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown category filter %q", filter.Category))
	}
	return nil
}

func filterDigest(filter models.ReportFilter) string {
	sum := sha256.Sum256([]byte(filter.Status + "\x00" + filter.Category + "\x00" + filter.Query))
	return hex.EncodeToString(sum[:8])
}

func defaultImagesConfig() config.ImagesConfig {
	return config.ImagesConfig{
		MaxFileSizeBytes: 5 * 1024 * 1024,
		MaxCount:         6,
		AllowedMIMEs:     []string{"image/jpeg", "image/png", "image/gif", "image/webp"},
	}
}
