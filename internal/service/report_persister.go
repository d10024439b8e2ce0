package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/TomaX04/Voz-del-Caser-o/internal/models"
	"github.com/TomaX04/Voz-del-Caser-o/pkg/jobs"
)

const persistJobType = "reports.persist"

type reportWriter interface {
	Save(ctx context.Context, reports []models.Report) error
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type reportSnapshot struct {
	Revision uint64
	Reports  []models.Report
}

// ReportPersister writes collection snapshots to the durable store. Writes
// are fire and forget: failures are logged and counted, never returned to the
// caller that mutated the collection. A snapshot older than one already
// written or already queued is skipped, so the most recent state wins.
type ReportPersister struct {
	repo    reportWriter
	queue   jobDispatcher
	metrics *MetricsService
	logger  *zap.Logger

	// mu serialises writes; latest is advanced without it so mutations never
	// wait on a slow store.
	mu      sync.Mutex
	written uint64
	latest  atomic.Uint64
}

// NewReportPersister constructs a persister. Without a queue every snapshot is
// written synchronously.
func NewReportPersister(repo reportWriter, metrics *MetricsService, logger *zap.Logger) *ReportPersister {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportPersister{repo: repo, metrics: metrics, logger: logger}
}

// UseQueue routes snapshots through the queue whose handler is Handle.
func (p *ReportPersister) UseQueue(queue jobDispatcher) {
	p.queue = queue
}

// Persist schedules the write of reports at revision.
func (p *ReportPersister) Persist(ctx context.Context, revision uint64, reports []models.Report) {
	for {
		cur := p.latest.Load()
		if revision <= cur || p.latest.CompareAndSwap(cur, revision) {
			break
		}
	}

	snap := reportSnapshot{Revision: revision, Reports: reports}
	if p.queue != nil {
		err := p.queue.Enqueue(jobs.Job{
			ID:      fmt.Sprintf("reports-%d", revision),
			Type:    persistJobType,
			Payload: snap,
		})
		if err == nil {
			return
		}
		p.logger.Warn("persist queue unavailable, writing inline", zap.Uint64("revision", revision), zap.Error(err))
	}
	if err := p.write(ctx, snap); err != nil {
		p.logger.Error("failed to persist reports", zap.Uint64("revision", revision), zap.Error(err))
	}
}

// Handle is the queue handler. Returning an error makes the queue retry.
func (p *ReportPersister) Handle(ctx context.Context, job jobs.Job) error {
	snap, ok := job.Payload.(reportSnapshot)
	if !ok {
		p.logger.Error("unexpected persist payload", zap.String("job_id", job.ID))
		return nil
	}
	return p.write(ctx, snap)
}

// Written returns the newest revision known to be durable.
func (p *ReportPersister) Written() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.written
}

func (p *ReportPersister) write(ctx context.Context, snap reportSnapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if latest := p.latest.Load(); snap.Revision <= p.written || snap.Revision < latest {
		p.logger.Debug("skipping stale snapshot", zap.Uint64("revision", snap.Revision), zap.Uint64("written", p.written), zap.Uint64("latest", latest))
		return nil
	}

	start := time.Now()
	err := p.repo.Save(ctx, snap.Reports)
	p.metrics.ObserveStoreWrite("reports", err, time.Since(start))
	if err != nil {
		return fmt.Errorf("save reports revision %d: %w", snap.Revision, err)
	}
	p.written = snap.Revision
	return nil
}
