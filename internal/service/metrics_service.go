package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/TomaX04/Voz-del-Caser-o/internal/models"
)

// MetricsService owns the Prometheus registry and keeps a few atomic totals
// for the JSON summary endpoint.
type MetricsService struct {
	registry         *prometheus.Registry
	handler          http.Handler
	requestDuration  *prometheus.HistogramVec
	requestTotal     *prometheus.CounterVec
	cacheLatency     prometheus.Observer
	cacheWrite       prometheus.Observer
	cacheHitRatio    prometheus.Gauge
	cacheLookups     *prometheus.CounterVec
	storeWrite       *prometheus.HistogramVec
	reportMutations  *prometheus.CounterVec
	reportsInStore   prometheus.Gauge
	storeUnavailable prometheus.Gauge

	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	storeWriteCount      uint64
	storeWriteFailures   uint64
	storeWriteTotal      uint64
	mutationCount        uint64
}

// NewMetricsService registers the collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_lookups_total",
		Help: "Cache lookups by result",
	}, []string{"result"})

	storeWrite := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "store_write_duration_seconds",
		Help:    "Duration of durable store writes",
		Buckets: prometheus.DefBuckets,
	}, []string{"record", "result"})

	reportMutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "report_mutations_total",
		Help: "Report mutations by action",
	}, []string{"action"})

	reportsInStore := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "reports_in_store",
		Help: "Number of reports currently held",
	})

	storeUnavailable := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "store_unavailable",
		Help: "1 when the report collection failed to load",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheLookups,
		storeWrite, reportMutations, reportsInStore, storeUnavailable, goroutines)

	return &MetricsService{
		registry:         registry,
		handler:          promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:  requestDuration,
		requestTotal:     requestTotal,
		cacheLatency:     cacheLatency,
		cacheWrite:       cacheWrite,
		cacheHitRatio:    cacheHitRatio,
		cacheLookups:     cacheLookups,
		storeWrite:       storeWrite,
		reportMutations:  reportMutations,
		reportsInStore:   reportsInStore,
		storeUnavailable: storeUnavailable,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordCacheOperation records a cache lookup and refreshes the hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheLookups.WithLabelValues("hit").Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheLookups.WithLabelValues("miss").Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	total := hits + atomic.LoadUint64(&m.cacheMissCount)
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks cache write latency.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveStoreWrite records one durable write of record.
func (m *MetricsService) ObserveStoreWrite(record string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
		atomic.AddUint64(&m.storeWriteFailures, 1)
	}
	m.storeWrite.WithLabelValues(record, result).Observe(duration.Seconds())
	atomic.AddUint64(&m.storeWriteCount, 1)
	atomic.AddUint64(&m.storeWriteTotal, uint64(duration.Nanoseconds()))
}

// RecordReportMutation counts a create, comment, status or vote.
func (m *MetricsService) RecordReportMutation(action string) {
	if m == nil {
		return
	}
	m.reportMutations.WithLabelValues(action).Inc()
	atomic.AddUint64(&m.mutationCount, 1)
}

// SetReportCount publishes the collection size.
func (m *MetricsService) SetReportCount(n int) {
	if m == nil {
		return
	}
	m.reportsInStore.Set(float64(n))
}

// SetStoreUnavailable flags a failed collection load.
func (m *MetricsService) SetStoreUnavailable(unavailable bool) {
	if m == nil {
		return
	}
	if unavailable {
		m.storeUnavailable.Set(1)
		return
	}
	m.storeUnavailable.Set(0)
}

// Snapshot returns the aggregated totals.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)
	writes := atomic.LoadUint64(&m.storeWriteCount)
	writeDuration := atomic.LoadUint64(&m.storeWriteTotal)

	return models.SystemMetrics{
		RequestsTotal:            requests,
		AverageRequestDurationMs: averageMs(reqDuration, requests),
		CacheHits:                hits,
		CacheMisses:              misses,
		CacheHitRatio:            ratio(hits, hits+misses),
		StoreWrites:              writes,
		StoreWriteFailures:       atomic.LoadUint64(&m.storeWriteFailures),
		AverageStoreWriteMs:      averageMs(writeDuration, writes),
		ReportMutations:          atomic.LoadUint64(&m.mutationCount),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}

func averageMs(totalNanos, count uint64) float64 {
	if count == 0 {
		return 0
	}
	return float64(totalNanos) / float64(count) / float64(time.Millisecond)
}

func ratio(part, total uint64) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total)
}
