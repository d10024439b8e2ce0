package models

import "time"

// SystemMetrics is a point-in-time summary of service counters.
type SystemMetrics struct {
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	StoreWrites              uint64    `json:"store_writes"`
	StoreWriteFailures       uint64    `json:"store_write_failures"`
	AverageStoreWriteMs      float64   `json:"average_store_write_ms"`
	ReportMutations          uint64    `json:"report_mutations"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
