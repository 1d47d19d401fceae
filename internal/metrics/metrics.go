package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simfinder_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "simfinder_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "simfinder_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Store metrics
var (
	StoreQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simfinder_store_queries_total",
			Help: "Total number of index store queries",
		},
		[]string{"operation", "status"},
	)

	StoreQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "simfinder_store_query_duration_seconds",
			Help:    "Index store query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	StoresOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "simfinder_stores_open",
			Help: "Number of index stores currently held open",
		},
	)

	StoreSizeBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "simfinder_store_size_bytes",
			Help: "Size of index store files in bytes",
		},
		[]string{"index"},
	)
)

// Indexer metrics
var (
	IndexerRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "simfinder_indexer_runs_total",
			Help: "Total number of indexing passes",
		},
	)

	IndexerLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "simfinder_indexer_last_run_timestamp",
			Help: "Timestamp of the last indexing pass",
		},
	)

	IndexerLastRunDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "simfinder_indexer_last_run_duration_seconds",
			Help: "Duration of the last indexing pass in seconds",
		},
	)

	IndexerFilesProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "simfinder_indexer_files_processed_total",
			Help: "Total number of files examined by the indexer",
		},
	)

	IndexerFilesHashed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "simfinder_indexer_files_hashed_total",
			Help: "Total number of files decoded and fingerprinted",
		},
	)

	IndexerFilesSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "simfinder_indexer_files_skipped_total",
			Help: "Total number of files skipped because their modification time was unchanged",
		},
	)

	IndexerDecodeFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "simfinder_indexer_decode_failures_total",
			Help: "Total number of files the indexer could not decode",
		},
	)

	IndexerIsRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "simfinder_indexer_running",
			Help: "Whether an indexing pass is currently running (1 = running, 0 = idle)",
		},
	)

	IndexerHashDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "simfinder_indexer_hash_duration_seconds",
			Help:    "Per-file decode and fingerprint duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)

	IndexerWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "simfinder_indexer_workers",
			Help: "Number of hash workers in the current indexing pass",
		},
	)

	IndexerRecordsPruned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "simfinder_indexer_records_pruned_total",
			Help: "Total number of records removed by explicit prune operations",
		},
	)
)

// Search metrics
var (
	SearchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simfinder_searches_total",
			Help: "Total number of similarity searches",
		},
		[]string{"status"},
	)

	SearchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "simfinder_search_duration_seconds",
			Help:    "End-to-end similarity search duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	SearchCandidatesScanned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "simfinder_search_candidates_scanned",
			Help:    "Number of stored records scanned per search",
			Buckets: []float64{0, 10, 50, 100, 500, 1000, 5000, 10000, 50000},
		},
	)

	SearchMatchesReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "simfinder_search_matches_returned",
			Help:    "Number of matches returned per search",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
		},
	)

	SearchMissingFilesSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "simfinder_search_missing_files_skipped_total",
			Help: "Total number of stored records skipped because their file no longer exists",
		},
	)

	QueryCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "simfinder_query_cache_hits_total",
			Help: "Total number of query fingerprint cache hits",
		},
	)

	QueryCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "simfinder_query_cache_misses_total",
			Help: "Total number of query fingerprint cache misses",
		},
	)
)

// Thumbnail metrics
var (
	ThumbnailRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simfinder_thumbnail_requests_total",
			Help: "Total number of thumbnail requests",
		},
		[]string{"status"},
	)

	ThumbnailCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "simfinder_thumbnail_cache_hits_total",
			Help: "Total number of thumbnail cache hits",
		},
	)

	ThumbnailCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "simfinder_thumbnail_cache_misses_total",
			Help: "Total number of thumbnail cache misses",
		},
	)
)

// Index inventory metrics
var (
	IndexesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "simfinder_indexes_total",
			Help: "Number of indexes in the data directory",
		},
	)

	IndexRecordsTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "simfinder_index_records",
			Help: "Number of records per index",
		},
		[]string{"index"},
	)
)

// Filesystem retry metrics
var (
	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simfinder_filesystem_retry_attempts_total",
			Help: "Total number of filesystem operation retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simfinder_filesystem_retry_success_total",
			Help: "Total number of filesystem operations that succeeded after retry",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simfinder_filesystem_retry_failures_total",
			Help: "Total number of filesystem operations that failed after all retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simfinder_filesystem_stale_errors_total",
			Help: "Total number of NFS stale file handle errors",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "simfinder_filesystem_retry_duration_seconds",
			Help:    "Filesystem operation duration including retries in seconds",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"operation", "volume"},
	)
)

// Memory pressure metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "simfinder_memory_usage_ratio",
			Help: "Current heap allocation as a ratio of the memory limit (0.0-1.0)",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "simfinder_memory_paused",
			Help: "Whether fingerprint processing is paused due to memory pressure (1 = paused)",
		},
	)

	MemoryGCPauses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "simfinder_memory_gc_pauses_total",
			Help: "Total number of times processing was paused for memory pressure",
		},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "simfinder_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
