// Package metrics provides Prometheus instrumentation for the similarity
// finder service.
//
// This package defines and exposes various metrics that can be scraped by
// Prometheus to monitor the health, performance, and behavior of the
// application. All metrics are prefixed with "simfinder_" to avoid naming
// collisions with other applications.
//
// # Metric Categories
//
// The metrics are organized into the following categories:
//
// ## HTTP Metrics
//
// Track HTTP request performance and error rates:
//   - HTTPRequestsTotal: Counter of total requests by method, path, and status
//   - HTTPRequestDuration: Histogram of request duration by method and path
//   - HTTPRequestsInFlight: Gauge of currently processing requests
//
// ## Store Metrics
//
// Monitor index store query performance and storage:
//   - StoreQueryTotal: Counter of store queries by operation and status
//   - StoreQueryDuration: Histogram of query duration by operation
//   - StoresOpen: Gauge of stores currently held open
//   - StoreSizeBytes: Gauge of store file sizes by index
//
// ## Indexer Metrics
//
// Track fingerprint indexing operations:
//   - IndexerRunsTotal: Counter of indexing passes
//   - IndexerLastRunTimestamp: Gauge of last pass completion time
//   - IndexerLastRunDuration: Gauge of last pass duration
//   - IndexerFilesProcessed: Counter of files examined
//   - IndexerFilesHashed: Counter of files decoded and fingerprinted
//   - IndexerFilesSkipped: Counter of files skipped as unchanged
//   - IndexerDecodeFailures: Counter of undecodable files
//   - IndexerIsRunning: Gauge indicating if a pass is active
//   - IndexerHashDuration: Histogram of per-file fingerprint time
//   - IndexerWorkers: Gauge of hash workers in the current pass
//   - IndexerRecordsPruned: Counter of records removed by prune
//
// ## Search Metrics
//
// Monitor similarity search behavior:
//   - SearchesTotal: Counter of searches by status
//   - SearchDuration: Histogram of end-to-end search time
//   - SearchCandidatesScanned: Histogram of stored records scanned per search
//   - SearchMatchesReturned: Histogram of matches returned per search
//   - SearchMissingFilesSkipped: Counter of stale records skipped
//   - QueryCacheHits / QueryCacheMisses: Query fingerprint cache counters
//
// ## Thumbnail Metrics
//
// Monitor thumbnail generation and caching:
//   - ThumbnailRequestsTotal: Counter of thumbnail requests by status
//   - ThumbnailCacheHits / ThumbnailCacheMisses: Cache counters
//
// ## Index Inventory Metrics
//
// Track the index collection as a whole:
//   - IndexesTotal: Gauge of indexes in the data directory
//   - IndexRecordsTotal: Gauge of records per index
//
// ## Filesystem Metrics
//
// Monitor filesystem retry behavior on network mounts:
//   - FilesystemRetryAttempts / Success / Failures: Retry counters
//   - FilesystemStaleErrors: Counter of NFS stale handle errors
//   - FilesystemRetryDuration: Histogram of operation time including retries
//
// ## Application Info
//
// Expose build information:
//   - AppInfo: Gauge with version, commit, and Go version labels
//
// # Usage
//
// Metrics are automatically registered with the default Prometheus registry
// using promauto. To expose them, mount the promhttp.Handler() on your
// metrics endpoint:
//
//	import "github.com/prometheus/client_golang/prometheus/promhttp"
//
//	mux.Handle("/metrics", promhttp.Handler())
//
// # Recording Metrics
//
// To record metrics from other packages, import this package and use the
// exported metric variables:
//
//	import "simfinder/internal/metrics"
//
//	// Increment a counter
//	metrics.IndexerFilesHashed.Inc()
//
//	// Observe a histogram value
//	metrics.SearchDuration.Observe(0.123)
//
//	// Set a gauge value
//	metrics.StoresOpen.Set(3)
//
// # Collector
//
// The package provides a [Collector] type that periodically gathers
// statistics from a [StatsProvider] and updates the index inventory gauges:
//
//	collector := metrics.NewCollector(manager, 1*time.Minute)
//	collector.Start()
//	defer collector.Stop()
//
// # Prometheus Queries
//
// Example PromQL queries for common use cases:
//
// Request rate by endpoint:
//
//	sum(rate(simfinder_http_requests_total[5m])) by (path)
//
// P95 search latency:
//
//	histogram_quantile(0.95, sum(rate(simfinder_search_duration_seconds_bucket[5m])) by (le))
//
// Indexer skip efficiency (fraction of files skipped as unchanged):
//
//	rate(simfinder_indexer_files_skipped_total[1h]) /
//	rate(simfinder_indexer_files_processed_total[1h])
//
// Query cache hit rate:
//
//	rate(simfinder_query_cache_hits_total[5m]) /
//	(rate(simfinder_query_cache_hits_total[5m]) + rate(simfinder_query_cache_misses_total[5m]))
//
// Stale record ratio (missing files seen per search):
//
//	rate(simfinder_search_missing_files_skipped_total[1h]) /
//	rate(simfinder_searches_total[1h])
package metrics
