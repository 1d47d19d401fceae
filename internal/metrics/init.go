package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	// --- Store query metrics (per operation × status) ---
	storeOps := []string{"open", "upsert", "get_mtime", "scan", "delete", "set_meta", "get_meta", "begin_batch", "commit_batch"}

	for _, op := range storeOps {
		StoreQueryTotal.WithLabelValues(op, "success")
		StoreQueryTotal.WithLabelValues(op, "error")
		StoreQueryDuration.WithLabelValues(op)
	}

	// --- Search outcome statuses ---
	for _, status := range []string{"success", "error", "superseded"} {
		SearchesTotal.WithLabelValues(status)
	}

	// --- Thumbnail request statuses ---
	for _, status := range []string{"success", "error", "disabled"} {
		ThumbnailRequestsTotal.WithLabelValues(status)
	}

	// --- Filesystem retry metrics (per retry-operation × volume) ---
	retryOps := []string{"stat", "open"}
	volumes := []string{"source", "data", "cache", "unknown"}

	for _, op := range retryOps {
		for _, vol := range volumes {
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
			FilesystemRetryDuration.WithLabelValues(op, vol)
		}
	}
}
