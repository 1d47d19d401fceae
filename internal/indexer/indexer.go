package indexer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"simfinder/internal/filesystem"
	"simfinder/internal/imagetypes"
	"simfinder/internal/logging"
	"simfinder/internal/memory"
	"simfinder/internal/metrics"
	"simfinder/internal/store"
)

const (
	// Number of fingerprints to commit per batch transaction
	defaultBatchSize = 250

	// Emit a progress snapshot every N processed files
	progressEvery = 10

	// Upper bound on hash workers regardless of CPU count
	maxHashWorkers = 16
)

// Config controls one indexing pass.
type Config struct {
	// BatchSize is the number of records committed per transaction
	BatchSize int
	// Workers is the hash worker count (0 = sized from CPU count,
	// HASH_WORKERS overrides)
	Workers int
	// Retry governs stat calls against the source directory
	Retry filesystem.RetryConfig
}

// DefaultConfig returns the standard indexing configuration.
func DefaultConfig() Config {
	return Config{
		BatchSize: defaultBatchSize,
		Retry:     filesystem.DefaultRetryConfig(),
	}
}

// Progress is a point-in-time snapshot of a running pass.
type Progress struct {
	Processed int `json:"processed"`
	Total     int `json:"total"`
	Hashed    int `json:"hashed"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// Result summarizes a completed pass.
type Result struct {
	Total    int           `json:"total"`
	Hashed   int           `json:"hashed"`
	Skipped  int           `json:"skipped"`
	Failed   int           `json:"failed"`
	Duration time.Duration `json:"-"`
}

// Indexer runs indexing passes for one source directory into one store.
type Indexer struct {
	st     *store.Store
	dir    string
	config Config

	monitor    *memory.Monitor
	onProgress func(Progress)

	// Pass counters; reset at the start of each Run
	total     int
	processed atomic.Int64
	hashed    atomic.Int64
	skipped   atomic.Int64
	failed    atomic.Int64
}

// New creates an indexer for the given store and source directory.
func New(st *store.Store, dir string, config Config) *Indexer {
	if config.BatchSize <= 0 {
		config.BatchSize = defaultBatchSize
	}
	return &Indexer{
		st:     st,
		dir:    dir,
		config: config,
	}
}

// SetProgressFunc registers a callback invoked with progress snapshots
// during Run. The callback runs on the pass's collector goroutine and
// must not block for long.
func (ix *Indexer) SetProgressFunc(fn func(Progress)) {
	ix.onProgress = fn
}

// SetMemoryMonitor attaches a memory monitor; hash workers pause before
// decoding while memory pressure is critical.
func (ix *Indexer) SetMemoryMonitor(m *memory.Monitor) {
	ix.monitor = m
}

// Run executes one indexing pass. Per-file decode failures are counted
// and skipped; only store-level failures and context cancellation abort
// the pass. Records committed before an abort stay committed.
func (ix *Indexer) Run(ctx context.Context) (Result, error) {
	start := time.Now()

	metrics.IndexerRunsTotal.Inc()
	metrics.IndexerIsRunning.Set(1)
	defer metrics.IndexerIsRunning.Set(0)

	abs, err := filepath.Abs(ix.dir)
	if err != nil {
		return Result{}, fmt.Errorf("failed to resolve source directory: %w", err)
	}

	names, err := ix.enumerate()
	if err != nil {
		return Result{}, err
	}

	ix.resetCounters(len(names))
	logging.Info("Indexing %s: %d candidate files", abs, len(names))
	ix.emitProgress(true)

	if err := ix.processAll(ctx, abs, names); err != nil {
		return ix.result(start), err
	}

	// Record which directory these fingerprints came from so listings
	// can report it without re-deriving anything from the store name.
	if err := ix.st.SetMeta(ctx, store.SourcePathKey, abs); err != nil {
		return ix.result(start), err
	}

	ix.emitProgress(true)
	res := ix.result(start)

	metrics.IndexerLastRunTimestamp.Set(float64(time.Now().Unix()))
	metrics.IndexerLastRunDuration.Set(res.Duration.Seconds())
	metrics.IndexerFilesProcessed.Add(float64(res.Total))
	metrics.IndexerFilesHashed.Add(float64(res.Hashed))
	metrics.IndexerFilesSkipped.Add(float64(res.Skipped))

	logging.Info("Index pass complete: %d files (%d hashed, %d skipped, %d failed) in %v",
		res.Total, res.Hashed, res.Skipped, res.Failed, res.Duration)
	return res, nil
}

// enumerate lists the eligible files directly inside the source
// directory. One level only; subdirectories are not descended into.
func (ix *Indexer) enumerate() ([]string, error) {
	entries, err := os.ReadDir(ix.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read source directory %s: %w", ix.dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !imagetypes.IsSupported(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}

func (ix *Indexer) resetCounters(total int) {
	ix.total = total
	ix.processed.Store(0)
	ix.hashed.Store(0)
	ix.skipped.Store(0)
	ix.failed.Store(0)
}

// Snapshot returns the current pass progress.
func (ix *Indexer) Snapshot() Progress {
	return Progress{
		Processed: int(ix.processed.Load()),
		Total:     ix.total,
		Hashed:    int(ix.hashed.Load()),
		Skipped:   int(ix.skipped.Load()),
		Failed:    int(ix.failed.Load()),
	}
}

// emitProgress invokes the progress callback. Routine updates are
// thinned to every progressEvery files; force bypasses that for the
// initial and terminal snapshots.
func (ix *Indexer) emitProgress(force bool) {
	if ix.onProgress == nil {
		return
	}
	p := ix.Snapshot()
	if force || p.Processed == p.Total || p.Processed%progressEvery == 0 {
		ix.onProgress(p)
	}
}

func (ix *Indexer) result(start time.Time) Result {
	return Result{
		Total:    ix.total,
		Hashed:   int(ix.hashed.Load()),
		Skipped:  int(ix.skipped.Load()),
		Failed:   int(ix.failed.Load()),
		Duration: time.Since(start),
	}
}

// modTime returns the file's modification time as seconds with
// fractional precision, the representation stored in the images table.
// Both sides of the skip comparison go through this function, so equal
// times compare equal after a round trip through the store.
func modTime(fi os.FileInfo) float64 {
	return float64(fi.ModTime().UnixNano()) / 1e9
}
