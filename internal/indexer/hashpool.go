package indexer

import (
	"context"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"simfinder/internal/errs"
	"simfinder/internal/filesystem"
	"simfinder/internal/logging"
	"simfinder/internal/media"
	"simfinder/internal/metrics"
	"simfinder/internal/phash"
	"simfinder/internal/store"
	"simfinder/internal/workers"
)

// fileJob is one file handed to a hash worker.
type fileJob struct {
	name string // file name within the source directory
	path string // absolute path
}

// hashResult is the outcome of one file.
type hashResult struct {
	rec     *store.Record // non-nil when the file was hashed
	skipped bool          // unchanged since the stored pass
	err     error         // per-file failure, or a fatal store error
}

// processAll fans the candidate files out to hash workers and commits
// their fingerprints in batches. The collector runs on the calling
// goroutine and is the store's only writer for the pass.
func (ix *Indexer) processAll(ctx context.Context, dir string, names []string) error {
	numWorkers := ix.config.Workers
	if numWorkers <= 0 {
		numWorkers = workers.ForMixed(maxHashWorkers)
	}
	metrics.IndexerWorkers.Set(float64(numWorkers))
	logging.Debug("Hashing with %d workers", numWorkers)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(runCtx)

	jobs := make(chan fileJob)
	results := make(chan hashResult, numWorkers)

	g.Go(func() error {
		defer close(jobs)
		for _, name := range names {
			select {
			case jobs <- fileJob{name: name, path: filepath.Join(dir, name)}:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	for i := 0; i < numWorkers; i++ {
		g.Go(func() error {
			for job := range jobs {
				res := ix.processFile(gctx, job)
				select {
				case results <- res:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}

	go func() {
		// Workers are done (or aborted) once Wait returns; the
		// collector's range can then terminate.
		_ = g.Wait()
		close(results)
	}()

	var batch []*store.Record
	var fatal error
	for res := range results {
		if fatal != nil {
			continue // drain
		}
		if res.err != nil && errs.IsStore(res.err) {
			fatal = res.err
			cancel()
			continue
		}

		ix.processed.Add(1)
		switch {
		case res.err != nil:
			ix.failed.Add(1)
		case res.skipped:
			ix.skipped.Add(1)
		default:
			ix.hashed.Add(1)
			batch = append(batch, res.rec)
			if len(batch) >= ix.config.BatchSize {
				if err := ix.flush(batch); err != nil {
					fatal = err
					cancel()
					continue
				}
				batch = batch[:0]
			}
		}
		ix.emitProgress(false)
	}

	if fatal != nil {
		return fatal
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ix.flush(batch)
}

// processFile decides skip-or-hash for one file and computes the
// fingerprint when needed.
func (ix *Indexer) processFile(ctx context.Context, job fileJob) hashResult {
	fi, err := filesystem.StatWithRetry(job.path, ix.config.Retry)
	if err != nil {
		logging.Warn("Skipping %s: stat failed: %v", job.name, err)
		return hashResult{err: err}
	}
	mtime := modTime(fi)

	stored, ok, err := ix.st.GetModifiedTime(ctx, job.path)
	if err != nil {
		return hashResult{err: err}
	}
	if ok && stored == mtime {
		return hashResult{skipped: true}
	}

	if ix.monitor != nil {
		ix.monitor.WaitIfPaused()
	}

	img, err := media.LoadImage(job.path)
	if err != nil {
		metrics.IndexerDecodeFailures.Inc()
		logging.Warn("Skipping %s: %v", job.name, err)
		return hashResult{err: err}
	}

	hashStart := time.Now()
	fp := phash.Compute(img)
	metrics.IndexerHashDuration.Observe(time.Since(hashStart).Seconds())

	return hashResult{rec: &store.Record{
		Path:         job.path,
		Hash:         fp.String(),
		LastModified: mtime,
	}}
}

// flush commits one batch of records.
func (ix *Indexer) flush(batch []*store.Record) error {
	if len(batch) == 0 {
		return nil
	}

	tx, err := ix.st.BeginBatch()
	if err != nil {
		return err
	}
	var txErr error
	for _, rec := range batch {
		if txErr = ix.st.UpsertTx(tx, rec); txErr != nil {
			break
		}
	}
	return ix.st.EndBatch(tx, txErr)
}
