// Package search answers similarity queries against fingerprint stores.
//
// A query is one image file; the engine fingerprints it, linearly scans
// the store, and returns every record within the Hamming-distance
// threshold whose file still exists on disk, ordered nearest first.
package search

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"time"

	"simfinder/internal/errs"
	"simfinder/internal/filesystem"
	"simfinder/internal/logging"
	"simfinder/internal/media"
	"simfinder/internal/metrics"
	"simfinder/internal/phash"
	"simfinder/internal/store"
)

const (
	// DefaultThreshold is the distance cutoff when the caller does not
	// specify one.
	DefaultThreshold = 8

	// MinThreshold and MaxThreshold bound the accepted cutoff range.
	MinThreshold = 0
	MaxThreshold = 20
)

// Match is one search hit.
type Match struct {
	Path     string `json:"path"`
	Distance int    `json:"distance"`
}

// Engine runs similarity searches. An Engine is safe for concurrent use.
type Engine struct {
	retry filesystem.RetryConfig
	cache *queryCache
}

// New creates an engine with a query fingerprint cache of the given
// size; zero or negative disables the cache.
func New(cacheSize int) *Engine {
	e := &Engine{retry: filesystem.DefaultRetryConfig()}
	if cacheSize > 0 {
		e.cache = newQueryCache(cacheSize)
	}
	return e
}

// Search fingerprints the query image and returns every stored record
// within threshold, ascending by distance, ties broken by path. Records
// whose files are gone from disk are excluded but left in the store.
// Zero matches is a valid outcome, not an error.
func (e *Engine) Search(ctx context.Context, st *store.Store, queryPath string, threshold int) ([]Match, error) {
	start := time.Now()

	matches, err := e.search(ctx, st, queryPath, threshold)
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.SearchesTotal.WithLabelValues(status).Inc()
	metrics.SearchDuration.Observe(time.Since(start).Seconds())
	return matches, err
}

func (e *Engine) search(ctx context.Context, st *store.Store, queryPath string, threshold int) ([]Match, error) {
	if threshold < MinThreshold || threshold > MaxThreshold {
		return nil, fmt.Errorf("threshold %d out of range [%d, %d]", threshold, MinThreshold, MaxThreshold)
	}

	query, err := e.queryFingerprint(queryPath)
	if err != nil {
		return nil, err
	}

	cur, err := st.Scan(ctx)
	if err != nil {
		return nil, err
	}
	defer cur.Close()

	matches := []Match{}
	var scanned int
	for cur.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		scanned++
		rec := cur.Record()

		fp, err := phash.Parse(rec.Hash)
		if err != nil {
			// A hash that does not parse can never be distance 0;
			// the record is simply invisible to searches.
			logging.Debug("Skipping %s: unparseable fingerprint %q", rec.Path, rec.Hash)
			continue
		}

		distance := phash.Distance(query, fp)
		if distance > threshold {
			continue
		}

		// Existence is only checked for records inside the threshold,
		// so a scan over a large store costs one stat per match rather
		// than one per record.
		if _, statErr := filesystem.StatWithRetry(rec.Path, e.retry); errors.Is(statErr, fs.ErrNotExist) {
			metrics.SearchMissingFilesSkipped.Inc()
			continue
		}

		matches = append(matches, Match{Path: rec.Path, Distance: distance})
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Distance != matches[j].Distance {
			return matches[i].Distance < matches[j].Distance
		}
		return matches[i].Path < matches[j].Path
	})

	metrics.SearchCandidatesScanned.Observe(float64(scanned))
	metrics.SearchMatchesReturned.Observe(float64(len(matches)))
	return matches, nil
}

// queryFingerprint computes (or recalls) the fingerprint of the query
// image. Cache entries are keyed by path, size, and modification time;
// replacing the file on disk invalidates its entry naturally.
func (e *Engine) queryFingerprint(queryPath string) (phash.Fingerprint, error) {
	fi, err := filesystem.StatWithRetry(queryPath, e.retry)
	if err != nil {
		return 0, errs.Decode(queryPath, err)
	}

	key := queryKey{path: queryPath, mtime: fi.ModTime().UnixNano(), size: fi.Size()}
	if e.cache != nil {
		if fp, ok := e.cache.get(key); ok {
			return fp, nil
		}
	}

	img, err := media.LoadImage(queryPath)
	if err != nil {
		return 0, err
	}
	fp := phash.Compute(img)

	if e.cache != nil {
		e.cache.add(key, fp)
	}
	return fp, nil
}
