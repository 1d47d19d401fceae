package search

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"simfinder/internal/metrics"
	"simfinder/internal/phash"
)

// queryKey identifies one version of one query file.
type queryKey struct {
	path  string
	mtime int64 // UnixNano
	size  int64
}

// queryCache remembers fingerprints of recently queried images so
// repeat searches skip the decode and DCT entirely.
type queryCache struct {
	lru *lru.Cache[queryKey, phash.Fingerprint]
}

func newQueryCache(size int) *queryCache {
	// lru.New only fails for non-positive sizes, which the caller
	// guards against.
	cache, _ := lru.New[queryKey, phash.Fingerprint](size)
	return &queryCache{lru: cache}
}

func (c *queryCache) get(key queryKey) (phash.Fingerprint, bool) {
	fp, ok := c.lru.Get(key)
	if ok {
		metrics.QueryCacheHits.Inc()
	} else {
		metrics.QueryCacheMisses.Inc()
	}
	return fp, ok
}

func (c *queryCache) add(key queryKey, fp phash.Fingerprint) {
	c.lru.Add(key, fp)
}
