package coordinator

import (
	"context"

	"simfinder/internal/metrics"
	"simfinder/internal/search"
)

// Search runs a similarity query against the named index. Each store
// has a search slot with a monotonically increasing generation; when a
// newer search on the same slot starts before this one finishes, this
// one's results are discarded and ErrSuperseded reported, so a slow
// stale query can never be mistaken for the answer to a newer one.
func (c *Coordinator) Search(ctx context.Context, name, queryPath string, threshold int) ([]search.Match, error) {
	st, err := c.manager.Open(ctx, name)
	if err != nil {
		return nil, err
	}

	gen := c.nextSearchGen(name)

	type outcome struct {
		matches []search.Match
		err     error
	}
	ch := make(chan outcome, 1)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		matches, err := c.engine.Search(ctx, st, queryPath, threshold)
		ch <- outcome{matches: matches, err: err}
	}()

	select {
	case res := <-ch:
		if !c.isCurrentSearchGen(name, gen) {
			metrics.SearchesTotal.WithLabelValues("superseded").Inc()
			return nil, ErrSuperseded
		}
		return res.matches, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.ctx.Done():
		return nil, c.ctx.Err()
	}
}

// nextSearchGen claims the next generation for a store's search slot.
func (c *Coordinator) nextSearchGen(name string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.searchGens[name]++
	return c.searchGens[name]
}

// isCurrentSearchGen reports whether gen is still the newest generation
// claimed for the store's search slot.
func (c *Coordinator) isCurrentSearchGen(name string, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.searchGens[name] == gen
}
