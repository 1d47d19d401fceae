package metrics

import (
	"time"

	"simfinder/internal/logging"
)

// Stats holds a snapshot of index inventory statistics.
type Stats struct {
	Indexes        int
	RecordsByIndex map[string]int
	StoreBytes     map[string]int64
}

// StatsProvider is implemented by types that can report index
// inventory statistics, typically the store manager.
type StatsProvider interface {
	GetStats() (Stats, error)
}

// Collector periodically updates index inventory metrics.
type Collector struct {
	provider StatsProvider
	interval time.Duration
	stopChan chan struct{}
}

// NewCollector creates a metrics collector that polls the provider
// at the given interval.
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		provider: provider,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start begins periodic metric collection in a background goroutine.
func (c *Collector) Start() {
	go c.collectLoop()
	logging.Info("Metrics collector started (interval: %v)", c.interval)
}

// Stop halts periodic metric collection.
func (c *Collector) Stop() {
	close(c.stopChan)
	logging.Info("Metrics collector stopped")
}

func (c *Collector) collectLoop() {
	// Collect once immediately so metrics are populated at startup.
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.provider == nil {
		return
	}

	stats, err := c.provider.GetStats()
	if err != nil {
		logging.Warn("Metrics collection failed: %v", err)
		return
	}

	IndexesTotal.Set(float64(stats.Indexes))

	IndexRecordsTotal.Reset()
	for name, count := range stats.RecordsByIndex {
		IndexRecordsTotal.WithLabelValues(name).Set(float64(count))
	}

	StoreSizeBytes.Reset()
	for name, size := range stats.StoreBytes {
		StoreSizeBytes.WithLabelValues(name).Set(float64(size))
	}
}
