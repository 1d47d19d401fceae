package memory

import (
	"math"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"simfinder/internal/logging"
	"simfinder/internal/metrics"
)

// Config tunes the pressure monitor.
type Config struct {
	// Limit is the soft heap cap in bytes; 0 adopts GOMEMLIMIT when one
	// is set, otherwise the monitor stays inert.
	Limit int64
	// ThrottleAt is the fraction of Limit where pressure begins; a
	// paused monitor resumes workers once usage drops back below it.
	ThrottleAt float64
	// PauseAt is the fraction of Limit where hash workers stop picking
	// up new images until usage recedes.
	PauseAt float64
	// CheckInterval is the sampling period.
	CheckInterval time.Duration
}

// DefaultConfig returns the standard pressure thresholds.
func DefaultConfig() Config {
	return Config{
		ThrottleAt:    0.70,
		PauseAt:       0.85,
		CheckInterval: 5 * time.Second,
	}
}

// Monitor samples heap usage and gates the fingerprint workers, which
// each hold a fully decoded image while hashing. Between ThrottleAt and
// PauseAt the workers keep running; past PauseAt they block in
// WaitIfPaused until usage falls below ThrottleAt again.
type Monitor struct {
	cfg   Config
	limit int64
	stop  chan struct{}

	mu     sync.RWMutex
	alloc  uint64
	paused bool
	resume chan struct{} // closed when a pause ends
}

// NewMonitor builds a monitor. With no explicit limit it adopts
// GOMEMLIMIT; with neither, pressure gating is disabled.
func NewMonitor(cfg Config) *Monitor {
	limit := cfg.Limit
	if limit == 0 {
		if gml := debug.SetMemoryLimit(-1); gml > 0 && gml < 1<<62 {
			limit = gml
			logging.Info("Memory monitor adopting GOMEMLIMIT: %s", humanBytes(limit))
		}
	}
	if limit == 0 {
		logging.Warn("Memory monitor: no limit configured, pressure gating disabled")
	}

	return &Monitor{
		cfg:    cfg,
		limit:  limit,
		stop:   make(chan struct{}),
		resume: make(chan struct{}),
	}
}

// Start launches the sampling loop. A monitor without a limit has
// nothing to sample and starts nothing.
func (m *Monitor) Start() {
	if m.limit == 0 {
		return
	}
	go m.loop()
}

// Stop ends sampling and unblocks any waiting workers.
func (m *Monitor) Stop() {
	close(m.stop)
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.sample()
		case <-m.stop:
			return
		}
	}
}

// sample reads the allocator and applies the pause/resume transitions.
func (m *Monitor) sample() {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.alloc = stats.Alloc
	usage := float64(stats.Alloc) / float64(m.limit)
	metrics.MemoryUsageRatio.Set(usage)

	switch {
	case usage >= m.cfg.PauseAt && !m.paused:
		logging.Warn("Memory at %.1f%% of limit, pausing hash workers", usage*100)
		m.paused = true
		metrics.MemoryPaused.Set(1)
		metrics.MemoryGCPauses.Inc()
		go runtime.GC()

	case usage < m.cfg.ThrottleAt && m.paused:
		logging.Info("Memory back to %.1f%% of limit, resuming hash workers", usage*100)
		m.paused = false
		metrics.MemoryPaused.Set(0)
		close(m.resume)
		m.resume = make(chan struct{})
	}
}

// WaitIfPaused blocks while the monitor holds workers paused. It
// returns false only when the monitor is stopped mid-wait.
func (m *Monitor) WaitIfPaused() bool {
	m.mu.RLock()
	if !m.paused {
		m.mu.RUnlock()
		return true
	}
	resume := m.resume
	m.mu.RUnlock()

	select {
	case <-resume:
		return true
	case <-m.stop:
		return false
	}
}

// IsPaused reports whether workers are currently held.
func (m *Monitor) IsPaused() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paused
}

// Usage returns the sampled heap usage as a fraction of the limit, 0
// when no limit is configured.
func (m *Monitor) Usage() float64 {
	if m.limit == 0 {
		return 0
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return float64(m.alloc) / float64(m.limit)
}

// Stats returns the sampled allocation, the limit, and their ratio.
func (m *Monitor) Stats() (alloc, limit int64, usage float64) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a := m.alloc
	if a > math.MaxInt64 {
		a = math.MaxInt64
	}
	if m.limit > 0 {
		usage = float64(m.alloc) / float64(m.limit)
	}
	return int64(a), m.limit, usage
}
