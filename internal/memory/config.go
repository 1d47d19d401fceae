package memory

import (
	"math"
	"os"
	"runtime/debug"
	"strconv"

	"simfinder/internal/logging"
)

// DefaultMemoryRatio is the share of the container's memory limit
// handed to the Go heap. The remainder covers decoded image buffers
// held by cgo-free decoders, the SQLite page cache, and stacks.
const DefaultMemoryRatio = 0.85

// Configuration sources reported in ConfigResult.Source.
const (
	sourceGOMEMLIMIT  = "GOMEMLIMIT"
	sourceMEMORYLIMIT = "MEMORY_LIMIT"
	sourceNone        = "none"
)

// ConfigResult reports how (and whether) the heap limit was configured.
type ConfigResult struct {
	// Configured is true when GOMEMLIMIT ended up set.
	Configured bool
	// Source names where the limit came from: GOMEMLIMIT, MEMORY_LIMIT,
	// or none.
	Source string
	// ContainerLimit is the container memory limit in bytes, 0 if unknown.
	ContainerLimit int64
	// GoMemLimit is the effective GOMEMLIMIT in bytes, 0 if unset.
	GoMemLimit int64
	// Ratio is the fraction of the container limit given to the heap,
	// 0 when the ratio was not applied.
	Ratio float64
}

// ConfigureFromEnv derives GOMEMLIMIT from the container's memory limit.
// It must run early in main, before anything allocates in earnest.
//
// GOMEMLIMIT, when set, wins outright. Otherwise MEMORY_LIMIT (the
// container limit in bytes, typically injected via the Kubernetes
// Downward API) times MEMORY_RATIO becomes the heap limit.
func ConfigureFromEnv() ConfigResult {
	if env := os.Getenv("GOMEMLIMIT"); env != "" {
		logging.Info("GOMEMLIMIT set via environment: %s", env)
		res := ConfigResult{Source: sourceGOMEMLIMIT}
		if limit := debug.SetMemoryLimit(-1); limit > 0 && limit < math.MaxInt64 {
			res.Configured = true
			res.GoMemLimit = limit
		}
		return res
	}

	raw := os.Getenv("MEMORY_LIMIT")
	if raw == "" {
		logging.Debug("MEMORY_LIMIT not set; heap stays unbounded")
		return ConfigResult{Source: sourceNone}
	}
	containerLimit, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		logging.Warn("Ignoring unparseable MEMORY_LIMIT %q: %v", raw, err)
		return ConfigResult{Source: sourceNone}
	}

	ratio := ratioFromEnv()
	heapLimit := int64(float64(containerLimit) * ratio)
	debug.SetMemoryLimit(heapLimit)

	logging.Info("Configured GOMEMLIMIT: %s (%.0f%% of %s container limit)",
		humanBytes(heapLimit), ratio*100, humanBytes(containerLimit))

	return ConfigResult{
		Configured:     true,
		Source:         sourceMEMORYLIMIT,
		ContainerLimit: containerLimit,
		GoMemLimit:     heapLimit,
		Ratio:          ratio,
	}
}

// ratioFromEnv reads MEMORY_RATIO, falling back to the default for
// anything outside (0, 1].
func ratioFromEnv() float64 {
	raw := os.Getenv("MEMORY_RATIO")
	if raw == "" {
		return DefaultMemoryRatio
	}
	ratio, err := strconv.ParseFloat(raw, 64)
	if err != nil || ratio <= 0 || ratio > 1 {
		logging.Warn("Ignoring MEMORY_RATIO %q, using %.2f", raw, DefaultMemoryRatio)
		return DefaultMemoryRatio
	}
	return ratio
}

// humanBytes renders a byte count in binary units.
func humanBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return strconv.FormatInt(b, 10) + " B"
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return strconv.FormatFloat(float64(b)/float64(div), 'f', 1, 64) + " " + string("KMGTPE"[exp]) + "iB"
}
