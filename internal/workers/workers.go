package workers

import (
	"os"
	"runtime"
	"strconv"
)

// Workload multipliers applied to the CPU budget.
const (
	cpuBound = 1.0
	ioBound  = 2.0
	mixed    = 1.5
)

// envOverride is the operator escape hatch for pool sizing.
const envOverride = "HASH_WORKERS"

// Count sizes a worker pool: the CPU budget (GOMAXPROCS, which tracks
// container CPU limits on Go 1.19+) times a workload multiplier,
// clamped to [1, limit] when limit is positive. The HASH_WORKERS
// environment variable overrides the calculation entirely.
func Count(multiplier float64, limit int) int {
	if n, ok := override(); ok {
		return clamp(n, limit)
	}
	return clamp(int(float64(runtime.GOMAXPROCS(0))*multiplier), limit)
}

// override reads the HASH_WORKERS variable; anything that is not a
// positive integer is ignored.
func override() (int, bool) {
	raw := os.Getenv(envOverride)
	if raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func clamp(n, limit int) int {
	if n < 1 {
		n = 1
	}
	if limit > 0 && n > limit {
		n = limit
	}
	return n
}

// ForCPU sizes a pool for CPU-bound work, one worker per CPU.
func ForCPU(limit int) int { return Count(cpuBound, limit) }

// ForIO sizes a pool for I/O-bound work, two workers per CPU.
func ForIO(limit int) int { return Count(ioBound, limit) }

// ForMixed sizes a pool for work that alternates between reading file
// bytes and crunching them, like fingerprint extraction.
func ForMixed(limit int) int { return Count(mixed, limit) }
