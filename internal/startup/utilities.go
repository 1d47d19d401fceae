package startup

import (
	"strconv"

	"simfinder/internal/logging"
	"simfinder/internal/memory"
)

// MemoryConfig describes how the Go memory limit was configured at startup.
type MemoryConfig struct {
	Configured     bool
	Source         string
	ContainerLimit int64
	GoMemLimit     int64
	Ratio          float64
}

// MemoryConfigFrom converts a memory.ConfigResult for startup logging.
func MemoryConfigFrom(result memory.ConfigResult) MemoryConfig {
	return MemoryConfig{
		Configured:     result.Configured,
		Source:         result.Source,
		ContainerLimit: result.ContainerLimit,
		GoMemLimit:     result.GoMemLimit,
		Ratio:          result.Ratio,
	}
}

// LogMemoryConfig logs the memory limit configuration
func LogMemoryConfig(mc MemoryConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("MEMORY CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	if !mc.Configured {
		logging.Info("  GOMEMLIMIT not configured")
		logging.Info("  (set MEMORY_LIMIT or GOMEMLIMIT to bound heap usage)")
		return
	}

	switch mc.Source {
	case "GOMEMLIMIT":
		logging.Info("  GOMEMLIMIT:      %s (from environment)", formatBytesStartup(mc.GoMemLimit))
	case "MEMORY_LIMIT":
		logging.Info("  Container limit: %s", formatBytesStartup(mc.ContainerLimit))
		logging.Info("  GOMEMLIMIT:      %s (%.0f%% of container limit)",
			formatBytesStartup(mc.GoMemLimit), mc.Ratio*100)
	default:
		logging.Info("  GOMEMLIMIT:      %s", formatBytesStartup(mc.GoMemLimit))
	}
}

// formatBytesStartup formats bytes into a human-readable string
func formatBytesStartup(b int64) string {
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
