// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// This package centralizes all application configuration and provides consistent
// logging throughout the application lifecycle.
//
// # Configuration
//
// All configuration is loaded from environment variables via [LoadConfig].
// The following environment variables are supported:
//
//   - DATA_DIR: Path to the store directory, one SQLite file per indexed
//     directory (default: /data)
//   - CACHE_DIR: Path to cache directory for thumbnails (default: /cache)
//   - PORT: HTTP server port (default: 8080)
//   - METRICS_PORT: Prometheus metrics server port (default: 9090)
//   - METRICS_ENABLED: Enable or disable metrics server (default: true)
//   - THUMBNAILS_ENABLED: Enable or disable match thumbnails (default: true)
//   - HASH_WORKERS: Fingerprint worker count, 0 for automatic sizing
//     (default: 0)
//   - SEARCH_CACHE_SIZE: Query fingerprint cache entries, 0 disables
//     (default: 64)
//   - MAX_IMAGE_DIMENSION: Largest width or height decoded at full size
//     (default: 4096)
//   - LOG_LEVEL: Logging level - debug, info, warn, error (default: info)
//   - LOG_HEALTH_CHECKS: Log health check requests (default: true)
//
// # Directory Setup
//
// The package validates and creates required directories:
//   - Data directory: Required, must be writable
//   - Cache directory: Optional, enables thumbnails if writable
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo]:
//   - Version: Application version
//   - Commit: Git commit hash
//   - BuildTime: Build timestamp
//   - GoVersion: Go compiler version
//
// # Lifecycle Logging
//
// The package provides structured logging functions for consistent output:
//   - [LogStoreInit]: Store manager initialization timing
//   - [LogCoordinatorInit]: Coordinator configuration
//   - [LogThumbnailInit]: Thumbnail generator configuration
//   - [LogHTTPRoutes]: Registered HTTP routes (debug level)
//   - [LogServerStarted]: Server endpoints and startup duration
//   - [LogShutdownInitiated]: Graceful shutdown start
//   - [LogShutdownComplete]: Shutdown completion
package startup
