// Package main provides the entry point for the SimFinder service.
//
// SimFinder is a self-hosted similarity search engine for image
// collections. It fingerprints images with a perceptual hash, keeps one
// SQLite index per source directory, and answers "what looks like this"
// queries by Hamming distance over the stored fingerprints.
//
// # Application Lifecycle
//
// The application follows a structured initialization sequence:
//
//  1. Memory Configuration: Sets GOMEMLIMIT from environment or container limits
//  2. Configuration Loading: Reads environment variables and validates directories
//  3. Store Initialization: Opens the data directory and lists surviving indexes
//  4. Component Initialization:
//     - Memory Monitor: Tracks heap usage and throttles hash workers
//     - Search Engine: Query fingerprinting with an LRU cache
//     - Coordinator: Jobs, per-index writer locks, search generations
//     - Thumbnail Generator: Cached JPEG previews (if enabled)
//     - Metrics Collector: Gathers Prometheus metrics (if enabled)
//  5. HTTP Server Setup: Configures routes, middleware, and starts servers
//  6. Graceful Shutdown: Handles SIGINT/SIGTERM, stops all components cleanly
//
// # HTTP Servers
//
// The application runs two HTTP servers:
//
//  1. Main Server (default port 8080):
//     - Index management (create, list, delete, prune)
//     - Indexing jobs with NDJSON progress streaming
//     - Similarity search
//     - Thumbnail serving with caching
//     - Health, readiness, and version endpoints
//
//  2. Metrics Server (default port 9090, optional):
//     - Prometheus metrics endpoint (/metrics)
//     - Health check endpoints for scrapers confined to that port
//
// # Environment Variables
//
// Configuration is primarily through environment variables:
//
//   - DATA_DIR: Directory holding the SQLite index stores (required, default: /data)
//   - CACHE_DIR: Directory for thumbnail caches (default: /cache)
//   - PORT: Main HTTP server port (default: 8080)
//   - METRICS_PORT: Metrics server port (default: 9090)
//   - METRICS_ENABLED: Enable metrics server (default: true)
//   - THUMBNAILS_ENABLED: Enable thumbnail generation (default: true)
//   - HASH_WORKERS: Hash worker count, 0 sizes from CPU count (default: 0)
//   - SEARCH_CACHE_SIZE: Query fingerprint cache entries (default: 64)
//   - MAX_IMAGE_DIMENSION: Largest accepted image edge in pixels (default: 4096)
//   - LOG_LEVEL: Logging level (debug/info/warn/error)
//   - LOG_HEALTH_CHECKS: Log health probe requests (default: true)
//   - GOMEMLIMIT: Memory limit (MEMORY_LIMIT plus MEMORY_RATIO also honored)
//
// # Graceful Shutdown
//
// The application handles SIGINT and SIGTERM signals gracefully:
//
//  1. Stop metrics collector
//  2. Cancel the coordinator (running jobs abort, progress streams end)
//  3. Stop memory monitor
//  4. Shutdown metrics server (if running)
//  5. Shutdown main HTTP server (30s timeout)
//  6. Close index stores
//
// # Build Requirements
//
// The application requires CGO for SQLite:
//
//	CGO_ENABLED=1 go build -o simfinder ./cmd/simfinder
//
// # Related Packages
//
//   - [simfinder/internal/phash]: DCT-based perceptual hashing
//   - [simfinder/internal/store]: SQLite fingerprint stores
//   - [simfinder/internal/indexer]: Incremental directory indexing
//   - [simfinder/internal/search]: Hamming distance query engine
//   - [simfinder/internal/coordinator]: Jobs, locks, and generations
//   - [simfinder/internal/handlers]: HTTP request handlers
//   - [simfinder/internal/middleware]: HTTP middleware (logging, metrics, gzip)
//   - [simfinder/internal/startup]: Configuration and initialization
package main
