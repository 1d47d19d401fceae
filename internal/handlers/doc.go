// Package handlers provides HTTP request handlers for the similarity
// search API.
//
// It includes handlers for:
//   - Index management (create, list, delete, prune)
//   - Indexing jobs and NDJSON progress streams
//   - Similarity search over indexed directories
//   - Match thumbnails
//   - Health checks and build information
package handlers
