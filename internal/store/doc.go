// Package store persists perceptual fingerprints for indexed directories.
//
// Each indexed directory gets its own SQLite store file in the data
// directory, named by the pure function Name so re-indexing a directory
// always reuses the same store. A store holds two tables:
//
//   - images: path (unique) → fingerprint hex, last-modified timestamp
//   - info:   key (unique) → value, at minimum "source_path"
//
// Stores run in WAL mode so read-only scans see a consistent snapshot
// while an indexing pass commits batches: a search never observes a
// partially written record. Writes are serialized per store; batch
// transactions are short-lived (BeginBatch/EndBatch around a few hundred
// upserts) rather than one exclusive transaction per indexing pass.
//
// The Manager owns the data directory: it opens stores on demand, caches
// open handles, enumerates all stores with their source directories, and
// deletes store files on request.
package store
