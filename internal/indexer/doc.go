// Package indexer builds and refreshes fingerprint stores from image
// directories.
//
// A pass enumerates the files directly inside the source directory (one
// level, no recursion), gates them by extension, and compares each
// file's modification time against the stored value. Unchanged files
// are skipped without touching their pixels; new or modified files are
// decoded and fingerprinted on a bounded worker pool, and the results
// are committed in short batch transactions. A file that fails to
// decode is counted and skipped; the pass always continues.
//
// Records are never removed during a pass. Files that have disappeared
// from disk stay in the store until PruneMissing is run explicitly;
// searches filter them out lazily in the meantime.
package indexer
