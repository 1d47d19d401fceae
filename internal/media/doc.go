// Package media loads source images for fingerprinting and renders cached
// preview thumbnails for search results.
//
// Loading goes through LoadImage, which applies the supported-format
// extension gate, probes dimensions without a full decode, and downscales
// oversized inputs so a single hostile file cannot exhaust memory. All
// per-file failures surface as the decode error category, which batch
// callers count and skip.
//
// Thumbnails are 200×200 bounded JPEG renditions cached on disk under an
// md5 content key, generated lazily on first request.
package media
