package store

// Record is one row of the images table: a fingerprinted file.
type Record struct {
	// Path is the absolute path of the source image file.
	Path string `json:"path"`
	// Hash is the canonical hex serialization of the perceptual
	// fingerprint (16 lowercase hex digits).
	Hash string `json:"hash"`
	// LastModified is the file's modification time, in seconds since the
	// Unix epoch, captured when the fingerprint was computed. A record is
	// trustworthy only while this still matches the live file.
	LastModified float64 `json:"lastModified"`
}

// IndexInfo describes one store in the data directory.
type IndexInfo struct {
	// Name is the store file name, e.g. "photos-3f2a1b.db".
	Name string `json:"name"`
	// SourcePath is the directory this index represents, read from the
	// store's info table. Empty if the store has never completed a pass
	// and was created by an older build that did not set it on open.
	SourcePath string `json:"sourcePath"`
	// Records is the number of fingerprinted files in the store.
	Records int `json:"records"`
}

// SourcePathKey is the info-table key holding the indexed directory.
const SourcePathKey = "source_path"
