package store

import (
	"crypto/md5" //nolint:gosec // MD5 keys store file names, not security
	"fmt"
	"path/filepath"
	"strings"
)

// Name derives the store file name for a source directory. The name is a
// pure function of the cleaned directory path, so indexing the same
// directory always lands in the same store file: the directory's base
// name for readability, plus the first six hex digits of the path's MD5
// to keep same-named directories apart.
func Name(directory string) string {
	clean := filepath.Clean(directory)
	sum := md5.Sum([]byte(clean)) //nolint:gosec // file-name key only

	base := filepath.Base(clean)
	if base == "/" || base == "." || base == "" {
		base = "index"
	}
	// Path separators cannot appear in a file name; Windows-style ones
	// can when a foreign path is handed over verbatim.
	base = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' {
			return '_'
		}
		return r
	}, base)

	return fmt.Sprintf("%s-%x.db", base, sum[:3])
}

// ValidName reports whether name is a well-formed store file name that is
// safe to join onto the data directory: a plain ".db" file name with no
// path components. Names arriving over the API go through this gate
// before they ever touch the filesystem.
func ValidName(name string) bool {
	if !strings.HasSuffix(name, ".db") || len(name) == len(".db") {
		return false
	}
	if name != filepath.Base(name) {
		return false
	}
	if strings.ContainsAny(name, "/\\") || name == ".." {
		return false
	}
	return true
}
