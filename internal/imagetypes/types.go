package imagetypes

import (
	"path/filepath"
	"strings"
)

// SupportedExtensions maps file extensions to whether the similarity engine
// will attempt to decode them. Only these formats are fingerprinted; the
// gate runs on the extension before any decode is attempted.
var SupportedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
}

// MimeTypes maps supported file extensions to their MIME types.
var MimeTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
}

// Ext returns the lowercased extension of path, including the leading dot.
func Ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// IsSupported returns true if path has an extension the engine indexes.
func IsSupported(path string) bool {
	return SupportedExtensions[Ext(path)]
}

// GetMimeType returns the MIME type for a given file extension.
// The extension should be lowercase and include the leading dot (e.g., ".jpg").
// Returns "application/octet-stream" if the extension is not recognized.
func GetMimeType(ext string) string {
	if mime, ok := MimeTypes[ext]; ok {
		return mime
	}
	return "application/octet-stream"
}
