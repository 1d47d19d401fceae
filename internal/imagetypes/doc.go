// Package imagetypes defines the image formats the similarity engine
// accepts and the extension gate applied before any decode is attempted.
//
// This package exists as a dependency-free foundation that can be imported
// by other packages without creating import cycles. It contains only
// primitive maps and pure utility functions.
//
// # Supported Formats
//
// The engine fingerprints PNG, JPEG, and WEBP files. Eligibility is decided
// purely by file extension (case-insensitive):
//
//	if imagetypes.IsSupported(path) {
//	    // File will be decoded and fingerprinted
//	}
//
// # MIME Types
//
// Use GetMimeType to get the appropriate MIME type for HTTP responses:
//
//	mimeType := imagetypes.GetMimeType(imagetypes.Ext(path))
package imagetypes
