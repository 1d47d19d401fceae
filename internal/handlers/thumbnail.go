package handlers

import (
	"errors"
	"io/fs"
	"net/http"
	"path/filepath"
	"strings"

	"simfinder/internal/filesystem"
	"simfinder/internal/imagetypes"
	"simfinder/internal/logging"
	"simfinder/internal/metrics"
)

// GetThumbnail serves a cached JPEG preview for an image inside a
// registered index's source directory. Paths outside every index are
// rejected so the endpoint cannot be used to read arbitrary files.
func (h *Handlers) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSONError(w, "path is required", http.StatusBadRequest)
		return
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		writeJSONError(w, "invalid path", http.StatusBadRequest)
		return
	}

	allowed, err := h.pathInsideIndex(r, absPath)
	if err != nil {
		metrics.ThumbnailRequestsTotal.WithLabelValues("error").Inc()
		writeError(w, err)
		return
	}
	if !allowed {
		logging.Warn("Thumbnail: path outside indexed directories: %s", absPath)
		writeJSONError(w, "path is not inside an indexed directory", http.StatusBadRequest)
		return
	}

	fi, err := filesystem.StatWithRetry(absPath, h.coord.RetryConfig())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			writeJSONError(w, "file not found", http.StatusNotFound)
		} else {
			metrics.ThumbnailRequestsTotal.WithLabelValues("error").Inc()
			logging.Error("Thumbnail: failed to stat %s: %v", absPath, err)
			writeJSONError(w, "failed to access file", http.StatusInternalServerError)
		}
		return
	}
	if fi.IsDir() {
		writeJSONError(w, "cannot generate thumbnail for directory", http.StatusBadRequest)
		return
	}

	if !h.thumbGen.IsEnabled() {
		writeJSONError(w, "thumbnails disabled", http.StatusServiceUnavailable)
		return
	}

	if !imagetypes.IsSupported(absPath) {
		writeJSONError(w, "unsupported file type", http.StatusBadRequest)
		return
	}

	thumb, cached, err := h.thumbGen.GetThumbnail(absPath)
	if err != nil {
		metrics.ThumbnailRequestsTotal.WithLabelValues("error").Inc()
		logging.Error("Thumbnail: generation failed for %s: %v", absPath, err)
		writeJSONError(w, "failed to generate thumbnail", http.StatusInternalServerError)
		return
	}

	metrics.ThumbnailRequestsTotal.WithLabelValues("success").Inc()
	if cached {
		metrics.ThumbnailCacheHits.Inc()
	} else {
		metrics.ThumbnailCacheMisses.Inc()
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if _, err := w.Write(thumb); err != nil {
		logging.Debug("Thumbnail: write failed for %s: %v", absPath, err)
	}
}

// pathInsideIndex reports whether absPath lies inside the source
// directory of any registered index.
func (h *Handlers) pathInsideIndex(r *http.Request, absPath string) (bool, error) {
	infos, err := h.coord.ListIndexes(r.Context())
	if err != nil {
		return false, err
	}

	for _, info := range infos {
		if info.SourcePath == "" {
			continue
		}
		if isSubPath(info.SourcePath, absPath) {
			return true, nil
		}
	}
	return false, nil
}

// isSubPath reports whether child is parent or inside it. Both paths
// must already be absolute and cleaned.
func isSubPath(parent, child string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
