package media

import (
	"bytes"
	"crypto/md5" //nolint:gosec // MD5 keys the thumbnail cache, not security
	"fmt"
	"image/jpeg"
	"os"
	"path/filepath"
	"sync"

	"simfinder/internal/logging"

	"github.com/disintegration/imaging"
)

const (
	// ThumbnailSize is the bounding box edge for cached previews.
	ThumbnailSize = 200
	// thumbnailQuality is the JPEG quality for cached previews.
	thumbnailQuality = 80
)

// ThumbnailGenerator renders and caches small JPEG previews of source
// images so a result grid can be shown without decoding originals.
type ThumbnailGenerator struct {
	cacheDir string
	enabled  bool
	mu       sync.Mutex
}

// NewThumbnailGenerator creates a generator writing into cacheDir.
// When disabled, every request fails fast and nothing touches disk.
func NewThumbnailGenerator(cacheDir string, enabled bool) *ThumbnailGenerator {
	if enabled {
		logging.Debug("ThumbnailGenerator: enabled, cache dir: %s", cacheDir)
		if err := os.MkdirAll(cacheDir, 0755); err != nil {
			logging.Warn("ThumbnailGenerator: failed to create cache dir: %v", err)
		}
	} else {
		logging.Debug("ThumbnailGenerator: disabled")
	}
	return &ThumbnailGenerator{
		cacheDir: cacheDir,
		enabled:  enabled,
	}
}

// IsEnabled reports whether thumbnail generation is active.
func (t *ThumbnailGenerator) IsEnabled() bool {
	return t.enabled
}

// CachePath returns the on-disk cache location for a source path.
func (t *ThumbnailGenerator) CachePath(filePath string) string {
	hash := md5.Sum([]byte(filePath)) //nolint:gosec // cache key only
	return filepath.Join(t.cacheDir, fmt.Sprintf("%x.jpg", hash))
}

// GetThumbnail returns the JPEG thumbnail bytes for filePath, generating
// and caching them on first request. Concurrent requests for a cold cache
// serialize on the generator mutex; the double-check after acquiring it
// keeps duplicate work out.
func (t *ThumbnailGenerator) GetThumbnail(filePath string) ([]byte, bool, error) {
	if !t.enabled {
		return nil, false, fmt.Errorf("thumbnails disabled")
	}

	if _, err := os.Stat(filePath); err != nil {
		return nil, false, fmt.Errorf("file not accessible: %w", err)
	}

	cachePath := t.CachePath(filePath)

	if data, err := os.ReadFile(cachePath); err == nil {
		logging.Debug("Thumbnail cache hit: %s", filePath)
		return data, true, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if data, err := os.ReadFile(cachePath); err == nil {
		return data, true, nil
	}

	logging.Debug("Thumbnail generating: %s", filePath)

	img, err := LoadImage(filePath)
	if err != nil {
		return nil, false, fmt.Errorf("thumbnail generation failed: %w", err)
	}

	thumb := imaging.Fit(img, ThumbnailSize, ThumbnailSize, imaging.Lanczos)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: thumbnailQuality}); err != nil {
		return nil, false, fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	if err := os.WriteFile(cachePath, buf.Bytes(), 0644); err != nil {
		logging.Warn("Failed to cache thumbnail %s: %v", cachePath, err)
	} else {
		logging.Debug("Thumbnail cached: %s", cachePath)
	}

	return buf.Bytes(), false, nil
}
