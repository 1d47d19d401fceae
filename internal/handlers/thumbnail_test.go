package handlers

import (
	"bytes"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
)

// thumbnailRequest issues a GET /api/thumbnail for the given path.
func thumbnailRequest(t testing.TB, h *Handlers, path string) *httptest.ResponseRecorder {
	t.Helper()

	target := "/api/thumbnail"
	if path != "" {
		target += "?path=" + url.QueryEscape(path)
	}
	req := httptest.NewRequest(http.MethodGet, target, http.NoBody)
	w := httptest.NewRecorder()

	h.GetThumbnail(w, req)
	return w
}

func TestGetThumbnailIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	h, env := setupHandlersTest(t)

	img := writeImage(t, env.sourceDir, "photo.png", 11, 256)
	createIndexViaAPI(t, h, env.sourceDir)

	w := thumbnailRequest(t, h, img)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d (%s)", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("Expected Content-Type image/jpeg, got %s", ct)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "public, max-age=86400" {
		t.Errorf("Expected caching headers, got %s", cc)
	}

	decoded, err := jpeg.Decode(bytes.NewReader(w.Body.Bytes()))
	if err != nil {
		t.Fatalf("Response is not a valid JPEG: %v", err)
	}
	bounds := decoded.Bounds()
	if bounds.Dx() > 200 || bounds.Dy() > 200 {
		t.Errorf("Expected thumbnail within 200x200, got %dx%d", bounds.Dx(), bounds.Dy())
	}

	// A repeat request is served from the cache with identical bytes.
	first := w.Body.Bytes()
	w = thumbnailRequest(t, h, img)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200 on cached request, got %d", w.Code)
	}
	if !bytes.Equal(first, w.Body.Bytes()) {
		t.Error("Expected identical bytes from the thumbnail cache")
	}
}

func TestGetThumbnailValidation(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	h, env := setupHandlersTest(t)

	writeImage(t, env.sourceDir, "photo.png", 12, 64)
	textFile := filepath.Join(env.sourceDir, "notes.txt")
	if err := os.WriteFile(textFile, []byte("text"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	subDir := filepath.Join(env.sourceDir, "nested")
	if err := os.MkdirAll(subDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	outsideDir := t.TempDir()
	outside := writeImage(t, outsideDir, "outside.png", 13, 64)

	createIndexViaAPI(t, h, env.sourceDir)

	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{"missing path param", "", http.StatusBadRequest},
		{"outside indexed directories", outside, http.StatusBadRequest},
		{"traversal out of the index", filepath.Join(env.sourceDir, "..", "escape.png"), http.StatusBadRequest},
		{"missing file", filepath.Join(env.sourceDir, "ghost.png"), http.StatusNotFound},
		{"directory", subDir, http.StatusBadRequest},
		{"unsupported type", textFile, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := thumbnailRequest(t, h, tt.path)
			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d (%s)", tt.wantStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestGetThumbnailDisabled(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	_, env := setupHandlersTest(t)

	config := *env.config
	config.ThumbnailsEnabled = false
	h := New(env.coord, &config)

	img := writeImage(t, env.sourceDir, "photo.png", 14, 64)
	createIndexViaAPI(t, h, env.sourceDir)

	w := thumbnailRequest(t, h, img)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503 with thumbnails disabled, got %d", w.Code)
	}
}

func TestGetThumbnailNoIndexes(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	h, env := setupHandlersTest(t)

	// Without a registered index, nothing is inside an allowed root.
	img := writeImage(t, env.sourceDir, "photo.png", 15, 64)

	w := thumbnailRequest(t, h, img)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 with no indexes, got %d", w.Code)
	}
}

func TestIsSubPath(t *testing.T) {
	sep := string(filepath.Separator)
	root := sep + filepath.Join("data", "photos")

	tests := []struct {
		parent string
		child  string
		want   bool
	}{
		{root, filepath.Join(root, "cat.png"), true},
		{root, filepath.Join(root, "deep", "cat.png"), true},
		{root, root, true},
		{root, root + "-other" + sep + "cat.png", false},
		{root, sep + "data", false},
		{root, sep + filepath.Join("data", "photoshop", "cat.png"), false},
	}

	for _, tt := range tests {
		if got := isSubPath(tt.parent, tt.child); got != tt.want {
			t.Errorf("isSubPath(%q, %q) = %v, want %v", tt.parent, tt.child, got, tt.want)
		}
	}
}
