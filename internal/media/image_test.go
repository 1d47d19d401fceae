package media

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"simfinder/internal/errs"
)

// writeTestPNG writes a small gradient PNG and returns its path.
func writeTestPNG(t *testing.T, dir, name string, width, height int) string {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x * 255 / width),
				G: uint8(y * 255 / height),
				B: 96,
				A: 255,
			})
		}
	}

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
	return path
}

func TestLoadImage(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeTestPNG(t, dir, "ok.png", 80, 60)

	img, err := LoadImage(path)
	if err != nil {
		t.Fatalf("LoadImage: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != 80 || bounds.Dy() != 60 {
		t.Errorf("loaded %dx%d, want 80x60", bounds.Dx(), bounds.Dy())
	}
}

func TestLoadImageUnsupportedExtension(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "anim.gif")
	if err := os.WriteFile(path, []byte("GIF89a"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadImage(path)
	if err == nil {
		t.Fatal("LoadImage should reject unsupported extensions")
	}
	if !errs.IsDecode(err) {
		t.Errorf("expected a decode error, got %v", err)
	}
}

func TestLoadImageCorrupt(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "broken.png")
	if err := os.WriteFile(path, []byte("this is not a png"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadImage(path)
	if err == nil {
		t.Fatal("LoadImage should fail on corrupt data")
	}
	if !errs.IsDecode(err) {
		t.Errorf("expected a decode error, got %v", err)
	}
}

func TestLoadImageMissing(t *testing.T) {
	t.Parallel()

	_, err := LoadImage(filepath.Join(t.TempDir(), "gone.jpg"))
	if err == nil {
		t.Fatal("LoadImage should fail for a missing file")
	}
	if !errs.IsDecode(err) {
		t.Errorf("expected a decode error, got %v", err)
	}
}

func TestLoadImageConstrainedDownscales(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeTestPNG(t, dir, "wide.png", 300, 100)

	img, err := LoadImageConstrained(path, 150, MaxImagePixels)
	if err != nil {
		t.Fatalf("LoadImageConstrained: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != 150 || bounds.Dy() != 50 {
		t.Errorf("constrained to %dx%d, want 150x50", bounds.Dx(), bounds.Dy())
	}
}

func TestLoadImageConstrainedPixelCap(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeTestPNG(t, dir, "big.png", 200, 200)

	img, err := LoadImageConstrained(path, MaxImageDimension, 10000)
	if err != nil {
		t.Fatalf("LoadImageConstrained: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != 50 || bounds.Dy() != 50 {
		t.Errorf("constrained to %dx%d, want 50x50", bounds.Dx(), bounds.Dy())
	}
}

func TestLoadImageWithinLimitsKeepsSize(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeTestPNG(t, dir, "small.png", 64, 48)

	img, err := LoadImageConstrained(path, 100, 100*100)
	if err != nil {
		t.Fatalf("LoadImageConstrained: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != 64 || bounds.Dy() != 48 {
		t.Errorf("image within limits was resized to %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestGetImageDimensions(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeTestPNG(t, dir, "probe.png", 123, 45)

	dims, err := GetImageDimensions(path)
	if err != nil {
		t.Fatalf("GetImageDimensions: %v", err)
	}
	if dims.Width != 123 || dims.Height != 45 {
		t.Errorf("probed %dx%d, want 123x45", dims.Width, dims.Height)
	}
}
