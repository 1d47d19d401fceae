package media

import (
	"fmt"
	"image"
	"os"

	"simfinder/internal/errs"
	"simfinder/internal/imagetypes"
	"simfinder/internal/logging"

	// Image format decoders
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // WebP format support
)

const (
	// MaxImageDimension is the maximum width or height we'll process.
	// Larger images are downscaled before fingerprinting.
	MaxImageDimension = 4096

	// MaxImagePixels is the maximum total pixels (width * height) we'll
	// decode at full size. ~20MP uses ~80MB in RGBA.
	MaxImagePixels = 20_000_000
)

var (
	defaultMaxDimension = MaxImageDimension
	defaultMaxPixels    = MaxImagePixels
)

// SetDefaultMaxDimension overrides the dimension cap used by LoadImage.
// Call once during startup, before any loads run; values below 1 keep
// the built-in default.
func SetDefaultMaxDimension(maxDimension int) {
	if maxDimension > 0 {
		defaultMaxDimension = maxDimension
	}
}

// LoadImage loads a supported image file, downscaling if it exceeds the
// default size limits. Every failure is reported as a decode error so
// batch callers can skip and continue.
func LoadImage(path string) (image.Image, error) {
	return LoadImageConstrained(path, defaultMaxDimension, defaultMaxPixels)
}

// LoadImageConstrained loads an image, downscaling if it exceeds the given
// limits. This prevents OOM when processing very large images.
func LoadImageConstrained(path string, maxDimension, maxPixels int) (image.Image, error) {
	if !imagetypes.IsSupported(path) {
		return nil, errs.Decode(path, fmt.Errorf("unsupported image format %q", imagetypes.Ext(path)))
	}

	// Probe dimensions without fully decoding
	dimensions, err := GetImageDimensions(path)
	if err != nil {
		return nil, errs.Decode(path, err)
	}

	width, height := dimensions.Width, dimensions.Height
	pixels := width * height

	logging.Debug("Image %s dimensions: %dx%d (%d pixels)", path, width, height, pixels)

	needsConstraint := width > maxDimension || height > maxDimension || pixels > maxPixels

	if !needsConstraint {
		img, err := imaging.Open(path, imaging.AutoOrientation(true))
		if err != nil {
			return nil, errs.Decode(path, err)
		}
		return img, nil
	}

	targetWidth, targetHeight := constrainTo(width, height, maxDimension, maxPixels)
	logging.Info("Constraining large image %s from %dx%d to %dx%d", path, width, height, targetWidth, targetHeight)

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, errs.Decode(path, err)
	}

	return imaging.Resize(img, targetWidth, targetHeight, imaging.Lanczos), nil
}

// constrainTo shrinks a width/height pair to respect the edge cap
// first, then the pixel budget, preserving aspect ratio throughout.
func constrainTo(width, height, maxDimension, maxPixels int) (int, int) {
	w, h := width, height
	if w > maxDimension || h > maxDimension {
		if w > h {
			h = h * maxDimension / w
			w = maxDimension
		} else {
			w = w * maxDimension / h
			h = maxDimension
		}
	}
	if pixels := w * h; pixels > maxPixels {
		scale := float64(maxPixels) / float64(pixels)
		w = int(float64(w) * scale)
		h = int(float64(h) * scale)
	}
	return w, h
}

// ImageDimensions holds image width and height
type ImageDimensions struct {
	Width  int
	Height int
}

// GetImageDimensions returns image dimensions without fully decoding the image
func GetImageDimensions(path string) (*ImageDimensions, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	config, _, err := image.DecodeConfig(file)
	if err != nil {
		return nil, err
	}

	return &ImageDimensions{
		Width:  config.Width,
		Height: config.Height,
	}, nil
}
