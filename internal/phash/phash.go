package phash

import (
	"fmt"
	"image"
	"math/bits"
	"sort"
	"strconv"

	"github.com/disintegration/imaging"
	"gonum.org/v1/gonum/stat"
)

const (
	// inputSize is the edge length the image is downscaled to before the
	// frequency transform.
	inputSize = 32
	// blockSize is the edge length of the retained low-frequency
	// coefficient block; blockSize² is the fingerprint width in bits.
	blockSize = 8
)

// Bits is the fingerprint width. Distances range from 0 to Bits.
const Bits = blockSize * blockSize

// Fingerprint is a 64-bit perceptual hash. The most significant bit
// corresponds to the DC coefficient; the remaining bits follow the
// retained block in row-major order.
type Fingerprint uint64

// Compute derives the perceptual fingerprint of img.
func Compute(img image.Image) Fingerprint {
	small := imaging.Resize(img, inputSize, inputSize, imaging.Lanczos)
	gray := imaging.Grayscale(small)

	var pixels [inputSize][inputSize]float64
	for y := 0; y < inputSize; y++ {
		for x := 0; x < inputSize; x++ {
			// After Grayscale the channels are equal; red carries luminance.
			pixels[y][x] = float64(gray.NRGBAAt(x, y).R)
		}
	}

	coeffs := dct2D(&pixels)

	var block [Bits]float64
	for v := 0; v < blockSize; v++ {
		for u := 0; u < blockSize; u++ {
			block[v*blockSize+u] = coeffs[v][u]
		}
	}

	return pack(&block, acMedian(&block))
}

// acMedian returns the median of the block's AC coefficients. The DC term
// at index 0 carries the image's overall brightness and is left out so it
// cannot skew the cut line.
func acMedian(block *[Bits]float64) float64 {
	ac := make([]float64, Bits-1)
	copy(ac, block[1:])
	sort.Float64s(ac)
	return stat.Quantile(0.5, stat.Empirical, ac, nil)
}

// pack sets one bit per coefficient strictly above the median, with the
// first coefficient in the most significant position.
func pack(block *[Bits]float64, median float64) Fingerprint {
	var fp Fingerprint
	for i, c := range block {
		if c > median {
			fp |= 1 << (Bits - 1 - i)
		}
	}
	return fp
}

// Distance returns the Hamming distance between two fingerprints: the
// number of differing bit positions, 0 through Bits.
func Distance(a, b Fingerprint) int {
	return bits.OnesCount64(uint64(a) ^ uint64(b))
}

// String returns the canonical serialized form: 16 lowercase hex digits.
func (f Fingerprint) String() string {
	return fmt.Sprintf("%016x", uint64(f))
}

// Parse converts a serialized fingerprint back to its value. Any hex
// string that fits in 64 bits is accepted, so fingerprints written by
// older builds without zero padding still load.
func Parse(s string) (Fingerprint, error) {
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("parse fingerprint %q: %w", s, err)
	}
	return Fingerprint(v), nil
}
