package phash

import "math"

// cosTable[u][x] holds cos((2x+1)·u·π/2N) for the N-point DCT-II.
var cosTable [inputSize][inputSize]float64

// alpha holds the orthonormal DCT-II scale factors: sqrt(1/N) for the
// first basis function, sqrt(2/N) for the rest.
var alpha [inputSize]float64

func init() {
	n := float64(inputSize)
	for u := 0; u < inputSize; u++ {
		for x := 0; x < inputSize; x++ {
			cosTable[u][x] = math.Cos((2*float64(x) + 1) * float64(u) * math.Pi / (2 * n))
		}
	}
	alpha[0] = math.Sqrt(1 / n)
	for u := 1; u < inputSize; u++ {
		alpha[u] = math.Sqrt(2 / n)
	}
}

// dct2D computes the low-frequency blockSize×blockSize corner of the 2D
// DCT-II of a square pixel plane, as two separable one-dimensional passes
// (rows, then columns). Coefficients outside the retained block never feed
// the fingerprint, so they are not computed.
func dct2D(pixels *[inputSize][inputSize]float64) [blockSize][blockSize]float64 {
	var rows [inputSize][blockSize]float64
	for y := 0; y < inputSize; y++ {
		for u := 0; u < blockSize; u++ {
			var sum float64
			for x := 0; x < inputSize; x++ {
				sum += pixels[y][x] * cosTable[u][x]
			}
			rows[y][u] = alpha[u] * sum
		}
	}

	var out [blockSize][blockSize]float64
	for v := 0; v < blockSize; v++ {
		for u := 0; u < blockSize; u++ {
			var sum float64
			for y := 0; y < inputSize; y++ {
				sum += rows[y][u] * cosTable[v][y]
			}
			out[v][u] = alpha[v] * sum
		}
	}
	return out
}
