package phash

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"math/rand"
	"testing"
)

// synthImage renders a deterministic band-limited grayscale pattern. The
// pattern is defined in normalized coordinates, so the same seed yields
// the same visual content at any raster size, while different seeds yield
// unrelated content.
func synthImage(t *testing.T, seed int64, w, h int) image.Image {
	t.Helper()

	rng := rand.New(rand.NewSource(seed))
	type wave struct {
		fx, fy   float64
		phx, phy float64
		amp      float64
	}
	waves := make([]wave, 6)
	for i := range waves {
		waves[i] = wave{
			fx:  0.5 + rng.Float64()*3.0,
			fy:  0.5 + rng.Float64()*3.0,
			phx: rng.Float64() * 2 * math.Pi,
			phy: rng.Float64() * 2 * math.Pi,
			amp: 14 + rng.Float64()*18,
		}
	}

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			nx := float64(x) / float64(w)
			ny := float64(y) / float64(h)
			v := 128.0
			for _, wv := range waves {
				v += wv.amp *
					math.Sin(2*math.Pi*wv.fx*nx+wv.phx) *
					math.Sin(2*math.Pi*wv.fy*ny+wv.phy)
			}
			c := uint8(math.Max(0, math.Min(255, v)))
			img.SetNRGBA(x, y, color.NRGBA{R: c, G: c, B: c, A: 255})
		}
	}
	return img
}

func TestComputeDeterministic(t *testing.T) {
	t.Parallel()

	img := synthImage(t, 1, 96, 96)
	if Compute(img) != Compute(img) {
		t.Fatal("Compute should be deterministic for the same image")
	}
}

func TestComputeSurvivesPNGRoundTrip(t *testing.T) {
	t.Parallel()

	img := synthImage(t, 2, 120, 90)
	want := Compute(img)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	decoded, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}

	if got := Compute(decoded); got != want {
		t.Errorf("fingerprint changed across a lossless round trip: %s != %s", got, want)
	}
}

func TestComputeStableUnderRecompression(t *testing.T) {
	t.Parallel()

	img := synthImage(t, 3, 200, 150)
	want := Compute(img)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	decoded, err := jpeg.Decode(&buf)
	if err != nil {
		t.Fatalf("decode jpeg: %v", err)
	}

	if d := Distance(want, Compute(decoded)); d > 12 {
		t.Errorf("JPEG recompression moved the fingerprint %d bits, want <= 12", d)
	}
}

func TestComputeStableUnderResize(t *testing.T) {
	t.Parallel()

	large := synthImage(t, 4, 200, 200)
	small := synthImage(t, 4, 100, 100)

	if d := Distance(Compute(large), Compute(small)); d > 16 {
		t.Errorf("resized rendition is %d bits away, want <= 16", d)
	}
}

func TestComputeSeparatesUnrelatedContent(t *testing.T) {
	t.Parallel()

	a := Compute(synthImage(t, 10, 160, 160))
	b := Compute(synthImage(t, 11, 160, 160))

	// Unrelated fingerprints land near half the bit width apart; 10 is far
	// below anything two independent patterns produce.
	if d := Distance(a, b); d < 10 {
		t.Errorf("unrelated images only %d bits apart", d)
	}
}

func TestComputeAllBlack(t *testing.T) {
	t.Parallel()

	img := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}
	if fp := Compute(img); fp != 0 {
		t.Errorf("all-black image should produce the zero fingerprint, got %s", fp)
	}
}

func TestDistanceSymmetry(t *testing.T) {
	t.Parallel()

	pairs := []struct {
		name string
		a, b Fingerprint
	}{
		{name: "zero vs zero", a: 0, b: 0},
		{name: "zero vs all ones", a: 0, b: ^Fingerprint(0)},
		{name: "alternating nibbles", a: 0xf0f0f0f0f0f0f0f0, b: 0x0f0f0f0f0f0f0f0f},
		{name: "arbitrary values", a: 0xdeadbeefcafe1234, b: 0x0123456789abcdef},
	}

	for _, tt := range pairs {
		t.Run(tt.name, func(t *testing.T) {
			if Distance(tt.a, tt.b) != Distance(tt.b, tt.a) {
				t.Errorf("Distance(%s, %s) != Distance(%s, %s)", tt.a, tt.b, tt.b, tt.a)
			}
		})
	}
}

func TestDistanceValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b Fingerprint
		want int
	}{
		{name: "identical", a: 0xdeadbeefcafe1234, b: 0xdeadbeefcafe1234, want: 0},
		{name: "single bit", a: 0, b: 1 << 17, want: 1},
		{name: "full width", a: 0, b: ^Fingerprint(0), want: Bits},
		{name: "complementary nibbles", a: 0xf0f0f0f0f0f0f0f0, b: 0x0f0f0f0f0f0f0f0f, want: Bits},
		{name: "one byte", a: 0xff, b: 0, want: 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Distance(tt.a, tt.b); got != tt.want {
				t.Errorf("Distance(%s, %s) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSerializationRoundTrip(t *testing.T) {
	t.Parallel()

	values := []Fingerprint{0, 1, 1 << 63, 0xdeadbeefcafe1234, ^Fingerprint(0)}
	for _, fp := range values {
		s := fp.String()
		if len(s) != 16 {
			t.Errorf("String() of %d should be 16 digits, got %q", uint64(fp), s)
		}
		back, err := Parse(s)
		if err != nil {
			t.Errorf("Parse(%q) failed: %v", s, err)
			continue
		}
		if back != fp {
			t.Errorf("round trip changed %s into %s", fp, back)
		}
	}
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "non-hex", input: "nothexnothexnot1"},
		{name: "overflow", input: "10000000000000000"},
		{name: "negative", input: "-1f"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.input); err == nil {
				t.Errorf("Parse(%q) should fail", tt.input)
			}
		})
	}
}

func TestParseAcceptsUnpadded(t *testing.T) {
	t.Parallel()

	fp, err := Parse("ff")
	if err != nil {
		t.Fatalf("Parse of short hex should succeed: %v", err)
	}
	if fp != 0xff {
		t.Errorf("Parse(\"ff\") = %s, want 00000000000000ff", fp)
	}
}

// TestDCTBasisFunctions feeds single DCT basis functions through the
// transform and checks that exactly the matching coefficient lights up.
func TestDCTBasisFunctions(t *testing.T) {
	t.Parallel()

	t.Run("constant input excites only DC", func(t *testing.T) {
		var pixels [inputSize][inputSize]float64
		for y := range pixels {
			for x := range pixels[y] {
				pixels[y][x] = 1
			}
		}
		got := dct2D(&pixels)
		if math.Abs(got[0][0]-float64(inputSize)) > 1e-9 {
			t.Errorf("DC coefficient = %v, want %v", got[0][0], inputSize)
		}
		for v := 0; v < blockSize; v++ {
			for u := 0; u < blockSize; u++ {
				if u == 0 && v == 0 {
					continue
				}
				if math.Abs(got[v][u]) > 1e-9 {
					t.Errorf("coefficient (%d,%d) = %v, want 0", v, u, got[v][u])
				}
			}
		}
	})

	t.Run("pure cosine excites one AC coefficient", func(t *testing.T) {
		var pixels [inputSize][inputSize]float64
		for y := range pixels {
			for x := range pixels[y] {
				pixels[y][x] = cosTable[3][x] * cosTable[2][y]
			}
		}
		got := dct2D(&pixels)
		// alpha(2)·alpha(3)·(N/2)² = (2/N)·(N/2)² = N/2
		want := float64(inputSize) / 2
		if math.Abs(got[2][3]-want) > 1e-9 {
			t.Errorf("coefficient (2,3) = %v, want %v", got[2][3], want)
		}
		for v := 0; v < blockSize; v++ {
			for u := 0; u < blockSize; u++ {
				if v == 2 && u == 3 {
					continue
				}
				if math.Abs(got[v][u]) > 1e-9 {
					t.Errorf("coefficient (%d,%d) = %v, want 0", v, u, got[v][u])
				}
			}
		}
	})
}

func TestACMedianExcludesDC(t *testing.T) {
	t.Parallel()

	var block [Bits]float64
	// A DC term large enough to drag the median upward if it leaked in.
	block[0] = 1e6
	for i := 1; i < Bits; i++ {
		block[i] = float64(i)
	}

	if got := acMedian(&block); got != 32 {
		t.Errorf("acMedian = %v, want 32 (the median of 1..63)", got)
	}
}

func TestPackBitOrder(t *testing.T) {
	t.Parallel()

	var block [Bits]float64

	block[0] = 5
	if got := pack(&block, 0); got != 1<<63 {
		t.Errorf("coefficient 0 should map to the most significant bit, got %s", got)
	}

	block[0] = 0
	block[Bits-1] = 5
	if got := pack(&block, 0); got != 1 {
		t.Errorf("last coefficient should map to the least significant bit, got %s", got)
	}

	// Equal to the median clears the bit.
	block[Bits-1] = 0
	if got := pack(&block, 0); got != 0 {
		t.Errorf("coefficients equal to the median should not set bits, got %s", got)
	}
}

func BenchmarkCompute(b *testing.B) {
	rng := rand.New(rand.NewSource(42))
	img := image.NewNRGBA(image.Rect(0, 0, 256, 256))
	for i := 0; i < len(img.Pix); i += 4 {
		v := uint8(rng.Intn(256))
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = v, v, v, 255
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Compute(img)
	}
}

func BenchmarkDistance(b *testing.B) {
	a, c := Fingerprint(0xdeadbeefcafe1234), Fingerprint(0x0123456789abcdef)
	for i := 0; i < b.N; i++ {
		Distance(a, c)
	}
}
