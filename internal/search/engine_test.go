package search

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"simfinder/internal/errs"
	"simfinder/internal/media"
	"simfinder/internal/phash"
	"simfinder/internal/store"
)

// writeImage renders a deterministic wave-pattern PNG; different seeds
// produce visually unrelated content.
func writeImage(t testing.TB, dir, name string, seed int64) string {
	t.Helper()

	rng := rand.New(rand.NewSource(seed))
	type wave struct {
		fx, fy, phx, phy, amp float64
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

	const size = 64
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			nx := float64(x) / size
			ny := float64(y) / size
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

// fingerprintOf computes the fingerprint of an on-disk image the same
// way the engine does.
func fingerprintOf(t testing.TB, path string) phash.Fingerprint {
	t.Helper()

	img, err := media.LoadImage(path)
	if err != nil {
		t.Fatalf("load %s: %v", path, err)
	}
	return phash.Compute(img)
}

// touchFile creates an empty placeholder file. Stored records only need
// their paths to exist on disk; the engine never decodes them.
func touchFile(t testing.TB, dir, name string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte{0}, 0644); err != nil {
		t.Fatalf("touch %s: %v", path, err)
	}
	return path
}

func setupSearch(t testing.TB) (st *store.Store, dir string) {
	t.Helper()

	st, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "search-000000.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := st.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return st, t.TempDir()
}

func upsert(t testing.TB, st *store.Store, path string, fp phash.Fingerprint) {
	t.Helper()

	rec := &store.Record{Path: path, Hash: fp.String(), LastModified: 1}
	if err := st.Upsert(context.Background(), rec); err != nil {
		t.Fatalf("upsert %s: %v", path, err)
	}
}

func TestSearchIdenticalImages(t *testing.T) {
	st, dir := setupSearch(t)
	ctx := context.Background()

	// a and b are pixel-identical, c is unrelated content.
	queryPath := writeImage(t, dir, "a.png", 7)
	data, err := os.ReadFile(queryPath)
	if err != nil {
		t.Fatal(err)
	}
	twinPath := filepath.Join(dir, "b.png")
	if err := os.WriteFile(twinPath, data, 0644); err != nil {
		t.Fatal(err)
	}
	otherPath := writeImage(t, dir, "c.png", 8)

	upsert(t, st, queryPath, fingerprintOf(t, queryPath))
	upsert(t, st, twinPath, fingerprintOf(t, twinPath))
	upsert(t, st, otherPath, fingerprintOf(t, otherPath))

	matches, err := New(0).Search(ctx, st, queryPath, 0)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if len(matches) != 2 {
		t.Fatalf("got %d matches at threshold 0, want 2: %+v", len(matches), matches)
	}
	for _, m := range matches {
		if m.Distance != 0 {
			t.Errorf("match %s at distance %d, want 0", m.Path, m.Distance)
		}
		if m.Path == otherPath {
			t.Error("unrelated image matched at threshold 0")
		}
	}
	if matches[0].Path != queryPath || matches[1].Path != twinPath {
		t.Errorf("matches = %+v, want [a.png, b.png] in path order", matches)
	}
}

func TestSearchExcludesMissingFile(t *testing.T) {
	st, dir := setupSearch(t)
	ctx := context.Background()

	queryPath := writeImage(t, dir, "a.png", 7)
	fp := fingerprintOf(t, queryPath)

	gonePath := filepath.Join(dir, "b.png")
	data, err := os.ReadFile(queryPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(gonePath, data, 0644); err != nil {
		t.Fatal(err)
	}

	upsert(t, st, queryPath, fp)
	upsert(t, st, gonePath, fp)

	if err := os.Remove(gonePath); err != nil {
		t.Fatal(err)
	}

	matches, err := New(0).Search(ctx, st, queryPath, 0)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if len(matches) != 1 || matches[0].Path != queryPath {
		t.Errorf("matches = %+v, want only the surviving file", matches)
	}

	// The stale record stays in storage; only the result hides it.
	count, err := st.RecordCount(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("record count = %d, want 2 (lazy filtering must not delete)", count)
	}
}

func TestSearchThresholdBoundary(t *testing.T) {
	st, dir := setupSearch(t)
	ctx := context.Background()

	queryPath := writeImage(t, dir, "q.png", 7)
	query := fingerprintOf(t, queryPath)

	const threshold = 5
	atPath := touchFile(t, dir, "at.bin.png")
	overPath := touchFile(t, dir, "over.bin.png")

	// Flipping k bits of the query fingerprint lands at distance
	// exactly k.
	upsert(t, st, atPath, query^phash.Fingerprint((1<<threshold)-1))
	upsert(t, st, overPath, query^phash.Fingerprint((1<<(threshold+1))-1))

	matches, err := New(0).Search(ctx, st, queryPath, threshold)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if len(matches) != 1 {
		t.Fatalf("matches = %+v, want exactly the boundary record", matches)
	}
	if matches[0].Path != atPath || matches[0].Distance != threshold {
		t.Errorf("match = %+v, want %s at distance %d", matches[0], atPath, threshold)
	}
}

func TestSearchSortOrder(t *testing.T) {
	st, dir := setupSearch(t)
	ctx := context.Background()

	queryPath := writeImage(t, dir, "q.png", 7)
	query := fingerprintOf(t, queryPath)

	d0 := touchFile(t, dir, "exact.png")
	d2y := touchFile(t, dir, "y-two.png")
	d2z := touchFile(t, dir, "z-two.png")
	d1 := touchFile(t, dir, "one.png")

	upsert(t, st, d0, query)
	upsert(t, st, d1, query^1)
	upsert(t, st, d2y, query^3)
	upsert(t, st, d2z, query^3)

	matches, err := New(0).Search(ctx, st, queryPath, 8)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	want := []Match{
		{Path: d0, Distance: 0},
		{Path: d1, Distance: 1},
		{Path: d2y, Distance: 2},
		{Path: d2z, Distance: 2},
	}
	if len(matches) != len(want) {
		t.Fatalf("got %d matches, want %d: %+v", len(matches), len(want), matches)
	}
	for i := range want {
		if matches[i] != want[i] {
			t.Errorf("matches[%d] = %+v, want %+v", i, matches[i], want[i])
		}
	}
}

func TestSearchSkipsUnparseableHash(t *testing.T) {
	st, dir := setupSearch(t)
	ctx := context.Background()

	queryPath := writeImage(t, dir, "q.png", 7)
	query := fingerprintOf(t, queryPath)

	good := touchFile(t, dir, "good.png")
	upsert(t, st, good, query)

	bad := touchFile(t, dir, "bad.png")
	rec := &store.Record{Path: bad, Hash: "definitely not hex", LastModified: 1}
	if err := st.Upsert(ctx, rec); err != nil {
		t.Fatal(err)
	}

	matches, err := New(0).Search(ctx, st, queryPath, MaxThreshold)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	// The corrupt record is invisible, never a distance-0 match.
	if len(matches) != 1 || matches[0].Path != good {
		t.Errorf("matches = %+v, want only the parseable record", matches)
	}
}

func TestSearchQueryDecodeFailure(t *testing.T) {
	st, dir := setupSearch(t)
	ctx := context.Background()

	corrupt := filepath.Join(dir, "corrupt.png")
	if err := os.WriteFile(corrupt, []byte("not an image"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := New(0).Search(ctx, st, corrupt, DefaultThreshold)
	if !errs.IsDecode(err) {
		t.Errorf("corrupt query returned %v, want a decode error", err)
	}

	_, err = New(0).Search(ctx, st, filepath.Join(dir, "absent.png"), DefaultThreshold)
	if !errs.IsDecode(err) {
		t.Errorf("missing query returned %v, want a decode error", err)
	}
}

func TestSearchThresholdRange(t *testing.T) {
	st, dir := setupSearch(t)
	ctx := context.Background()

	queryPath := writeImage(t, dir, "q.png", 7)

	for _, threshold := range []int{-1, MaxThreshold + 1} {
		if _, err := New(0).Search(ctx, st, queryPath, threshold); err == nil {
			t.Errorf("threshold %d accepted, want an error", threshold)
		}
	}

	// Both ends of the accepted range work.
	for _, threshold := range []int{MinThreshold, MaxThreshold} {
		if _, err := New(0).Search(ctx, st, queryPath, threshold); err != nil {
			t.Errorf("threshold %d rejected: %v", threshold, err)
		}
	}
}

func TestSearchEmptyStore(t *testing.T) {
	st, dir := setupSearch(t)
	ctx := context.Background()

	queryPath := writeImage(t, dir, "q.png", 7)

	matches, err := New(0).Search(ctx, st, queryPath, DefaultThreshold)
	if err != nil {
		t.Fatalf("Search on empty store failed: %v", err)
	}
	if matches == nil {
		t.Error("matches is nil, want an empty slice")
	}
	if len(matches) != 0 {
		t.Errorf("matches = %+v, want none", matches)
	}
}

func TestQueryCache(t *testing.T) {
	t.Parallel()

	cache := newQueryCache(2)

	k1 := queryKey{path: "/a.png", mtime: 1, size: 10}
	k2 := queryKey{path: "/b.png", mtime: 2, size: 20}
	k3 := queryKey{path: "/c.png", mtime: 3, size: 30}

	if _, ok := cache.get(k1); ok {
		t.Error("empty cache reported a hit")
	}

	cache.add(k1, 0xabc)
	if fp, ok := cache.get(k1); !ok || fp != 0xabc {
		t.Errorf("get after add = (%v, %v), want (0xabc, true)", fp, ok)
	}

	// Same path with a different mtime is a different key.
	if _, ok := cache.get(queryKey{path: "/a.png", mtime: 99, size: 10}); ok {
		t.Error("stale key hit the cache")
	}

	cache.add(k2, 0xdef)
	cache.add(k3, 0x123)
	// Capacity 2: the oldest entry is evicted.
	hits := 0
	for _, k := range []queryKey{k1, k2, k3} {
		if _, ok := cache.get(k); ok {
			hits++
		}
	}
	if hits != 2 {
		t.Errorf("got %d cached entries, want 2 after eviction", hits)
	}
}

func TestSearchCachedQueryGivesSameResults(t *testing.T) {
	st, dir := setupSearch(t)
	ctx := context.Background()

	queryPath := writeImage(t, dir, "q.png", 7)
	upsert(t, st, queryPath, fingerprintOf(t, queryPath))

	engine := New(16)

	first, err := engine.Search(ctx, st, queryPath, 0)
	if err != nil {
		t.Fatalf("first Search failed: %v", err)
	}
	second, err := engine.Search(ctx, st, queryPath, 0)
	if err != nil {
		t.Fatalf("second Search failed: %v", err)
	}

	if len(first) != 1 || len(second) != 1 || first[0] != second[0] {
		t.Errorf("cached query changed results: %+v vs %+v", first, second)
	}
}
