package geoviz

import (
	"context"
	"math/rand"
	"testing"
)

// Benchmark R-tree viewport queries against a linear scan.

func benchCollection(b *testing.B) (*FeatureCollection, *Index) {
	fc := randomCollection(b, rand.New(rand.NewSource(99)), 10000)
	return fc, BuildIndex(fc)
}

// BenchmarkQuery_Rtree benchmarks a small viewport (~1% of the area).
func BenchmarkQuery_Rtree(b *testing.B) {
	_, idx := benchCollection(b)
	viewport := NewBounds(400, 400, 500, 500)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = idx.Query(viewport)
	}
}

// BenchmarkQuery_Linear benchmarks the same viewport with a linear scan.
func BenchmarkQuery_Linear(b *testing.B) {
	_, idx := benchCollection(b)
	viewport := NewBounds(400, 400, 500, 500)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = idx.linearQuery(viewport)
	}
}

// BenchmarkQuery_Rtree_LargeViewport benchmarks a zoomed-out viewport.
func BenchmarkQuery_Rtree_LargeViewport(b *testing.B) {
	_, idx := benchCollection(b)
	viewport := NewBounds(0, 0, 600, 600)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = idx.Query(viewport)
	}
}

// BenchmarkBuildIndex measures bulk loading.
func BenchmarkBuildIndex(b *testing.B) {
	fc, _ := benchCollection(b)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = BuildIndex(fc)
	}
}

// BenchmarkRender measures a full pass over a mid-sized viewport.
func BenchmarkRender(b *testing.B) {
	fc, idx := benchCollection(b)
	rules := NewRuleSet(DefaultStyle())
	vp := Viewport{Bounds: NewBounds(200, 200, 600, 600), Zoom: 12, CRS: Equirectangular}
	r := NewRenderer(DefaultRenderOptions())
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := r.Render(ctx, fc, idx, vp, rules); err != nil {
			b.Fatal(err)
		}
	}
}
