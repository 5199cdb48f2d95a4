package geoviz

import (
	"math/rand"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"
)

// randomCollection builds n features of mixed kinds scattered over
// [0, 1000] x [0, 1000].
func randomCollection(t testing.TB, rng *rand.Rand, n int) *FeatureCollection {
	t.Helper()
	b := NewCollectionBuilder(Equirectangular)
	for i := 0; i < n; i++ {
		x, y := rng.Float64()*1000, rng.Float64()*1000
		var g orb.Geometry
		switch i % 3 {
		case 0:
			g = orb.Point{x, y}
		case 1:
			g = orb.LineString{{x, y}, {x + rng.Float64()*30, y + rng.Float64()*30 - 15}}
		default:
			w, h := 1+rng.Float64()*50, 1+rng.Float64()*50
			g = square(x, y, x+w, y+h)
		}
		require.NoError(t, b.Add(FeatureSpec{Geometry: g}))
	}
	return b.Build()
}

func positionsOf(fs []*Feature) []int {
	out := make([]int, len(fs))
	for i, f := range fs {
		out[i] = f.Position()
	}
	return out
}

func TestIndexMatchesLinearScan(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	fc := randomCollection(t, rng, 3000)

	for _, opts := range []IndexOptions{DefaultIndexOptions(), {MinChildren: 2, MaxChildren: 4}} {
		idx := BuildIndexWithOptions(fc, opts)
		require.Equal(t, fc.Len(), idx.Len())

		for q := 0; q < 300; q++ {
			x, y := rng.Float64()*1100-50, rng.Float64()*1100-50
			box := NewBounds(x, y, x+rng.Float64()*200, y+rng.Float64()*200)

			got := positionsOf(idx.Query(box))
			want := positionsOf(idx.linearQuery(box))
			require.Equal(t, want, got, "query %+v", box)
		}
	}
}

func TestIndexClosedIntervals(t *testing.T) {
	b := NewCollectionBuilder(Geographic)
	require.NoError(t, b.Add(FeatureSpec{ID: "corner", Geometry: orb.Point{5, 5}}))
	require.NoError(t, b.Add(FeatureSpec{ID: "edge", Geometry: square(10, 0, 20, 10)}))
	require.NoError(t, b.Add(FeatureSpec{ID: "outside", Geometry: orb.Point{5.0001, 5}}))
	fc := b.Build()
	idx := BuildIndex(fc)

	tests := []struct {
		name  string
		query Bounds
		want  []string
	}{
		{"touching point at corner", NewBounds(0, 0, 5, 5), []string{"corner"}},
		{"degenerate query on point", NewBounds(5, 5, 5, 5), []string{"corner"}},
		{"shared edge", NewBounds(5, 2, 10, 3), []string{"edge"}},
		{"nothing", NewBounds(100, 100, 200, 200), nil},
		{"everything", NewBounds(-1, -1, 21, 11), []string{"corner", "edge", "outside"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, f := range idx.Query(tt.query) {
				got = append(got, f.ID())
			}
			require.Equal(t, tt.want, got)
		})
	}
}

func TestIndexInvalidQuery(t *testing.T) {
	fc := randomCollection(t, rand.New(rand.NewSource(2)), 10)
	idx := BuildIndex(fc)
	require.Empty(t, idx.Query(Bounds{MinX: 5, MaxX: 1}))
}

func TestIndexEmptyCollection(t *testing.T) {
	fc := NewCollectionBuilder(Geographic).Build()
	idx := BuildIndex(fc)
	require.Zero(t, idx.Len())
	require.Empty(t, idx.Query(NewBounds(-180, -90, 180, 90)))
	require.Same(t, fc, idx.Collection())
}
