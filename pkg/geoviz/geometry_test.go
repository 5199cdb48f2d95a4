package geoviz

import (
	"math"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"
)

func square(x0, y0, x1, y1 float64) orb.Polygon {
	return orb.Polygon{{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}, {x0, y0}}}
}

func TestNewGeometryValid(t *testing.T) {
	tests := []struct {
		name   string
		in     orb.Geometry
		kind   Kind
		bounds Bounds
	}{
		{"point", orb.Point{3, 4}, KindPoint, Bounds{3, 4, 3, 4}},
		{"line", orb.LineString{{0, 0}, {2, 1}}, KindLineString, Bounds{0, 0, 2, 1}},
		{"polygon", square(0, 0, 10, 10), KindPolygon, Bounds{0, 0, 10, 10}},
		{"multi point", orb.MultiPoint{{1, 1}, {-1, 2}}, KindMultiPoint, Bounds{-1, 1, 1, 2}},
		{"multi line", orb.MultiLineString{{{0, 0}, {1, 1}}, {{5, 5}, {6, 7}}}, KindMultiLineString, Bounds{0, 0, 6, 7}},
		{"multi polygon", orb.MultiPolygon{square(0, 0, 1, 1), square(2, 2, 3, 3)}, KindMultiPolygon, Bounds{0, 0, 3, 3}},
		{"ring as polygon", orb.Ring{{0, 0}, {1, 0}, {1, 1}, {0, 0}}, KindPolygon, Bounds{0, 0, 1, 1}},
		{"bound as polygon", orb.Bound{Min: orb.Point{1, 2}, Max: orb.Point{3, 4}}, KindPolygon, Bounds{1, 2, 3, 4}},
		{"longitude beyond antimeridian", orb.LineString{{170, 0}, {190, 0}}, KindLineString, Bounds{170, 0, 190, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := NewGeometry(tt.in, Geographic)
			require.NoError(t, err)
			require.Equal(t, tt.kind, g.Kind())
			require.Equal(t, tt.bounds, g.Bounds())
			require.Equal(t, Geographic, g.CRS())
		})
	}
}

func TestNewGeometryRejects(t *testing.T) {
	tests := []struct {
		name string
		in   orb.Geometry
		crs  CRS
		want error
	}{
		{"nil", nil, Geographic, ErrEmptyGeometry},
		{"empty line", orb.LineString{}, Geographic, ErrEmptyGeometry},
		{"empty polygon", orb.Polygon{}, Geographic, ErrEmptyGeometry},
		{"empty ring", orb.Polygon{{}}, Geographic, ErrEmptyGeometry},
		{"empty multi point", orb.MultiPoint{}, Geographic, ErrEmptyGeometry},
		{"empty multi polygon", orb.MultiPolygon{}, Geographic, ErrEmptyGeometry},
		{"single point line", orb.LineString{{0, 0}}, Geographic, ErrInvalidGeometry},
		{"unclosed ring", orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 1}}}, Geographic, ErrInvalidGeometry},
		{"short ring", orb.Polygon{{{0, 0}, {1, 0}, {0, 0}}}, Geographic, ErrInvalidGeometry},
		{"unclosed hole", orb.Polygon{square(0, 0, 10, 10)[0], {{1, 1}, {2, 1}, {2, 2}, {1, 2}}}, Geographic, ErrInvalidGeometry},
		{"nan", orb.Point{math.NaN(), 0}, Geographic, ErrInvalidGeometry},
		{"inf", orb.LineString{{0, 0}, {math.Inf(1), 0}}, WebMercator, ErrInvalidGeometry},
		{"latitude beyond pole", orb.Point{0, 91}, Geographic, ErrInvalidGeometry},
		{"collection", orb.Collection{orb.Point{0, 0}}, Geographic, ErrInvalidGeometry},
		{"unknown crs", orb.Point{0, 0}, CRS("EPSG:1"), ErrUnknownCRS},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGeometry(tt.in, tt.crs)
			require.Error(t, err)
			require.True(t, errors.Is(err, tt.want), "got %v, want %v", err, tt.want)
		})
	}
}

func TestGeometryErrorCarriesKind(t *testing.T) {
	_, err := NewGeometry(orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 1}}}, Geographic)

	var gerr *GeometryError
	require.True(t, errors.As(err, &gerr))
	require.Equal(t, KindPolygon, gerr.Kind)
	require.Contains(t, err.Error(), "not closed")
}

func TestProjectedLatitudeNotRestricted(t *testing.T) {
	// Metres, not degrees: 1e7 is a valid northing.
	_, err := NewGeometry(orb.Point{0, 1e7}, WebMercator)
	require.NoError(t, err)
}

func TestGeometryIsImmutable(t *testing.T) {
	in := orb.LineString{{0, 0}, {1, 1}}
	g, err := NewGeometry(in, Geographic)
	require.NoError(t, err)

	in[0] = orb.Point{50, 50}
	out := g.Orb().(orb.LineString)
	require.Equal(t, orb.Point{0, 0}, out[0])

	out[1] = orb.Point{99, 99}
	require.Equal(t, orb.Point{1, 1}, g.Orb().(orb.LineString)[1])
	require.Equal(t, Bounds{0, 0, 1, 1}, g.Bounds())
}

func TestNumPoints(t *testing.T) {
	g, err := NewGeometry(orb.MultiPolygon{square(0, 0, 1, 1), square(2, 2, 3, 3)}, Geographic)
	require.NoError(t, err)
	require.Equal(t, 10, g.NumPoints())
	require.True(t, Geometry{}.IsZero())
}

func TestKindString(t *testing.T) {
	require.Equal(t, "MultiPolygon", KindMultiPolygon.String())
	require.Equal(t, "Unknown", Kind(0).String())
}
