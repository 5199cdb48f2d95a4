package proj

import (
	"math"
	"math/rand"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"
)

func TestTransformIdentity(t *testing.T) {
	for _, c := range []CRS{Geographic, WebMercator, Equirectangular} {
		t.Run(c.String(), func(t *testing.T) {
			p := orb.Point{12.5, -33.25}
			got, err := Transform(p, c, c)
			require.NoError(t, err)
			require.Equal(t, p, got)
		})
	}
}

func TestTransformKnownValues(t *testing.T) {
	tests := []struct {
		name string
		in   orb.Point
		from CRS
		to   CRS
		want orb.Point
	}{
		{"origin to mercator", orb.Point{0, 0}, Geographic, WebMercator, orb.Point{0, 0}},
		{"antimeridian west edge", orb.Point{-180, 0}, Geographic, WebMercator, orb.Point{-earthRadiusPi, 0}},
		{"mercator limit", orb.Point{0, MaxMercatorLatitude}, Geographic, WebMercator, orb.Point{0, earthRadiusPi}},
		{"plate carree", orb.Point{90, 45}, Geographic, Equirectangular,
			orb.Point{orb.EarthRadius * math.Pi / 2, orb.EarthRadius * math.Pi / 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Transform(tt.in, tt.from, tt.to)
			require.NoError(t, err)
			require.InDelta(t, tt.want[0], got[0], 1e-3)
			require.InDelta(t, tt.want[1], got[1], 1e-3)
		})
	}
}

func TestTransformNormalizesLongitude(t *testing.T) {
	got, err := Transform(orb.Point{190, 10}, Geographic, Equirectangular)
	require.NoError(t, err)

	back, err := Transform(got, Equirectangular, Geographic)
	require.NoError(t, err)
	require.InDelta(t, -170, back[0], 1e-9)
	require.InDelta(t, 10, back[1], 1e-9)

	// 180 is the excluded edge of the range.
	got, err = Transform(orb.Point{180, 0}, Geographic, WebMercator)
	require.NoError(t, err)
	require.InDelta(t, -earthRadiusPi, got[0], 1e-6)
}

func TestNormalizeLon(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{-180, -180},
		{180, -180},
		{181, -179},
		{-181, 179},
		{540, -180},
		{-725, -5},
	}
	for _, tt := range tests {
		require.InDelta(t, tt.want, NormalizeLon(tt.in), 1e-12, "NormalizeLon(%v)", tt.in)
	}
}

func TestTransformSingularity(t *testing.T) {
	tests := []struct {
		name string
		in   orb.Point
		from CRS
		to   CRS
	}{
		{"north pole to mercator", orb.Point{0, 90}, Geographic, WebMercator},
		{"south pole to mercator", orb.Point{10, -90}, Geographic, WebMercator},
		{"beyond mercator limit", orb.Point{0, 85.06}, Geographic, WebMercator},
		{"latitude beyond pole", orb.Point{0, 91}, Geographic, Equirectangular},
		{"northing beyond square", orb.Point{0, earthRadiusPi * 1.01}, WebMercator, Geographic},
		{"nan", orb.Point{math.NaN(), 0}, Geographic, WebMercator},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Transform(tt.in, tt.from, tt.to)
			require.Error(t, err)
			require.True(t, errors.Is(err, ErrSingularity), "got %v", err)
		})
	}
}

func TestTransformUnknownCRS(t *testing.T) {
	_, err := Transform(orb.Point{0, 0}, Geographic, CRS("EPSG:27700"))
	require.True(t, errors.Is(err, ErrUnknownCRS))

	_, err = Parse("EPSG:2154")
	require.True(t, errors.Is(err, ErrUnknownCRS))

	c, err := Parse("mercator")
	require.NoError(t, err)
	require.Equal(t, WebMercator, c)
}

func TestRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	targets := []CRS{WebMercator, Equirectangular}

	for _, to := range targets {
		t.Run(to.String(), func(t *testing.T) {
			limit := to.MaxLatitude() - 1e-6
			for i := 0; i < 5000; i++ {
				p := orb.Point{
					rng.Float64()*360 - 180,
					(rng.Float64()*2 - 1) * limit,
				}
				fwd, err := Transform(p, Geographic, to)
				require.NoError(t, err)
				back, err := Transform(fwd, to, Geographic)
				require.NoError(t, err)
				require.InDelta(t, p[0], back[0], 1e-6, "lon of %v", p)
				require.InDelta(t, p[1], back[1], 1e-6, "lat of %v", p)
			}
		})
	}
}

func TestTransformBounds(t *testing.T) {
	world := orb.Bound{Min: orb.Point{-180, -90}, Max: orb.Point{180, 90}}

	got, err := TransformBounds(world, Geographic, WebMercator)
	require.NoError(t, err)
	require.InDelta(t, -earthRadiusPi, got.Min[0], 1e-6)
	require.InDelta(t, earthRadiusPi, got.Max[0], 1e-6)
	require.InDelta(t, -earthRadiusPi, got.Min[1], 1e-3)
	require.InDelta(t, earthRadiusPi, got.Max[1], 1e-3)

	back, err := TransformBounds(got, WebMercator, Geographic)
	require.NoError(t, err)
	require.InDelta(t, -180, back.Min[0], 1e-9)
	require.InDelta(t, 180, back.Max[0], 1e-9)
	require.InDelta(t, MaxMercatorLatitude, back.Max[1], 1e-6)

	// A box across the antimeridian keeps its extent.
	wrap := orb.Bound{Min: orb.Point{170, -10}, Max: orb.Point{190, 10}}
	got, err = TransformBounds(wrap, Geographic, Equirectangular)
	require.NoError(t, err)
	require.Greater(t, got.Max[0], got.Min[0])
}

func TestWorldSpan(t *testing.T) {
	require.Equal(t, 360.0, Geographic.WorldSpan())
	require.InDelta(t, 2*math.Pi*orb.EarthRadius, WebMercator.WorldSpan(), 1e-6)
}

func TestUnwrap(t *testing.T) {
	line := []orb.Point{{179, 0}, {-179, 0}, {-177, 1}, {178, 2}}
	Unwrap(line, Geographic)
	require.Equal(t, []orb.Point{{179, 0}, {181, 0}, {183, 1}, {178, 2}}, line)

	span := WebMercator.WorldSpan()
	merc := []orb.Point{{span/2 - 1000, 0}, {-span/2 + 1000, 0}}
	Unwrap(merc, WebMercator)
	require.InDelta(t, span/2+1000, merc[1][0], 1e-6)

	short := []orb.Point{{-10, 0}, {10, 0}, {170, 0}}
	Unwrap(short, Geographic)
	require.Equal(t, []orb.Point{{-10, 0}, {10, 0}, {170, 0}}, short)
}

func TestTransformPathKeepsUnwrappedLongitude(t *testing.T) {
	pts := []orb.Point{{179, 0}, {181, 0}}
	require.NoError(t, TransformPath(pts, Geographic, WebMercator))
	metresPerDegree := orb.EarthRadius * math.Pi / 180
	require.InDelta(t, 179*metresPerDegree, pts[0][0], 1e-6)
	require.InDelta(t, 181*metresPerDegree, pts[1][0], 1e-6)

	// Transform would have wrapped the second vertex to the far side.
	p, err := Transform(orb.Point{181, 0}, Geographic, WebMercator)
	require.NoError(t, err)
	require.InDelta(t, -179*metresPerDegree, p[0], 1e-6)

	require.NoError(t, TransformPath(pts, WebMercator, Geographic))
	require.InDelta(t, 181, pts[1][0], 1e-9)

	err = TransformPath([]orb.Point{{0, 0}, {0, 89}}, Geographic, WebMercator)
	require.True(t, errors.Is(err, ErrSingularity))
	require.True(t, errors.Is(TransformPath(nil, Geographic, "EPSG:1"), ErrUnknownCRS))
}
