package geoviz

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultToleranceIsMonotonic(t *testing.T) {
	for _, crs := range []CRS{Geographic, WebMercator, Equirectangular} {
		tol := DefaultTolerance(crs)
		prev := tol(0)
		for z := 0.25; z <= 22; z += 0.25 {
			cur := tol(z)
			require.Less(t, cur, prev, "%s zoom %v", crs, z)
			prev = cur
		}
	}

	// Half a pixel of a single 256px world tile.
	require.InDelta(t, 360.0/512, DefaultTolerance(Geographic)(0), 1e-12)
}

func TestToleranceCurve(t *testing.T) {
	c, err := NewToleranceCurve(
		ToleranceStop{Zoom: 10, Tolerance: 0},
		ToleranceStop{Zoom: 0, Tolerance: 1},
		ToleranceStop{Zoom: 5, Tolerance: 0.5},
	)
	require.NoError(t, err)

	tests := []struct {
		zoom, want float64
	}{
		{-3, 1},
		{0, 1},
		{2.5, 0.75},
		{5, 0.5},
		{7.5, 0.25},
		{10, 0},
		{18, 0},
	}
	for _, tt := range tests {
		require.InDelta(t, tt.want, c.Func()(tt.zoom), 1e-12, "zoom %v", tt.zoom)
	}
}

func TestToleranceCurveRejects(t *testing.T) {
	tests := []struct {
		name  string
		stops []ToleranceStop
	}{
		{"empty", nil},
		{"rising", []ToleranceStop{{0, 1}, {5, 2}}},
		{"negative", []ToleranceStop{{0, -1}}},
		{"duplicate zoom", []ToleranceStop{{3, 1}, {3, 0.5}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewToleranceCurve(tt.stops...)
			require.Error(t, err)
		})
	}
}

func TestFixedTolerance(t *testing.T) {
	require.Equal(t, 2.0, FixedTolerance(2)(17))
}
