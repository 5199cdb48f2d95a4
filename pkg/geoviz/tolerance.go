package geoviz

import (
	"math"
	"sort"

	"github.com/cockroachdb/errors"
)

// ToleranceFunc maps a zoom level to a simplification tolerance in the
// collection's units. It must be non-increasing in zoom: zooming in never
// simplifies more.
type ToleranceFunc func(zoom float64) float64

// tileSize is the pixel width of one map tile.
const tileSize = 256

// DefaultTolerance returns half a screen pixel at each zoom, for 256-pixel
// tiles, in the units of crs. At zoom 0 the whole world spans one tile.
func DefaultTolerance(crs CRS) ToleranceFunc {
	span := crs.WorldSpan()
	return func(zoom float64) float64 {
		return span / (tileSize * math.Exp2(zoom)) * 0.5
	}
}

// ToleranceStop pins the tolerance at one zoom level.
type ToleranceStop struct {
	Zoom      float64 `yaml:"zoom"`
	Tolerance float64 `yaml:"tolerance"`
}

// ToleranceCurve interpolates linearly between stops and holds the end
// values beyond them.
type ToleranceCurve []ToleranceStop

// NewToleranceCurve sorts the stops by zoom and checks the curve is
// monotonic: zooms distinct, tolerances non-negative and non-increasing.
func NewToleranceCurve(stops ...ToleranceStop) (ToleranceCurve, error) {
	if len(stops) == 0 {
		return nil, errors.New("tolerance curve needs at least one stop")
	}
	c := make(ToleranceCurve, len(stops))
	copy(c, stops)
	sort.Slice(c, func(i, j int) bool { return c[i].Zoom < c[j].Zoom })

	for i, s := range c {
		if math.IsNaN(s.Zoom) || math.IsNaN(s.Tolerance) || s.Tolerance < 0 {
			return nil, errors.Newf("invalid tolerance stop %+v", s)
		}
		if i == 0 {
			continue
		}
		if s.Zoom == c[i-1].Zoom {
			return nil, errors.Newf("duplicate tolerance stop at zoom %g", s.Zoom)
		}
		if s.Tolerance > c[i-1].Tolerance {
			return nil, errors.Newf("tolerance rises from %g to %g between zoom %g and %g",
				c[i-1].Tolerance, s.Tolerance, c[i-1].Zoom, s.Zoom)
		}
	}
	return c, nil
}

// At returns the tolerance at zoom.
func (c ToleranceCurve) At(zoom float64) float64 {
	if len(c) == 0 {
		return 0
	}
	if zoom <= c[0].Zoom {
		return c[0].Tolerance
	}
	last := c[len(c)-1]
	if zoom >= last.Zoom {
		return last.Tolerance
	}
	i := sort.Search(len(c), func(i int) bool { return c[i].Zoom >= zoom })
	lo, hi := c[i-1], c[i]
	f := (zoom - lo.Zoom) / (hi.Zoom - lo.Zoom)
	return lo.Tolerance + (hi.Tolerance-lo.Tolerance)*f
}

// Func adapts the curve to a ToleranceFunc.
func (c ToleranceCurve) Func() ToleranceFunc { return c.At }

// FixedTolerance returns t at every zoom.
func FixedTolerance(t float64) ToleranceFunc {
	return func(float64) float64 { return t }
}
