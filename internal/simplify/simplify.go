// Package simplify reduces vertex counts with Douglas–Peucker while keeping
// the shape within a distance tolerance.
package simplify

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/simplify"
)

// minRing is the smallest closed ring: three distinct vertices and the
// repeated first one.
const minRing = 4

// Geometry returns a simplified copy of g. The input is never modified.
//
// Every removed vertex lies within tolerance of the simplified path, the
// endpoints of open lines are kept, rings stay closed and vertex order is
// preserved. Points and multi-points pass through unchanged. A tolerance of
// zero or less (or NaN) returns an exact copy.
func Geometry(g orb.Geometry, tolerance float64) orb.Geometry {
	if g == nil {
		return nil
	}
	g = orb.Clone(g)
	if !(tolerance > 0) {
		return g
	}

	dp := simplify.DouglasPeucker(tolerance)
	switch g := g.(type) {
	case orb.Point, orb.MultiPoint:
		return g
	case orb.LineString:
		return dp.LineString(g)
	case orb.MultiLineString:
		for i := range g {
			g[i] = dp.LineString(g[i])
		}
		return g
	case orb.Ring:
		return ring(dp, g)
	case orb.Polygon:
		return polygon(dp, g)
	case orb.MultiPolygon:
		for i := range g {
			g[i] = polygon(dp, g[i])
		}
		return g
	case orb.Bound:
		return g
	case orb.Collection:
		for i := range g {
			g[i] = Geometry(g[i], tolerance)
		}
		return g
	}
	return g
}

// LineString simplifies a copy of ls.
func LineString(ls orb.LineString, tolerance float64) orb.LineString {
	return Geometry(ls, tolerance).(orb.LineString)
}

// polygon simplifies every ring independently. Unlike orb's polygon helper
// holes are never dropped, so the part structure of the input survives.
func polygon(dp *simplify.DouglasPeuckerSimplifier, p orb.Polygon) orb.Polygon {
	for i := range p {
		p[i] = ring(dp, p[i])
	}
	return p
}

// ring keeps the original ring when simplification would collapse it below a
// valid closed ring.
func ring(dp *simplify.DouglasPeuckerSimplifier, r orb.Ring) orb.Ring {
	if len(r) <= minRing {
		return r
	}
	orig := make(orb.Ring, len(r))
	copy(orig, r)

	out := dp.Ring(r)
	if len(out) < minRing {
		return orig
	}
	return out
}

// MaxDeviation returns the largest distance from any vertex of orig to the
// nearest segment of the simplified path.
func MaxDeviation(orig, simplified orb.LineString) float64 {
	if len(simplified) == 0 {
		return math.Inf(1)
	}

	max := 0.0
	for _, p := range orig {
		best := math.Inf(1)
		if len(simplified) == 1 {
			best = planar.Distance(p, simplified[0])
		}
		for i := 0; i+1 < len(simplified); i++ {
			best = math.Min(best, planar.DistanceFromSegment(simplified[i], simplified[i+1], p))
		}
		max = math.Max(max, best)
	}
	return max
}
