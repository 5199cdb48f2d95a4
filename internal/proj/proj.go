// Package proj converts coordinates between the cylindrical reference systems
// the renderer understands.
//
// Every conversion goes through geographic degrees: the source point is
// inverted to longitude/latitude, the longitude is normalized into
// [-180, 180) and the result is projected forward into the target system.
// All formulas are closed form.
package proj

import (
	"math"

	"github.com/cockroachdb/errors"
	"github.com/paulmach/orb"
)

// CRS names a coordinate reference system by its EPSG code.
type CRS string

const (
	// Geographic is WGS-84 longitude/latitude in decimal degrees.
	Geographic CRS = "EPSG:4326"
	// WebMercator is spherical pseudo-Mercator in metres.
	WebMercator CRS = "EPSG:3857"
	// Equirectangular is the plate carrée projection in metres.
	Equirectangular CRS = "EPSG:4087"
)

// MaxMercatorLatitude is the latitude at which Web Mercator reaches its
// square extent. Beyond it the projection is clamped and no longer invertible.
const MaxMercatorLatitude = 85.05112878

// earthRadiusPi is half the Web Mercator world width in metres.
const earthRadiusPi = orb.EarthRadius * math.Pi

var (
	// ErrSingularity is returned for points where a projection is undefined.
	ErrSingularity = errors.New("projection singularity")
	// ErrUnknownCRS is returned for reference systems this package cannot handle.
	ErrUnknownCRS = errors.New("unknown coordinate reference system")
)

// String returns the EPSG code.
func (c CRS) String() string { return string(c) }

// Valid reports whether the reference system is supported.
func (c CRS) Valid() bool {
	_, ok := projections[c]
	return ok
}

// Geographic reports whether coordinates in this system are degrees.
func (c CRS) Geographic() bool { return c == Geographic }

// WorldSpan returns the width of the full longitude range in the system's
// units: 360 for degrees, 2πR for the metric projections.
func (c CRS) WorldSpan() float64 {
	if c == Geographic {
		return 360
	}
	return 2 * earthRadiusPi
}

// MaxLatitude returns the largest latitude the system can represent.
func (c CRS) MaxLatitude() float64 {
	if c == WebMercator {
		return MaxMercatorLatitude
	}
	return 90
}

// Parse resolves an EPSG code such as "EPSG:3857". The aliases
// "wgs84", "mercator" and "plate-carree" are also accepted.
func Parse(s string) (CRS, error) {
	switch s {
	case "wgs84", "WGS84", "lonlat":
		return Geographic, nil
	case "mercator", "web-mercator", "EPSG:900913":
		return WebMercator, nil
	case "plate-carree", "equirectangular":
		return Equirectangular, nil
	}
	c := CRS(s)
	if !c.Valid() {
		return "", errors.Wrapf(ErrUnknownCRS, "%q", s)
	}
	return c, nil
}

type projection struct {
	// forward maps degrees to projected units. Longitude is not normalized.
	forward func(orb.Point) (orb.Point, error)
	// inverse maps projected units back to degrees.
	inverse func(orb.Point) (orb.Point, error)
}

var projections = map[CRS]projection{
	Geographic: {
		forward: func(p orb.Point) (orb.Point, error) {
			if err := checkLatitude(p, 90, Geographic); err != nil {
				return orb.Point{}, err
			}
			return p, nil
		},
		inverse: func(p orb.Point) (orb.Point, error) {
			if err := checkLatitude(p, 90, Geographic); err != nil {
				return orb.Point{}, err
			}
			return p, nil
		},
	},
	WebMercator: {
		forward: func(p orb.Point) (orb.Point, error) {
			if err := checkLatitude(p, MaxMercatorLatitude, WebMercator); err != nil {
				return orb.Point{}, err
			}
			return orb.Point{
				earthRadiusPi / 180.0 * p[0],
				math.Log(math.Tan((90.0+p[1])*math.Pi/360.0)) * orb.EarthRadius,
			}, nil
		},
		inverse: func(p orb.Point) (orb.Point, error) {
			if !finite(p) {
				return orb.Point{}, errors.Wrapf(ErrSingularity, "non-finite coordinate %v", p)
			}
			// A little slack so the rounded extent of the square still inverts.
			if math.Abs(p[1]) > earthRadiusPi*(1+1e-9) {
				return orb.Point{}, errors.Wrapf(ErrSingularity,
					"northing %f beyond %s extent", p[1], WebMercator)
			}
			return orb.Point{
				180.0 * p[0] / earthRadiusPi,
				180.0 / math.Pi * (2*math.Atan(math.Exp(p[1]/orb.EarthRadius)) - math.Pi/2.0),
			}, nil
		},
	},
	Equirectangular: {
		forward: func(p orb.Point) (orb.Point, error) {
			if err := checkLatitude(p, 90, Equirectangular); err != nil {
				return orb.Point{}, err
			}
			return orb.Point{
				orb.EarthRadius * p[0] * math.Pi / 180,
				orb.EarthRadius * p[1] * math.Pi / 180,
			}, nil
		},
		inverse: func(p orb.Point) (orb.Point, error) {
			g := orb.Point{
				p[0] / orb.EarthRadius * 180 / math.Pi,
				p[1] / orb.EarthRadius * 180 / math.Pi,
			}
			if err := checkLatitude(g, 90, Equirectangular); err != nil {
				return orb.Point{}, err
			}
			return g, nil
		},
	},
}

func lookup(c CRS) (projection, error) {
	p, ok := projections[c]
	if !ok {
		return projection{}, errors.Wrapf(ErrUnknownCRS, "%q", string(c))
	}
	return p, nil
}

func finite(p orb.Point) bool {
	return !math.IsNaN(p[0]) && !math.IsNaN(p[1]) &&
		!math.IsInf(p[0], 0) && !math.IsInf(p[1], 0)
}

func checkLatitude(p orb.Point, limit float64, c CRS) error {
	if !finite(p) {
		return errors.Wrapf(ErrSingularity, "non-finite coordinate %v", p)
	}
	if p[1] < -limit || p[1] > limit {
		return errors.Wrapf(ErrSingularity, "latitude %f outside %s domain (±%g)", p[1], c, limit)
	}
	return nil
}

// NormalizeLon wraps a longitude into [-180, 180).
// Values already in range are returned unchanged.
func NormalizeLon(lon float64) float64 {
	if lon >= -180 && lon < 180 {
		return lon
	}
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}

// Transform converts a point from one reference system to another.
//
// Transform is the identity when from and to are the same system. It fails
// with ErrSingularity when the point has no image in the target system, for
// example a latitude beyond ±85.05112878 projected to Web Mercator.
//
// Example:
//
//	p, err := proj.Transform(orb.Point{-71.06, 42.36}, proj.Geographic, proj.WebMercator)
func Transform(p orb.Point, from, to CRS) (orb.Point, error) {
	src, err := lookup(from)
	if err != nil {
		return orb.Point{}, err
	}
	dst, err := lookup(to)
	if err != nil {
		return orb.Point{}, err
	}
	if from == to {
		return p, nil
	}

	g, err := src.inverse(p)
	if err != nil {
		return orb.Point{}, err
	}
	g[0] = NormalizeLon(g[0])
	return dst.forward(g)
}

// TransformPoints converts a sequence in place and stops at the first error.
func TransformPoints(pts []orb.Point, from, to CRS) error {
	if from == to {
		_, err := lookup(from)
		return err
	}
	for i, p := range pts {
		q, err := Transform(p, from, to)
		if err != nil {
			return err
		}
		pts[i] = q
	}
	return nil
}

// TransformPath converts a coordinate sequence in place without wrapping
// longitude, so a path unwrapped with Unwrap stays continuous in the target
// system even where it runs past ±180°. Latitude limits still apply.
func TransformPath(pts []orb.Point, from, to CRS) error {
	src, err := lookup(from)
	if err != nil {
		return err
	}
	dst, err := lookup(to)
	if err != nil {
		return err
	}
	if from == to {
		return nil
	}
	for i, p := range pts {
		g, err := src.inverse(p)
		if err != nil {
			return err
		}
		q, err := dst.forward(g)
		if err != nil {
			return err
		}
		pts[i] = q
	}
	return nil
}

// Unwrap shifts the x coordinates of a path by whole world widths so that
// consecutive vertices are less than half a world apart. A segment stored
// as 179° to -179° becomes 179° to 181°.
func Unwrap(pts []orb.Point, c CRS) {
	span := c.WorldSpan()
	for i := 1; i < len(pts); i++ {
		d := pts[i][0] - pts[i-1][0]
		if math.Abs(d) > span/2 {
			pts[i][0] -= span * math.Round(d/span)
		}
	}
}

// TransformBounds converts an axis-aligned box between reference systems.
//
// All supported systems are cylindrical, so the corners are enough. Latitude
// is clamped into the target's domain instead of failing, which lets a world
// viewport in degrees map onto the Web Mercator square. Longitude is left
// unwrapped so a box straddling the antimeridian keeps its extent.
func TransformBounds(b orb.Bound, from, to CRS) (orb.Bound, error) {
	src, err := lookup(from)
	if err != nil {
		return orb.Bound{}, err
	}
	dst, err := lookup(to)
	if err != nil {
		return orb.Bound{}, err
	}
	if from == to {
		return b, nil
	}

	limit := to.MaxLatitude()
	convert := func(p orb.Point) (orb.Point, error) {
		if from == WebMercator {
			p[1] = math.Max(-earthRadiusPi, math.Min(p[1], earthRadiusPi))
		}
		g, err := src.inverse(clampGeographic(p, from))
		if err != nil {
			return orb.Point{}, err
		}
		g[1] = math.Max(-limit, math.Min(g[1], limit))
		return dst.forward(g)
	}

	lo, err := convert(b.Min)
	if err != nil {
		return orb.Bound{}, err
	}
	hi, err := convert(b.Max)
	if err != nil {
		return orb.Bound{}, err
	}
	return orb.Bound{Min: lo, Max: hi}, nil
}

// clampGeographic keeps box corners inside the source domain so that
// over-sized viewports still convert.
func clampGeographic(p orb.Point, c CRS) orb.Point {
	switch c {
	case Geographic:
		p[1] = math.Max(-90, math.Min(p[1], 90))
	case Equirectangular:
		lim := orb.EarthRadius * math.Pi / 2
		p[1] = math.Max(-lim, math.Min(p[1], lim))
	}
	return p
}
