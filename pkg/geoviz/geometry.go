package geoviz

import (
	"math"

	"github.com/beetlebugorg/geoviz/internal/proj"
	"github.com/cockroachdb/errors"
	"github.com/paulmach/orb"
)

// CRS names the coordinate reference system coordinates are expressed in.
type CRS = proj.CRS

// Supported reference systems.
const (
	Geographic      = proj.Geographic      // EPSG:4326, degrees
	WebMercator     = proj.WebMercator     // EPSG:3857, metres
	Equirectangular = proj.Equirectangular // EPSG:4087, metres
)

// ParseCRS resolves an EPSG code or alias such as "mercator".
func ParseCRS(s string) (CRS, error) { return proj.Parse(s) }

// Transform converts a single point between reference systems.
// It fails with ErrProjectionSingularity where the target is undefined.
func Transform(p orb.Point, from, to CRS) (orb.Point, error) {
	return proj.Transform(p, from, to)
}

// Kind identifies the shape of a geometry.
type Kind uint8

const (
	KindPoint Kind = iota + 1
	KindLineString
	KindPolygon
	KindMultiPoint
	KindMultiLineString
	KindMultiPolygon
)

func (k Kind) String() string {
	switch k {
	case KindPoint:
		return "Point"
	case KindLineString:
		return "LineString"
	case KindPolygon:
		return "Polygon"
	case KindMultiPoint:
		return "MultiPoint"
	case KindMultiLineString:
		return "MultiLineString"
	case KindMultiPolygon:
		return "MultiPolygon"
	default:
		return "Unknown"
	}
}

// Geometry is an immutable, validated shape bound to one reference system.
//
// The coordinates are a private copy; Orb hands out clones so callers can
// never change a geometry after construction. The bounding box is computed
// once when the geometry is built.
type Geometry struct {
	kind   Kind
	crs    CRS
	geom   orb.Geometry
	bounds Bounds
}

// NewGeometry validates g and returns an immutable copy.
//
// Accepted inputs are orb.Point, MultiPoint, LineString, MultiLineString,
// Polygon and MultiPolygon. An orb.Ring is treated as a single-ring polygon
// and an orb.Bound as its rectangle.
//
// It fails with ErrEmptyGeometry when g is nil or any coordinate sequence is
// empty, and with ErrInvalidGeometry when a ring is unclosed or shorter than
// four coordinates, a line has a single coordinate, a value is NaN or
// infinite, or a geographic latitude lies outside [-90, 90]. Longitudes are
// not restricted; they are wrapped when projected.
//
// Example:
//
//	g, err := geoviz.NewGeometry(orb.Polygon{{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}}}, geoviz.Geographic)
//	if errors.Is(err, geoviz.ErrInvalidGeometry) {
//	    // reject the feature
//	}
func NewGeometry(g orb.Geometry, crs CRS) (Geometry, error) {
	if !crs.Valid() {
		return Geometry{}, errors.Wrapf(ErrUnknownCRS, "%q", crs.String())
	}
	if g == nil {
		return Geometry{}, emptyGeometry(0, "nil geometry")
	}

	switch v := g.(type) {
	case orb.Ring:
		g = orb.Polygon{v}
	case orb.Bound:
		g = v.ToPolygon()
	}

	v := validator{geographic: crs.Geographic()}
	kind, err := v.validate(g)
	if err != nil {
		return Geometry{}, err
	}

	geom := orb.Clone(g)
	return Geometry{
		kind:   kind,
		crs:    crs,
		geom:   geom,
		bounds: BoundsFromOrb(geom.Bound()),
	}, nil
}

// Kind returns the geometry's shape.
func (g Geometry) Kind() Kind { return g.kind }

// CRS returns the reference system of the coordinates.
func (g Geometry) CRS() CRS { return g.crs }

// Bounds returns the cached bounding box.
func (g Geometry) Bounds() Bounds { return g.bounds }

// IsZero reports whether g is the zero value rather than a built geometry.
func (g Geometry) IsZero() bool { return g.geom == nil }

// Orb returns a deep copy of the coordinates.
func (g Geometry) Orb() orb.Geometry {
	if g.geom == nil {
		return nil
	}
	return orb.Clone(g.geom)
}

// NumPoints returns the total number of coordinates.
func (g Geometry) NumPoints() int {
	switch v := g.geom.(type) {
	case orb.Point:
		return 1
	case orb.MultiPoint:
		return len(v)
	case orb.LineString:
		return len(v)
	case orb.MultiLineString:
		n := 0
		for _, ls := range v {
			n += len(ls)
		}
		return n
	case orb.Polygon:
		n := 0
		for _, r := range v {
			n += len(r)
		}
		return n
	case orb.MultiPolygon:
		n := 0
		for _, p := range v {
			for _, r := range p {
				n += len(r)
			}
		}
		return n
	}
	return 0
}

// raw returns the shared coordinates. Callers must not modify them.
func (g Geometry) raw() orb.Geometry { return g.geom }

type validator struct {
	geographic bool
}

func (v validator) validate(g orb.Geometry) (Kind, error) {
	switch g := g.(type) {
	case orb.Point:
		return KindPoint, v.point(KindPoint, g)
	case orb.MultiPoint:
		if len(g) == 0 {
			return KindMultiPoint, emptyGeometry(KindMultiPoint, "no points")
		}
		for _, p := range g {
			if err := v.point(KindMultiPoint, p); err != nil {
				return KindMultiPoint, err
			}
		}
		return KindMultiPoint, nil
	case orb.LineString:
		return KindLineString, v.line(KindLineString, g)
	case orb.MultiLineString:
		if len(g) == 0 {
			return KindMultiLineString, emptyGeometry(KindMultiLineString, "no lines")
		}
		for _, ls := range g {
			if err := v.line(KindMultiLineString, ls); err != nil {
				return KindMultiLineString, err
			}
		}
		return KindMultiLineString, nil
	case orb.Polygon:
		return KindPolygon, v.polygon(KindPolygon, g)
	case orb.MultiPolygon:
		if len(g) == 0 {
			return KindMultiPolygon, emptyGeometry(KindMultiPolygon, "no polygons")
		}
		for _, p := range g {
			if err := v.polygon(KindMultiPolygon, p); err != nil {
				return KindMultiPolygon, err
			}
		}
		return KindMultiPolygon, nil
	default:
		return 0, invalidGeometry(0, "unsupported geometry type %s", g.GeoJSONType())
	}
}

func (v validator) point(k Kind, p orb.Point) error {
	if math.IsNaN(p[0]) || math.IsNaN(p[1]) || math.IsInf(p[0], 0) || math.IsInf(p[1], 0) {
		return invalidGeometry(k, "non-finite coordinate %v", p)
	}
	if v.geographic && (p[1] < -90 || p[1] > 90) {
		return invalidGeometry(k, "latitude %f outside [-90, 90]", p[1])
	}
	return nil
}

func (v validator) line(k Kind, ls orb.LineString) error {
	if len(ls) == 0 {
		return emptyGeometry(k, "line has no coordinates")
	}
	if len(ls) < 2 {
		return invalidGeometry(k, "line has %d coordinate, need at least 2", len(ls))
	}
	for _, p := range ls {
		if err := v.point(k, p); err != nil {
			return err
		}
	}
	return nil
}

func (v validator) polygon(k Kind, p orb.Polygon) error {
	if len(p) == 0 {
		return emptyGeometry(k, "polygon has no rings")
	}
	for i, r := range p {
		if len(r) == 0 {
			return emptyGeometry(k, "polygon ring has no coordinates")
		}
		if len(r) < 4 {
			return invalidGeometry(k, "ring %d has %d coordinates, need at least 4", i, len(r))
		}
		if r[0] != r[len(r)-1] {
			return invalidGeometry(k, "ring %d is not closed", i)
		}
		for _, pt := range r {
			if err := v.point(k, pt); err != nil {
				return err
			}
		}
	}
	return nil
}
