package geoviz

import (
	"math"
	"strings"

	"github.com/beetlebugorg/geoviz/internal/proj"
	"github.com/cockroachdb/errors"
	"github.com/paulmach/orb/maptile"
)

// Viewport is the visible box of one frame and the zoom it is drawn at.
//
// Bounds are expressed in CRS, which is also the system draw commands are
// projected into. Viewports are cheap values recreated for every frame.
type Viewport struct {
	Bounds Bounds
	Zoom   float64
	CRS    CRS
}

// NewViewport validates and returns a viewport.
func NewViewport(b Bounds, zoom float64, crs CRS) (Viewport, error) {
	vp := Viewport{Bounds: b, Zoom: zoom, CRS: crs}
	return vp, vp.Validate()
}

// Validate checks the box, the zoom and the reference system.
func (v Viewport) Validate() error {
	if !v.CRS.Valid() {
		return errors.Wrapf(ErrUnknownCRS, "viewport %q", v.CRS.String())
	}
	if !v.Bounds.Valid() {
		return errors.Wrapf(ErrInvalidViewport, "bounds %+v", v.Bounds)
	}
	if math.IsNaN(v.Zoom) || math.IsInf(v.Zoom, 0) || v.Zoom < 0 {
		return errors.Wrapf(ErrInvalidViewport, "zoom %v", v.Zoom)
	}
	return nil
}

// In returns the viewport box expressed in another reference system.
// Latitudes are clamped to the target's domain.
func (v Viewport) In(crs CRS) (Bounds, error) {
	b, err := proj.TransformBounds(v.Bounds.Orb(), v.CRS, crs)
	if err != nil {
		return Bounds{}, err
	}
	return BoundsFromOrb(b), nil
}

// ViewportForTile returns the viewport covering a slippy-map tile, at the
// tile's zoom.
//
// Example:
//
//	vp, err := geoviz.ViewportForTile(maptile.New(301, 384, 10), geoviz.WebMercator)
func ViewportForTile(t maptile.Tile, crs CRS) (Viewport, error) {
	if !t.Valid() {
		return Viewport{}, errors.Wrapf(ErrInvalidViewport, "tile %d/%d/%d", t.Z, t.X, t.Y)
	}
	b, err := proj.TransformBounds(t.Bound(), Geographic, crs)
	if err != nil {
		return Viewport{}, err
	}
	return NewViewport(BoundsFromOrb(b), float64(t.Z), crs)
}

// MapScope names a predefined geographic extent.
type MapScope string

const (
	ScopeWorld        MapScope = "world"
	ScopeUSA          MapScope = "usa"
	ScopeEurope       MapScope = "europe"
	ScopeAsia         MapScope = "asia"
	ScopeAfrica       MapScope = "africa"
	ScopeNorthAmerica MapScope = "north america"
	ScopeSouthAmerica MapScope = "south america"
)

// scopeExtents are lon/lat boxes in degrees.
var scopeExtents = map[MapScope]Bounds{
	ScopeWorld:        {MinX: -180, MinY: -90, MaxX: 180, MaxY: 90},
	ScopeUSA:          {MinX: -125, MinY: 24, MaxX: -66, MaxY: 50},
	ScopeEurope:       {MinX: -30, MinY: 35, MaxX: 60, MaxY: 72},
	ScopeAsia:         {MinX: 22, MinY: -15, MaxX: 160, MaxY: 55},
	ScopeAfrica:       {MinX: -30, MinY: -40, MaxX: 60, MaxY: 40},
	ScopeNorthAmerica: {MinX: -140, MinY: 20, MaxX: -55, MaxY: 60},
	ScopeSouthAmerica: {MinX: -100, MinY: -60, MaxX: -30, MaxY: 15},
}

// Scopes lists the known scopes.
func Scopes() []MapScope {
	return []MapScope{
		ScopeWorld, ScopeUSA, ScopeEurope, ScopeAsia,
		ScopeAfrica, ScopeNorthAmerica, ScopeSouthAmerica,
	}
}

// ParseScope resolves a scope name. Case, underscores and hyphens are
// ignored, so "North_America" is accepted.
func ParseScope(s string) (MapScope, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("_", " ", "-", " ").Replace(norm)
	scope := MapScope(norm)
	if _, ok := scopeExtents[scope]; !ok {
		return "", errors.Newf("unknown map scope %q", s)
	}
	return scope, nil
}

// Bounds returns the scope's extent in degrees.
func (s MapScope) Bounds() (Bounds, bool) {
	b, ok := scopeExtents[s]
	return b, ok
}

// ScopeViewport returns a viewport over a named scope in the given system.
func ScopeViewport(s MapScope, crs CRS, zoom float64) (Viewport, error) {
	b, ok := scopeExtents[s]
	if !ok {
		return Viewport{}, errors.Newf("unknown map scope %q", string(s))
	}
	pb, err := proj.TransformBounds(b.Orb(), Geographic, crs)
	if err != nil {
		return Viewport{}, err
	}
	return NewViewport(BoundsFromOrb(pb), zoom, crs)
}
