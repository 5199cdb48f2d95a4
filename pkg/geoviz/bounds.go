package geoviz

import (
	"math"

	"github.com/paulmach/orb"
)

// Bounds is an axis-aligned bounding box in the units of a reference system.
//
// All comparisons treat the box as closed: a box touching another at an
// edge or corner intersects it.
type Bounds struct {
	MinX float64 // Western edge
	MinY float64 // Southern edge
	MaxX float64 // Eastern edge
	MaxY float64 // Northern edge
}

// NewBounds returns the box spanning the two corners in any order.
func NewBounds(x1, y1, x2, y2 float64) Bounds {
	return Bounds{
		MinX: math.Min(x1, x2),
		MinY: math.Min(y1, y2),
		MaxX: math.Max(x1, x2),
		MaxY: math.Max(y1, y2),
	}
}

// BoundsFromOrb converts an orb bound.
func BoundsFromOrb(b orb.Bound) Bounds {
	return Bounds{MinX: b.Min[0], MinY: b.Min[1], MaxX: b.Max[0], MaxY: b.Max[1]}
}

// Orb converts the box to an orb bound.
func (b Bounds) Orb() orb.Bound {
	return orb.Bound{Min: orb.Point{b.MinX, b.MinY}, Max: orb.Point{b.MaxX, b.MaxY}}
}

// Valid reports whether every edge is finite and min does not exceed max.
func (b Bounds) Valid() bool {
	for _, v := range [4]float64{b.MinX, b.MinY, b.MaxX, b.MaxY} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return b.MinX <= b.MaxX && b.MinY <= b.MaxY
}

// Contains reports whether (x, y) lies in the box, edges included.
func (b Bounds) Contains(x, y float64) bool {
	return x >= b.MinX && x <= b.MaxX &&
		y >= b.MinY && y <= b.MaxY
}

// Intersects reports whether the two boxes share at least one point.
// Boxes that only touch count.
func (b Bounds) Intersects(other Bounds) bool {
	return !(other.MaxX < b.MinX ||
		other.MinX > b.MaxX ||
		other.MaxY < b.MinY ||
		other.MinY > b.MaxY)
}

// Expand grows the box by margin on every side. A negative margin shrinks it.
func (b Bounds) Expand(margin float64) Bounds {
	return Bounds{
		MinX: b.MinX - margin,
		MinY: b.MinY - margin,
		MaxX: b.MaxX + margin,
		MaxY: b.MaxY + margin,
	}
}

// Union returns the smallest box containing both.
func (b Bounds) Union(other Bounds) Bounds {
	return Bounds{
		MinX: math.Min(b.MinX, other.MinX),
		MinY: math.Min(b.MinY, other.MinY),
		MaxX: math.Max(b.MaxX, other.MaxX),
		MaxY: math.Max(b.MaxY, other.MaxY),
	}
}

func (b Bounds) Width() float64  { return b.MaxX - b.MinX }
func (b Bounds) Height() float64 { return b.MaxY - b.MinY }

// Diagonal returns the length of the box diagonal.
func (b Bounds) Diagonal() float64 { return math.Hypot(b.Width(), b.Height()) }

// Center returns the midpoint of the box.
func (b Bounds) Center() orb.Point {
	return orb.Point{(b.MinX + b.MaxX) / 2, (b.MinY + b.MaxY) / 2}
}
