package geoviz

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/paulmach/orb"
)

// DrawKind identifies the primitive a backend should draw.
type DrawKind uint8

const (
	DrawPoint DrawKind = iota + 1
	DrawPolyline
	DrawPolygon
)

func (k DrawKind) String() string {
	switch k {
	case DrawPoint:
		return "point"
	case DrawPolyline:
		return "polyline"
	case DrawPolygon:
		return "polygon"
	default:
		return "unknown"
	}
}

// MarshalText encodes the kind by name.
func (k DrawKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func drawKindOf(k Kind) DrawKind {
	switch k {
	case KindPoint, KindMultiPoint:
		return DrawPoint
	case KindLineString, KindMultiLineString:
		return DrawPolyline
	default:
		return DrawPolygon
	}
}

// DrawCommand is one styled, projected primitive handed to a drawing
// backend.
//
// Geometry is in the viewport's reference system and has been simplified
// for the viewport zoom: orb.Point or MultiPoint for DrawPoint,
// LineString or MultiLineString for DrawPolyline, Polygon or MultiPolygon
// for DrawPolygon.
type DrawCommand struct {
	Kind      DrawKind
	FeatureID string
	Position  int // Feature position in its collection
	Geometry  orb.Geometry
	Style     VisualProperties
}

// DroppedFeature reports a feature skipped by a render, usually because it
// could not be projected.
type DroppedFeature struct {
	Position int
	ID       string
	Err      error
}

func (d DroppedFeature) Error() string {
	return fmt.Sprintf("feature %s dropped: %v", d.ID, d.Err)
}

// Frame is the output of one render pass.
type Frame struct {
	Viewport Viewport
	// Commands are sorted back to front by ZOrder; equal ZOrder keeps
	// collection order.
	Commands []DrawCommand
	// Dropped lists skipped features in collection order.
	Dropped []DroppedFeature
	// Candidates is the number of features the index returned.
	Candidates int
}

// Fingerprint hashes the commands. Two frames with equal fingerprints
// carry the same commands in the same order, bit for bit.
func (f *Frame) Fingerprint() uint64 {
	d := xxhash.New()
	var buf [8]byte
	putU := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		_, _ = d.Write(buf[:])
	}
	putF := func(v float64) { putU(math.Float64bits(v)) }
	putPts := func(pts []orb.Point) {
		putU(uint64(len(pts)))
		for _, p := range pts {
			putF(p[0])
			putF(p[1])
		}
	}

	putU(uint64(len(f.Commands)))
	for _, c := range f.Commands {
		putU(uint64(c.Kind))
		putU(uint64(c.Position))
		_, _ = d.WriteString(c.FeatureID)
		_, _ = d.Write([]byte{0})
		walkParts(c.Geometry, putPts)
		s := c.Style
		_, _ = d.Write([]byte{
			s.Fill.R, s.Fill.G, s.Fill.B, s.Fill.A,
			s.Stroke.R, s.Stroke.G, s.Stroke.B, s.Stroke.A,
		})
		putF(s.StrokeWidth)
		putF(s.PointRadius)
		putF(s.Opacity)
		putU(uint64(int64(s.ZOrder)))
	}
	return d.Sum64()
}

// walkParts calls fn for each coordinate sequence of g in order.
func walkParts(g orb.Geometry, fn func([]orb.Point)) {
	switch g := g.(type) {
	case orb.Point:
		fn([]orb.Point{g})
	case orb.MultiPoint:
		fn(g)
	case orb.LineString:
		fn(g)
	case orb.MultiLineString:
		for _, ls := range g {
			fn(ls)
		}
	case orb.Ring:
		fn(g)
	case orb.Polygon:
		for _, r := range g {
			fn(r)
		}
	case orb.MultiPolygon:
		for _, p := range g {
			for _, r := range p {
				fn(r)
			}
		}
	}
}
