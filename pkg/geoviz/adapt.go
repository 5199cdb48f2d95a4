package geoviz

import (
	"encoding/hex"
	"fmt"
	"image/color"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// FromGeoJSON converts a decoded GeoJSON collection into feature specs.
//
// Feature ids become strings. Properties that are not strings, numbers or
// booleans (nested objects, arrays, nulls) are dropped. Features without a
// geometry are kept so LoadCollection can report them.
func FromGeoJSON(fc *geojson.FeatureCollection) []FeatureSpec {
	if fc == nil {
		return nil
	}
	specs := make([]FeatureSpec, len(fc.Features))
	for i, f := range fc.Features {
		if f == nil {
			continue
		}
		attrs := make(map[string]any, len(f.Properties))
		for k, v := range f.Properties {
			if _, err := ValueOf(v); err == nil {
				attrs[k] = v
			}
		}
		specs[i] = FeatureSpec{
			ID:         geojsonID(f.ID),
			Geometry:   f.Geometry,
			Attributes: attrs,
		}
	}
	return specs
}

func geojsonID(id any) string {
	switch v := id.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// Connection is a straight path between two locations, such as a route
// between an origin and a destination.
type Connection struct {
	ID         string
	From, To   orb.Point
	Attributes map[string]any
}

// ConnectionSpecs turns connections into two-point line features.
func ConnectionSpecs(conns []Connection) []FeatureSpec {
	specs := make([]FeatureSpec, len(conns))
	for i, c := range conns {
		specs[i] = FeatureSpec{
			ID:         c.ID,
			Geometry:   orb.LineString{c.From, c.To},
			Attributes: c.Attributes,
		}
	}
	return specs
}

// GeoJSON exports the frame's commands as GeoJSON features, in draw order.
// Styles are written as properties so a generic GeoJSON viewer can show
// the result.
func (f *Frame) GeoJSON() *geojson.FeatureCollection {
	out := geojson.NewFeatureCollection()
	for i, c := range f.Commands {
		feat := geojson.NewFeature(c.Geometry)
		feat.ID = c.FeatureID
		feat.Properties["draw"] = c.Kind.String()
		feat.Properties["order"] = i
		feat.Properties["position"] = c.Position
		feat.Properties["fill"] = HexColor(c.Style.Fill)
		feat.Properties["stroke"] = HexColor(c.Style.Stroke)
		feat.Properties["stroke-width"] = c.Style.StrokeWidth
		feat.Properties["radius"] = c.Style.PointRadius
		feat.Properties["opacity"] = c.Style.Opacity
		feat.Properties["z"] = c.Style.ZOrder
		out.Append(feat)
	}
	return out
}

// HexColor formats c as "#rrggbb", or "#rrggbbaa" when it is not opaque.
func HexColor(c color.RGBA) string {
	if c.A == 255 {
		return "#" + hex.EncodeToString([]byte{c.R, c.G, c.B})
	}
	return "#" + hex.EncodeToString([]byte{c.R, c.G, c.B, c.A})
}
