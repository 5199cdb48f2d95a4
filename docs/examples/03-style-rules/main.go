package main

import (
	"fmt"
	"image/color"
	"math"

	"github.com/beetlebugorg/geoviz/pkg/geoviz"
	"github.com/paulmach/orb"
)

func main() {
	// Rules are tried in order; the first match wins
	rules := geoviz.NewRuleSet(geoviz.DefaultStyle(),
		geoviz.StyleRule{
			Name:  "navigation aids",
			When:  geoviz.In("kind", "light", "buoy", "beacon"),
			Style: geoviz.VisualProperties{Fill: color.RGBA{R: 255, G: 200, A: 255}, PointRadius: 6, Opacity: 1, ZOrder: 10},
		},
		geoviz.StyleRule{
			Name:     "depth areas",
			When:     geoviz.All(geoviz.GeometryIs(geoviz.KindPolygon), geoviz.Range("depth", 0, math.Inf(1))),
			Style:    geoviz.VisualProperties{Opacity: 0.7, ZOrder: 1},
			FillRamp: &geoviz.RampFill{Attr: "depth", Ramp: geoviz.Blues(), Min: 0, Max: 50},
		},
		geoviz.StyleRule{
			Name:    "regions",
			When:    geoviz.Eq("layer", "regions"),
			Palette: &geoviz.CategoryFill{Attr: "country", Palette: geoviz.DefaultPalette()},
		},
	)

	b := geoviz.NewCollectionBuilder(geoviz.Geographic)
	_ = b.Add(geoviz.FeatureSpec{ID: "buoy-1", Geometry: orb.Point{1, 1}, Attributes: map[string]any{"kind": "buoy"}})
	_ = b.Add(geoviz.FeatureSpec{ID: "shoal", Geometry: orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{2, 2}}, Attributes: map[string]any{"depth": 4.5}})
	_ = b.Add(geoviz.FeatureSpec{ID: "norway", Geometry: orb.Point{10, 60}, Attributes: map[string]any{"layer": "regions", "country": "NO"}})
	_ = b.Add(geoviz.FeatureSpec{ID: "unstyled", Geometry: orb.Point{5, 5}})
	fc := b.Build()

	for _, f := range fc.Features() {
		i, vp := rules.Match(f)
		name := "default"
		if i >= 0 {
			name = rules.Rules[i].Name
		}
		fmt.Printf("%-9s -> %-15s fill=%v z=%d\n", f.ID(), name, vp.Fill, vp.ZOrder)
	}
}
