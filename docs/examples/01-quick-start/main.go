package main

import (
	"context"
	"fmt"
	"log"

	"github.com/beetlebugorg/geoviz/pkg/geoviz"
	"github.com/paulmach/orb"
)

func main() {
	// Load features in geographic coordinates
	fc, rejected := geoviz.LoadCollection(geoviz.Geographic, []geoviz.FeatureSpec{
		{ID: "harbour", Geometry: orb.Polygon{{{-71.06, 42.34}, {-71.02, 42.34}, {-71.02, 42.37}, {-71.06, 42.37}, {-71.06, 42.34}}}},
		{ID: "light", Geometry: orb.Point{-71.05, 42.35}, Attributes: map[string]any{"kind": "light"}},
	}, geoviz.DefaultLoadOptions())
	if len(rejected) > 0 {
		log.Fatal(rejected[0])
	}

	// Index once, render many times
	idx := geoviz.BuildIndex(fc)

	vp, err := geoviz.ScopeViewport(geoviz.ScopeNorthAmerica, geoviz.WebMercator, 4)
	if err != nil {
		log.Fatal(err)
	}

	frame, err := geoviz.Render(context.Background(), fc, idx, vp, geoviz.NewRuleSet(geoviz.DefaultStyle()))
	if err != nil {
		log.Fatal(err)
	}

	for _, c := range frame.Commands {
		fmt.Printf("%s %s z=%d\n", c.Kind, c.FeatureID, c.Style.ZOrder)
	}
}
