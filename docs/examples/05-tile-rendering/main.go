package main

import (
	"context"
	"encoding/json"
	"log"
	"os"

	"github.com/beetlebugorg/geoviz/pkg/geoviz"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
)

func main() {
	// Flight routes as straight connections
	specs := geoviz.ConnectionSpecs([]geoviz.Connection{
		{ID: "BOS-LHR", From: orb.Point{-71.01, 42.36}, To: orb.Point{-0.45, 51.47}, Attributes: map[string]any{"flights": 9}},
		{ID: "BOS-JFK", From: orb.Point{-71.01, 42.36}, To: orb.Point{-73.78, 40.64}, Attributes: map[string]any{"flights": 31}},
		{ID: "JFK-CDG", From: orb.Point{-73.78, 40.64}, To: orb.Point{2.55, 49.01}, Attributes: map[string]any{"flights": 14}},
	})
	fc, _ := geoviz.LoadCollection(geoviz.Geographic, specs, geoviz.DefaultLoadOptions())
	idx := geoviz.BuildIndex(fc)

	rules := geoviz.NewRuleSet(geoviz.DefaultStyle(), geoviz.StyleRule{
		When:     geoviz.Range("flights", 10, 1000),
		Style:    geoviz.VisualProperties{StrokeWidth: 3, Opacity: 1, ZOrder: 1},
		FillRamp: &geoviz.RampFill{Attr: "flights", Ramp: geoviz.Heatmap(), Min: 10, Max: 40},
	})

	// Render the zoom 2 tile covering the North Atlantic
	vp, err := geoviz.ViewportForTile(maptile.New(1, 1, 2), geoviz.WebMercator)
	if err != nil {
		log.Fatal(err)
	}
	frame, err := geoviz.Render(context.Background(), fc, idx, vp, rules)
	if err != nil {
		log.Fatal(err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(frame.GeoJSON()); err != nil {
		log.Fatal(err)
	}
}
