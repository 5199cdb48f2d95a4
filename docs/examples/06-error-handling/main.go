package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/beetlebugorg/geoviz/pkg/geoviz"
	"github.com/paulmach/orb"
)

func main() {
	specs := []geoviz.FeatureSpec{
		{ID: "ok", Geometry: orb.Point{10, 80}},
		{ID: "stub", Geometry: orb.LineString{{0, 0}}},
		{ID: "open-ring", Geometry: orb.Polygon{{{0, 0}, {1, 0}, {1, 1}}}},
		{ID: "empty", Geometry: orb.MultiPoint{}},
		{ID: "polar", Geometry: orb.LineString{{0, 80}, {0, 90}}},
	}

	// Loading keeps valid features and reports the rest
	fc, rejected := geoviz.LoadCollection(geoviz.Geographic, specs, geoviz.DefaultLoadOptions())
	for _, r := range rejected {
		var gerr *geoviz.GeometryError
		switch {
		case errors.Is(r, geoviz.ErrEmptyGeometry):
			fmt.Printf("rejected %s: empty\n", r.ID)
		case errors.As(r, &gerr):
			fmt.Printf("rejected %s: invalid %s (%s)\n", r.ID, gerr.Kind, gerr.Reason)
		default:
			fmt.Printf("rejected %s: %v\n", r.ID, r.Err)
		}
	}

	// Rendering into Web Mercator drops what cannot be projected
	vp, err := geoviz.ScopeViewport(geoviz.ScopeWorld, geoviz.WebMercator, 1)
	if err != nil {
		log.Fatal(err)
	}
	frame, err := geoviz.Render(context.Background(), fc, geoviz.BuildIndex(fc), vp, geoviz.NewRuleSet(geoviz.DefaultStyle()))
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("drawn: %d\n", len(frame.Commands))
	for _, d := range frame.Dropped {
		fmt.Printf("dropped %s: singular=%v\n", d.ID, errors.Is(d.Err, geoviz.ErrProjectionSingularity))
	}

	// Invalid viewports fail the whole render
	_, err = geoviz.Render(context.Background(), fc, geoviz.BuildIndex(fc), geoviz.Viewport{Zoom: -1, CRS: geoviz.WebMercator}, geoviz.NewRuleSet(geoviz.DefaultStyle()))
	fmt.Printf("bad viewport: %v\n", errors.Is(err, geoviz.ErrInvalidViewport))
}
