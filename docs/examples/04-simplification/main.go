package main

import (
	"context"
	"fmt"
	"log"
	"math"

	"github.com/beetlebugorg/geoviz/pkg/geoviz"
	"github.com/paulmach/orb"
)

func main() {
	// A wiggly coastline with 2000 vertices
	coast := make(orb.LineString, 2000)
	for i := range coast {
		x := float64(i) * 0.005
		coast[i] = orb.Point{x, 0.2*math.Sin(x*3) + 0.01*math.Sin(x*97)}
	}

	fc, _ := geoviz.LoadCollection(geoviz.Geographic, []geoviz.FeatureSpec{{ID: "coast", Geometry: coast}}, geoviz.DefaultLoadOptions())
	idx := geoviz.BuildIndex(fc)

	// Tolerance shrinks as zoom grows
	curve, err := geoviz.NewToleranceCurve(
		geoviz.ToleranceStop{Zoom: 0, Tolerance: 0.1},
		geoviz.ToleranceStop{Zoom: 8, Tolerance: 0.001},
		geoviz.ToleranceStop{Zoom: 12, Tolerance: 0},
	)
	if err != nil {
		log.Fatal(err)
	}

	cache, _ := geoviz.NewSimplifyCache(1024)
	r := geoviz.NewRenderer(geoviz.RenderOptions{Tolerance: curve.Func(), Cache: cache})

	for _, zoom := range []float64{0, 4, 8, 12} {
		vp, _ := geoviz.NewViewport(geoviz.NewBounds(0, -1, 10, 1), zoom, geoviz.Geographic)
		frame, err := r.Render(context.Background(), fc, idx, vp, geoviz.NewRuleSet(geoviz.DefaultStyle()))
		if err != nil {
			log.Fatal(err)
		}
		line := frame.Commands[0].Geometry.(orb.LineString)
		fmt.Printf("zoom %2.0f: tolerance %.4f, %4d vertices\n", zoom, curve.At(zoom), len(line))
	}

	stats := cache.Stats()
	fmt.Printf("cache: %d entries, %d hits, %d misses\n", stats.Entries, stats.Hits, stats.Misses)
}
