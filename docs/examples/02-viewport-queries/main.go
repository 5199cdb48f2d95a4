package main

import (
	"fmt"
	"log"

	"github.com/beetlebugorg/geoviz/pkg/geoviz"
	"github.com/paulmach/orb"
)

func main() {
	b := geoviz.NewCollectionBuilder(geoviz.Geographic)
	ports := map[string]orb.Point{
		"boston":    {-71.05, 42.36},
		"rotterdam": {4.48, 51.92},
		"shanghai":  {121.49, 31.23},
		"santos":    {-46.33, -23.96},
	}
	for _, name := range []string{"boston", "rotterdam", "shanghai", "santos"} {
		if err := b.Add(geoviz.FeatureSpec{ID: name, Geometry: ports[name]}); err != nil {
			log.Fatal(err)
		}
	}
	idx := geoviz.BuildIndex(b.Build())

	// Query each named scope (sub-linear R-tree search)
	for _, scope := range geoviz.Scopes() {
		bounds, _ := scope.Bounds()
		features := idx.Query(bounds)

		fmt.Printf("%-14s %d port(s)\n", scope, len(features))
		for _, f := range features {
			fmt.Printf("  %s at %v\n", f.ID(), f.Bounds().Center())
		}
	}
}
