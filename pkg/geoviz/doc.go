// Package geoviz turns geographic features into styled, projected draw
// commands for a viewport.
//
// The package is the rendering core of a map viewer. It does not read files
// and does not draw pixels: it takes parsed features, finds the ones visible
// in a viewport, simplifies them for the zoom level, projects them, resolves
// their style and hands back an ordered list of commands for a drawing
// backend.
//
// # Basic Usage
//
//	fc, rejected := geoviz.LoadCollection(geoviz.Geographic, []geoviz.FeatureSpec{
//	    {
//	        ID:         "harbour",
//	        Geometry:   orb.Polygon{{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}}},
//	        Attributes: map[string]any{"kind": "water", "depth": 12.5},
//	    },
//	}, geoviz.DefaultLoadOptions())
//	for _, r := range rejected {
//	    log.Printf("skipped: %v", r)
//	}
//
//	idx := geoviz.BuildIndex(fc)
//
// # Rendering Workflow
//
// Build the collection and the index once per dataset, then render every
// frame:
//
//	rules := geoviz.NewRuleSet(geoviz.DefaultStyle(),
//	    geoviz.StyleRule{
//	        Name:  "deep water",
//	        When:  geoviz.All(geoviz.Eq("kind", "water"), geoviz.Range("depth", 10, math.Inf(1))),
//	        Style: geoviz.VisualProperties{Fill: color.RGBA{0, 60, 190, 255}, ZOrder: 1},
//	    },
//	)
//
//	vp, _ := geoviz.NewViewport(geoviz.NewBounds(0, 0, 5, 5), 4, geoviz.Geographic)
//	frame, err := geoviz.Render(ctx, fc, idx, vp, rules)
//	if err != nil {
//	    return err
//	}
//	for _, cmd := range frame.Commands {
//	    backend.Draw(cmd)
//	}
//
// Identical inputs produce identical frames regardless of the number of
// workers; Frame.Fingerprint makes that easy to check.
//
// # Coordinate Systems
//
// Features share the reference system of their collection. A viewport may
// use another one: the viewport box is converted to query the index, and
// the visible features are projected into the viewport's system. Features
// that cannot be projected, such as polar points in Web Mercator, are left
// out of the frame and listed in Frame.Dropped.
//
// # Errors
//
// Errors are classified by the sentinels ErrInvalidGeometry,
// ErrEmptyGeometry, ErrProjectionSingularity and ErrIndexQuery, among
// others; match them with errors.Is.
package geoviz
