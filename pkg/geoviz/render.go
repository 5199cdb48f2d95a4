package geoviz

import (
	"context"
	"math"
	"runtime"
	"sort"
	"time"

	"github.com/beetlebugorg/geoviz/internal/proj"
	"github.com/beetlebugorg/geoviz/internal/simplify"
	"github.com/cockroachdb/errors"
	"github.com/paulmach/orb"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// RenderOptions configures a Renderer.
type RenderOptions struct {
	// Workers bounds the goroutines that simplify, project and style
	// features. If 0, defaults to runtime.NumCPU(). The output does not
	// depend on it.
	Workers int

	// Tolerance maps the viewport zoom to a simplification tolerance in
	// the collection's units. Nil uses DefaultTolerance for the
	// collection's reference system.
	Tolerance ToleranceFunc

	// Cache shares simplified geometries across frames. Optional.
	Cache *SimplifyCache

	// Metrics records render activity. Optional.
	Metrics *Metrics

	// Logger receives dropped-feature warnings and a debug summary per
	// frame. Nil disables logging.
	Logger *zerolog.Logger
}

// DefaultRenderOptions returns render options with sensible defaults.
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{Workers: runtime.NumCPU()}
}

// Renderer turns feature collections into ordered draw commands.
// A Renderer is safe for concurrent use.
type Renderer struct {
	opts RenderOptions
	log  zerolog.Logger
}

// NewRenderer creates a renderer.
func NewRenderer(opts RenderOptions) *Renderer {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = opts.Logger.With().Str("component", "render").Logger()
	}
	return &Renderer{opts: opts, log: log}
}

// Render draws fc through vp with the default options.
func Render(ctx context.Context, fc *FeatureCollection, idx *Index, vp Viewport, rules *RuleSet) (*Frame, error) {
	return NewRenderer(DefaultRenderOptions()).Render(ctx, fc, idx, vp, rules)
}

type featureResult struct {
	cmd     DrawCommand
	dropped error
}

// Render runs one pass of the pipeline:
//
//  1. query idx with the viewport box, converted to the collection's system
//  2. simplify each feature at the viewport zoom's tolerance
//  3. project into the viewport's system
//  4. resolve the style
//  5. sort stably by z-order
//
// Steps 2 to 4 run concurrently per feature; the result is identical for any
// worker count. Features that cannot be projected are left out of the
// commands and listed in Frame.Dropped. Render fails when idx was not built
// from fc, when the viewport is invalid, or when ctx is cancelled, in which
// case no partial frame is returned.
//
// Example:
//
//	vp, _ := geoviz.NewViewport(geoviz.NewBounds(0, 0, 5, 5), 3, geoviz.Geographic)
//	frame, err := geoviz.Render(ctx, fc, idx, vp, rules)
//	if err != nil {
//	    return err
//	}
//	for _, cmd := range frame.Commands {
//	    backend.Draw(cmd)
//	}
func (r *Renderer) Render(ctx context.Context, fc *FeatureCollection, idx *Index, vp Viewport, rules *RuleSet) (*Frame, error) {
	start := time.Now()

	if fc == nil || idx == nil || rules == nil {
		return nil, errors.New("render: collection, index and rules are required")
	}
	if idx.Collection() != fc {
		return nil, errors.Wrap(ErrIndexQuery, "index was built from another collection")
	}
	if err := vp.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	query, err := vp.In(fc.CRS())
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "viewport"), ErrInvalidViewport)
	}
	positions, err := candidates(fc, idx, query)
	if err != nil {
		return nil, err
	}

	tolFn := r.opts.Tolerance
	if tolFn == nil {
		tolFn = DefaultTolerance(fc.CRS())
	}
	tolerance := tolFn(vp.Zoom)

	results := make([]featureResult, len(positions))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)
	for i, pos := range positions {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = r.renderFeature(fc, fc.features[pos], query, vp.CRS, tolerance, rules)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	frame := &Frame{
		Viewport:   vp,
		Commands:   make([]DrawCommand, 0, len(results)),
		Candidates: len(positions),
	}
	for i, res := range results {
		if res.dropped != nil {
			f := fc.features[positions[i]]
			frame.Dropped = append(frame.Dropped, DroppedFeature{Position: f.pos, ID: f.id, Err: res.dropped})
			r.log.Warn().Err(res.dropped).Str("feature", f.id).Int("position", f.pos).Msg("feature dropped")
			continue
		}
		frame.Commands = append(frame.Commands, res.cmd)
	}

	// Query order is collection order, so a stable sort keeps ties in
	// collection order.
	sort.SliceStable(frame.Commands, func(i, j int) bool {
		return frame.Commands[i].Style.ZOrder < frame.Commands[j].Style.ZOrder
	})

	elapsed := time.Since(start)
	r.opts.Metrics.observeFrame(elapsed, len(positions), len(frame.Commands), len(frame.Dropped))
	r.log.Debug().
		Int("candidates", len(positions)).
		Int("drawn", len(frame.Commands)).
		Int("dropped", len(frame.Dropped)).
		Float64("zoom", vp.Zoom).
		Float64("tolerance", tolerance).
		Dur("elapsed", elapsed).
		Msg("frame rendered")

	return frame, nil
}

func (r *Renderer) renderFeature(fc *FeatureCollection, f *Feature, window Bounds, to CRS, tolerance float64, rules *RuleSet) featureResult {
	simplified := r.simplified(fc, f, tolerance)

	projected, err := projectGeometry(simplified, fc.CRS(), to, window)
	if err != nil {
		return featureResult{dropped: err}
	}

	return featureResult{cmd: DrawCommand{
		Kind:      drawKindOf(f.Kind()),
		FeatureID: f.id,
		Position:  f.pos,
		Geometry:  projected,
		Style:     rules.Resolve(f),
	}}
}

// simplified returns f's geometry at tolerance. The result may be shared
// with the cache and must not be modified.
func (r *Renderer) simplified(fc *FeatureCollection, f *Feature, tolerance float64) orb.Geometry {
	raw := f.geometry.raw()
	if !(tolerance > 0) {
		return raw
	}
	switch f.Kind() {
	case KindPoint, KindMultiPoint:
		return raw
	}
	if r.opts.Cache == nil {
		return simplify.Geometry(raw, tolerance)
	}
	g, hit := r.opts.Cache.Get(simplifyKey(fc.id, f.pos, tolerance), func() orb.Geometry {
		return simplify.Geometry(raw, tolerance)
	})
	r.opts.Metrics.observeCache(hit)
	return g
}

// candidates searches idx with query and with copies of it shifted one world
// width east and west, so a viewport running past ±180° also finds features
// stored on the other side. Positions are returned in collection order.
func candidates(fc *FeatureCollection, idx *Index, query Bounds) ([]int, error) {
	span := fc.CRS().WorldSpan()
	seen := make(map[int]struct{})
	var positions []int
	for _, dx := range [3]float64{0, -span, span} {
		q := Bounds{MinX: query.MinX + dx, MinY: query.MinY, MaxX: query.MaxX + dx, MaxY: query.MaxY}
		if dx != 0 && !q.Intersects(fc.Bounds()) {
			continue
		}
		hits, err := idx.search(q)
		if err != nil {
			return nil, err
		}
		for _, pos := range hits {
			if _, ok := seen[pos]; !ok {
				seen[pos] = struct{}{}
				positions = append(positions, pos)
			}
		}
	}
	sort.Ints(positions)
	return positions, nil
}

// projectGeometry returns a projected copy of g. g itself is not modified.
//
// window is the viewport in from units. Each line, ring and point is first
// unwrapped so no segment spans more than half the world, then moved by whole
// world widths until it overlaps window. Holes follow their outer ring.
func projectGeometry(g orb.Geometry, from, to CRS, window Bounds) (orb.Geometry, error) {
	out := orb.Clone(g)
	switch out := out.(type) {
	case orb.Point:
		pts := []orb.Point{out}
		wrapInto(window, from, pts)
		if err := proj.TransformPath(pts, from, to); err != nil {
			return nil, err
		}
		return pts[0], nil
	case orb.MultiPoint:
		for i := range out {
			wrapInto(window, from, out[i:i+1])
		}
	case orb.LineString:
		wrapInto(window, from, out)
	case orb.Ring:
		wrapInto(window, from, out)
	case orb.MultiLineString:
		for _, ls := range out {
			wrapInto(window, from, ls)
		}
	case orb.Polygon:
		wrapInto(window, from, rings(out)...)
	case orb.MultiPolygon:
		for _, p := range out {
			wrapInto(window, from, rings(p)...)
		}
	}

	var err error
	walkParts(out, func(pts []orb.Point) {
		if err == nil {
			err = proj.TransformPath(pts, from, to)
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func rings(p orb.Polygon) [][]orb.Point {
	out := make([][]orb.Point, len(p))
	for i, r := range p {
		out[i] = r
	}
	return out
}

// wrapInto unwraps each part in place, aligns the later parts with the first
// and shifts them all by the whole world widths that bring the first part
// into window. Parts already overlapping window stay put.
func wrapInto(window Bounds, crs CRS, parts ...[]orb.Point) {
	if len(parts) == 0 || len(parts[0]) == 0 {
		return
	}
	span := crs.WorldSpan()
	for _, pts := range parts {
		proj.Unwrap(pts, crs)
	}
	lo, hi := xRange(parts[0])
	for _, pts := range parts[1:] {
		if len(pts) == 0 {
			continue
		}
		plo, phi := xRange(pts)
		shiftX(pts, span*math.Round(((lo+hi)-(plo+phi))/2/span))
	}
	if hi >= window.MinX && lo <= window.MaxX {
		return
	}
	dx := span * math.Round(((window.MinX+window.MaxX)-(lo+hi))/2/span)
	for _, pts := range parts {
		shiftX(pts, dx)
	}
}

func xRange(pts []orb.Point) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, p := range pts {
		lo = math.Min(lo, p[0])
		hi = math.Max(hi, p[0])
	}
	return lo, hi
}

func shiftX(pts []orb.Point, dx float64) {
	if dx == 0 {
		return
	}
	for i := range pts {
		pts[i][0] += dx
	}
}
