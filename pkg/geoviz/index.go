package geoviz

import (
	"math"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/dhconnelly/rtreego"
)

// IndexOptions tunes the R-tree.
type IndexOptions struct {
	// MinChildren and MaxChildren bound the entries per tree node.
	MinChildren int
	MaxChildren int
}

// DefaultIndexOptions returns the branching used by BuildIndex.
func DefaultIndexOptions() IndexOptions {
	return IndexOptions{MinChildren: 25, MaxChildren: 50}
}

// Index answers bounding-box queries over one FeatureCollection in
// sub-linear time.
//
// The index is bulk-loaded once and never modified, so it can be shared by
// concurrent renders without locking. Queries are exact: a feature is
// returned if and only if its bounding box intersects the query box, edges
// included.
type Index struct {
	tree *rtreego.Rtree
	fc   *FeatureCollection
}

// indexedFeature is the tree entry for one feature. It holds the feature's
// position rather than a pointer back into the collection.
type indexedFeature struct {
	pos    int
	bounds Bounds
	rect   rtreego.Rect
}

// Bounds implements rtreego.Spatial.
func (e *indexedFeature) Bounds() rtreego.Rect { return e.rect }

// BuildIndex bulk-loads an index over every feature of fc.
//
// Example:
//
//	idx := geoviz.BuildIndex(fc)
//	visible := idx.Query(geoviz.NewBounds(-71.5, 42.0, -71.0, 42.5))
func BuildIndex(fc *FeatureCollection) *Index {
	return BuildIndexWithOptions(fc, DefaultIndexOptions())
}

// BuildIndexWithOptions is BuildIndex with explicit tree branching.
func BuildIndexWithOptions(fc *FeatureCollection, opts IndexOptions) *Index {
	def := DefaultIndexOptions()
	if opts.MaxChildren < 2 {
		opts.MaxChildren = def.MaxChildren
	}
	if opts.MinChildren < 1 || opts.MinChildren > opts.MaxChildren/2 {
		opts.MinChildren = opts.MaxChildren / 2
	}

	objs := make([]rtreego.Spatial, len(fc.features))
	for i, f := range fc.features {
		b := f.Bounds()
		// NewRectFromPoints accepts zero-size boxes, which points produce.
		rect, _ := rtreego.NewRectFromPoints(
			rtreego.Point{b.MinX, b.MinY},
			rtreego.Point{b.MaxX, b.MaxY},
		)
		objs[i] = &indexedFeature{pos: i, bounds: b, rect: rect}
	}

	return &Index{
		tree: rtreego.NewTree(2, opts.MinChildren, opts.MaxChildren, objs...),
		fc:   fc,
	}
}

// Collection returns the collection the index was built from.
func (idx *Index) Collection() *FeatureCollection { return idx.fc }

// Len returns the number of indexed features.
func (idx *Index) Len() int { return idx.tree.Size() }

// Depth returns the height of the tree.
func (idx *Index) Depth() int { return idx.tree.Depth() }

// Query returns the features whose bounding box intersects b, in
// collection order. An invalid box matches nothing.
func (idx *Index) Query(b Bounds) []*Feature {
	positions, err := idx.search(b)
	if err != nil {
		return nil
	}
	out := make([]*Feature, len(positions))
	for i, pos := range positions {
		out[i] = idx.fc.features[pos]
	}
	return out
}

// search returns sorted positions of the features intersecting b.
//
// The tree treats boxes as open, so it is searched with a slightly padded
// box and every candidate is re-checked against the closed box.
func (idx *Index) search(b Bounds) ([]int, error) {
	if !b.Valid() {
		return nil, nil
	}

	query := b.Expand(queryPad(b))
	rect, err := rtreego.NewRectFromPoints(
		rtreego.Point{query.MinX, query.MinY},
		rtreego.Point{query.MaxX, query.MaxY},
	)
	if err != nil {
		return nil, errors.Wrap(ErrIndexQuery, err.Error())
	}

	exact := func(_ []rtreego.Spatial, obj rtreego.Spatial) (refuse, abort bool) {
		e, ok := obj.(*indexedFeature)
		return !ok || !e.bounds.Intersects(b), false
	}

	hits := idx.tree.SearchIntersect(rect, exact)
	positions := make([]int, 0, len(hits))
	for _, h := range hits {
		e := h.(*indexedFeature)
		if e.pos < 0 || e.pos >= len(idx.fc.features) {
			return nil, errors.Wrapf(ErrIndexQuery, "entry %d outside collection of %d", e.pos, len(idx.fc.features))
		}
		positions = append(positions, e.pos)
	}
	sort.Ints(positions)
	return positions, nil
}

// queryPad is a margin large enough to turn the tree's open-interval test
// into a superset of the closed one at the magnitude of b's coordinates.
func queryPad(b Bounds) float64 {
	scale := math.Max(math.Max(math.Abs(b.MinX), math.Abs(b.MaxX)),
		math.Max(math.Abs(b.MinY), math.Abs(b.MaxY)))
	return math.Max(scale, 1) * 1e-9
}

// linearQuery is the brute-force reference for Query.
func (idx *Index) linearQuery(b Bounds) []*Feature {
	var out []*Feature
	for _, f := range idx.fc.features {
		if b.Intersects(f.Bounds()) {
			out = append(out, f)
		}
	}
	return out
}
