package geoviz

import (
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/paulmach/orb"
	"github.com/rs/zerolog"
)

// collectionSeq gives every built collection a distinct identity, used to
// pair indexes and cache entries with the collection they were built from.
var collectionSeq atomic.Uint64

// FeatureCollection is an ordered, immutable set of features sharing one
// reference system.
//
// Collections are built once per dataset load through LoadCollection or a
// CollectionBuilder, then shared read-only by any number of renders.
type FeatureCollection struct {
	id       uint64
	crs      CRS
	features []*Feature
	byID     map[string]int
	bounds   Bounds
}

// CRS returns the reference system shared by every feature.
func (fc *FeatureCollection) CRS() CRS { return fc.crs }

// Len returns the number of features.
func (fc *FeatureCollection) Len() int { return len(fc.features) }

// Feature returns the feature at position i.
func (fc *FeatureCollection) Feature(i int) *Feature { return fc.features[i] }

// Features returns the features in collection order.
func (fc *FeatureCollection) Features() []*Feature {
	out := make([]*Feature, len(fc.features))
	copy(out, fc.features)
	return out
}

// ByID looks up a feature by identifier.
func (fc *FeatureCollection) ByID(id string) (*Feature, bool) {
	i, ok := fc.byID[id]
	if !ok {
		return nil, false
	}
	return fc.features[i], true
}

// Bounds returns the union of all feature bounds. It is the zero box for an
// empty collection.
func (fc *FeatureCollection) Bounds() Bounds { return fc.bounds }

// FeatureSpec is the loose input for one feature.
//
// An empty ID is replaced by the feature's position in the collection.
// Attribute values must be strings, numbers or booleans; nil values are
// dropped.
type FeatureSpec struct {
	ID         string
	Geometry   orb.Geometry
	Attributes map[string]any
}

// Rejection records an input entry that could not be loaded.
type Rejection struct {
	Index int    // Position in the input slice
	ID    string // Input ID, possibly empty
	Err   error
}

func (r Rejection) Error() string {
	if r.ID != "" {
		return fmt.Sprintf("feature %d (%s): %v", r.Index, r.ID, r.Err)
	}
	return fmt.Sprintf("feature %d: %v", r.Index, r.Err)
}

func (r Rejection) Unwrap() error { return r.Err }

// CollectionBuilder assembles a FeatureCollection one feature at a time.
// Features can only be appended. A builder is not safe for concurrent use.
type CollectionBuilder struct {
	crs      CRS
	features []*Feature
	byID     map[string]int
	bounds   Bounds
}

// NewCollectionBuilder starts an empty collection in the given system.
func NewCollectionBuilder(crs CRS) *CollectionBuilder {
	return &CollectionBuilder{
		crs:  crs,
		byID: make(map[string]int),
	}
}

// Len returns the number of features added so far.
func (b *CollectionBuilder) Len() int { return len(b.features) }

// Add validates spec and appends it. A failed Add leaves the builder
// unchanged.
func (b *CollectionBuilder) Add(spec FeatureSpec) error {
	g, attrs, err := prepareFeature(spec, b.crs)
	if err != nil {
		return err
	}
	return b.add(spec.ID, g, attrs)
}

// AddGeometry appends an already built geometry. It fails with
// ErrCRSMismatch when the geometry is in another reference system.
func (b *CollectionBuilder) AddGeometry(id string, g Geometry, attrs map[string]any) error {
	if g.IsZero() {
		return emptyGeometry(0, "zero geometry")
	}
	if g.CRS() != b.crs {
		return errors.Wrapf(ErrCRSMismatch, "geometry in %s, collection in %s", g.CRS(), b.crs)
	}
	converted, err := convertAttributes(attrs)
	if err != nil {
		return err
	}
	return b.add(id, g, converted)
}

func (b *CollectionBuilder) add(id string, g Geometry, attrs map[string]Value) error {
	pos := len(b.features)
	if id == "" {
		id = strconv.Itoa(pos)
	}
	if _, ok := b.byID[id]; ok {
		return errors.Wrapf(ErrDuplicateID, "%q", id)
	}

	f := &Feature{id: id, pos: pos, geometry: g, attrs: attrs}
	b.features = append(b.features, f)
	b.byID[id] = pos
	if pos == 0 {
		b.bounds = g.Bounds()
	} else {
		b.bounds = b.bounds.Union(g.Bounds())
	}
	return nil
}

// Build returns an immutable snapshot. The builder may keep appending;
// later additions do not affect collections already built.
func (b *CollectionBuilder) Build() *FeatureCollection {
	features := make([]*Feature, len(b.features))
	copy(features, b.features)
	byID := make(map[string]int, len(b.byID))
	for k, v := range b.byID {
		byID[k] = v
	}
	return &FeatureCollection{
		id:       collectionSeq.Add(1),
		crs:      b.crs,
		features: features,
		byID:     byID,
		bounds:   b.bounds,
	}
}

func prepareFeature(spec FeatureSpec, crs CRS) (Geometry, map[string]Value, error) {
	g, err := NewGeometry(spec.Geometry, crs)
	if err != nil {
		return Geometry{}, nil, err
	}
	attrs, err := convertAttributes(spec.Attributes)
	if err != nil {
		return Geometry{}, nil, err
	}
	return g, attrs, nil
}

// LoadOptions controls parallel validation while loading a collection.
type LoadOptions struct {
	// Parallel enables concurrent geometry validation.
	Parallel bool

	// Workers specifies the number of validation goroutines.
	// If 0, defaults to runtime.NumCPU().
	Workers int

	// Progress is an optional callback invoked after each entry is
	// validated, with the number processed so far and the total.
	Progress func(loaded, total int)

	// Logger receives one warning per rejected entry. Nil disables logging.
	Logger *zerolog.Logger
}

// DefaultLoadOptions returns load options with sensible defaults.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{
		Parallel: true,
		Workers:  runtime.NumCPU(),
	}
}

// LoadCollection builds a collection from loose specs, tolerating partial
// failure.
//
// Invalid entries are skipped and reported as rejections in input order;
// every valid entry is kept, in input order. Geometry validation runs on a
// worker pool when opts.Parallel is set; the result does not depend on it.
//
// Example:
//
//	fc, rejected := geoviz.LoadCollection(geoviz.Geographic, specs, geoviz.DefaultLoadOptions())
//	for _, r := range rejected {
//	    log.Printf("skipped %v", r)
//	}
func LoadCollection(crs CRS, specs []FeatureSpec, opts LoadOptions) (*FeatureCollection, []Rejection) {
	type prepared struct {
		geometry Geometry
		attrs    map[string]Value
		err      error
	}

	out := make([]prepared, len(specs))
	prepare := func(i int) {
		g, attrs, err := prepareFeature(specs[i], crs)
		out[i] = prepared{geometry: g, attrs: attrs, err: err}
	}

	if opts.Parallel && len(specs) > 1 {
		workers := opts.Workers
		if workers <= 0 {
			workers = runtime.NumCPU()
		}
		if workers > len(specs) {
			workers = len(specs)
		}

		jobs := make(chan int, len(specs))
		done := make(chan struct{}, len(specs))

		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range jobs {
					prepare(i)
					done <- struct{}{}
				}
			}()
		}

		for i := range specs {
			jobs <- i
		}
		close(jobs)

		go func() {
			wg.Wait()
			close(done)
		}()

		loaded := 0
		for range done {
			loaded++
			if opts.Progress != nil {
				opts.Progress(loaded, len(specs))
			}
		}
	} else {
		for i := range specs {
			prepare(i)
			if opts.Progress != nil {
				opts.Progress(i+1, len(specs))
			}
		}
	}

	// Assembly is serial so positions and duplicate detection follow input order.
	b := NewCollectionBuilder(crs)
	var rejected []Rejection
	for i, p := range out {
		err := p.err
		if err == nil {
			err = b.add(specs[i].ID, p.geometry, p.attrs)
		}
		if err != nil {
			rejected = append(rejected, Rejection{Index: i, ID: specs[i].ID, Err: err})
			if opts.Logger != nil {
				opts.Logger.Warn().Err(err).Int("index", i).Str("id", specs[i].ID).Msg("feature rejected")
			}
		}
	}
	return b.Build(), rejected
}
