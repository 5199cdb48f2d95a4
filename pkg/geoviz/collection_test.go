package geoviz

import (
	"bytes"
	"encoding/json"
	"sync/atomic"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/paulmach/orb"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestLoadCollectionPartialFailure(t *testing.T) {
	specs := []FeatureSpec{
		{ID: "a", Geometry: orb.Point{1, 1}, Attributes: map[string]any{"kind": "buoy"}},
		{ID: "bad-ring", Geometry: orb.Polygon{{{0, 0}, {1, 0}, {1, 1}}}},
		{ID: "b", Geometry: square(0, 0, 2, 2)},
		{ID: "empty", Geometry: orb.LineString{}},
		{ID: "a", Geometry: orb.Point{2, 2}},
		{ID: "bad-attr", Geometry: orb.Point{0, 0}, Attributes: map[string]any{"tags": []string{"x"}}},
		{Geometry: orb.Point{3, 3}},
	}

	for _, parallel := range []bool{false, true} {
		opts := DefaultLoadOptions()
		opts.Parallel = parallel
		opts.Workers = 3

		fc, rejected := LoadCollection(Geographic, specs, opts)

		require.Equal(t, 3, fc.Len())
		require.Equal(t, "a", fc.Feature(0).ID())
		require.Equal(t, "b", fc.Feature(1).ID())
		require.Equal(t, "2", fc.Feature(2).ID(), "empty id becomes position")
		for i := 0; i < fc.Len(); i++ {
			require.Equal(t, i, fc.Feature(i).Position())
		}

		require.Len(t, rejected, 4)
		require.Equal(t, []int{1, 3, 4, 5}, []int{rejected[0].Index, rejected[1].Index, rejected[2].Index, rejected[3].Index})
		require.True(t, errors.Is(rejected[0].Err, ErrInvalidGeometry))
		require.True(t, errors.Is(rejected[1].Err, ErrEmptyGeometry))
		require.True(t, errors.Is(rejected[2].Err, ErrDuplicateID))
		require.True(t, errors.Is(rejected[3].Err, ErrUnsupportedAttribute))
		require.True(t, errors.Is(rejected[0], ErrInvalidGeometry), "rejection unwraps")
	}
}

func TestLoadCollectionBoundsAndLookup(t *testing.T) {
	fc, rejected := LoadCollection(Geographic, []FeatureSpec{
		{ID: "west", Geometry: orb.Point{-10, 5}},
		{ID: "east", Geometry: square(20, -3, 30, 4)},
	}, DefaultLoadOptions())
	require.Empty(t, rejected)

	require.Equal(t, Bounds{MinX: -10, MinY: -3, MaxX: 30, MaxY: 5}, fc.Bounds())

	f, ok := fc.ByID("east")
	require.True(t, ok)
	require.Equal(t, 1, f.Position())
	_, ok = fc.ByID("north")
	require.False(t, ok)
}

func TestLoadCollectionProgressAndLogging(t *testing.T) {
	specs := make([]FeatureSpec, 50)
	for i := range specs {
		specs[i] = FeatureSpec{Geometry: orb.Point{float64(i), 0}}
	}
	specs[10].Geometry = nil

	var calls atomic.Int32
	var last atomic.Int32
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	fc, rejected := LoadCollection(Geographic, specs, LoadOptions{
		Parallel: true,
		Workers:  4,
		Progress: func(loaded, total int) {
			calls.Add(1)
			last.Store(int32(loaded))
			require.Equal(t, 50, total)
		},
		Logger: &log,
	})

	require.Equal(t, 49, fc.Len())
	require.Len(t, rejected, 1)
	require.EqualValues(t, 50, calls.Load())
	require.EqualValues(t, 50, last.Load())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "warn", entry["level"])
	require.EqualValues(t, 10, entry["index"])
}

func TestCollectionBuilder(t *testing.T) {
	b := NewCollectionBuilder(Geographic)
	require.NoError(t, b.Add(FeatureSpec{ID: "p", Geometry: orb.Point{1, 2}}))

	merc, err := NewGeometry(orb.Point{0, 0}, WebMercator)
	require.NoError(t, err)
	err = b.AddGeometry("m", merc, nil)
	require.True(t, errors.Is(err, ErrCRSMismatch))

	geo, err := NewGeometry(orb.LineString{{0, 0}, {1, 1}}, Geographic)
	require.NoError(t, err)
	require.NoError(t, b.AddGeometry("l", geo, map[string]any{"lanes": 2}))

	first := b.Build()
	require.Equal(t, 2, first.Len())

	// The builder keeps appending without touching earlier snapshots.
	require.NoError(t, b.Add(FeatureSpec{ID: "q", Geometry: orb.Point{5, 5}}))
	second := b.Build()
	require.Equal(t, 2, first.Len())
	require.Equal(t, 3, second.Len())
	require.NotEqual(t, first.id, second.id)

	v, ok := second.Feature(1).Attr("lanes")
	require.True(t, ok)
	n, _ := v.AsNumber()
	require.Equal(t, 2.0, n)
}

func TestFeatureAttributesAreCopied(t *testing.T) {
	attrs := map[string]any{"name": "pier", "lit": true, "skip": nil}
	fc, _ := LoadCollection(Geographic, []FeatureSpec{{Geometry: orb.Point{0, 0}, Attributes: attrs}}, DefaultLoadOptions())

	attrs["name"] = "changed"
	f := fc.Feature(0)
	v, _ := f.Attr("name")
	s, _ := v.AsString()
	require.Equal(t, "pier", s)
	require.Equal(t, []string{"lit", "name"}, f.AttributeNames())

	copied := f.Attributes()
	copied["name"] = StringValue("x")
	v, _ = f.Attr("name")
	require.Equal(t, "pier", v.String())
}

func TestValueOf(t *testing.T) {
	tests := []struct {
		in   any
		kind ValueKind
		text string
	}{
		{"abc", ValueString, "abc"},
		{3, ValueNumber, "3"},
		{int64(-7), ValueNumber, "-7"},
		{float32(1.5), ValueNumber, "1.5"},
		{uint8(9), ValueNumber, "9"},
		{json.Number("2.25"), ValueNumber, "2.25"},
		{true, ValueBool, "true"},
		{NumberValue(4), ValueNumber, "4"},
	}
	for _, tt := range tests {
		v, err := ValueOf(tt.in)
		require.NoError(t, err, "%v", tt.in)
		require.Equal(t, tt.kind, v.Kind())
		require.Equal(t, tt.text, v.String())
	}

	for _, bad := range []any{[]int{1}, map[string]any{}, struct{}{}, Value{}, json.Number("x")} {
		_, err := ValueOf(bad)
		require.True(t, errors.Is(err, ErrUnsupportedAttribute), "%T", bad)
	}
}

func TestValueEqual(t *testing.T) {
	require.True(t, StringValue("a").Equal(StringValue("a")))
	require.False(t, StringValue("1").Equal(NumberValue(1)))
	require.False(t, BoolValue(true).Equal(BoolValue(false)))
	require.False(t, Value{}.Equal(Value{}))
	require.Equal(t, 2.5, NumberValue(2.5).Any())
}
