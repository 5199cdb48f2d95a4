package geoviz

import (
	"encoding/json"
	"sort"
	"strconv"

	"github.com/cockroachdb/errors"
)

// ValueKind identifies the type held by a Value.
type ValueKind uint8

const (
	ValueString ValueKind = iota + 1
	ValueNumber
	ValueBool
)

func (k ValueKind) String() string {
	switch k {
	case ValueString:
		return "string"
	case ValueNumber:
		return "number"
	case ValueBool:
		return "bool"
	default:
		return "invalid"
	}
}

// Value is a typed attribute value: a string, a number or a boolean.
// The zero Value is invalid and never equals anything.
type Value struct {
	kind ValueKind
	s    string
	n    float64
	b    bool
}

// StringValue returns a string attribute value.
func StringValue(s string) Value { return Value{kind: ValueString, s: s} }

// NumberValue returns a numeric attribute value.
func NumberValue(n float64) Value { return Value{kind: ValueNumber, n: n} }

// BoolValue returns a boolean attribute value.
func BoolValue(b bool) Value { return Value{kind: ValueBool, b: b} }

// ValueOf converts a Go value into a Value. Strings, booleans, every integer
// and float type, json.Number and Value itself are accepted; anything else
// fails with ErrUnsupportedAttribute.
func ValueOf(v any) (Value, error) {
	switch v := v.(type) {
	case Value:
		if v.kind == 0 {
			return Value{}, errors.Wrap(ErrUnsupportedAttribute, "zero Value")
		}
		return v, nil
	case string:
		return StringValue(v), nil
	case bool:
		return BoolValue(v), nil
	case float64:
		return NumberValue(v), nil
	case float32:
		return NumberValue(float64(v)), nil
	case int:
		return NumberValue(float64(v)), nil
	case int8:
		return NumberValue(float64(v)), nil
	case int16:
		return NumberValue(float64(v)), nil
	case int32:
		return NumberValue(float64(v)), nil
	case int64:
		return NumberValue(float64(v)), nil
	case uint:
		return NumberValue(float64(v)), nil
	case uint8:
		return NumberValue(float64(v)), nil
	case uint16:
		return NumberValue(float64(v)), nil
	case uint32:
		return NumberValue(float64(v)), nil
	case uint64:
		return NumberValue(float64(v)), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return Value{}, errors.Wrapf(ErrUnsupportedAttribute, "number %q", v.String())
		}
		return NumberValue(f), nil
	default:
		return Value{}, errors.Wrapf(ErrUnsupportedAttribute, "type %T", v)
	}
}

// Kind returns the held type.
func (v Value) Kind() ValueKind { return v.kind }

// AsString returns the string and whether v holds one.
func (v Value) AsString() (string, bool) { return v.s, v.kind == ValueString }

// AsNumber returns the number and whether v holds one.
func (v Value) AsNumber() (float64, bool) { return v.n, v.kind == ValueNumber }

// AsBool returns the boolean and whether v holds one.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == ValueBool }

// Equal reports whether both values have the same kind and content.
// Values of different kinds are never equal: "1" does not equal 1.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind || v.kind == 0 {
		return false
	}
	switch v.kind {
	case ValueString:
		return v.s == o.s
	case ValueNumber:
		return v.n == o.n
	default:
		return v.b == o.b
	}
}

// String formats the value for display and hashing.
func (v Value) String() string {
	switch v.kind {
	case ValueString:
		return v.s
	case ValueNumber:
		return strconv.FormatFloat(v.n, 'g', -1, 64)
	case ValueBool:
		return strconv.FormatBool(v.b)
	default:
		return "<invalid>"
	}
}

// Any returns the value as a plain Go value (string, float64 or bool).
func (v Value) Any() any {
	switch v.kind {
	case ValueString:
		return v.s
	case ValueNumber:
		return v.n
	case ValueBool:
		return v.b
	default:
		return nil
	}
}

// Feature is one renderable entity: an ID, a geometry and typed attributes.
//
// Features belong to exactly one FeatureCollection and are immutable.
// Position is the feature's index in that collection.
type Feature struct {
	id       string
	pos      int
	geometry Geometry
	attrs    map[string]Value
}

// ID returns the feature identifier.
func (f *Feature) ID() string { return f.id }

// Position returns the index of the feature in its collection.
func (f *Feature) Position() int { return f.pos }

// Geometry returns the feature geometry.
func (f *Feature) Geometry() Geometry { return f.geometry }

// Kind is shorthand for Geometry().Kind().
func (f *Feature) Kind() Kind { return f.geometry.kind }

// Bounds is shorthand for Geometry().Bounds().
func (f *Feature) Bounds() Bounds { return f.geometry.bounds }

// Attr looks up an attribute by name.
func (f *Feature) Attr(name string) (Value, bool) {
	v, ok := f.attrs[name]
	return v, ok
}

// Attributes returns a copy of the attribute map.
func (f *Feature) Attributes() map[string]Value {
	out := make(map[string]Value, len(f.attrs))
	for k, v := range f.attrs {
		out[k] = v
	}
	return out
}

// AttributeNames returns the attribute names in sorted order.
func (f *Feature) AttributeNames() []string {
	names := make([]string, 0, len(f.attrs))
	for k := range f.attrs {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// convertAttributes copies a loose attribute map into typed values.
// Nil values are skipped so that absent and null read the same.
func convertAttributes(in map[string]any) (map[string]Value, error) {
	out := make(map[string]Value, len(in))
	for k, raw := range in {
		if raw == nil {
			continue
		}
		v, err := ValueOf(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "attribute %q", k)
		}
		out[k] = v
	}
	return out, nil
}
