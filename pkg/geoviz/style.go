package geoviz

import (
	"fmt"
	"image/color"
	"math"
	"strings"
)

// Predicate decides whether a style rule applies to a feature.
//
// Predicates read attributes only; an attribute that is missing or holds a
// different type never matches. Implementations must be safe for
// concurrent use.
type Predicate interface {
	Match(f *Feature) bool
	String() string
}

type eqPredicate struct {
	attr string
	want Value
}

// Eq matches features whose attribute equals v. Values of unsupported Go
// types make a predicate that never matches.
func Eq(attr string, v any) Predicate {
	val, _ := ValueOf(v)
	return eqPredicate{attr: attr, want: val}
}

func (p eqPredicate) Match(f *Feature) bool {
	got, ok := f.Attr(p.attr)
	return ok && got.Equal(p.want)
}

func (p eqPredicate) String() string  { return fmt.Sprintf("%s == %s", p.attr, p.want) }
func (p eqPredicate) attrs() []string { return []string{p.attr} }

type rangePredicate struct {
	attr     string
	min, max float64
}

// Range matches features whose numeric attribute lies in [min, max].
// Use math.Inf for an open end; NaN is treated as unbounded.
func Range(attr string, min, max float64) Predicate {
	if math.IsNaN(min) {
		min = math.Inf(-1)
	}
	if math.IsNaN(max) {
		max = math.Inf(1)
	}
	return rangePredicate{attr: attr, min: min, max: max}
}

func (p rangePredicate) Match(f *Feature) bool {
	v, ok := f.Attr(p.attr)
	if !ok {
		return false
	}
	n, ok := v.AsNumber()
	return ok && n >= p.min && n <= p.max
}

func (p rangePredicate) String() string {
	return fmt.Sprintf("%s in [%g, %g]", p.attr, p.min, p.max)
}

func (p rangePredicate) attrs() []string { return []string{p.attr} }

type inPredicate struct {
	attr string
	set  []Value
}

// In matches features whose attribute equals any of vs.
func In(attr string, vs ...any) Predicate {
	p := inPredicate{attr: attr}
	for _, raw := range vs {
		if v, err := ValueOf(raw); err == nil {
			p.set = append(p.set, v)
		}
	}
	return p
}

func (p inPredicate) Match(f *Feature) bool {
	got, ok := f.Attr(p.attr)
	if !ok {
		return false
	}
	for _, v := range p.set {
		if got.Equal(v) {
			return true
		}
	}
	return false
}

func (p inPredicate) String() string {
	parts := make([]string, len(p.set))
	for i, v := range p.set {
		parts[i] = v.String()
	}
	return fmt.Sprintf("%s in {%s}", p.attr, strings.Join(parts, ", "))
}

func (p inPredicate) attrs() []string { return []string{p.attr} }

type allPredicate []Predicate

// All matches when every predicate matches. All() matches everything.
func All(ps ...Predicate) Predicate { return allPredicate(ps) }

func (a allPredicate) Match(f *Feature) bool {
	for _, p := range a {
		if !p.Match(f) {
			return false
		}
	}
	return true
}

func (a allPredicate) String() string  { return join("all", a) }
func (a allPredicate) attrs() []string { return referenced(a...) }

type anyPredicate []Predicate

// Any matches when at least one predicate matches. Any() matches nothing.
func Any(ps ...Predicate) Predicate { return anyPredicate(ps) }

func (a anyPredicate) Match(f *Feature) bool {
	for _, p := range a {
		if p.Match(f) {
			return true
		}
	}
	return false
}

func (a anyPredicate) String() string  { return join("any", a) }
func (a anyPredicate) attrs() []string { return referenced(a...) }

type notPredicate struct{ p Predicate }

// Not inverts a predicate. A feature missing any attribute the inner
// predicate reads is not matched, so Not(Eq("kind", "water")) skips
// features without a kind.
func Not(p Predicate) Predicate { return notPredicate{p: p} }

func (n notPredicate) Match(f *Feature) bool {
	for _, name := range referenced(n.p) {
		if _, ok := f.Attr(name); !ok {
			return false
		}
	}
	return !n.p.Match(f)
}

func (n notPredicate) String() string  { return "not(" + n.p.String() + ")" }
func (n notPredicate) attrs() []string { return referenced(n.p) }

type kindPredicate []Kind

// GeometryIs matches features of any of the given geometry kinds.
func GeometryIs(kinds ...Kind) Predicate { return kindPredicate(kinds) }

func (k kindPredicate) Match(f *Feature) bool {
	for _, want := range k {
		if f.Kind() == want {
			return true
		}
	}
	return false
}

func (k kindPredicate) String() string {
	parts := make([]string, len(k))
	for i, kind := range k {
		parts[i] = kind.String()
	}
	return "geometry in {" + strings.Join(parts, ", ") + "}"
}

// attrReader is implemented by predicates that read feature attributes.
type attrReader interface {
	attrs() []string
}

// referenced lists the attributes read by ps. Predicates defined outside
// this package read none as far as Not is concerned.
func referenced(ps ...Predicate) []string {
	var out []string
	for _, p := range ps {
		if r, ok := p.(attrReader); ok {
			out = append(out, r.attrs()...)
		}
	}
	return out
}

func join(name string, ps []Predicate) string {
	parts := make([]string, len(ps))
	for i, p := range ps {
		parts[i] = p.String()
	}
	return name + "(" + strings.Join(parts, ", ") + ")"
}

// VisualProperties is the resolved look of one feature.
type VisualProperties struct {
	Fill        color.RGBA
	Stroke      color.RGBA
	StrokeWidth float64
	PointRadius float64
	Opacity     float64
	// ZOrder sorts draw commands; lower values are drawn first.
	ZOrder int
}

// DefaultStyle is the fallback used by NewRuleSet when no default is given.
func DefaultStyle() VisualProperties {
	return VisualProperties{
		Fill:        color.RGBA{R: 212, G: 212, B: 212, A: 255},
		Stroke:      color.RGBA{R: 255, G: 255, B: 255, A: 255},
		StrokeWidth: 1,
		PointRadius: 5,
		Opacity:     0.8,
		ZOrder:      0,
	}
}

// StyleRule maps a predicate to visual properties.
//
// A rule with a nil When matches every feature. FillRamp and Palette
// optionally derive the fill from an attribute; when the attribute cannot
// drive them, the static Style.Fill is kept.
type StyleRule struct {
	Name     string
	When     Predicate
	Style    VisualProperties
	FillRamp *RampFill
	Palette  *CategoryFill
}

// RampFill colours features along a ramp from a numeric attribute scaled
// from [Min, Max] to [0, 1].
type RampFill struct {
	Attr     string
	Ramp     ColorRamp
	Min, Max float64
}

// CategoryFill gives every distinct attribute value its own colour.
type CategoryFill struct {
	Attr    string
	Palette CategoryPalette
}

func (r *StyleRule) matches(f *Feature) bool {
	return r.When == nil || r.When.Match(f)
}

func (r *StyleRule) resolve(f *Feature) VisualProperties {
	vp := r.Style
	if r.FillRamp != nil {
		if v, ok := f.Attr(r.FillRamp.Attr); ok {
			if n, ok := v.AsNumber(); ok {
				vp.Fill = r.FillRamp.Ramp.At(normalize(n, r.FillRamp.Min, r.FillRamp.Max))
			}
		}
	}
	if r.Palette != nil {
		if v, ok := f.Attr(r.Palette.Attr); ok {
			vp.Fill = r.Palette.Palette.Color(v)
		}
	}
	return vp
}

func normalize(v, min, max float64) float64 {
	if max <= min {
		return 0
	}
	return (v - min) / (max - min)
}

// RuleSet is an ordered list of style rules with a default fallback.
// The first matching rule wins.
type RuleSet struct {
	Rules   []StyleRule
	Default VisualProperties
}

// NewRuleSet returns a rule set that falls back to def.
func NewRuleSet(def VisualProperties, rules ...StyleRule) *RuleSet {
	return &RuleSet{Rules: rules, Default: def}
}

// Resolve returns the properties of the first rule matching f, or the
// default. It is pure and safe for concurrent use.
func (rs *RuleSet) Resolve(f *Feature) VisualProperties {
	_, vp := rs.Match(f)
	return vp
}

// Match is Resolve that also reports the index of the winning rule, or -1
// when the default applied.
func (rs *RuleSet) Match(f *Feature) (int, VisualProperties) {
	for i := range rs.Rules {
		if rs.Rules[i].matches(f) {
			return i, rs.Rules[i].resolve(f)
		}
	}
	return -1, rs.Default
}
