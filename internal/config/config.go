// Package config loads the YAML file that drives geoviz-render: output
// reference system, worker and cache sizing, simplification curve, logging
// and the style rule set.
package config

import (
	"bytes"
	"encoding/hex"
	"image/color"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/beetlebugorg/geoviz/internal/logger"
	"github.com/beetlebugorg/geoviz/pkg/geoviz"
	"github.com/cockroachdb/errors"
	"golang.org/x/image/colornames"
	"gopkg.in/yaml.v3"
)

// Config is the root of the configuration file.
type Config struct {
	// CRS is the output reference system of rendered frames.
	CRS       string                 `yaml:"crs"`
	Workers   int                    `yaml:"workers"`
	CacheSize int                    `yaml:"cache_size"`
	Scope     string                 `yaml:"scope,omitempty"`
	Zoom      float64                `yaml:"zoom"`
	Tolerance []geoviz.ToleranceStop `yaml:"tolerance,omitempty"`
	Log       logger.Config          `yaml:"log"`
	Style     Style                  `yaml:"style"`
}

// Style holds the default look and the ordered rules.
type Style struct {
	Default Look   `yaml:"default"`
	Rules   []Rule `yaml:"rules"`
}

// Look is a partial set of visual properties. Unset fields inherit.
type Look struct {
	Fill        string   `yaml:"fill,omitempty"`
	Stroke      string   `yaml:"stroke,omitempty"`
	StrokeWidth *float64 `yaml:"stroke_width,omitempty"`
	Radius      *float64 `yaml:"radius,omitempty"`
	Opacity     *float64 `yaml:"opacity,omitempty"`
	Z           *int     `yaml:"z,omitempty"`
}

// Rule is one style rule. A rule without When matches everything.
type Rule struct {
	Name    string     `yaml:"name"`
	When    *Predicate `yaml:"when,omitempty"`
	Look    `yaml:",inline"`
	Ramp    *Ramp    `yaml:"ramp,omitempty"`
	Palette *Palette `yaml:"palette,omitempty"`
}

// Ramp fills from a numeric attribute along a preset colour ramp.
type Ramp struct {
	Name string  `yaml:"name"`
	Attr string  `yaml:"attr"`
	Min  float64 `yaml:"min"`
	Max  float64 `yaml:"max"`
}

// Palette fills by category using the default palette.
type Palette struct {
	Attr string `yaml:"attr"`
}

// Predicate is a YAML predicate. Exactly one field must be set.
type Predicate struct {
	Eq       *Compare     `yaml:"eq,omitempty"`
	Range    *Interval    `yaml:"range,omitempty"`
	In       *Membership  `yaml:"in,omitempty"`
	All      []*Predicate `yaml:"all,omitempty"`
	Any      []*Predicate `yaml:"any,omitempty"`
	Not      *Predicate   `yaml:"not,omitempty"`
	Geometry []string     `yaml:"geometry,omitempty"`
}

// Compare tests an attribute for equality.
type Compare struct {
	Attr  string `yaml:"attr"`
	Value any    `yaml:"value"`
}

// Interval tests a numeric attribute against inclusive bounds. A missing
// bound is open.
type Interval struct {
	Attr string   `yaml:"attr"`
	Min  *float64 `yaml:"min,omitempty"`
	Max  *float64 `yaml:"max,omitempty"`
}

// Membership tests an attribute against a set of values.
type Membership struct {
	Attr   string `yaml:"attr"`
	Values []any  `yaml:"values"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		CRS:       string(geoviz.WebMercator),
		CacheSize: 4096,
		Log:       logger.Config{Level: "info", Component: "geoviz-render"},
	}
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading config")
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// Parse decodes YAML on top of Default and validates the result. Unknown
// keys are errors.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "decoding yaml")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every section, including that the style rules compile.
func (c *Config) Validate() error {
	if _, err := geoviz.ParseCRS(c.CRS); err != nil {
		return errors.Wrap(err, "crs")
	}
	if c.Workers < 0 {
		return errors.Newf("workers must be >= 0, got %d", c.Workers)
	}
	if c.CacheSize < 0 {
		return errors.Newf("cache_size must be >= 0, got %d", c.CacheSize)
	}
	if math.IsNaN(c.Zoom) || math.IsInf(c.Zoom, 0) || c.Zoom < 0 {
		return errors.Newf("zoom must be a finite value >= 0, got %v", c.Zoom)
	}
	if c.Scope != "" {
		if _, err := geoviz.ParseScope(c.Scope); err != nil {
			return err
		}
	}
	if len(c.Tolerance) > 0 {
		if _, err := geoviz.NewToleranceCurve(c.Tolerance...); err != nil {
			return errors.Wrap(err, "tolerance")
		}
	}
	if _, err := c.RuleSet(); err != nil {
		return err
	}
	return nil
}

// OutputCRS returns the parsed output reference system.
func (c *Config) OutputCRS() (geoviz.CRS, error) {
	return geoviz.ParseCRS(c.CRS)
}

// ToleranceFunc returns the configured curve, or the default tolerance for
// the collection's reference system when no stops are configured.
func (c *Config) ToleranceFunc(collection geoviz.CRS) (geoviz.ToleranceFunc, error) {
	if len(c.Tolerance) == 0 {
		return geoviz.DefaultTolerance(collection), nil
	}
	curve, err := geoviz.NewToleranceCurve(c.Tolerance...)
	if err != nil {
		return nil, err
	}
	return curve.Func(), nil
}

// RuleSet compiles the style section.
func (c *Config) RuleSet() (*geoviz.RuleSet, error) {
	def, err := c.Style.Default.apply(geoviz.DefaultStyle())
	if err != nil {
		return nil, errors.Wrap(err, "style default")
	}

	rules := make([]geoviz.StyleRule, 0, len(c.Style.Rules))
	for i, r := range c.Style.Rules {
		rule, err := r.compile(def)
		if err != nil {
			name := r.Name
			if name == "" {
				name = "#" + strconv.Itoa(i)
			}
			return nil, errors.Wrapf(err, "style rule %s", name)
		}
		rules = append(rules, rule)
	}
	return geoviz.NewRuleSet(def, rules...), nil
}

func (r Rule) compile(def geoviz.VisualProperties) (geoviz.StyleRule, error) {
	look, err := r.Look.apply(def)
	if err != nil {
		return geoviz.StyleRule{}, err
	}
	rule := geoviz.StyleRule{Name: r.Name, Style: look}

	if r.When != nil {
		p, err := r.When.compile()
		if err != nil {
			return geoviz.StyleRule{}, err
		}
		rule.When = p
	}
	if r.Ramp != nil {
		ramp, ok := geoviz.RampByName(strings.ToLower(r.Ramp.Name))
		if !ok {
			return geoviz.StyleRule{}, errors.Newf("unknown ramp %q", r.Ramp.Name)
		}
		if r.Ramp.Attr == "" {
			return geoviz.StyleRule{}, errors.New("ramp needs an attr")
		}
		rule.FillRamp = &geoviz.RampFill{Attr: r.Ramp.Attr, Ramp: ramp, Min: r.Ramp.Min, Max: r.Ramp.Max}
	}
	if r.Palette != nil {
		if r.Palette.Attr == "" {
			return geoviz.StyleRule{}, errors.New("palette needs an attr")
		}
		rule.Palette = &geoviz.CategoryFill{Attr: r.Palette.Attr, Palette: geoviz.DefaultPalette()}
	}
	return rule, nil
}

func (l Look) apply(base geoviz.VisualProperties) (geoviz.VisualProperties, error) {
	out := base
	if l.Fill != "" {
		c, err := ParseColor(l.Fill)
		if err != nil {
			return out, errors.Wrap(err, "fill")
		}
		out.Fill = c
	}
	if l.Stroke != "" {
		c, err := ParseColor(l.Stroke)
		if err != nil {
			return out, errors.Wrap(err, "stroke")
		}
		out.Stroke = c
	}
	if l.StrokeWidth != nil {
		if *l.StrokeWidth < 0 {
			return out, errors.Newf("stroke_width must be >= 0, got %v", *l.StrokeWidth)
		}
		out.StrokeWidth = *l.StrokeWidth
	}
	if l.Radius != nil {
		if *l.Radius < 0 {
			return out, errors.Newf("radius must be >= 0, got %v", *l.Radius)
		}
		out.PointRadius = *l.Radius
	}
	if l.Opacity != nil {
		if *l.Opacity < 0 || *l.Opacity > 1 {
			return out, errors.Newf("opacity must be in [0, 1], got %v", *l.Opacity)
		}
		out.Opacity = *l.Opacity
	}
	if l.Z != nil {
		out.ZOrder = *l.Z
	}
	return out, nil
}

func (p *Predicate) compile() (geoviz.Predicate, error) {
	if p == nil {
		return nil, errors.New("empty predicate")
	}

	set := 0
	for _, ok := range []bool{p.Eq != nil, p.Range != nil, p.In != nil, p.All != nil, p.Any != nil, p.Not != nil, p.Geometry != nil} {
		if ok {
			set++
		}
	}
	if set != 1 {
		return nil, errors.Newf("predicate must set exactly one operator, got %d", set)
	}

	switch {
	case p.Eq != nil:
		if p.Eq.Attr == "" {
			return nil, errors.New("eq needs an attr")
		}
		if _, err := geoviz.ValueOf(p.Eq.Value); err != nil {
			return nil, errors.Wrapf(err, "eq %s", p.Eq.Attr)
		}
		return geoviz.Eq(p.Eq.Attr, p.Eq.Value), nil

	case p.Range != nil:
		if p.Range.Attr == "" {
			return nil, errors.New("range needs an attr")
		}
		lo, hi := math.Inf(-1), math.Inf(1)
		if p.Range.Min != nil {
			lo = *p.Range.Min
		}
		if p.Range.Max != nil {
			hi = *p.Range.Max
		}
		if lo > hi {
			return nil, errors.Newf("range %s: min %v > max %v", p.Range.Attr, lo, hi)
		}
		return geoviz.Range(p.Range.Attr, lo, hi), nil

	case p.In != nil:
		if p.In.Attr == "" {
			return nil, errors.New("in needs an attr")
		}
		for _, v := range p.In.Values {
			if _, err := geoviz.ValueOf(v); err != nil {
				return nil, errors.Wrapf(err, "in %s", p.In.Attr)
			}
		}
		return geoviz.In(p.In.Attr, p.In.Values...), nil

	case p.All != nil:
		ps, err := compileAll(p.All)
		if err != nil {
			return nil, errors.Wrap(err, "all")
		}
		return geoviz.All(ps...), nil

	case p.Any != nil:
		ps, err := compileAll(p.Any)
		if err != nil {
			return nil, errors.Wrap(err, "any")
		}
		return geoviz.Any(ps...), nil

	case p.Not != nil:
		inner, err := p.Not.compile()
		if err != nil {
			return nil, errors.Wrap(err, "not")
		}
		return geoviz.Not(inner), nil

	default:
		kinds := make([]geoviz.Kind, 0, len(p.Geometry))
		for _, name := range p.Geometry {
			k, ok := kindNames[strings.ToLower(name)]
			if !ok {
				return nil, errors.Newf("unknown geometry kind %q", name)
			}
			kinds = append(kinds, k)
		}
		return geoviz.GeometryIs(kinds...), nil
	}
}

func compileAll(in []*Predicate) ([]geoviz.Predicate, error) {
	out := make([]geoviz.Predicate, len(in))
	for i, p := range in {
		c, err := p.compile()
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

var kindNames = func() map[string]geoviz.Kind {
	m := make(map[string]geoviz.Kind)
	for k := geoviz.KindPoint; k <= geoviz.KindMultiPolygon; k++ {
		m[strings.ToLower(k.String())] = k
	}
	return m
}()

// ParseColor accepts #rgb, #rrggbb, #rrggbbaa or an SVG/CSS colour name.
func ParseColor(s string) (color.RGBA, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		c, ok := colornames.Map[strings.ToLower(s)]
		if !ok {
			return color.RGBA{}, errors.Newf("unknown colour %q", s)
		}
		return c, nil
	}

	digits := s[1:]
	if len(digits) == 3 {
		digits = string([]byte{digits[0], digits[0], digits[1], digits[1], digits[2], digits[2]})
	}
	b, err := hex.DecodeString(digits)
	if err != nil || (len(b) != 3 && len(b) != 4) {
		return color.RGBA{}, errors.Newf("bad colour %q", s)
	}
	c := color.RGBA{R: b[0], G: b[1], B: b[2], A: 255}
	if len(b) == 4 {
		c.A = b[3]
	}
	return c, nil
}
