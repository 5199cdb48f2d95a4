package geoviz

import (
	"image/color"
	"math"
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
)

// ColorStop is one anchor of a ColorRamp.
type ColorStop struct {
	At    float64 // Position in [0, 1]
	Color color.RGBA
}

// ColorRamp is a continuous colour scale interpolated between stops.
type ColorRamp []ColorStop

// NewColorRamp sorts the stops and checks that they lie in [0, 1].
func NewColorRamp(stops ...ColorStop) (ColorRamp, error) {
	if len(stops) == 0 {
		return nil, errors.New("color ramp needs at least one stop")
	}
	r := make(ColorRamp, len(stops))
	copy(r, stops)
	sort.SliceStable(r, func(i, j int) bool { return r[i].At < r[j].At })
	for _, s := range r {
		if math.IsNaN(s.At) || s.At < 0 || s.At > 1 {
			return nil, errors.Newf("color stop %v outside [0, 1]", s.At)
		}
	}
	return r, nil
}

// At returns the colour at t, clamped to [0, 1]. Channels are interpolated
// linearly between the surrounding stops.
func (r ColorRamp) At(t float64) color.RGBA {
	if len(r) == 0 {
		return color.RGBA{}
	}
	if math.IsNaN(t) || t <= r[0].At {
		return r[0].Color
	}
	last := r[len(r)-1]
	if t >= last.At {
		return last.Color
	}

	i := sort.Search(len(r), func(i int) bool { return r[i].At >= t })
	lo, hi := r[i-1], r[i]
	if hi.At == lo.At {
		return hi.Color
	}
	f := (t - lo.At) / (hi.At - lo.At)
	lerp := func(a, b uint8) uint8 {
		return uint8(math.Round(float64(a) + (float64(b)-float64(a))*f))
	}
	return color.RGBA{
		R: lerp(lo.Color.R, hi.Color.R),
		G: lerp(lo.Color.G, hi.Color.G),
		B: lerp(lo.Color.B, hi.Color.B),
		A: lerp(lo.Color.A, hi.Color.A),
	}
}

func rgb(r, g, b uint8) color.RGBA { return color.RGBA{R: r, G: g, B: b, A: 255} }

// Blues is a dark-to-pale blue scale for choropleths.
func Blues() ColorRamp {
	return ColorRamp{
		{0, rgb(5, 10, 172)},
		{0.35, rgb(40, 60, 190)},
		{0.5, rgb(70, 100, 245)},
		{0.6, rgb(90, 120, 245)},
		{0.7, rgb(106, 137, 247)},
		{1, rgb(220, 220, 220)},
	}
}

// Heatmap runs from purple through blue, green and yellow to red.
func Heatmap() ColorRamp {
	return ColorRamp{
		{0, rgb(150, 0, 90)},
		{0.125, rgb(0, 0, 200)},
		{0.25, rgb(0, 25, 255)},
		{0.375, rgb(0, 152, 255)},
		{0.5, rgb(44, 255, 150)},
		{0.625, rgb(151, 255, 0)},
		{0.75, rgb(255, 234, 0)},
		{0.875, rgb(255, 111, 0)},
		{1, rgb(255, 0, 0)},
	}
}

// RampByName returns a preset ramp: "blues" or "heatmap".
func RampByName(name string) (ColorRamp, bool) {
	switch name {
	case "blues":
		return Blues(), true
	case "heatmap":
		return Heatmap(), true
	}
	return nil, false
}

// CategoryPalette assigns colours to category values. The same value always
// gets the same colour, across runs and processes.
type CategoryPalette []color.RGBA

// DefaultPalette is a ten-colour qualitative palette.
func DefaultPalette() CategoryPalette {
	return CategoryPalette{
		rgb(31, 119, 180),
		rgb(255, 127, 14),
		rgb(44, 160, 44),
		rgb(214, 39, 40),
		rgb(148, 103, 189),
		rgb(140, 86, 75),
		rgb(227, 119, 194),
		rgb(127, 127, 127),
		rgb(188, 189, 34),
		rgb(23, 190, 207),
	}
}

// Color picks the colour for v by hashing its kind and text.
func (p CategoryPalette) Color(v Value) color.RGBA {
	if len(p) == 0 {
		return color.RGBA{}
	}
	d := xxhash.New()
	_, _ = d.WriteString(v.Kind().String())
	_, _ = d.WriteString(":")
	_, _ = d.WriteString(v.String())
	return p[d.Sum64()%uint64(len(p))]
}
