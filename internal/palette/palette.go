// Package palette derives building colors from height.
package palette

import (
	"fmt"
	"math"
	"strconv"

	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/rotisserie/eris"
)

// Color is an HSL color; S and L are percentages.
type Color struct {
	H float64
	S float64
	L float64
}

// String renders the color as a CSS hsl() value, e.g. "hsl(30, 100%, 55%)".
func (c Color) String() string {
	return fmt.Sprintf("hsl(%s, %s%%, %s%%)", num(c.H), num(c.S), num(c.L))
}

func num(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

// Colorful converts to a go-colorful value.
func (c Color) Colorful() colorful.Color {
	return colorful.Hsl(c.H, c.S/100, c.L/100)
}

// Hex returns the #rrggbb form.
func (c Color) Hex() string {
	return c.Colorful().Clamped().Hex()
}

// Shade scales lightness by f, keeping hue and saturation.
func (c Color) Shade(f float64) Color {
	c.L = math.Max(0, math.Min(100, c.L*f))
	return c
}

// ParseHex builds a Color from a "#rrggbb" string.
func ParseHex(s string) (Color, error) {
	cc, err := colorful.Hex(s)
	if err != nil {
		return Color{}, eris.Wrapf(err, "palette: parse color %q", s)
	}
	h, sat, l := cc.Hsl()
	return Color{H: h, S: sat * 100, L: l * 100}, nil
}

// HighlightHex is the default selection color ("hotpink").
const HighlightHex = "#ff69b4"

// Highlight is the default selection color.
var Highlight = mustParseHex(HighlightHex)

func mustParseHex(s string) Color {
	c, err := ParseHex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Ramp maps heights onto a single-hue lightness scale: short buildings are
// light, tall buildings are dark. Heights outside [MinHeight, MaxHeight] use
// the boundary color.
type Ramp struct {
	MinHeight    float64 `yaml:"min_height" mapstructure:"min_height"`
	MaxHeight    float64 `yaml:"max_height" mapstructure:"max_height"`
	MinLightness float64 `yaml:"min_lightness" mapstructure:"min_lightness"` // at MinHeight
	MaxLightness float64 `yaml:"max_lightness" mapstructure:"max_lightness"` // at MaxHeight
	Hue          float64 `yaml:"hue" mapstructure:"hue"`
	Saturation   float64 `yaml:"saturation" mapstructure:"saturation"`
}

// DefaultRamp is the warm orange ramp over 10..100 m.
func DefaultRamp() Ramp {
	return Ramp{
		MinHeight:    10,
		MaxHeight:    100,
		MinLightness: 70,
		MaxLightness: 40,
		Hue:          30,
		Saturation:   100,
	}
}

// Validate rejects ramps that cannot be interpolated.
func (r Ramp) Validate() error {
	if math.IsNaN(r.MinHeight) || math.IsNaN(r.MaxHeight) || r.MaxHeight <= r.MinHeight {
		return eris.Errorf("palette: max_height (%v) must be greater than min_height (%v)", r.MaxHeight, r.MinHeight)
	}
	return nil
}

// ColorFor returns the color for height. NaN is treated as MinHeight.
func (r Ramp) ColorFor(height float64) Color {
	h := height
	if math.IsNaN(h) {
		h = r.MinHeight
	}
	h = math.Max(r.MinHeight, math.Min(h, r.MaxHeight))
	t := (h - r.MinHeight) / (r.MaxHeight - r.MinHeight)
	return Color{
		H: r.Hue,
		S: r.Saturation,
		L: r.MinLightness - t*(r.MinLightness-r.MaxLightness),
	}
}

// ColorFor maps height with the default ramp.
func ColorFor(height float64) Color {
	return DefaultRamp().ColorFor(height)
}
