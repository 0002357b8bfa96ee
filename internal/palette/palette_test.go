package palette

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColorForExample(t *testing.T) {
	c := ColorFor(55)
	assert.Equal(t, 30.0, c.H)
	assert.Equal(t, 100.0, c.S)
	assert.Equal(t, 55.0, c.L)
	assert.Equal(t, "hsl(30, 100%, 55%)", c.String())
}

func TestColorForBounds(t *testing.T) {
	assert.Equal(t, 70.0, ColorFor(10).L)
	assert.Equal(t, 40.0, ColorFor(100).L)

	for _, h := range []float64{-5, 0, 3, 9.999, math.Inf(-1)} {
		assert.Equal(t, ColorFor(10), ColorFor(h), "height %v", h)
	}
	for _, h := range []float64{100.001, 250, math.Inf(1)} {
		assert.Equal(t, ColorFor(100), ColorFor(h), "height %v", h)
	}
}

func TestColorForMonotonic(t *testing.T) {
	prev := ColorFor(10).L
	for h := 10.5; h <= 100; h += 0.5 {
		l := ColorFor(h).L
		assert.LessOrEqual(t, l, prev, "height %v", h)
		prev = l
	}
}

func TestColorForHueStable(t *testing.T) {
	for _, h := range []float64{-1, 10, 33, 77, 100, 500} {
		c := ColorFor(h)
		assert.Equal(t, 30.0, c.H)
		assert.Equal(t, 100.0, c.S)
	}
}

func TestColorForNaN(t *testing.T) {
	assert.Equal(t, ColorFor(10), ColorFor(math.NaN()))
}

func TestCustomRamp(t *testing.T) {
	r := Ramp{MinHeight: 0, MaxHeight: 200, MinLightness: 90, MaxLightness: 10, Hue: 210, Saturation: 60}
	require.NoError(t, r.Validate())
	c := r.ColorFor(100)
	assert.Equal(t, Color{H: 210, S: 60, L: 50}, c)
}

func TestRampValidate(t *testing.T) {
	assert.NoError(t, DefaultRamp().Validate())

	r := DefaultRamp()
	r.MaxHeight = r.MinHeight
	assert.Error(t, r.Validate())

	r.MaxHeight = math.NaN()
	assert.Error(t, r.Validate())
}

func TestHexConversion(t *testing.T) {
	assert.Equal(t, "#ff8000", Color{H: 30, S: 100, L: 50}.Hex())
	assert.Equal(t, HighlightHex, Highlight.Hex())
}

func TestParseHex(t *testing.T) {
	c, err := ParseHex("#ffffff")
	require.NoError(t, err)
	assert.InDelta(t, 100, c.L, 1e-9)

	_, err = ParseHex("hotpink")
	assert.Error(t, err)
}

func TestShade(t *testing.T) {
	c := Color{H: 30, S: 100, L: 60}
	assert.Equal(t, 30.0, c.Shade(0.5).L)
	assert.Equal(t, 100.0, c.Shade(3).L)
	assert.Equal(t, 60.0, c.L)
}
