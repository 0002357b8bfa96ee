package projection

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProjectOriginIsZero(t *testing.T) {
	p := New(DefaultOrigin())
	x, y := p.Project(DefaultOriginLon, DefaultOriginLat)
	assert.Equal(t, 0.0, x)
	assert.Equal(t, 0.0, y)
}

func TestProjectLinearInLongitude(t *testing.T) {
	p := New(DefaultOrigin())
	lat := 51.05
	x0, _ := p.Project(-114.070, lat)
	x1, _ := p.Project(-114.069, lat)
	x2, _ := p.Project(-114.067, lat)

	d1 := x1 - x0
	d3 := x2 - x0
	assert.InDelta(t, 3*d1, d3, 1e-6)
	assert.Greater(t, d1, 0.0)
}

func TestProjectUsesOriginLatitudeForScale(t *testing.T) {
	p := New(DefaultOrigin())
	xa, _ := p.Project(-114.063, 51.045)
	xb, _ := p.Project(-114.063, 52.5)
	assert.Equal(t, xa, xb)
}

func TestProjectKnownDistances(t *testing.T) {
	p := New(DefaultOrigin())

	x, y := p.Project(-114.063, 51.046)
	wantY := 0.001 * math.Pi / 180 * EarthRadius
	wantX := wantY * math.Cos(DefaultOriginLat*math.Pi/180)
	assert.InDelta(t, wantX, x, 1e-6)
	assert.InDelta(t, wantY, y, 1e-6)
	assert.InDelta(t, 111.32, wantY, 0.01)
}

func TestProjectOutOfRangePassesThrough(t *testing.T) {
	p := New(Origin{})
	x, y := p.Project(540, -200)
	assert.InDelta(t, 540*math.Pi/180*EarthRadius, x, 1e-3)
	assert.InDelta(t, -200*math.Pi/180*EarthRadius, y, 1e-3)
}

func TestProjectRingPreservesOrder(t *testing.T) {
	p := New(DefaultOrigin())
	ring := [][2]float64{
		{-114.064, 51.045},
		{-114.063, 51.045},
		{-114.063, 51.046},
	}
	pts := p.ProjectRing(ring)
	assert.Len(t, pts, 3)
	assert.Equal(t, Point{}, pts[0])
	assert.Greater(t, pts[1].X, 0.0)
	assert.InDelta(t, 0, pts[1].Y, 1e-9)
	assert.Greater(t, pts[2].Y, 0.0)
}

func TestCustomOriginShiftsCoordinates(t *testing.T) {
	p := New(Origin{Lon: -114.063, Lat: 51.046})
	x, y := p.Project(-114.063, 51.046)
	assert.Equal(t, 0.0, x)
	assert.Equal(t, 0.0, y)

	x, y = p.Project(DefaultOriginLon, DefaultOriginLat)
	assert.Less(t, x, 0.0)
	assert.Less(t, y, 0.0)
}

func TestUnprojectRoundTrip(t *testing.T) {
	p := New(DefaultOrigin())
	x, y := p.Project(-114.0651, 51.0462)
	lon, lat := p.Unproject(x, y)
	assert.InDelta(t, -114.0651, lon, 1e-9)
	assert.InDelta(t, 51.0462, lat, 1e-9)
}
