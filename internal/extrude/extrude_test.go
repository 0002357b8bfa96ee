package extrude

import (
	"bytes"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cityscape/internal/projection"
)

func square() []projection.Point {
	return []projection.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}
}

// lShape is a concave hexagon.
func lShape() []projection.Point {
	return []projection.Point{
		{X: 0, Y: 0}, {X: 20, Y: 0}, {X: 20, Y: 10},
		{X: 10, Y: 10}, {X: 10, Y: 20}, {X: 0, Y: 20},
	}
}

func reversed(pts []projection.Point) []projection.Point {
	out := make([]projection.Point, len(pts))
	for i, p := range pts {
		out[len(pts)-1-i] = p
	}
	return out
}

func TestExtrudeEmptyRing(t *testing.T) {
	m := Extrude(nil, 12)
	assert.True(t, m.Empty())
	assert.Zero(t, m.VertexCount())
}

func TestExtrudeDegenerateRings(t *testing.T) {
	one := Extrude([]projection.Point{{X: 1, Y: 2}}, 12)
	assert.True(t, one.Empty())
	assert.Equal(t, 2, one.VertexCount())

	two := Extrude([]projection.Point{{X: 1, Y: 2}, {X: 3, Y: 4}}, 12)
	assert.True(t, two.Empty())

	collinear := Extrude([]projection.Point{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 2}}, 12)
	assert.True(t, collinear.Empty())
	assert.Equal(t, 6, collinear.VertexCount())
}

func TestExtrudeVertexCount(t *testing.T) {
	for _, ring := range [][]projection.Point{square(), lShape()} {
		n := len(ring)
		m := Extrude(ring, 30)
		assert.Equal(t, 2*n, m.VertexCount())
		assert.Equal(t, n-2, m.CapTriangles)
		assert.Equal(t, 2*(n-2)+2*n, m.TriangleCount())
	}
}

func TestExtrudeClosedInputMatchesOpen(t *testing.T) {
	open := square()
	closed := append(square(), open[0])
	a := Extrude(open, 20)
	b := Extrude(closed, 20)
	assert.Equal(t, a, b)
}

func TestExtrudeDropsRepeatedPoints(t *testing.T) {
	ring := []projection.Point{{X: 0, Y: 0}, {X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 10, Y: 10}, {X: 0, Y: 0}}
	m := Extrude(ring, 5)
	assert.Equal(t, 6, m.VertexCount())
	assert.Equal(t, 1, m.CapTriangles)
}

func TestExtrudeStandsUpright(t *testing.T) {
	m := Extrude(square(), 42)
	n := m.RingSize()
	for i := 0; i < n; i++ {
		assert.Equal(t, 0.0, m.Vertices[i].Y())
		assert.Equal(t, 42.0, m.Vertices[i+n].Y())
	}
	// local (10, 10) lands at x=10, z=-10
	assert.Equal(t, mgl64.Vec3{10, 42, -10}, m.Vertices[2+n])

	lo, hi, ok := m.Bounds()
	require.True(t, ok)
	assert.Equal(t, mgl64.Vec3{0, 0, -10}, lo)
	assert.Equal(t, mgl64.Vec3{10, 42, 0}, hi)
}

func TestUprightIsExactQuarterTurn(t *testing.T) {
	assert.Equal(t, mgl64.Vec3{0, 1, 0}, Upright(mgl64.Vec3{0, 0, 1}))
	assert.Equal(t, mgl64.Vec3{0, 0, -1}, Upright(mgl64.Vec3{0, 1, 0}))
	assert.Equal(t, mgl64.Vec3{1, 0, 0}, Upright(mgl64.Vec3{1, 0, 0}))
}

func TestExtrudeNormalsPointOutward(t *testing.T) {
	cases := map[string][]projection.Point{
		"ccw square": square(),
		"cw square":  reversed(square()),
		"ccw L":      lShape(),
		"cw L":       reversed(lShape()),
	}
	for name, ring := range cases {
		t.Run(name, func(t *testing.T) {
			m := Extrude(ring, 15)
			require.False(t, m.Empty())
			for i := range m.Faces {
				nrm := m.FaceNormal(i)
				switch m.Kind(i) {
				case FaceTop:
					assert.InDelta(t, 1, nrm.Y(), 1e-12, "face %d", i)
				case FaceBottom:
					assert.InDelta(t, -1, nrm.Y(), 1e-12, "face %d", i)
				case FaceWall:
					assert.InDelta(t, 0, nrm.Y(), 1e-12, "face %d", i)
					assert.True(t, wallFacesOutward(ring, m, i), "face %d points inward", i)
				}
			}
		})
	}
}

// wallFacesOutward nudges a point from the wall's center along its normal
// and checks it has left the footprint.
func wallFacesOutward(ring []projection.Point, m Mesh, i int) bool {
	c := m.FaceCenter(i).Add(m.FaceNormal(i).Mul(0.01))
	// scene (x, y, z) is local (x, -z)
	return !insideRing(ring, projection.Point{X: c.X(), Y: -c.Z()})
}

func insideRing(ring []projection.Point, p projection.Point) bool {
	in := false
	for i, j := 0, len(ring)-1; i < len(ring); j, i = i, i+1 {
		a, b := ring[i], ring[j]
		if (a.Y > p.Y) != (b.Y > p.Y) && p.X < (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y)+a.X {
			in = !in
		}
	}
	return in
}

func TestExtrudeCapAreaMatchesFootprint(t *testing.T) {
	m := Extrude(lShape(), 10)
	var area float64
	for i := 0; i < m.CapTriangles; i++ {
		f := m.Faces[i]
		a, b, c := m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]
		area += b.Sub(a).Cross(c.Sub(a)).Len() / 2
	}
	assert.InDelta(t, 300, area, 1e-9)
}

func TestExtrudeIsReproducible(t *testing.T) {
	ring := []projection.Point{{X: 0.1, Y: 0.3}, {X: 70.25, Y: -3.5}, {X: 66.125, Y: 41.75}, {X: 3.3, Y: 38.9}}
	assert.Equal(t, Extrude(ring, 55.5), Extrude(ring, 55.5))
}

func TestExtrudeSelfIntersectingTerminates(t *testing.T) {
	bowtie := []projection.Point{{X: 0, Y: 0}, {X: 10, Y: 10}, {X: 10, Y: 0}, {X: 0, Y: 10}, {X: 5, Y: 12}}
	assert.NotPanics(t, func() { Extrude(bowtie, 8) })
}

func TestExtrudeZeroHeightPassesThrough(t *testing.T) {
	m := Extrude(square(), 0)
	for _, v := range m.Vertices {
		assert.Equal(t, 0.0, v.Y())
	}
}

func TestWriteOBJ(t *testing.T) {
	m := Extrude(square(), 3)
	var buf bytes.Buffer
	n, err := m.WriteOBJ(&buf, "b7", 4)
	require.NoError(t, err)
	assert.Equal(t, 8, n)

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "o b7\n"))
	assert.Equal(t, 8, strings.Count(out, "\nv "))
	assert.Equal(t, m.TriangleCount(), strings.Count(out, "\nf "))
	assert.NotContains(t, out, "f 1 ")
	assert.NotContains(t, out, "f 4 ")
}

func TestFaceKindString(t *testing.T) {
	assert.Equal(t, "top", FaceTop.String())
	assert.Equal(t, "bottom", FaceBottom.String())
	assert.Equal(t, "wall", FaceWall.String())
}
