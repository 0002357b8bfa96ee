// Package extrude turns a planar building footprint and a height into a closed
// triangle mesh standing on the ground plane.
package extrude

import (
	"github.com/go-gl/mathgl/mgl64"

	"cityscape/internal/projection"
)

// upright rotates the extrusion axis (local +Z) onto the scene's +Y axis: a
// quarter turn about X taking (x, y, z) to (x, z, -y). The entries are exact
// so the vertical axis carries no rounding noise. Entries are column-major,
// one column per line.
var upright = mgl64.Mat3{
	1, 0, 0,
	0, 0, -1,
	0, 1, 0,
}

// Upright applies the fixed reorientation to a local (x, y, depth) vector.
func Upright(v mgl64.Vec3) mgl64.Vec3 {
	return upright.Mul3x1(v)
}

// Extrude sweeps ring from depth 0 to height and stands the result upright.
//
// The ring is closed implicitly; a repeated closing point is dropped. Rings
// with fewer than three distinct points, or with zero area, produce vertices
// but no faces. Height is used as given, including zero or negative values.
func Extrude(ring []projection.Point, height float64) Mesh {
	pts := closeRing(ring)
	n := len(pts)
	if n == 0 {
		return Mesh{}
	}

	verts := make([]mgl64.Vec3, 2*n)
	for i, p := range pts {
		verts[i] = Upright(mgl64.Vec3{p.X, p.Y, 0})
		verts[i+n] = Upright(mgl64.Vec3{p.X, p.Y, height})
	}
	m := Mesh{Vertices: verts}
	if n < 3 {
		return m
	}

	order, tris := triangulate(pts)
	if len(tris) == 0 {
		return m
	}

	faces := make([]Face, 0, 2*len(tris)+2*n)
	for _, t := range tris {
		faces = append(faces, Face{t[0] + n, t[1] + n, t[2] + n})
	}
	for _, t := range tris {
		faces = append(faces, Face{t[0], t[2], t[1]})
	}
	for k := range order {
		i := order[k]
		j := order[(k+1)%n]
		faces = append(faces,
			Face{i, j, j + n},
			Face{i, j + n, i + n},
		)
	}
	m.Faces = faces
	m.CapTriangles = len(tris)
	return m
}

// closeRing drops consecutive duplicates and a trailing copy of the first
// point, leaving the distinct vertices of the outline in input order.
func closeRing(ring []projection.Point) []projection.Point {
	out := make([]projection.Point, 0, len(ring))
	for _, p := range ring {
		if len(out) > 0 && out[len(out)-1] == p {
			continue
		}
		out = append(out, p)
	}
	for len(out) > 1 && out[len(out)-1] == out[0] {
		out = out[:len(out)-1]
	}
	return out
}
