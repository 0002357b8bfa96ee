package extrude

import (
	"fmt"
	"io"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/rotisserie/eris"
)

// Face is a triangle given as three indices into Mesh.Vertices, wound
// counter-clockwise when seen from outside the solid.
type Face [3]int

// FaceKind tells which part of the solid a face belongs to.
type FaceKind int

const (
	FaceTop FaceKind = iota
	FaceBottom
	FaceWall
)

func (k FaceKind) String() string {
	switch k {
	case FaceTop:
		return "top"
	case FaceBottom:
		return "bottom"
	default:
		return "wall"
	}
}

// Mesh is an indexed triangle mesh in scene coordinates (Y up).
//
// Vertices [0, n) form the bottom ring and [n, 2n) the top ring, in footprint
// order. Faces are laid out as CapTriangles top faces, CapTriangles bottom
// faces, then the walls.
type Mesh struct {
	Vertices     []mgl64.Vec3
	Faces        []Face
	CapTriangles int
}

// Empty reports whether the mesh has nothing to draw.
func (m Mesh) Empty() bool { return len(m.Faces) == 0 }

func (m Mesh) VertexCount() int   { return len(m.Vertices) }
func (m Mesh) TriangleCount() int { return len(m.Faces) }

// RingSize is the number of footprint vertices per cap.
func (m Mesh) RingSize() int { return len(m.Vertices) / 2 }

// Kind classifies face i.
func (m Mesh) Kind(i int) FaceKind {
	switch {
	case i < m.CapTriangles:
		return FaceTop
	case i < 2*m.CapTriangles:
		return FaceBottom
	default:
		return FaceWall
	}
}

// FaceNormal returns the unit normal of face i, or the zero vector for a
// degenerate triangle.
func (m Mesh) FaceNormal(i int) mgl64.Vec3 {
	f := m.Faces[i]
	a, b, c := m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]
	n := b.Sub(a).Cross(c.Sub(a))
	l := n.Len()
	if l == 0 || math.IsNaN(l) {
		return mgl64.Vec3{}
	}
	return n.Mul(1 / l)
}

// FaceCenter returns the centroid of face i.
func (m Mesh) FaceCenter(i int) mgl64.Vec3 {
	f := m.Faces[i]
	return m.Vertices[f[0]].Add(m.Vertices[f[1]]).Add(m.Vertices[f[2]]).Mul(1.0 / 3)
}

// Bounds returns the axis aligned bounding box of the vertices.
func (m Mesh) Bounds() (lo, hi mgl64.Vec3, ok bool) {
	if len(m.Vertices) == 0 {
		return lo, hi, false
	}
	lo, hi = m.Vertices[0], m.Vertices[0]
	for _, v := range m.Vertices[1:] {
		for k := 0; k < 3; k++ {
			lo[k] = math.Min(lo[k], v[k])
			hi[k] = math.Max(hi[k], v[k])
		}
	}
	return lo, hi, true
}

// WriteOBJ writes the mesh as a Wavefront OBJ object. Face indices are shifted
// by offset so several meshes can share one file; the number of vertices
// written is returned so callers can advance the offset.
func (m Mesh) WriteOBJ(w io.Writer, name string, offset int) (int, error) {
	if _, err := fmt.Fprintf(w, "o %s\n", name); err != nil {
		return 0, eris.Wrap(err, "extrude: write obj object")
	}
	for _, v := range m.Vertices {
		if _, err := fmt.Fprintf(w, "v %g %g %g\n", v[0], v[1], v[2]); err != nil {
			return 0, eris.Wrap(err, "extrude: write obj vertex")
		}
	}
	for _, f := range m.Faces {
		// OBJ indices are 1-based.
		if _, err := fmt.Fprintf(w, "f %d %d %d\n", f[0]+offset+1, f[1]+offset+1, f[2]+offset+1); err != nil {
			return 0, eris.Wrap(err, "extrude: write obj face")
		}
	}
	return len(m.Vertices), nil
}
