package extrude

import "cityscape/internal/projection"

// signedArea is the shoelace area of the closed ring, positive when the ring
// runs counter-clockwise (x east, y north).
func signedArea(pts []projection.Point) float64 {
	var a float64
	for i := range pts {
		p, q := pts[i], pts[(i+1)%len(pts)]
		a += p.X*q.Y - q.X*p.Y
	}
	return a / 2
}

func cross(a, b, c projection.Point) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

// inTriangle reports whether p lies inside or on the counter-clockwise
// triangle abc.
func inTriangle(p, a, b, c projection.Point) bool {
	return cross(a, b, p) >= 0 && cross(b, c, p) >= 0 && cross(c, a, p) >= 0
}

// triangulate ear-clips a simple polygon. It returns the vertex indices in
// counter-clockwise order and triangles wound counter-clockwise. A ring with
// zero area yields no triangles.
func triangulate(pts []projection.Point) (order []int, tris [][3]int) {
	n := len(pts)
	area := signedArea(pts)
	if n < 3 || area == 0 {
		return nil, nil
	}
	order = make([]int, n)
	for i := range order {
		if area > 0 {
			order[i] = i
		} else {
			order[i] = n - 1 - i
		}
	}

	work := append([]int(nil), order...)
	tris = make([][3]int, 0, n-2)
	for len(work) > 3 {
		clipped := false
		for k := range work {
			prev := work[(k+len(work)-1)%len(work)]
			cur := work[k]
			next := work[(k+1)%len(work)]
			if !isEar(pts, work, prev, cur, next) {
				continue
			}
			tris = append(tris, [3]int{prev, cur, next})
			work = append(work[:k], work[k+1:]...)
			clipped = true
			break
		}
		if !clipped {
			// Self-intersecting or otherwise broken outline: force progress.
			prev, cur, next := work[len(work)-1], work[0], work[1]
			if cross(pts[prev], pts[cur], pts[next]) > 0 {
				tris = append(tris, [3]int{prev, cur, next})
			}
			work = work[1:]
		}
	}
	if cross(pts[work[0]], pts[work[1]], pts[work[2]]) > 0 {
		tris = append(tris, [3]int{work[0], work[1], work[2]})
	}
	return order, tris
}

func isEar(pts []projection.Point, work []int, prev, cur, next int) bool {
	a, b, c := pts[prev], pts[cur], pts[next]
	if cross(a, b, c) <= 0 {
		return false
	}
	for _, idx := range work {
		if idx == prev || idx == cur || idx == next {
			continue
		}
		p := pts[idx]
		if p == a || p == b || p == c {
			continue
		}
		if inTriangle(p, a, b, c) {
			return false
		}
	}
	return true
}
