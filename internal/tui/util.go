package tui

import (
	"sort"
	"strings"
)

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func padRight(s string, n int) string {
	if n <= 0 {
		return s
	}
	return s + strings.Repeat(" ", n)
}

// bresenham visits every micro-pixel on the line from (x0, y0) to (x1, y1).
func bresenham(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx := abs(x1 - x0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -abs(y1 - y0)
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// fillPolygon fills pts with the even-odd rule, one scanline per micro row,
// clipped to cols x rows. Horizontal edges are skipped; each edge is half-open in y so
// shared vertices are not counted twice.
func fillPolygon(pts [][2]int, cols, rows int, plot func(x, y int)) {
	if len(pts) < 3 {
		return
	}
	lo, hi := pts[0][1], pts[0][1]
	for _, p := range pts[1:] {
		lo = min(lo, p[1])
		hi = max(hi, p[1])
	}
	lo = max(lo, 0)
	hi = min(hi, rows-1)
	var xs []int
	for y := lo; y <= hi; y++ {
		xs = xs[:0]
		for i := 0; i < len(pts); i++ {
			a := pts[i]
			b := pts[(i+1)%len(pts)]
			if a[1] == b[1] {
				continue
			}
			y0, y1 := a[1], b[1]
			x0, x1 := a[0], b[0]
			if (y >= y0 && y < y1) || (y >= y1 && y < y0) {
				t := float64(y-y0) / float64(y1-y0)
				xs = append(xs, int(float64(x0)+t*float64(x1-x0)))
			}
		}
		sort.Ints(xs)
		for i := 0; i+1 < len(xs); i += 2 {
			for x := max(xs[i], 0); x <= min(xs[i+1], cols-1); x++ {
				plot(x, y)
			}
		}
	}
}
