package tui

import (
	"math"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/go-gl/mathgl/mgl64"

	"cityscape/internal/extrude"
	"cityscape/internal/scene"
)

// camera is a fixed oblique view from the south. Tilt raises the eye: 0 is a
// flat front elevation, larger values show more roof. Roofs and the south
// and east walls face the viewer.
type camera struct {
	tilt float64
}

// project maps a scene point (Y up, -Z north) to screen meters, w up.
func (c camera) project(v mgl64.Vec3) (u, w float64) {
	north := -v[2]
	return v[0] + 0.5*c.tilt*north, v[1] + c.tilt*north
}

// toward points from the scene at the viewer.
func (c camera) toward() mgl64.Vec3 {
	return mgl64.Vec3{0.5 * c.tilt, c.tilt, 1}
}

// wallLight is the direction walls are lit from (south-east, level).
var wallLight = mgl64.Vec3{0.6, 0, 0.8}

// shadeFor darkens walls relative to roofs so the solid reads as 3D.
func shadeFor(kind extrude.FaceKind, normal mgl64.Vec3) float64 {
	if kind == extrude.FaceTop {
		return 1
	}
	return 0.6 + 0.3*math.Max(0, normal.Dot(wallLight))
}

// viewport fits the projected scene into a micro-pixel grid, then applies
// zoom around the center and the pan offset.
type viewport struct {
	cam        camera
	cu, cw     float64
	scale      float64
	cols, rows int
	offX, offY int
}

func (m Model) viewport(w, h int) (viewport, bool) {
	vp := viewport{
		cam:  camera{tilt: m.tilt},
		cols: w * 2,
		rows: h * 4,
		offX: m.offsetX * 2,
		offY: m.offsetY * 4,
	}
	if m.scene == nil || w <= 0 || h <= 0 {
		return vp, false
	}
	lo, hi, ok := m.scene.Bounds()
	if !ok {
		return vp, false
	}
	// the camera is linear, so the box corners bound every projected vertex
	var umin, umax, wmin, wmax float64
	for i := 0; i < 8; i++ {
		c := lo
		for k := 0; k < 3; k++ {
			if i&(1<<k) != 0 {
				c[k] = hi[k]
			}
		}
		pu, pw := vp.cam.project(c)
		if i == 0 {
			umin, umax, wmin, wmax = pu, pu, pw, pw
			continue
		}
		umin, umax = math.Min(umin, pu), math.Max(umax, pu)
		wmin, wmax = math.Min(wmin, pw), math.Max(wmax, pw)
	}
	vp.cu, vp.cw = (umin+umax)/2, (wmin+wmax)/2
	scale := math.Inf(1)
	if du := umax - umin; du > 0 {
		scale = float64(vp.cols-1) / du
	}
	if dw := wmax - wmin; dw > 0 {
		scale = math.Min(scale, float64(vp.rows-1)/dw)
	}
	if math.IsInf(scale, 1) {
		scale = 1
	}
	vp.scale = 0.95 * scale * m.zoom
	return vp, true
}

func (vp viewport) micro(p mgl64.Vec3) [2]int {
	u, w := vp.cam.project(p)
	x := float64(vp.cols-1)/2 + (u-vp.cu)*vp.scale
	y := float64(vp.rows-1)/2 - (w-vp.cw)*vp.scale
	return [2]int{int(math.Round(x)) + vp.offX, int(math.Round(y)) + vp.offY}
}

type pixel struct {
	owner int32 // entity index, -1 when empty
	shade float64
	edge  bool // outline gap: owned but left dark
}

func (p pixel) lit() bool { return p.owner >= 0 && !p.edge }

// raster is the painted micro-pixel grid. It is the single source of truth
// for both drawing and picking.
type raster struct {
	cols, rows int
	px         []pixel
}

func newRaster(cols, rows int) *raster {
	r := &raster{cols: cols, rows: rows, px: make([]pixel, cols*rows)}
	for i := range r.px {
		r.px[i].owner = -1
	}
	return r
}

func (r *raster) at(x, y int) *pixel {
	if x < 0 || y < 0 || x >= r.cols || y >= r.rows {
		return nil
	}
	return &r.px[y*r.cols+x]
}

// dominant returns the entity owning most micro-pixels of cell (cx, cy),
// and that entity's shade there.
func (r *raster) dominant(cx, cy int) (owner int32, shade float64, ok bool) {
	var owners [8]int32
	var shades [8]float64
	var counts [8]int
	n := 0
	for dy := 0; dy < 4; dy++ {
		for dx := 0; dx < 2; dx++ {
			p := r.at(cx*2+dx, cy*4+dy)
			if p == nil || p.owner < 0 {
				continue
			}
			found := false
			for i := 0; i < n; i++ {
				if owners[i] == p.owner {
					counts[i]++
					if !p.edge {
						shades[i] = p.shade
					}
					found = true
					break
				}
			}
			if !found {
				owners[n], shades[n], counts[n] = p.owner, p.shade, 1
				n++
			}
		}
	}
	if n == 0 {
		return -1, 0, false
	}
	best := 0
	for i := 1; i < n; i++ {
		if counts[i] > counts[best] {
			best = i
		}
	}
	return owners[best], shades[best], true
}

type drawFace struct {
	entity int
	face   int
	depth  float64
	shade  float64
}

// rasterize paints every viewer-facing face, farthest first.
func (m Model) rasterize(vp viewport) *raster {
	r := newRaster(vp.cols, vp.rows)
	toward := vp.cam.toward()

	var faces []drawFace
	screen := make([][][2]int, len(m.scene.Entities))
	for i, e := range m.scene.Entities {
		mesh := e.Mesh
		if mesh.Empty() {
			continue
		}
		pts := make([][2]int, len(mesh.Vertices))
		for k, v := range mesh.Vertices {
			pts[k] = vp.micro(v)
		}
		screen[i] = pts
		for f := range mesh.Faces {
			kind := mesh.Kind(f)
			if kind == extrude.FaceBottom {
				continue
			}
			normal := mesh.FaceNormal(f)
			if normal.Dot(toward) <= 0 {
				continue
			}
			faces = append(faces, drawFace{
				entity: i,
				face:   f,
				depth:  mesh.FaceCenter(f).Dot(toward),
				shade:  shadeFor(kind, normal),
			})
		}
	}
	sort.SliceStable(faces, func(a, b int) bool { return faces[a].depth < faces[b].depth })

	for _, df := range faces {
		mesh := m.scene.Entities[df.entity].Mesh
		f := mesh.Faces[df.face]
		pts := screen[df.entity]
		tri := [][2]int{pts[f[0]], pts[f[1]], pts[f[2]]}
		owner := int32(df.entity)
		fillPolygon(tri, r.cols, r.rows, func(x, y int) {
			if p := r.at(x, y); p != nil {
				*p = pixel{owner: owner, shade: df.shade}
			}
		})
		if !m.outline {
			continue
		}
		ring := mesh.RingSize()
		for k := 0; k < 3; k++ {
			a, b := f[k], f[(k+1)%3]
			if !outlineEdge(a, b, ring) {
				continue
			}
			bresenham(pts[a][0], pts[a][1], pts[b][0], pts[b][1], func(x, y int) {
				if p := r.at(x, y); p != nil {
					*p = pixel{owner: owner, shade: df.shade, edge: true}
				}
			})
		}
	}
	return r
}

// outlineEdge reports whether a-b is a footprint edge of either cap or a
// vertical corner, as opposed to a triangulation diagonal.
func outlineEdge(a, b, ring int) bool {
	if ring == 0 {
		return false
	}
	if abs(a-b) == ring {
		return true
	}
	if a/ring != b/ring {
		return false
	}
	d := abs(a%ring - b%ring)
	return d == 1 || d == ring-1
}

// overlay is a pre-rendered box drawn over the left edge of the map.
type overlay struct {
	lines []string
	w     int
	top   int
}

func (o *overlay) covers(x, y int) bool {
	return o != nil && x < o.w && y >= o.top && y < o.top+len(o.lines)
}

// renderScene draws the scene into w x h cells, each colored by the building
// covering most of it.
func (m Model) renderScene(w, h int, ov *overlay) string {
	r := newRaster(w*2, h*4)
	if vp, ok := m.viewport(w, h); ok {
		r = m.rasterize(vp)
	}

	br := newBrailleBuf(w, h)
	for y := 0; y < r.rows; y++ {
		for x := 0; x < r.cols; x++ {
			if r.px[y*r.cols+x].lit() {
				br.setPixel(x, y)
			}
		}
	}

	type shadeKey struct {
		owner int32
		shade float64
	}
	colors := map[shadeKey]lipgloss.Style{}
	styleFor := func(owner int32, shade float64) lipgloss.Style {
		k := shadeKey{owner, shade}
		if st, ok := colors[k]; ok {
			return st
		}
		c := m.scene.DisplayColor(int(owner), m.store).Shade(shade)
		st := lipgloss.NewStyle().Foreground(lipgloss.Color(c.Hex()))
		colors[k] = st
		return st
	}

	lines := make([]string, h)
	for y := 0; y < h; y++ {
		var sb strings.Builder
		var run []rune
		var runStyle *lipgloss.Style
		flush := func() {
			if len(run) == 0 {
				return
			}
			if runStyle == nil {
				sb.WriteString(string(run))
			} else {
				sb.WriteString(runStyle.Render(string(run)))
			}
			run = run[:0]
		}
		x := 0
		if ov.covers(0, y) {
			line := ov.lines[y-ov.top]
			sb.WriteString(padRight(line, ov.w-lipgloss.Width(line)))
			x = ov.w
		}
		var prev shadeKey
		for ; x < w; x++ {
			g := br.glyph(x, y)
			owner, shade, owned := r.dominant(x, y)
			if g == ' ' || !owned {
				if runStyle != nil {
					flush()
					runStyle = nil
				}
				run = append(run, g)
				continue
			}
			k := shadeKey{owner, shade}
			if runStyle == nil || k != prev {
				flush()
				st := styleFor(owner, shade)
				runStyle = &st
				prev = k
			}
			run = append(run, g)
		}
		flush()
		lines[y] = sb.String()
	}
	return strings.Join(lines, "\n")
}

// footprintCenter is the lon/lat of the mean of e's ground ring.
func (m Model) footprintCenter(e scene.Entity) (lon, lat float64, ok bool) {
	n := e.Mesh.RingSize()
	if n == 0 || m.builder == nil {
		return 0, 0, false
	}
	var sx, sz float64
	for _, v := range e.Mesh.Vertices[:n] {
		sx += v.X()
		sz += v.Z()
	}
	// upright maps local north (+y) to scene -Z
	lon, lat = m.builder.Projector().Unproject(sx/float64(n), -sz/float64(n))
	return lon, lat, true
}

// pickCell returns the entity drawn in map cell (cx, cy).
func (m Model) pickCell(cx, cy int) (scene.Entity, bool) {
	lay := m.layout()
	vp, ok := m.viewport(lay.mapW, lay.mapH)
	if !ok {
		return scene.Entity{}, false
	}
	owner, _, ok := m.rasterize(vp).dominant(cx, cy)
	if !ok {
		return scene.Entity{}, false
	}
	return m.scene.Entities[owner], true
}
