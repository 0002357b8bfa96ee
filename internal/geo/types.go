// Package geo loads building footprints from GeoJSON, the building service's
// JSON array, CSV files with WKT polygons, KML placemarks and shapefiles.
package geo

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// BBox is a lon/lat box; X is longitude and Y latitude.
type BBox struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

// Extend grows the box to include (x, y). The zero box is treated as empty
// only when first is true.
func (b *BBox) Extend(x, y float64, first bool) {
	if first {
		*b = BBox{MinX: x, MinY: y, MaxX: x, MaxY: y}
		return
	}
	b.MinX = math.Min(b.MinX, x)
	b.MinY = math.Min(b.MinY, y)
	b.MaxX = math.Max(b.MaxX, x)
	b.MaxY = math.Max(b.MaxY, y)
}

// ParseBBox reads "west,south,east,north" in degrees.
func ParseBBox(s string) (BBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return BBox{}, eris.Errorf("geo: bbox %q: want west,south,east,north", s)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return BBox{}, eris.Wrapf(err, "geo: bbox %q", s)
		}
		v[i] = f
	}
	b := BBox{MinX: v[0], MinY: v[1], MaxX: v[2], MaxY: v[3]}
	if b.MinX > b.MaxX || b.MinY > b.MaxY {
		return BBox{}, eris.Errorf("geo: bbox %q: west/south must not exceed east/north", s)
	}
	return b, nil
}

// Intersects reports whether the boxes overlap, edges included.
func (b BBox) Intersects(o BBox) bool {
	return b.MinX <= o.MaxX && o.MinX <= b.MaxX && b.MinY <= o.MaxY && o.MinY <= b.MaxY
}

func (b BBox) String() string {
	return fmt.Sprintf("%.5f,%.5f,%.5f,%.5f", b.MinX, b.MinY, b.MaxX, b.MaxY)
}

// Building is one footprint record. ID is the equality key; numeric ids are
// kept as their decimal text.
type Building struct {
	ID        string
	Address   string
	Stage     string
	Height    float64
	Footprint [][2]float64 // lon, lat; outer ring only
}

// AddressOr returns the address, or placeholder when it is missing.
func (b Building) AddressOr(placeholder string) string {
	if b.Address == "" {
		return placeholder
	}
	return b.Address
}

// Bounds returns the lon/lat box around every footprint vertex.
func Bounds(buildings []Building) (BBox, bool) {
	var bb BBox
	n := 0
	for _, b := range buildings {
		for _, p := range b.Footprint {
			bb.Extend(p[0], p[1], n == 0)
			n++
		}
	}
	return bb, n > 0
}

// Within keeps the buildings whose footprint box overlaps box.
func Within(buildings []Building, box BBox) []Building {
	out := make([]Building, 0, len(buildings))
	for _, b := range buildings {
		if bb, ok := Bounds([]Building{b}); ok && bb.Intersects(box) {
			out = append(out, b)
		}
	}
	return out
}
