package geo

import (
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrNoAttributeTable is returned when a shapefile has no readable .dbf
// next to it, so no record can carry an id or height.
var ErrNoAttributeTable = eris.New("geo: shapefile has no .dbf attribute table")

// LoadShapefile reads polygon records from an ESRI shapefile. The .dbf next
// to it must carry an id (or struct_id) column; height, address and stage
// are read when present. Only the first part of each polygon is used.
func LoadShapefile(path string) ([]Building, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "geo: open shapefile")
	}
	defer func() { _ = reader.Close() }()

	if len(reader.Fields()) == 0 {
		return nil, ErrNoAttributeTable
	}
	fields := make([]string, 0, len(reader.Fields()))
	for _, f := range reader.Fields() {
		fields = append(fields, strings.ToLower(strings.TrimRight(f.String(), "\x00")))
	}

	var out []Building
	total := 0
	for reader.Next() {
		n, shape := reader.Shape()
		total++
		props := make(map[string]any, len(fields))
		for i, name := range fields {
			if v := strings.Trim(reader.Attribute(i), " \x00"); v != "" {
				props[name] = v
			}
		}
		b, err := shapeBuilding(shape, props)
		if err != nil {
			zap.L().Warn("geo: skipping shapefile record", zap.Int("record", n), zap.Error(err))
			continue
		}
		out = append(out, b)
	}
	if total > 0 && len(out) == 0 {
		return nil, ErrNoBuildings
	}
	return out, nil
}

func shapeBuilding(s shp.Shape, props map[string]any) (Building, error) {
	poly, ok := s.(*shp.Polygon)
	if !ok {
		return Building{}, eris.Errorf("geo: shape %T is not a polygon", s)
	}
	id := idString(firstOf(props, "id", "struct_id"))
	if id == "" {
		return Building{}, eris.New("geo: missing id")
	}
	height, ok := heightFromProps(props)
	if !ok {
		return Building{}, eris.Errorf("geo: building %s has no height", id)
	}
	ring, err := polygonRing(poly)
	if err != nil {
		return Building{}, eris.Wrapf(err, "geo: building %s", id)
	}
	return Building{
		ID:        id,
		Address:   text(props["address"]),
		Stage:     text(props["stage"]),
		Height:    height,
		Footprint: ring,
	}, nil
}

// polygonRing returns the first part of a shapefile polygon.
func polygonRing(poly *shp.Polygon) ([][2]float64, error) {
	if poly.NumParts == 0 || len(poly.Parts) == 0 || len(poly.Points) == 0 {
		return nil, eris.New("geo: empty polygon")
	}
	start, end := int(poly.Parts[0]), len(poly.Points)
	if poly.NumParts > 1 && len(poly.Parts) > 1 {
		end = int(poly.Parts[1])
	}
	if start < 0 || end > len(poly.Points) || start >= end {
		return nil, eris.Errorf("geo: bad polygon part range [%d, %d) for %d points", start, end, len(poly.Points))
	}
	ring := make([][2]float64, 0, end-start)
	for _, p := range poly.Points[start:end] {
		ring = append(ring, [2]float64{p.X, p.Y})
	}
	return ring, nil
}
