package geo

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"
)

// ErrNoBuildings is returned when a document had features but none of them
// could be used.
var ErrNoBuildings = eris.New("geo: no usable buildings")

// rawFeature covers both GeoJSON features and the building service's flat
// records ({id, geometry, height, stage, address}).
type rawFeature struct {
	Type       string          `json:"type"`
	ID         any             `json:"id"`
	Geometry   json.RawMessage `json:"geometry"`
	Properties map[string]any  `json:"properties"`
	Height     any             `json:"height"`
	Address    any             `json:"address"`
	Stage      any             `json:"stage"`
}

type rawDocument struct {
	Type     string          `json:"type"`
	Features []rawFeature    `json:"features"`
	Geometry json.RawMessage `json:"geometry"`
}

// DecodeBuildings parses a FeatureCollection, a single Feature, or a JSON
// array of building records. Features without an id, a height, or a polygon
// are skipped with a warning.
func DecodeBuildings(data []byte) ([]Building, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, eris.New("geo: empty document")
	}

	var feats []rawFeature
	if trimmed[0] == '[' {
		if err := decodeJSON(trimmed, &feats); err != nil {
			return nil, eris.Wrap(err, "geo: decode building array")
		}
	} else {
		var doc rawDocument
		if err := decodeJSON(trimmed, &doc); err != nil {
			return nil, eris.Wrap(err, "geo: decode geojson")
		}
		switch doc.Type {
		case "FeatureCollection":
			feats = doc.Features
		case "Feature":
			var f rawFeature
			if err := decodeJSON(trimmed, &f); err != nil {
				return nil, eris.Wrap(err, "geo: decode feature")
			}
			feats = []rawFeature{f}
		default:
			return nil, eris.Errorf("geo: unsupported geojson type %q", doc.Type)
		}
	}

	out := make([]Building, 0, len(feats))
	for i, f := range feats {
		b, err := f.building()
		if err != nil {
			zap.L().Warn("geo: skipping feature", zap.Int("index", i), zap.Error(err))
			continue
		}
		out = append(out, b)
	}
	if len(feats) > 0 && len(out) == 0 {
		return nil, ErrNoBuildings
	}
	return out, nil
}

func decodeJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

func (f rawFeature) building() (Building, error) {
	props := f.Properties
	if props == nil {
		props = map[string]any{}
	}

	id := idString(f.ID)
	if id == "" {
		id = idString(firstOf(props, "id", "struct_id"))
	}
	if id == "" {
		return Building{}, eris.New("missing id")
	}

	height, ok := toFloat(f.Height)
	if !ok {
		height, ok = heightFromProps(props)
	}
	if !ok {
		return Building{}, eris.Errorf("building %s: missing height", id)
	}

	if len(f.Geometry) == 0 || string(f.Geometry) == "null" {
		return Building{}, eris.Errorf("building %s: missing geometry", id)
	}
	var g geom.T
	if err := geojson.Unmarshal(f.Geometry, &g); err != nil {
		return Building{}, eris.Wrapf(err, "building %s: decode geometry", id)
	}
	ring, err := outerRing(g)
	if err != nil {
		return Building{}, eris.Wrapf(err, "building %s", id)
	}

	return Building{
		ID:        id,
		Address:   text(f.Address, firstOf(props, "address")),
		Stage:     text(f.Stage, firstOf(props, "stage")),
		Height:    height,
		Footprint: ring,
	}, nil
}

// heightFromProps reads "height", or derives rooftop minus ground elevation
// rounded to centimeters.
func heightFromProps(props map[string]any) (float64, bool) {
	if h, ok := toFloat(props["height"]); ok {
		return h, true
	}
	top, okTop := toFloat(firstOf(props, "building_top_z", "rooftop_elev_z"))
	ground, okGround := toFloat(firstOf(props, "ground_max_z", "grd_elev_max_z"))
	if !okTop || !okGround {
		return 0, false
	}
	return math.Round((top-ground)*100) / 100, true
}

// outerRing extracts ring 0 of a Polygon, or of the first polygon of a
// MultiPolygon.
func outerRing(g geom.T) ([][2]float64, error) {
	var poly *geom.Polygon
	switch t := g.(type) {
	case *geom.Polygon:
		poly = t
	case *geom.MultiPolygon:
		if t.NumPolygons() == 0 {
			return nil, eris.New("empty multipolygon")
		}
		poly = t.Polygon(0)
	default:
		return nil, eris.Errorf("unsupported geometry %T", g)
	}
	if poly.NumLinearRings() == 0 {
		return nil, eris.New("polygon has no rings")
	}
	coords := poly.LinearRing(0).Coords()
	ring := make([][2]float64, len(coords))
	for i, c := range coords {
		ring[i] = [2]float64{c.X(), c.Y()}
	}
	return ring, nil
}

func firstOf(props map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := props[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func idString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return strconv.FormatInt(i, 10)
		}
		if f, err := t.Float64(); err == nil {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func text(vals ...any) string {
	for _, v := range vals {
		switch t := v.(type) {
		case string:
			if s := strings.TrimSpace(t); s != "" {
				return s
			}
		case json.Number:
			return t.String()
		}
	}
	return ""
}

// Geometry encodes the footprint as a closed GeoJSON Polygon.
func (b Building) Geometry() (json.RawMessage, error) {
	poly, err := b.polygon()
	if err != nil {
		return nil, err
	}
	data, err := geojson.Marshal(poly)
	if err != nil {
		return nil, eris.Wrapf(err, "geo: building %s geojson", b.ID)
	}
	return data, nil
}

func (b Building) polygon() (*geom.Polygon, error) {
	ring := make([]geom.Coord, 0, len(b.Footprint)+1)
	for _, p := range b.Footprint {
		ring = append(ring, geom.Coord{p[0], p[1]})
	}
	if n := len(ring); n > 0 && (ring[0][0] != ring[n-1][0] || ring[0][1] != ring[n-1][1]) {
		ring = append(ring, geom.Coord{ring[0][0], ring[0][1]})
	}
	poly, err := geom.NewPolygon(geom.XY).SetCoords([][]geom.Coord{ring})
	if err != nil {
		return nil, eris.Wrapf(err, "geo: building %s polygon", b.ID)
	}
	return poly, nil
}

// EncodeFeatureCollection writes buildings as a GeoJSON FeatureCollection
// that DecodeBuildings reads back: the id on the feature, height, address
// and stage as properties.
func EncodeFeatureCollection(w io.Writer, buildings []Building) error {
	fc := geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(buildings))}
	for _, b := range buildings {
		poly, err := b.polygon()
		if err != nil {
			return err
		}
		props := map[string]any{"height": b.Height}
		if b.Address != "" {
			props["address"] = b.Address
		}
		if b.Stage != "" {
			props["stage"] = b.Stage
		}
		fc.Features = append(fc.Features, &geojson.Feature{ID: b.ID, Geometry: poly, Properties: props})
	}
	data, err := fc.MarshalJSON()
	if err != nil {
		return eris.Wrap(err, "geo: encode feature collection")
	}
	if _, err := w.Write(data); err != nil {
		return eris.Wrap(err, "geo: write feature collection")
	}
	return nil
}
