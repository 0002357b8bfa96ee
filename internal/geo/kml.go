package geo

import (
	"encoding/xml"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

type kmlData struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value"`
}

type kmlPolygon struct {
	Outer string `xml:"outerBoundaryIs>LinearRing>coordinates"`
}

type kmlPlacemark struct {
	ID       string       `xml:"id,attr"`
	Name     string       `xml:"name"`
	Address  string       `xml:"address"`
	Data     []kmlData    `xml:"ExtendedData>Data"`
	Polygon  *kmlPolygon  `xml:"Polygon"`
	Polygons []kmlPolygon `xml:"MultiGeometry>Polygon"`
}

// DecodeKML reads Placemarks with a Polygon (or the first Polygon of a
// MultiGeometry). The id comes from ExtendedData id/struct_id, the id
// attribute, or the name; height and stage from ExtendedData.
func DecodeKML(r io.Reader) ([]Building, error) {
	dec := xml.NewDecoder(r)
	var placemarks []kmlPlacemark
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "geo: read kml")
		}
		// Placemarks may sit at any depth (Document, Folder)
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "Placemark" {
			continue
		}
		var pm kmlPlacemark
		if err := dec.DecodeElement(&pm, &se); err != nil {
			return nil, eris.Wrap(err, "geo: decode placemark")
		}
		placemarks = append(placemarks, pm)
	}

	out := make([]Building, 0, len(placemarks))
	for i, pm := range placemarks {
		b, err := pm.building()
		if err != nil {
			zap.L().Warn("geo: skipping placemark", zap.Int("index", i), zap.Error(err))
			continue
		}
		out = append(out, b)
	}
	if len(placemarks) > 0 && len(out) == 0 {
		return nil, ErrNoBuildings
	}
	return out, nil
}

func (pm kmlPlacemark) building() (Building, error) {
	props := make(map[string]any, len(pm.Data))
	for _, d := range pm.Data {
		props[strings.ToLower(d.Name)] = strings.TrimSpace(d.Value)
	}

	id := idString(firstOf(props, "id", "struct_id"))
	if id == "" {
		id = strings.TrimSpace(pm.ID)
	}
	if id == "" {
		id = strings.TrimSpace(pm.Name)
	}
	if id == "" {
		return Building{}, eris.New("missing id")
	}

	height, ok := heightFromProps(props)
	if !ok {
		return Building{}, eris.Errorf("building %s: missing height", id)
	}

	poly := pm.Polygon
	if poly == nil && len(pm.Polygons) > 0 {
		poly = &pm.Polygons[0]
	}
	if poly == nil {
		return Building{}, eris.Errorf("building %s: no polygon", id)
	}
	ring, err := kmlCoords(poly.Outer)
	if err != nil {
		return Building{}, eris.Wrapf(err, "building %s", id)
	}

	return Building{
		ID:        id,
		Address:   text(props["address"], pm.Address),
		Stage:     text(props["stage"]),
		Height:    height,
		Footprint: ring,
	}, nil
}

// kmlCoords parses "lon,lat[,alt]" tuples separated by whitespace; altitude
// is ignored.
func kmlCoords(s string) ([][2]float64, error) {
	var ring [][2]float64
	for _, tuple := range strings.Fields(s) {
		vals := strings.Split(tuple, ",")
		if len(vals) < 2 {
			return nil, eris.Errorf("bad coordinate %q", tuple)
		}
		lon, err1 := strconv.ParseFloat(vals[0], 64)
		lat, err2 := strconv.ParseFloat(vals[1], 64)
		if err1 != nil || err2 != nil {
			return nil, eris.Errorf("bad coordinate %q", tuple)
		}
		ring = append(ring, [2]float64{lon, lat})
	}
	if len(ring) == 0 {
		return nil, eris.New("empty polygon")
	}
	return ring, nil
}
