package geo

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/wkt"
	"go.uber.org/zap"
)

// DecodeCSV reads buildings from a CSV with a header row.
// Column detection (case-insensitive): id|struct_id, address, stage,
// height, and wkt|geometry|footprint|polygon holding a WKT POLYGON or
// MULTIPOLYGON.
func DecodeCSV(r io.Reader) ([]Building, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	recs, err := cr.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "geo: read csv")
	}
	if len(recs) == 0 {
		return nil, eris.New("geo: empty csv")
	}
	idxID, idxAddr, idxStage, idxHeight, idxGeom := -1, -1, -1, -1, -1
	for i, h := range recs[0] {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "id", "struct_id":
			if idxID == -1 {
				idxID = i
			}
		case "address":
			idxAddr = i
		case "stage":
			idxStage = i
		case "height":
			idxHeight = i
		case "wkt", "geometry", "footprint", "polygon":
			if idxGeom == -1 {
				idxGeom = i
			}
		}
	}
	if idxID == -1 || idxHeight == -1 || idxGeom == -1 {
		return nil, eris.New("geo: csv needs id, height and wkt columns")
	}

	cell := func(row []string, i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	var out []Building
	rows := recs[1:]
	for n, row := range rows {
		id := cell(row, idxID)
		if id == "" {
			zap.L().Warn("geo: skipping csv row", zap.Int("row", n+2), zap.String("reason", "missing id"))
			continue
		}
		height, err := strconv.ParseFloat(cell(row, idxHeight), 64)
		if err != nil {
			zap.L().Warn("geo: skipping csv row", zap.Int("row", n+2), zap.String("id", id), zap.Error(err))
			continue
		}
		g, err := wkt.Unmarshal(cell(row, idxGeom))
		if err != nil {
			zap.L().Warn("geo: skipping csv row", zap.Int("row", n+2), zap.String("id", id), zap.Error(err))
			continue
		}
		ring, err := outerRing(g)
		if err != nil {
			zap.L().Warn("geo: skipping csv row", zap.Int("row", n+2), zap.String("id", id), zap.Error(err))
			continue
		}
		out = append(out, Building{
			ID:        id,
			Address:   cell(row, idxAddr),
			Stage:     cell(row, idxStage),
			Height:    height,
			Footprint: ring,
		})
	}
	if len(rows) > 0 && len(out) == 0 {
		return nil, ErrNoBuildings
	}
	return out, nil
}
