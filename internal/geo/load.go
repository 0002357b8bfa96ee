package geo

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Supported reports whether LoadBuildings understands the file's extension.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".geojson", ".json", ".csv", ".kml", ".shp":
		return true
	}
	return false
}

// IsURL reports whether src should be fetched over HTTP.
func IsURL(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// LoadBuildings reads a building file, choosing the decoder by extension.
func LoadBuildings(path string) ([]Building, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".geojson", ".json":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, eris.Wrap(err, "geo: read file")
		}
		return DecodeBuildings(data)
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrap(err, "geo: open file")
		}
		defer f.Close()
		return DecodeCSV(f)
	case ".kml":
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrap(err, "geo: open file")
		}
		defer f.Close()
		return DecodeKML(f)
	case ".shp":
		return LoadShapefile(path)
	default:
		return nil, eris.Errorf("geo: unsupported file type %q", ext)
	}
}

// FetchBuildings GETs a building list from the building service (or any URL
// serving GeoJSON). It makes a single attempt.
func FetchBuildings(ctx context.Context, client *http.Client, rawURL string) ([]Building, error) {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "geo: build request")
	}
	req.Header.Set("Accept", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "geo: fetch buildings")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("geo: fetch buildings: unexpected status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "geo: read response")
	}
	zap.L().Debug("geo: fetched building list", zap.String("url", rawURL), zap.Int("bytes", len(data)))
	return DecodeBuildings(data)
}

// CalgaryBuildingsURL is the City of Calgary 3D buildings dataset, a Socrata
// GeoJSON endpoint.
const CalgaryBuildingsURL = "https://data.calgary.ca/resource/cchr-krqg.geojson"

// DowntownCalgary covers about three blocks of downtown Calgary.
var DowntownCalgary = BBox{MinX: -114.0685, MinY: 51.0440, MaxX: -114.0635, MaxY: 51.0465}

// WithinBoxURL adds a Socrata within_box filter on the polygon column, and a
// row limit when limit > 0, to base.
func WithinBoxURL(base string, box BBox, limit int) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", eris.Wrapf(err, "geo: parse url %q", base)
	}
	num := func(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
	q := u.Query()
	q.Set("$where", fmt.Sprintf("within_box(polygon, %s, %s, %s, %s)",
		num(box.MaxY), num(box.MinX), num(box.MinY), num(box.MaxX)))
	if limit > 0 {
		q.Set("$limit", strconv.Itoa(limit))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Load dispatches to FetchBuildings or LoadBuildings.
func Load(ctx context.Context, src string) ([]Building, error) {
	if IsURL(src) {
		return FetchBuildings(ctx, nil, src)
	}
	return LoadBuildings(src)
}
