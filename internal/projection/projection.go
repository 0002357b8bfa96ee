// Package projection maps geographic coordinates onto a local planar grid in
// meters, anchored at a fixed origin.
package projection

import "math"

const (
	// EarthRadius is the radius used by the projection, in meters.
	EarthRadius = 6378137.0

	degToRad = math.Pi / 180

	// Default origin, downtown Calgary.
	DefaultOriginLon = -114.064
	DefaultOriginLat = 51.045
)

// Point is a local planar coordinate in meters. X grows east, Y grows north.
type Point struct {
	X float64
	Y float64
}

// Origin is the geographic anchor of the local grid.
type Origin struct {
	Lon float64
	Lat float64
}

// DefaultOrigin returns the built-in projection origin.
func DefaultOrigin() Origin {
	return Origin{Lon: DefaultOriginLon, Lat: DefaultOriginLat}
}

// Projector is an equirectangular projection around Origin. The longitude
// scale uses the origin's latitude for every point, so distortion grows with
// distance from the origin; it is only meant for areas a few kilometers wide.
type Projector struct {
	origin Origin
	kx     float64
	ky     float64
}

// New builds a Projector for the given origin.
func New(origin Origin) Projector {
	return Projector{
		origin: origin,
		kx:     degToRad * EarthRadius * math.Cos(origin.Lat*degToRad),
		ky:     degToRad * EarthRadius,
	}
}

// Origin returns the projector's anchor.
func (p Projector) Origin() Origin { return p.origin }

// Project converts lon/lat to local x/y. Inputs are not range checked.
func (p Projector) Project(lon, lat float64) (x, y float64) {
	x = (lon - p.origin.Lon) * p.kx
	y = (lat - p.origin.Lat) * p.ky
	return x, y
}

// ProjectRing projects every [lon, lat] pair of ring, preserving order.
func (p Projector) ProjectRing(ring [][2]float64) []Point {
	out := make([]Point, len(ring))
	for i, c := range ring {
		out[i].X, out[i].Y = p.Project(c[0], c[1])
	}
	return out
}

// Unproject is the inverse of Project.
func (p Projector) Unproject(x, y float64) (lon, lat float64) {
	lon = p.origin.Lon
	if p.kx != 0 {
		lon += x / p.kx
	}
	lat = p.origin.Lat + y/p.ky
	return lon, lat
}
