package geospatial

import (
	"github.com/golang/geo/r3"
	"github.com/golang/geo/s2"
)

// EarthRadiusKm is the mean Earth radius used for the spherical projection.
const EarthRadiusKm = 6371.0

// Point is a position in Earth-centered Cartesian space, in kilometers.
// The X axis passes through (0°, 0°), Y through (0°, 90°E) and Z through
// the north pole.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// ToCartesian projects a latitude/longitude pair in degrees onto a sphere of
// radius EarthRadiusKm. No ellipsoidal correction is applied.
func ToCartesian(lat, lon float64) Point {
	v := s2.PointFromLatLng(s2.LatLngFromDegrees(lat, lon))
	return Point{
		X: EarthRadiusKm * v.X,
		Y: EarthRadiusKm * v.Y,
		Z: EarthRadiusKm * v.Z,
	}
}

// Norm returns the distance of p from the origin.
func (p Point) Norm() float64 {
	return r3.Vector{X: p.X, Y: p.Y, Z: p.Z}.Norm()
}
