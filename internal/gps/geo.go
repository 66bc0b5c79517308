package gps

import "github.com/golang/geo/s2"

// Mean Earth radius in meters.
const earthRadiusM = 6371010.0

// DistanceMeters returns the great-circle distance between two points given
// in signed decimal degrees.
func DistanceMeters(lat0, lon0, lat1, lon1 float64) float64 {
	a := s2.LatLngFromDegrees(lat0, lon0)
	b := s2.LatLngFromDegrees(lat1, lon1)
	return a.Distance(b).Radians() * earthRadiusM
}
