// Package geospatial holds coordinate helpers backed by the S2 geometry library.
package geospatial

import (
	"github.com/golang/geo/s2"

	"github.com/samirrijal/meteomcp/internal/core/domain"
)

const earthRadiusKm = 6371.0

// ValidCoordinates reports whether lat and lon are a point on the globe.
func ValidCoordinates(lat, lon float64) bool {
	return s2.LatLngFromDegrees(lat, lon).IsValid()
}

// DistanceKm returns the great-circle distance between two points.
func DistanceKm(a, b domain.GeoPoint) float64 {
	from := s2.LatLngFromDegrees(a.Latitude, a.Longitude)
	to := s2.LatLngFromDegrees(b.Latitude, b.Longitude)
	return from.Distance(to).Radians() * earthRadiusKm
}
