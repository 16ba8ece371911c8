// Package geo holds the small amount of spherical geometry the group
// evaluation needs.
package geo

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/safetravel/groupwatch/pkg/models"
)

// EarthRadiusKm is the mean Earth radius used by Haversine
const EarthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance between a and b in kilometres
func HaversineKm(a, b models.Position) float64 {
	lat1, lon1 := toRadians(a.Lat), toRadians(a.Lng)
	lat2, lon2 := toRadians(b.Lat), toRadians(b.Lng)

	dLat := lat2 - lat1
	dLon := lon2 - lon1

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Centroid returns the arithmetic mean of the positions. The second result is
// false when positions is empty.
func Centroid(positions []models.Position) (models.Position, bool) {
	if len(positions) == 0 {
		return models.Position{}, false
	}

	lats := make([]float64, len(positions))
	lngs := make([]float64, len(positions))
	for i, p := range positions {
		lats[i] = p.Lat
		lngs[i] = p.Lng
	}

	return models.Position{
		Lat: stat.Mean(lats, nil),
		Lng: stat.Mean(lngs, nil),
	}, true
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
