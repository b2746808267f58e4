package distance

import (
	"context"

	"github.com/golang/geo/s2"
	"github.com/ukydev/fleet-emissions/internal/models"
)

// EarthRadiusKm is the mean earth radius used for great-circle distances.
const EarthRadiusKm = 6371.0

// Haversine returns the great-circle distance between two locations. It
// never fails and needs no network access.
type Haversine struct{}

// Distance implements Provider.
func (Haversine) Distance(_ context.Context, from, to models.Location) (Result, error) {
	return Result{Km: GreatCircleKm(from.Lat, from.Lon, to.Lat, to.Lon), Source: models.SourceHaversine}, nil
}

// GreatCircleKm returns the great-circle distance in kilometers, rounded to
// two decimals.
func GreatCircleKm(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return roundKm(p1.Distance(p2).Radians() * EarthRadiusKm)
}
