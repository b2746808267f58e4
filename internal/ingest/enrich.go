package ingest

import (
	"strings"

	"github.com/ukydev/fleet-emissions/internal/models"
)

// FillRouteDistances returns a copy of trips in which every trip with a
// missing or zero distance takes the distance of its known route. Negative
// distances are left for the engine to report. The second result
// counts the trips that were filled.
func FillRouteDistances(trips []models.Trip, routes []models.Route) ([]models.Trip, int) {
	lookup := make(map[string]float64, len(routes))
	for _, r := range routes {
		if r.DistanceKm > 0 {
			lookup[r.Key()] = r.DistanceKm
		}
	}

	out := make([]models.Trip, len(trips))
	filled := 0
	for i, t := range trips {
		t = t.Clone()
		if t.DistanceKm == nil || *t.DistanceKm == 0 {
			if km, ok := lookup[t.RouteKey()]; ok {
				t.DistanceKm = models.Float(km)
				filled++
			}
		}
		out[i] = t
	}
	return out, filled
}

// FillEnergy returns a copy of trips in which every trip without an energy
// figure gets distance times the truck's mean kWh/km. Trucks without readings
// use the fleet mean. Trips keep no energy when there are no readings at all
// or the trip has no distance.
func FillEnergy(trips []models.Trip, readings []models.EnergyReading) ([]models.Trip, int) {
	perTruck := TruckEfficiency(readings)
	fleet, n := 0.0, 0
	for _, r := range readings {
		if usableReading(r) {
			fleet += r.KWhPerKm
			n++
		}
	}

	out := make([]models.Trip, len(trips))
	filled := 0
	for i, t := range trips {
		t = t.Clone()
		if t.EnergyKWh == nil && t.Distance() > 0 {
			rate, ok := perTruck[PlateKey(t.TruckID)]
			if !ok && n > 0 {
				rate = fleet / float64(n)
			}
			if rate > 0 {
				t.EnergyKWh = models.Float(t.Distance() * rate)
				filled++
			}
		}
		out[i] = t
	}
	return out, filled
}

// PlateKey is the case-insensitive lookup key of a plate number.
func PlateKey(plate string) string {
	return strings.ToLower(strings.TrimSpace(plate))
}

func usableReading(r models.EnergyReading) bool {
	return models.IsFinite(r.KWhPerKm) && r.KWhPerKm > 0
}

// TruckEfficiency returns the mean kWh/km per truck, keyed by PlateKey.
// Readings that are not positive finite numbers are ignored.
func TruckEfficiency(readings []models.EnergyReading) map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, r := range readings {
		if !usableReading(r) {
			continue
		}
		id := PlateKey(r.TruckID)
		sums[id] += r.KWhPerKm
		counts[id]++
	}
	out := make(map[string]float64, len(sums))
	for id, s := range sums {
		out[id] = s / float64(counts[id])
	}
	return out
}
