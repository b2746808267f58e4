package metrics

import (
	"sort"
	"strings"

	"github.com/ukydev/fleet-emissions/internal/models"
)

// RouteSummary describes how a pickup/delivery pair is used.
type RouteSummary struct {
	From           string  `json:"from_location"`
	To             string  `json:"to_location"`
	TripCount      int     `json:"trip_count"`
	TotalCargoTons float64 `json:"total_cargo_tons"`
	AvgCargoTons   float64 `json:"avg_cargo_tons"`
	DistanceKm     float64 `json:"distance_km"`
	TrucksUsed     int     `json:"trucks_used"`
	FreightWorkTKm float64 `json:"total_tkm"`
}

// RouteEfficiency groups trips by pickup and delivery location. Trips missing
// either endpoint are not grouped; their count is returned separately.
// DistanceKm is the first non-zero trip distance seen on the route and
// FreightWorkTKm is summed per trip.
func RouteEfficiency(trips []models.Trip) ([]RouteSummary, int) {
	type acc struct {
		summary RouteSummary
		trucks  map[string]struct{}
	}
	groups := make(map[string]*acc)
	unrouted := 0

	for _, t := range trips {
		from := strings.TrimSpace(t.PickupLocation)
		to := strings.TrimSpace(t.DeliveryLocation)
		if from == "" || to == "" {
			unrouted++
			continue
		}
		key := models.RouteKey(from, to)
		a, ok := groups[key]
		if !ok {
			a = &acc{summary: RouteSummary{From: from, To: to}, trucks: make(map[string]struct{})}
			groups[key] = a
		}

		distance := nonNegative(t.Distance())
		cargo := nonNegative(t.Cargo())
		a.summary.TripCount++
		a.summary.TotalCargoTons += cargo
		a.summary.FreightWorkTKm += cargo * distance
		if a.summary.DistanceKm == 0 && distance > 0 {
			a.summary.DistanceKm = distance
		}
		if id := strings.TrimSpace(t.TruckID); id != "" {
			a.trucks[id] = struct{}{}
		}
	}

	out := make([]RouteSummary, 0, len(groups))
	for _, a := range groups {
		s := a.summary
		s.TrucksUsed = len(a.trucks)
		s.AvgCargoTons = ratio(s.TotalCargoTons, float64(s.TripCount))
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TripCount != out[j].TripCount {
			return out[i].TripCount > out[j].TripCount
		}
		return models.RouteKey(out[i].From, out[i].To) < models.RouteKey(out[j].From, out[j].To)
	})
	return out, unrouted
}

func nonNegative(v float64) float64 {
	if !models.IsFinite(v) || v < 0 {
		return 0
	}
	return v
}
