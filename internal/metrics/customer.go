package metrics

import (
	"sort"
	"strings"

	"github.com/ukydev/fleet-emissions/internal/models"
)

// CustomerSummary reports the emissions attributable to one customer.
type CustomerSummary struct {
	Customer        string  `json:"customer_name"`
	TotalTrips      int     `json:"total_trips"`
	RejectedTrips   int     `json:"rejected_trips"`
	TotalDistanceKm float64 `json:"total_distance_km"`
	TotalCargoTons  float64 `json:"total_cargo_tons"`
	FreightWorkTKm  float64 `json:"total_tkm"`
	TotalEnergyKWh  float64 `json:"total_energy_kwh"`
	TotalCO2Kg      float64 `json:"total_emissions_kg"`
	CO2PerTon       float64 `json:"emissions_per_ton"`
	CO2PerKm        float64 `json:"emissions_per_km"`
}

// Customer summarises the trips of one customer, matched case-insensitively.
// An unknown customer yields a zero summary.
func Customer(trips []models.Trip, emissionFactor float64, customer string) (CustomerSummary, error) {
	name := strings.TrimSpace(customer)
	var subset []models.Trip
	for _, t := range trips {
		if strings.EqualFold(strings.TrimSpace(t.Customer), name) {
			subset = append(subset, t)
		}
	}

	res, err := Compute(subset, emissionFactor)
	if err != nil {
		return CustomerSummary{}, err
	}
	f := res.Fleet
	return CustomerSummary{
		Customer:        name,
		TotalTrips:      f.TripCount,
		RejectedTrips:   len(res.Rejected),
		TotalDistanceKm: f.TotalDistanceKm,
		TotalCargoTons:  f.TotalCargoTons,
		FreightWorkTKm:  f.FreightWorkTKm,
		TotalEnergyKWh:  f.TotalEnergyKWh,
		TotalCO2Kg:      f.CO2Kg,
		CO2PerTon:       ratio(f.CO2Kg, f.TotalCargoTons),
		CO2PerKm:        f.CO2PerKm,
	}, nil
}

// Customers lists distinct customer names in sorted order.
func Customers(trips []models.Trip) []string {
	seen := make(map[string]string)
	for _, t := range trips {
		c := strings.TrimSpace(t.Customer)
		if c == "" {
			continue
		}
		key := strings.ToLower(c)
		if _, ok := seen[key]; !ok {
			seen[key] = c
		}
	}
	out := make([]string, 0, len(seen))
	for _, c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
