package metrics

import (
	"strings"

	"github.com/ukydev/fleet-emissions/internal/models"
)

// FleetKPIs are the headline dashboard figures for a set of trips.
type FleetKPIs struct {
	TotalTrips         int     `json:"total_trips"`
	RejectedTrips      int     `json:"rejected_trips"`
	TotalDistanceKm    float64 `json:"total_distance_km"`
	TotalCargoTons     float64 `json:"total_cargo_tons"`
	FreightWorkTKm     float64 `json:"total_tkm"`
	ActiveTrucks       int     `json:"active_trucks"`
	UniqueCustomers    int     `json:"unique_customers"`
	AvgLoadPerTrip     float64 `json:"avg_load_per_trip"`
	AvgDistancePerTrip float64 `json:"avg_distance_per_trip"`
	TKmPerTruck        float64 `json:"utilization_tkm_per_truck"`
	TotalEnergyKWh     float64 `json:"total_energy_kwh"`
	TotalCO2Kg         float64 `json:"total_emissions_kg"`
	EnergyEfficiency   float64 `json:"fleet_efficiency_kwh_km"`
	EnergyPerTKm       float64 `json:"energy_per_tkm"`
	CO2PerTKm          float64 `json:"emissions_per_tkm"`
	CO2PerTon          float64 `json:"emissions_per_ton"`
}

// KPIs derives fleet KPIs from an aggregation result. Only grouped trips are
// counted; customers are counted over the same trips.
func KPIs(res Result, trips []models.Trip) FleetKPIs {
	f := res.Fleet
	k := FleetKPIs{
		TotalTrips:       f.TripCount,
		RejectedTrips:    len(res.Rejected),
		TotalDistanceKm:  f.TotalDistanceKm,
		TotalCargoTons:   f.TotalCargoTons,
		FreightWorkTKm:   f.FreightWorkTKm,
		ActiveTrucks:     f.TruckCount,
		UniqueCustomers:  countCustomers(trips),
		TotalEnergyKWh:   f.TotalEnergyKWh,
		TotalCO2Kg:       f.CO2Kg,
		EnergyEfficiency: f.EnergyEfficiency,
		EnergyPerTKm:     f.KWhPerTKm,
		CO2PerTKm:        f.CO2PerTKm,
		CO2PerTon:        ratio(f.CO2Kg, f.TotalCargoTons),
	}
	k.AvgLoadPerTrip = ratio(f.TotalCargoTons, float64(f.TripCount))
	k.AvgDistancePerTrip = ratio(f.TotalDistanceKm, float64(f.TripCount))
	k.TKmPerTruck = ratio(f.FreightWorkTKm, float64(f.TruckCount))
	return k
}

// ComputeKPIs aggregates trips and returns the fleet KPIs.
func ComputeKPIs(trips []models.Trip, emissionFactor float64) (FleetKPIs, error) {
	res, err := Compute(trips, emissionFactor)
	if err != nil {
		return FleetKPIs{}, err
	}
	return KPIs(res, trips), nil
}

// CarbonIntensity returns fleet kg CO2 per ton-kilometer.
func CarbonIntensity(trips []models.Trip, emissionFactor float64) (float64, error) {
	res, err := Compute(trips, emissionFactor)
	if err != nil {
		return 0, err
	}
	return res.Fleet.CO2PerTKm, nil
}

func countCustomers(trips []models.Trip) int {
	seen := make(map[string]struct{})
	for _, t := range trips {
		if strings.TrimSpace(t.TruckID) == "" {
			continue
		}
		c := strings.ToLower(strings.TrimSpace(t.Customer))
		if c == "" {
			continue
		}
		seen[c] = struct{}{}
	}
	return len(seen)
}
