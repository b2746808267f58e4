package metrics

import (
	"sort"

	"github.com/ukydev/fleet-emissions/internal/models"
)

// UndatedPeriod collects trips with no date.
const UndatedPeriod = "undated"

// MonthSummary holds the fleet KPIs of one calendar month.
type MonthSummary struct {
	YearMonth       string  `json:"year_month"`
	TripsCount      int     `json:"trips_count"`
	DistanceKm      float64 `json:"distance_km"`
	CargoTons       float64 `json:"cargo_tons"`
	FreightWorkTKm  float64 `json:"tkm"`
	ActiveTrucks    int     `json:"active_trucks"`
	CustomersServed int     `json:"customers_served"`
	EnergyKWh       float64 `json:"energy_kwh"`
	CO2Kg           float64 `json:"emissions_kg_co2"`
	EfficiencyKWhKm float64 `json:"avg_efficiency_kwh_km"`
	CO2PerTKm       float64 `json:"emissions_per_tkm"`
}

// Monthly splits trips by calendar month (UTC) and summarises each month.
// Months are returned in ascending order with undated trips last.
func Monthly(trips []models.Trip, emissionFactor float64) ([]MonthSummary, error) {
	if err := ValidateEmissionFactor(emissionFactor); err != nil {
		return nil, err
	}

	groups := make(map[string][]models.Trip)
	for _, t := range trips {
		key := UndatedPeriod
		if !t.Date.IsZero() {
			key = t.Date.UTC().Format("2006-01")
		}
		groups[key] = append(groups[key], t)
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i] == UndatedPeriod {
			return false
		}
		if keys[j] == UndatedPeriod {
			return true
		}
		return keys[i] < keys[j]
	})

	out := make([]MonthSummary, 0, len(keys))
	for _, k := range keys {
		kpi, err := ComputeKPIs(groups[k], emissionFactor)
		if err != nil {
			return nil, err
		}
		out = append(out, MonthSummary{
			YearMonth:       k,
			TripsCount:      kpi.TotalTrips,
			DistanceKm:      kpi.TotalDistanceKm,
			CargoTons:       kpi.TotalCargoTons,
			FreightWorkTKm:  kpi.FreightWorkTKm,
			ActiveTrucks:    kpi.ActiveTrucks,
			CustomersServed: kpi.UniqueCustomers,
			EnergyKWh:       kpi.TotalEnergyKWh,
			CO2Kg:           kpi.TotalCO2Kg,
			EfficiencyKWhKm: kpi.EnergyEfficiency,
			CO2PerTKm:       kpi.CO2PerTKm,
		})
	}
	return out, nil
}
