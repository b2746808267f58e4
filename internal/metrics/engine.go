// Package metrics aggregates trip records into per-truck and fleet-wide
// distance, energy, freight-work and CO2 figures.
//
// Every function in this package is a pure transformation of its inputs: no
// state is kept between calls and input slices are never modified, so callers
// may run independent aggregations concurrently.
package metrics

import (
	"errors"
	"math"
	"sort"
	"strings"

	"github.com/ukydev/fleet-emissions/internal/models"
)

// ErrInvalidEmissionFactor is returned when the emission factor is negative,
// NaN or infinite.
var ErrInvalidEmissionFactor = errors.New("emission factor must be a finite, non-negative number")

// ReasonMissingTruckID marks trips that cannot be grouped because they carry
// no truck id.
const ReasonMissingTruckID = "missing truck id"

// Numeric fields that may be zeroed during aggregation.
const (
	FieldDistance = "distance_km"
	FieldEnergy   = "energy_kwh"
	FieldCargo    = "cargo_tons"
)

// Rejection describes a trip left out of the aggregation.
type Rejection struct {
	Index  int    `json:"index"`
	TripID string `json:"trip_id,omitempty"`
	Reason string `json:"reason"`
}

// Adjustment describes a negative or non-finite numeric field that was
// counted as zero.
type Adjustment struct {
	Index   int     `json:"index"`
	TripID  string  `json:"trip_id,omitempty"`
	TruckID string  `json:"truck_id"`
	Field   string  `json:"field"`
	Value   float64 `json:"value"`
}

// TruckMetrics is the aggregated output row for one truck.
type TruckMetrics struct {
	TruckID          string  `json:"truck_id"`
	TripCount        int     `json:"trip_count"`
	TotalDistanceKm  float64 `json:"total_distance_km"`
	TotalEnergyKWh   float64 `json:"total_energy_kwh"`
	TotalCargoTons   float64 `json:"total_cargo_tons"`
	FreightWorkTKm   float64 `json:"freight_work_tkm"`
	EnergyEfficiency float64 `json:"kwh_per_km"` // 0 when TotalDistanceKm is 0
	CO2Kg            float64 `json:"co2_kg"`
	KWhPerTKm        float64 `json:"kwh_per_tkm"`
	CO2PerKm         float64 `json:"co2_kg_per_km"`
	CO2PerTKm        float64 `json:"co2_kg_per_tkm"`
	ZeroDistance     bool    `json:"zero_distance"`
}

// FleetTotals sums the per-truck metrics. Ratios are recomputed from the
// summed figures, never averaged across trucks.
type FleetTotals struct {
	TruckCount         int     `json:"truck_count"`
	TripCount          int     `json:"trip_count"`
	TotalDistanceKm    float64 `json:"total_distance_km"`
	TotalEnergyKWh     float64 `json:"total_energy_kwh"`
	TotalCargoTons     float64 `json:"total_cargo_tons"`
	FreightWorkTKm     float64 `json:"freight_work_tkm"`
	EnergyEfficiency   float64 `json:"kwh_per_km"`
	CO2Kg              float64 `json:"co2_kg"`
	KWhPerTKm          float64 `json:"kwh_per_tkm"`
	CO2PerKm           float64 `json:"co2_kg_per_km"`
	CO2PerTKm          float64 `json:"co2_kg_per_tkm"`
	ZeroDistanceTrucks int     `json:"zero_distance_trucks"`
}

// Result is the output of one aggregation run.
type Result struct {
	EmissionFactor float64                 `json:"emission_factor"`
	Trucks         map[string]TruckMetrics `json:"trucks"`
	Fleet          FleetTotals             `json:"fleet"`
	Rejected       []Rejection             `json:"rejected"`
	Adjusted       []Adjustment            `json:"adjusted"`

	order []string
}

// Rows returns the truck metrics sorted by truck id.
func (r Result) Rows() []TruckMetrics {
	rows := make([]TruckMetrics, 0, len(r.Trucks))
	for _, m := range r.Trucks {
		rows = append(rows, m)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].TruckID < rows[j].TruckID })
	return rows
}

// TruckIDs returns truck ids in order of first appearance in the input.
func (r Result) TruckIDs() []string {
	return append([]string(nil), r.order...)
}

// ZeroDistanceTrucks returns the sorted ids of trucks with no recorded distance.
func (r Result) ZeroDistanceTrucks() []string {
	var ids []string
	for id, m := range r.Trucks {
		if m.ZeroDistance {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// ValidateEmissionFactor checks that f can be applied to energy figures.
func ValidateEmissionFactor(f float64) error {
	if !models.IsFinite(f) || f < 0 {
		return ErrInvalidEmissionFactor
	}
	return nil
}

// Compute groups trips by truck id and aggregates them.
//
// Missing numeric fields count as zero. Negative or non-finite values count as
// zero and are listed in Result.Adjusted. Trips without a truck id are listed in
// Result.Rejected and do not contribute to any total. The only error is an
// invalid emission factor.
func Compute(trips []models.Trip, emissionFactor float64) (Result, error) {
	if err := ValidateEmissionFactor(emissionFactor); err != nil {
		return Result{}, err
	}

	res := Result{
		EmissionFactor: emissionFactor,
		Trucks:         make(map[string]TruckMetrics),
		Rejected:       []Rejection{},
		Adjusted:       []Adjustment{},
	}
	acc := make(map[string]*sums)

	for i, trip := range trips {
		truckID := strings.TrimSpace(trip.TruckID)
		if truckID == "" {
			res.Rejected = append(res.Rejected, Rejection{Index: i, TripID: trip.ID, Reason: ReasonMissingTruckID})
			continue
		}

		distance := res.sanitize(i, trip, truckID, FieldDistance, trip.DistanceKm)
		energy := res.sanitize(i, trip, truckID, FieldEnergy, trip.EnergyKWh)
		cargo := res.sanitize(i, trip, truckID, FieldCargo, trip.CargoTons)

		s, ok := acc[truckID]
		if !ok {
			s = &sums{}
			acc[truckID] = s
			res.order = append(res.order, truckID)
		}
		s.trips++
		s.distance += distance
		s.energy += energy
		s.cargo += cargo
		s.tkm += cargo * distance
	}

	var fleet sums
	var fleetCO2 float64
	for _, id := range res.order {
		s := acc[id]
		m := s.truck(id, emissionFactor)
		res.Trucks[id] = m

		fleet.add(s)
		fleetCO2 += m.CO2Kg
		if m.ZeroDistance {
			res.Fleet.ZeroDistanceTrucks++
		}
	}

	res.Fleet.TruckCount = len(res.order)
	res.Fleet.TripCount = fleet.trips
	res.Fleet.TotalDistanceKm = fleet.distance
	res.Fleet.TotalEnergyKWh = fleet.energy
	res.Fleet.TotalCargoTons = fleet.cargo
	res.Fleet.FreightWorkTKm = fleet.tkm
	res.Fleet.CO2Kg = fleetCO2
	res.Fleet.EnergyEfficiency = ratio(fleet.energy, fleet.distance)
	res.Fleet.KWhPerTKm = ratio(fleet.energy, fleet.tkm)
	res.Fleet.CO2PerKm = ratio(fleetCO2, fleet.distance)
	res.Fleet.CO2PerTKm = ratio(fleetCO2, fleet.tkm)

	return res, nil
}

func (r *Result) sanitize(index int, trip models.Trip, truckID, field string, p *float64) float64 {
	if p == nil {
		return 0
	}
	v := *p
	if !models.IsFinite(v) || v < 0 {
		r.Adjusted = append(r.Adjusted, Adjustment{
			Index:   index,
			TripID:  trip.ID,
			TruckID: truckID,
			Field:   field,
			Value:   v,
		})
		return 0
	}
	return v
}

type sums struct {
	trips    int
	distance float64
	energy   float64
	cargo    float64
	tkm      float64
}

func (s *sums) add(o *sums) {
	s.trips += o.trips
	s.distance += o.distance
	s.energy += o.energy
	s.cargo += o.cargo
	s.tkm += o.tkm
}

func (s *sums) truck(id string, emissionFactor float64) TruckMetrics {
	co2 := s.energy * emissionFactor
	return TruckMetrics{
		TruckID:          id,
		TripCount:        s.trips,
		TotalDistanceKm:  s.distance,
		TotalEnergyKWh:   s.energy,
		TotalCargoTons:   s.cargo,
		FreightWorkTKm:   s.tkm,
		EnergyEfficiency: ratio(s.energy, s.distance),
		CO2Kg:            co2,
		KWhPerTKm:        ratio(s.energy, s.tkm),
		CO2PerKm:         ratio(co2, s.distance),
		CO2PerTKm:        ratio(co2, s.tkm),
		ZeroDistance:     s.distance == 0,
	}
}

// ratio divides num by den, returning 0 when den is not positive.
func ratio(num, den float64) float64 {
	if den <= 0 {
		return 0
	}
	return num / den
}

// round rounds v to the given number of decimals.
func round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
