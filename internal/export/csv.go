// Package export renders trips and reports as CSV files and Excel workbooks.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/ukydev/fleet-emissions/internal/models"
	"github.com/ukydev/fleet-emissions/internal/reporting"
)

// Content types of the rendered files.
const (
	ContentTypeCSV  = "text/csv; charset=utf-8"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var tripHeader = []string{
	"trip_id", "date", "plate_number", "customer_name", "pickup_location",
	"delivery_location", "truck_type", "cargo_tons", "distance_km", "energy_kwh",
}

var metricsHeader = []string{
	"plate_number", "make", "trips", "total_distance_km", "total_energy_kwh",
	"total_cargo_tons", "tkm", "kwh_per_km", "kwh_per_tkm", "co2_kg",
	"co2_kg_per_km", "co2_kg_per_tkm", "zero_distance",
}

// WriteTripsCSV writes one row per trip. Missing figures are left empty.
func WriteTripsCSV(w io.Writer, trips []models.Trip) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(tripHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, t := range trips {
		if err := cw.Write(tripRecord(t)); err != nil {
			return fmt.Errorf("write trip %s: %w", t.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteMetricsCSV writes one row per truck followed by a fleet total row.
func WriteMetricsCSV(w io.Writer, report reporting.TruckReport) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(metricsHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range report.Trucks {
		rec := []string{
			r.TruckID, r.Make, strconv.Itoa(r.TripCount),
			num(r.TotalDistanceKm), num(r.TotalEnergyKWh), num(r.TotalCargoTons),
			num(r.FreightWorkTKm), num(r.EnergyEfficiency), num(r.KWhPerTKm),
			num(r.CO2Kg), num(r.CO2PerKm), num(r.CO2PerTKm),
			strconv.FormatBool(r.ZeroDistance),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write truck %s: %w", r.TruckID, err)
		}
	}
	f := report.Fleet
	total := []string{
		"TOTAL", "", strconv.Itoa(f.TripCount),
		num(f.TotalDistanceKm), num(f.TotalEnergyKWh), num(f.TotalCargoTons),
		num(f.FreightWorkTKm), num(f.EnergyEfficiency), num(f.KWhPerTKm),
		num(f.CO2Kg), num(f.CO2PerKm), num(f.CO2PerTKm), "",
	}
	if err := cw.Write(total); err != nil {
		return fmt.Errorf("write fleet totals: %w", err)
	}
	cw.Flush()
	return cw.Error()
}

func tripRecord(t models.Trip) []string {
	return []string{
		t.ID, date(t), t.TruckID, t.Customer, t.PickupLocation,
		t.DeliveryLocation, t.TruckType, optional(t.CargoTons),
		optional(t.DistanceKm), optional(t.EnergyKWh),
	}
}

func date(t models.Trip) string {
	if t.Date.IsZero() {
		return ""
	}
	return t.Date.Format("2006-01-02")
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func optional(p *float64) string {
	if p == nil {
		return ""
	}
	return num(*p)
}
