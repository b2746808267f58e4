package export

import (
	"fmt"

	"github.com/ukydev/fleet-emissions/internal/metrics"
	"github.com/ukydev/fleet-emissions/internal/models"
	"github.com/ukydev/fleet-emissions/internal/reporting"
	"github.com/xuri/excelize/v2"
)

// Sheet names.
const (
	SheetSummary         = "Summary"
	SheetEmissions       = "Emissions by Truck"
	SheetTripDetails     = "Trip Details"
	SheetCustomerSummary = "Customer Summary"
	SheetTripData        = "Trip Data"
	SheetEnergy          = "Energy Consumption"
	SheetLocations       = "Locations"
	SheetRoutes          = "Routes"
)

// workbook wraps an excelize file whose first sheet has not been named yet.
type workbook struct {
	f      *excelize.File
	header int
	sheets int
}

func newWorkbook() (*workbook, error) {
	f := excelize.NewFile()
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"D9E1F2"}, Pattern: 1},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create header style: %w", err)
	}
	return &workbook{f: f, header: style}, nil
}

// sheet adds a sheet with a bold header row followed by rows.
func (w *workbook) sheet(name string, header []string, rows [][]interface{}) error {
	if w.sheets == 0 {
		if err := w.f.SetSheetName(w.f.GetSheetName(0), name); err != nil {
			return fmt.Errorf("rename sheet %q: %w", name, err)
		}
	} else if _, err := w.f.NewSheet(name); err != nil {
		return fmt.Errorf("add sheet %q: %w", name, err)
	}
	w.sheets++

	head := make([]interface{}, len(header))
	for i, h := range header {
		head[i] = h
	}
	if err := w.f.SetSheetRow(name, "A1", &head); err != nil {
		return fmt.Errorf("write %q header: %w", name, err)
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := w.f.SetCellStyle(name, "A1", last, w.header); err != nil {
		return fmt.Errorf("style %q header: %w", name, err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := w.f.SetSheetRow(name, cell, &row); err != nil {
			return fmt.Errorf("write %q row %d: %w", name, i+2, err)
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	return w.f.SetColWidth(name, "A", lastCol, 18)
}

func (w *workbook) done(err error) (*excelize.File, error) {
	if err != nil {
		w.f.Close()
		return nil, err
	}
	return w.f, nil
}

// EmissionsWorkbook renders a truck report with the trips it covers.
func EmissionsWorkbook(report reporting.TruckReport, trips []models.Trip) (*excelize.File, error) {
	w, err := newWorkbook()
	if err != nil {
		return nil, err
	}
	f := report.Fleet
	summary := [][]interface{}{
		{"Emission factor (kg CO2/kWh)", report.EmissionFactor},
		{"Trucks", f.TruckCount},
		{"Trips", f.TripCount},
		{"Rejected trips", len(report.Rejected)},
		{"Total distance (km)", f.TotalDistanceKm},
		{"Total energy (kWh)", f.TotalEnergyKWh},
		{"Total cargo (t)", f.TotalCargoTons},
		{"Freight work (tkm)", f.FreightWorkTKm},
		{"Fleet efficiency (kWh/km)", f.EnergyEfficiency},
		{"Total CO2 (kg)", f.CO2Kg},
		{"CO2 per km (kg)", f.CO2PerKm},
		{"CO2 per tkm (kg)", f.CO2PerTKm},
	}
	if err := w.sheet(SheetSummary, []string{"Metric", "Value"}, summary); err != nil {
		return w.done(err)
	}

	rows := make([][]interface{}, 0, len(report.Trucks))
	for _, r := range report.Trucks {
		rows = append(rows, []interface{}{
			r.TruckID, r.Make, r.TripCount, r.TotalDistanceKm, r.TotalEnergyKWh,
			r.TotalCargoTons, r.FreightWorkTKm, r.EnergyEfficiency, r.KWhPerTKm,
			r.CO2Kg, r.CO2PerKm, r.CO2PerTKm,
		})
	}
	header := []string{
		"Plate Number", "Make", "Trips", "Distance (km)", "Energy (kWh)",
		"Cargo (t)", "tkm", "kWh/km", "kWh/tkm", "CO2 (kg)", "CO2/km", "CO2/tkm",
	}
	if err := w.sheet(SheetEmissions, header, rows); err != nil {
		return w.done(err)
	}
	return w.done(w.sheet(SheetTripDetails, tripColumns, tripRows(trips)))
}

// CustomerWorkbook renders one customer's summary and trips.
func CustomerWorkbook(summary metrics.CustomerSummary, trips []models.Trip) (*excelize.File, error) {
	w, err := newWorkbook()
	if err != nil {
		return nil, err
	}
	rows := [][]interface{}{
		{"Customer", summary.Customer},
		{"Trips", summary.TotalTrips},
		{"Total distance (km)", summary.TotalDistanceKm},
		{"Total cargo (t)", summary.TotalCargoTons},
		{"Freight work (tkm)", summary.FreightWorkTKm},
		{"Total energy (kWh)", summary.TotalEnergyKWh},
		{"Total CO2 (kg)", summary.TotalCO2Kg},
		{"CO2 per ton (kg)", summary.CO2PerTon},
		{"CO2 per km (kg)", summary.CO2PerKm},
	}
	if err := w.sheet(SheetCustomerSummary, []string{"Metric", "Value"}, rows); err != nil {
		return w.done(err)
	}
	return w.done(w.sheet(SheetTripDetails, tripColumns, tripRows(trips)))
}

// TripsWorkbook renders trips on a single sheet.
func TripsWorkbook(trips []models.Trip) (*excelize.File, error) {
	w, err := newWorkbook()
	if err != nil {
		return nil, err
	}
	return w.done(w.sheet(SheetTripData, tripColumns, tripRows(trips)))
}

// CompleteWorkbook dumps every stored record type into its own sheet.
func CompleteWorkbook(trips []models.Trip, readings []models.EnergyReading, locations []models.Location, routes []models.Route) (*excelize.File, error) {
	w, err := newWorkbook()
	if err != nil {
		return nil, err
	}
	if err := w.sheet(SheetTripData, tripColumns, tripRows(trips)); err != nil {
		return w.done(err)
	}

	energy := make([][]interface{}, 0, len(readings))
	for _, r := range readings {
		energy = append(energy, []interface{}{r.TruckID, r.Period, r.KWhPerKm})
	}
	if err := w.sheet(SheetEnergy, []string{"Plate Number", "Period", "kWh/km"}, energy); err != nil {
		return w.done(err)
	}

	locs := make([][]interface{}, 0, len(locations))
	for _, l := range locations {
		locs = append(locs, []interface{}{l.Name, l.Lat, l.Lon})
	}
	if err := w.sheet(SheetLocations, []string{"Location Name", "Lat", "Lng"}, locs); err != nil {
		return w.done(err)
	}

	rts := make([][]interface{}, 0, len(routes))
	for _, r := range routes {
		rts = append(rts, []interface{}{r.From, r.To, r.DistanceKm, r.Source})
	}
	return w.done(w.sheet(SheetRoutes, []string{"From Location", "To Location", "KM Distance", "Source"}, rts))
}

var tripColumns = []string{
	"Trip ID", "Date", "Plate Number", "Customer", "Pickup", "Delivery",
	"Truck Type", "Cargo (t)", "Distance (km)", "Energy (kWh)",
}

func tripRows(trips []models.Trip) [][]interface{} {
	rows := make([][]interface{}, 0, len(trips))
	for _, t := range trips {
		rows = append(rows, []interface{}{
			t.ID, date(t), t.TruckID, t.Customer, t.PickupLocation,
			t.DeliveryLocation, t.TruckType, cell(t.CargoTons),
			cell(t.DistanceKm), cell(t.EnergyKWh),
		})
	}
	return rows
}

// cell leaves missing figures blank instead of writing 0.
func cell(p *float64) interface{} {
	if p == nil {
		return nil
	}
	return *p
}
