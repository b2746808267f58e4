package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fleet-emissions/internal/metrics"
	"github.com/ukydev/fleet-emissions/internal/models"
	"github.com/ukydev/fleet-emissions/internal/reporting"
	"github.com/xuri/excelize/v2"
)

func testTrips() []models.Trip {
	return []models.Trip{
		{ID: "a", TruckID: "70-1234", Customer: "Acme", PickupLocation: "Depot", DeliveryLocation: "Port", TruckType: "Electric", CargoTons: models.Float(10), DistanceKm: models.Float(100.5), EnergyKWh: models.Float(120), Date: time.Date(2025, 8, 4, 0, 0, 0, 0, time.UTC)},
		{ID: "b", TruckID: "70-5678", Customer: "Globex"},
	}
}

func testReport() reporting.TruckReport {
	return reporting.TruckReport{
		EmissionFactor: 0.5,
		Trucks: []reporting.TruckRow{
			{TruckMetrics: metrics.TruckMetrics{TruckID: "70-1234", TripCount: 1, TotalDistanceKm: 100.5, TotalEnergyKWh: 120, CO2Kg: 60}, Make: "BYD"},
		},
		Fleet: metrics.FleetTotals{TruckCount: 1, TripCount: 1, TotalDistanceKm: 100.5, TotalEnergyKWh: 120, CO2Kg: 60},
	}
}

func readCSV(t *testing.T, b []byte) [][]string {
	t.Helper()
	records, err := csv.NewReader(bytes.NewReader(b)).ReadAll()
	require.NoError(t, err)
	return records
}

func TestWriteTripsCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTripsCSV(&buf, testTrips()))

	records := readCSV(t, buf.Bytes())
	require.Len(t, records, 3)
	assert.Equal(t, tripHeader, records[0])
	assert.Equal(t, []string{"a", "2025-08-04", "70-1234", "Acme", "Depot", "Port", "Electric", "10", "100.5", "120"}, records[1])
	assert.Equal(t, []string{"b", "", "70-5678", "Globex", "", "", "", "", "", ""}, records[2])
}

func TestWriteMetricsCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMetricsCSV(&buf, testReport()))

	records := readCSV(t, buf.Bytes())
	require.Len(t, records, 3)
	assert.Equal(t, "70-1234", records[1][0])
	assert.Equal(t, "BYD", records[1][1])
	assert.Equal(t, "60", records[1][9])
	assert.Equal(t, "TOTAL", records[2][0])
}

func reopen(t *testing.T, f *excelize.File) *excelize.File {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	require.NoError(t, f.Close())
	out, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	t.Cleanup(func() { out.Close() })
	return out
}

func TestEmissionsWorkbook(t *testing.T) {
	f, err := EmissionsWorkbook(testReport(), testTrips())
	require.NoError(t, err)
	wb := reopen(t, f)

	assert.Equal(t, []string{SheetSummary, SheetEmissions, SheetTripDetails}, wb.GetSheetList())

	rows, err := wb.GetRows(SheetEmissions)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Plate Number", rows[0][0])
	assert.Equal(t, "70-1234", rows[1][0])
	assert.Equal(t, "BYD", rows[1][1])

	trips, err := wb.GetRows(SheetTripDetails)
	require.NoError(t, err)
	assert.Len(t, trips, 3)
}

func TestCustomerWorkbook(t *testing.T) {
	f, err := CustomerWorkbook(metrics.CustomerSummary{Customer: "Acme", TotalTrips: 1}, testTrips()[:1])
	require.NoError(t, err)
	wb := reopen(t, f)

	assert.Equal(t, []string{SheetCustomerSummary, SheetTripDetails}, wb.GetSheetList())
	v, err := wb.GetCellValue(SheetCustomerSummary, "B2")
	require.NoError(t, err)
	assert.Equal(t, "Acme", v)
}

func TestCompleteWorkbook(t *testing.T) {
	f, err := CompleteWorkbook(
		testTrips(),
		[]models.EnergyReading{{TruckID: "70-1234", Period: "2025-08", KWhPerKm: 1.2}},
		[]models.Location{{Name: "Depot", Lat: 13.7, Lon: 100.5}},
		[]models.Route{{From: "Depot", To: "Port", DistanceKm: 82, Source: models.SourceManual}},
	)
	require.NoError(t, err)
	wb := reopen(t, f)

	assert.Equal(t, []string{SheetTripData, SheetEnergy, SheetLocations, SheetRoutes}, wb.GetSheetList())
	rows, err := wb.GetRows(SheetRoutes)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Depot", "Port", "82", "Manual"}, rows[1])
}

func TestTripsWorkbook(t *testing.T) {
	f, err := TripsWorkbook(testTrips())
	require.NoError(t, err)
	wb := reopen(t, f)

	assert.Equal(t, []string{SheetTripData}, wb.GetSheetList())
	rows, err := wb.GetRows(SheetTripData)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "2025-08-04", rows[1][1])
}
