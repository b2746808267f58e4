package reporting

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fleet-emissions/internal/db"
	"github.com/ukydev/fleet-emissions/internal/metrics"
	"github.com/ukydev/fleet-emissions/internal/models"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	ctx := context.Background()
	mem := db.NewMemoryStore()
	store := mem.Store()

	day := time.Date(2025, 8, 4, 0, 0, 0, 0, time.UTC)
	_, err := store.Trips.InsertTrips(ctx, []models.Trip{
		{TruckID: "70-1234", Customer: "Acme", PickupLocation: "Depot", DeliveryLocation: "Port", DistanceKm: models.Float(100), EnergyKWh: models.Float(120), CargoTons: models.Float(10), Date: day},
		// distance from the route table, energy from readings
		{TruckID: "70-1234", Customer: "Acme", PickupLocation: "Depot", DeliveryLocation: "Port", CargoTons: models.Float(5), Date: day.AddDate(0, 0, 1)},
		{TruckID: "70-5678", Customer: "Globex", PickupLocation: "Port", DeliveryLocation: "Mall", DistanceKm: models.Float(40), EnergyKWh: models.Float(60), CargoTons: models.Float(2), Date: day.AddDate(0, 1, 0)},
		{Customer: "Initech", DistanceKm: models.Float(10), Date: day},
	})
	require.NoError(t, err)
	require.NoError(t, store.Energy.InsertReadings(ctx, []models.EnergyReading{
		{TruckID: "70-1234", Period: "2025-08", KWhPerKm: 1.2},
	}))
	require.NoError(t, store.Routes.UpsertRoute(ctx, models.Route{From: "Depot", To: "Port", DistanceKm: 100, Source: models.SourceManual}))
	require.NoError(t, store.Trucks.UpsertTruck(ctx, models.Truck{Plate: "70-1234", Make: "BYD"}))

	settings, err := NewSettings(0.5)
	require.NoError(t, err)
	return NewService(store, settings)
}

func TestSettings(t *testing.T) {
	s, err := NewSettings(0.251)
	require.NoError(t, err)
	assert.Equal(t, 0.251, s.EmissionFactor())

	require.NoError(t, s.SetEmissionFactor(0))
	assert.Equal(t, 0.0, s.EmissionFactor())

	assert.ErrorIs(t, s.SetEmissionFactor(2.5), ErrInvalidFactor)
	assert.ErrorIs(t, s.SetEmissionFactor(-0.1), ErrInvalidFactor)
	assert.Equal(t, 0.0, s.EmissionFactor())

	_, err = NewSettings(3)
	assert.ErrorIs(t, err, ErrInvalidFactor)
}

func TestSnapshotEnrichesTrips(t *testing.T) {
	svc := newTestService(t)

	snap, err := svc.Snapshot(context.Background(), models.TripFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, snap.RoutesFilled)
	assert.Equal(t, 1, snap.EnergyFilled)

	filled := snap.Trips[1]
	assert.Equal(t, 100.0, filled.Distance())
	assert.InDelta(t, 120.0, filled.Energy(), 1e-9)
	// The Initech trip has no truck, so the fleet mean rate applies.
	assert.InDelta(t, 12.0, snap.Trips[3].Energy(), 1e-9)
}

func TestTruckReport_PlateCaseMismatch(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemoryStore().Store()
	_, err := store.Trips.InsertTrips(ctx, []models.Trip{
		{TruckID: "ab-1", Customer: "Acme", DistanceKm: models.Float(100), Date: time.Date(2025, 8, 4, 0, 0, 0, 0, time.UTC)},
	})
	require.NoError(t, err)
	require.NoError(t, store.Energy.InsertReadings(ctx, []models.EnergyReading{
		{TruckID: "AB-1", Period: "2025-08", KWhPerKm: 1.5},
	}))
	settings, err := NewSettings(0.5)
	require.NoError(t, err)

	report, err := NewService(store, settings).TruckReport(ctx, Query{})
	require.NoError(t, err)

	require.Len(t, report.Trucks, 1)
	assert.InDelta(t, 150.0, report.Trucks[0].TotalEnergyKWh, 1e-9)
	assert.Equal(t, 1.5, report.Trucks[0].MeasuredKWhPerKm)
}

func TestTruckReport(t *testing.T) {
	svc := newTestService(t)

	report, err := svc.TruckReport(context.Background(), Query{})
	require.NoError(t, err)

	assert.Equal(t, 0.5, report.EmissionFactor)
	require.Len(t, report.Trucks, 2)
	assert.Equal(t, "70-1234", report.Trucks[0].TruckID)
	assert.Equal(t, "BYD", report.Trucks[0].Make)
	assert.Equal(t, 1.2, report.Trucks[0].MeasuredKWhPerKm)
	assert.Equal(t, 2, report.Trucks[0].TripCount)
	assert.InDelta(t, 240.0, report.Trucks[0].TotalEnergyKWh, 1e-9)
	assert.Equal(t, models.DefaultMake, report.Trucks[1].Make)

	require.Len(t, report.Rejected, 1)
	assert.Equal(t, metrics.ReasonMissingTruckID, report.Rejected[0].Reason)
	assert.Equal(t, 3, report.Fleet.TripCount)
	assert.NotNil(t, report.ZeroDistanceTrucks)
}

func TestTruckReportFactorOverride(t *testing.T) {
	svc := newTestService(t)

	f := 1.0
	report, err := svc.TruckReport(context.Background(), Query{EmissionFactor: &f})
	require.NoError(t, err)
	assert.InDelta(t, 300.0, report.Fleet.CO2Kg, 1e-9)

	bad := 5.0
	_, err = svc.TruckReport(context.Background(), Query{EmissionFactor: &bad})
	assert.ErrorIs(t, err, ErrInvalidFactor)
	assert.Equal(t, 0.5, svc.Settings().EmissionFactor())
}

func TestTruckReportFilter(t *testing.T) {
	svc := newTestService(t)

	report, err := svc.TruckReport(context.Background(), Query{Filter: models.TripFilter{TruckID: "70-5678"}})
	require.NoError(t, err)
	require.Len(t, report.Trucks, 1)
	assert.Equal(t, "70-5678", report.Trucks[0].TruckID)
	assert.Empty(t, report.Rejected)
}

func TestFleetKPIs(t *testing.T) {
	svc := newTestService(t)

	k, err := svc.FleetKPIs(context.Background(), Query{})
	require.NoError(t, err)
	assert.Equal(t, 3, k.TotalTrips)
	assert.Equal(t, 2, k.ActiveTrucks)
	assert.Equal(t, 2, k.UniqueCustomers)
	assert.InDelta(t, 240.0, k.TotalDistanceKm, 1e-9)
}

func TestCustomer(t *testing.T) {
	svc := newTestService(t)

	s, trips, err := svc.Customer(context.Background(), Query{}, "acme")
	require.NoError(t, err)
	assert.Equal(t, 2, s.TotalTrips)
	assert.Len(t, trips, 2)
	assert.InDelta(t, 120.0, s.TotalCO2Kg, 1e-9)

	names, err := svc.Customers(context.Background(), Query{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Acme", "Globex", "Initech"}, names)
}

func TestMonthlyRoutesBenchmarkAudit(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	months, err := svc.Monthly(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, months, 2)
	assert.Equal(t, "2025-08", months[0].YearMonth)
	assert.Equal(t, "2025-09", months[1].YearMonth)

	routes, err := svc.RouteEfficiency(ctx, Query{})
	require.NoError(t, err)
	require.NotEmpty(t, routes.Routes)
	assert.Equal(t, "Depot", routes.Routes[0].From)
	assert.Equal(t, 2, routes.Routes[0].TripCount)
	assert.Equal(t, 1, routes.Unrouted)

	bench, err := svc.Benchmark(ctx, Query{})
	require.NoError(t, err)
	assert.Len(t, bench, 2)

	warnings, err := svc.Audit(ctx)
	require.NoError(t, err)
	assert.Contains(t, warnings, "1 trips have no plate number")
	assert.Contains(t, warnings, "missing energy data for trucks: 70-5678")
}
