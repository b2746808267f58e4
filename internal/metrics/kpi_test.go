package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fleet-emissions/internal/models"
)

func sampleTrips() []models.Trip {
	day := func(m time.Month, d int) time.Time { return time.Date(2025, m, d, 9, 0, 0, 0, time.UTC) }
	return []models.Trip{
		{TruckID: "T1", Customer: "Acme", PickupLocation: "Depot", DeliveryLocation: "Port", DistanceKm: models.Float(100), EnergyKWh: models.Float(50), CargoTons: models.Float(2), Date: day(7, 3)},
		{TruckID: "T1", Customer: "acme ", PickupLocation: "Depot", DeliveryLocation: "Port", DistanceKm: models.Float(50), EnergyKWh: models.Float(20), CargoTons: models.Float(1), Date: day(8, 1)},
		{TruckID: "T2", Customer: "Globex", PickupLocation: "Port", DeliveryLocation: "Mall", DistanceKm: models.Float(40), EnergyKWh: models.Float(30), CargoTons: models.Float(4), Date: day(8, 15)},
		{Customer: "Initech", PickupLocation: "Depot", DistanceKm: models.Float(10)},
	}
}

func TestComputeKPIs(t *testing.T) {
	k, err := ComputeKPIs(sampleTrips(), 0.5)
	require.NoError(t, err)

	assert.Equal(t, 3, k.TotalTrips)
	assert.Equal(t, 1, k.RejectedTrips)
	assert.Equal(t, 2, k.ActiveTrucks)
	assert.Equal(t, 2, k.UniqueCustomers)
	assert.InDelta(t, 190.0, k.TotalDistanceKm, 1e-9)
	assert.InDelta(t, 7.0, k.TotalCargoTons, 1e-9)
	assert.InDelta(t, 410.0, k.FreightWorkTKm, 1e-9)
	assert.InDelta(t, 100.0, k.TotalEnergyKWh, 1e-9)
	assert.InDelta(t, 50.0, k.TotalCO2Kg, 1e-9)
	assert.InDelta(t, 7.0/3.0, k.AvgLoadPerTrip, 1e-9)
	assert.InDelta(t, 190.0/3.0, k.AvgDistancePerTrip, 1e-9)
	assert.InDelta(t, 205.0, k.TKmPerTruck, 1e-9)
	assert.InDelta(t, 100.0/190.0, k.EnergyEfficiency, 1e-9)
	assert.InDelta(t, 50.0/410.0, k.CO2PerTKm, 1e-9)
	assert.InDelta(t, 50.0/7.0, k.CO2PerTon, 1e-9)
}

func TestComputeKPIs_Empty(t *testing.T) {
	k, err := ComputeKPIs(nil, 0.5)
	require.NoError(t, err)
	assert.Equal(t, FleetKPIs{}, k)
}

func TestCarbonIntensity(t *testing.T) {
	v, err := CarbonIntensity(sampleTrips(), 0.5)
	require.NoError(t, err)
	assert.InDelta(t, 50.0/410.0, v, 1e-9)

	v, err = CarbonIntensity([]models.Trip{{TruckID: "A", EnergyKWh: models.Float(10)}}, 0.5)
	require.NoError(t, err)
	assert.Zero(t, v)

	_, err = CarbonIntensity(nil, -1)
	assert.ErrorIs(t, err, ErrInvalidEmissionFactor)
}

func TestCustomer(t *testing.T) {
	s, err := Customer(sampleTrips(), 0.5, "ACME")
	require.NoError(t, err)

	assert.Equal(t, "ACME", s.Customer)
	assert.Equal(t, 2, s.TotalTrips)
	assert.InDelta(t, 150.0, s.TotalDistanceKm, 1e-9)
	assert.InDelta(t, 250.0, s.FreightWorkTKm, 1e-9)
	assert.InDelta(t, 35.0, s.TotalCO2Kg, 1e-9)
	assert.InDelta(t, 35.0/3.0, s.CO2PerTon, 1e-9)
	assert.InDelta(t, 35.0/150.0, s.CO2PerKm, 1e-9)

	s, err = Customer(sampleTrips(), 0.5, "Initech")
	require.NoError(t, err)
	assert.Zero(t, s.TotalTrips)
	assert.Equal(t, 1, s.RejectedTrips)

	s, err = Customer(sampleTrips(), 0.5, "Nobody")
	require.NoError(t, err)
	assert.Equal(t, CustomerSummary{Customer: "Nobody"}, s)
}

func TestCustomers(t *testing.T) {
	assert.Equal(t, []string{"Acme", "Globex", "Initech"}, Customers(sampleTrips()))
	assert.Empty(t, Customers(nil))
}

func TestMonthly(t *testing.T) {
	months, err := Monthly(sampleTrips(), 0.5)
	require.NoError(t, err)
	require.Len(t, months, 3)

	assert.Equal(t, "2025-07", months[0].YearMonth)
	assert.Equal(t, 1, months[0].TripsCount)
	assert.InDelta(t, 25.0, months[0].CO2Kg, 1e-9)

	assert.Equal(t, "2025-08", months[1].YearMonth)
	assert.Equal(t, 2, months[1].TripsCount)
	assert.Equal(t, 2, months[1].ActiveTrucks)
	assert.Equal(t, 2, months[1].CustomersServed)
	assert.InDelta(t, 90.0, months[1].DistanceKm, 1e-9)
	assert.InDelta(t, 50.0/90.0, months[1].EfficiencyKWhKm, 1e-9)

	assert.Equal(t, UndatedPeriod, months[2].YearMonth)
	assert.Zero(t, months[2].TripsCount)
}

func TestMonthly_InvalidFactor(t *testing.T) {
	_, err := Monthly(sampleTrips(), -2)
	assert.ErrorIs(t, err, ErrInvalidEmissionFactor)
}
