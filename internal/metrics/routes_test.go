package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fleet-emissions/internal/models"
)

func TestRouteEfficiency(t *testing.T) {
	trips := []models.Trip{
		{TruckID: "T1", PickupLocation: "Depot", DeliveryLocation: "Port", CargoTons: models.Float(2)},
		{TruckID: "T1", PickupLocation: "Depot", DeliveryLocation: "Port", CargoTons: models.Float(4), DistanceKm: models.Float(30)},
		{TruckID: "T2", PickupLocation: " Depot", DeliveryLocation: "Port ", CargoTons: models.Float(1), DistanceKm: models.Float(32)},
		{TruckID: "T2", PickupLocation: "Port", DeliveryLocation: "Mall", CargoTons: models.Float(5), DistanceKm: models.Float(10)},
		{TruckID: "T3", PickupLocation: "Port"},
	}

	routes, unrouted := RouteEfficiency(trips)
	assert.Equal(t, 1, unrouted)
	require.Len(t, routes, 2)

	r := routes[0]
	assert.Equal(t, "Depot", r.From)
	assert.Equal(t, "Port", r.To)
	assert.Equal(t, 3, r.TripCount)
	assert.InDelta(t, 7.0, r.TotalCargoTons, 1e-9)
	assert.InDelta(t, 7.0/3.0, r.AvgCargoTons, 1e-9)
	assert.InDelta(t, 30.0, r.DistanceKm, 1e-9)
	assert.Equal(t, 2, r.TrucksUsed)
	assert.InDelta(t, 4*30.0+1*32.0, r.FreightWorkTKm, 1e-9)

	assert.Equal(t, "Port", routes[1].From)
	assert.Equal(t, 1, routes[1].TrucksUsed)
}

func TestRouteEfficiency_Empty(t *testing.T) {
	routes, unrouted := RouteEfficiency(nil)
	assert.Empty(t, routes)
	assert.Zero(t, unrouted)
}
