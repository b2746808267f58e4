package main

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fleet-emissions/internal/models"
)

func TestPlates(t *testing.T) {
	assert.Equal(t, []string{"70-1000", "70-1001", "70-1002"}, plates(3))
}

func TestRandomTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	day := time.Date(2025, 8, 4, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 200; i++ {
		trip := randomTrip(rng, "70-1000", day)

		assert.Equal(t, "70-1000", trip.TruckID)
		assert.Equal(t, day, trip.Date)
		assert.NotEqual(t, trip.PickupLocation, trip.DeliveryLocation)
		require.NotNil(t, trip.DistanceKm)
		assert.Greater(t, *trip.DistanceKm, 0.0)
		require.NotNil(t, trip.CargoTons)
		assert.GreaterOrEqual(t, *trip.CargoTons, 2.0)
		assert.LessOrEqual(t, *trip.CargoTons, 20.0)

		if trip.TruckType == "Electric" {
			require.NotNil(t, trip.EnergyKWh)
			perKm := *trip.EnergyKWh / *trip.DistanceKm
			assert.InDelta(t, 1.2, perKm, 0.4)
		} else {
			assert.Nil(t, trip.EnergyKWh)
		}
	}
}

func TestGenerateTrips_Deterministic(t *testing.T) {
	start := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	a := generateTrips(rand.New(rand.NewSource(7)), plates(5), 10, start)
	b := generateTrips(rand.New(rand.NewSource(7)), plates(5), 10, start)

	require.NotEmpty(t, a)
	assert.Equal(t, a, b)
	for _, trip := range a {
		assert.False(t, trip.Date.Before(start))
		assert.True(t, trip.Date.Before(start.AddDate(0, 0, 10)))
	}
}

func TestSendInBatches(t *testing.T) {
	var batches []int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/trips", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer sim-token", r.Header.Get("Authorization"))

		var trips []models.Trip
		require.NoError(t, json.NewDecoder(r.Body).Decode(&trips))
		batches = append(batches, len(trips))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	authToken = "sim-token"
	defer func() { authToken = "" }()

	trips := generateTrips(rand.New(rand.NewSource(1)), plates(3), 20, time.Now().UTC())
	require.Greater(t, len(trips), 10)

	sent, err := sendInBatches(server.URL+"/api", trips, 10)
	require.NoError(t, err)
	assert.Equal(t, len(trips), sent)
	for _, n := range batches[:len(batches)-1] {
		assert.Equal(t, 10, n)
	}
}

func TestSendInBatches_ServerError(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls > 1 {
			http.Error(w, `{"error":"validation failed"}`, http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	trips := generateTrips(rand.New(rand.NewSource(3)), plates(4), 10, time.Now().UTC())
	require.Greater(t, len(trips), 5)
	sent, err := sendInBatches(server.URL, trips, 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Equal(t, 5, sent)
	assert.Equal(t, 2, calls)
}

func TestSendTrips_NetworkError(t *testing.T) {
	err := sendTrips("http://127.0.0.1:1", []models.Trip{{TruckID: "70-1000"}})
	assert.Error(t, err)
}

func TestEnvInt(t *testing.T) {
	t.Setenv("SIM_TEST_INT", "12")
	assert.Equal(t, 12, envInt("SIM_TEST_INT", 3))
	t.Setenv("SIM_TEST_INT", "zero")
	assert.Equal(t, 3, envInt("SIM_TEST_INT", 3))
	t.Setenv("SIM_TEST_INT", "")
	assert.Equal(t, 3, envInt("SIM_TEST_INT", 3))
}
