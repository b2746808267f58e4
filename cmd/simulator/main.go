package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-emissions/internal/distance"
	"github.com/ukydev/fleet-emissions/internal/models"
)

// City is a named pickup or delivery point.
type City struct {
	Name string
	Lat  float64
	Lon  float64
}

// Cities around the eastern seaboard logistics corridor
var cities = []City{
	{Name: "Bangkok DC", Lat: 13.7563, Lon: 100.5018},
	{Name: "Laem Chabang Port", Lat: 13.0827, Lon: 100.8833},
	{Name: "Chonburi Hub", Lat: 13.3611, Lon: 100.9847},
	{Name: "Rayong Plant", Lat: 12.6814, Lon: 101.2816},
	{Name: "Ayutthaya Warehouse", Lat: 14.3532, Lon: 100.5689},
	{Name: "Samut Prakan Yard", Lat: 13.5991, Lon: 100.5998},
	{Name: "Nakhon Ratchasima DC", Lat: 14.9799, Lon: 102.0978},
	{Name: "Saraburi Cement", Lat: 14.5289, Lon: 100.9101},
}

var customers = []string{"Siam Retail", "Eastern Logistics", "Thai Beverage", "Coastal Foods", "Metro Build"}

var truckTypes = []string{"Electric", "6W", "10W", "Trailer"}

// Road distance is longer than the great-circle distance.
const roadFactor = 1.25

var authToken string

func authorizedPost(url string, contentType string, body *bytes.Buffer) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}
	client := &http.Client{Timeout: 10 * time.Second}
	return client.Do(req)
}

func plates(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("70-%04d", 1000+i)
	}
	return out
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// randomTrip builds a plausible haul for the given truck on the given day.
// Electric trucks carry a kWh reading, the rest leave energy unrecorded.
func randomTrip(rng *rand.Rand, plate string, day time.Time) models.Trip {
	from := cities[rng.Intn(len(cities))]
	to := cities[rng.Intn(len(cities))]
	for to.Name == from.Name {
		to = cities[rng.Intn(len(cities))]
	}

	km := round(distance.GreatCircleKm(from.Lat, from.Lon, to.Lat, to.Lon)*roadFactor, 1)
	cargo := round(2+rng.Float64()*18, 2)
	truckType := truckTypes[rng.Intn(len(truckTypes))]

	trip := models.Trip{
		TruckID:          plate,
		Customer:         customers[rng.Intn(len(customers))],
		PickupLocation:   from.Name,
		DeliveryLocation: to.Name,
		TruckType:        truckType,
		CargoTons:        models.Float(cargo),
		DistanceKm:       models.Float(km),
		Date:             day,
	}
	if truckType == "Electric" {
		// 0.9 to 1.5 kWh/km, heavier loads at the top of the range
		kwhPerKm := 0.9 + 0.6*(cargo/20) + (rng.Float64()*2-1)*0.05
		trip.EnergyKWh = models.Float(round(km*kwhPerKm, 1))
	}
	return trip
}

func generateTrips(rng *rand.Rand, fleet []string, days int, start time.Time) []models.Trip {
	var trips []models.Trip
	for d := 0; d < days; d++ {
		day := start.AddDate(0, 0, d)
		for _, plate := range fleet {
			for n := rng.Intn(3); n > 0; n-- {
				trips = append(trips, randomTrip(rng, plate, day))
			}
		}
	}
	return trips
}

func sendTrips(apiURL string, trips []models.Trip) error {
	data, err := json.Marshal(trips)
	if err != nil {
		return fmt.Errorf("failed to marshal trips: %w", err)
	}
	resp, err := authorizedPost(apiURL+"/trips", "application/json", bytes.NewBuffer(data))
	if err != nil {
		return fmt.Errorf("failed to send trips: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("trip upload failed with status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	return nil
}

func sendInBatches(apiURL string, trips []models.Trip, batchSize int) (int, error) {
	if batchSize < 1 {
		batchSize = 1
	}
	sent := 0
	for len(trips) > 0 {
		n := min(batchSize, len(trips))
		if err := sendTrips(apiURL, trips[:n]); err != nil {
			return sent, err
		}
		sent += n
		trips = trips[n:]
		log.WithField("sent", sent).Debug("Sent trip batch")
	}
	return sent, nil
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 {
			return n
		}
		log.WithField(key, v).Warn("Ignoring invalid value")
	}
	return def
}

func main() {
	// Optional JWT for protected API
	authToken = os.Getenv("SIM_AUTH_TOKEN")

	apiURL := os.Getenv("API_BASE_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080/api"
	}
	fleetSize := envInt("FLEET_SIZE", 10)
	days := envInt("SIM_DAYS", 30)
	batchSize := envInt("SIM_BATCH_SIZE", 200)

	seed := time.Now().UnixNano()
	if v := os.Getenv("SIM_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			seed = n
		}
	}
	rng := rand.New(rand.NewSource(seed))

	start := time.Now().UTC().Truncate(24*time.Hour).AddDate(0, 0, -days)
	trips := generateTrips(rng, plates(fleetSize), days, start)

	log.WithFields(log.Fields{
		"fleet_size": fleetSize,
		"days":       days,
		"trips":      len(trips),
		"api_url":    apiURL,
		"seed":       seed,
	}).Info("Starting trip simulation")

	sent, err := sendInBatches(apiURL, trips, batchSize)
	if err != nil {
		log.WithError(err).WithField("sent", sent).Fatal("Trip simulation failed; ensure SIM_AUTH_TOKEN is valid and the API is reachable")
	}
	log.WithField("sent", sent).Info("Trip simulation completed")
}
