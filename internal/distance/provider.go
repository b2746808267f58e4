// Package distance resolves road distances between named locations.
package distance

import (
	"context"
	"errors"
	"math"

	"github.com/ukydev/fleet-emissions/internal/models"
)

var (
	// ErrNoRoute is returned when a provider cannot find a route between
	// the two points.
	ErrNoRoute = errors.New("no route found")
	// ErrMissingAPIKey is returned when a remote provider is built without
	// credentials.
	ErrMissingAPIKey = errors.New("missing API key")
)

// Result is a resolved distance and the provider that produced it.
type Result struct {
	Km     float64 `json:"km"`
	Source string  `json:"source"` // one of the models.Source* values
}

// Provider returns the distance between two locations.
type Provider interface {
	Distance(ctx context.Context, from, to models.Location) (Result, error)
}

// roundKm rounds a distance to two decimals.
func roundKm(km float64) float64 {
	return math.Round(km*100) / 100
}
