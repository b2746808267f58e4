package models

import (
	"strings"
	"time"
)

// Route sources.
const (
	SourceManual     = "Manual"
	SourceGoogleMaps = "Google Maps"
	SourceHaversine  = "Haversine"
	SourceOther      = "Other"
)

// Route is the known road distance between two named locations.
type Route struct {
	From       string    `bson:"from_location" json:"from_location_name"`
	To         string    `bson:"to_location" json:"to_location_name"`
	DistanceKm float64   `bson:"km_distance" json:"km_distance"`
	Source     string    `bson:"source" json:"source"`
	UpdatedAt  time.Time `bson:"updated_at" json:"updated_at"`
}

// Key returns the lookup key of the route.
func (r Route) Key() string {
	return RouteKey(r.From, r.To)
}

// RouteKey builds the lookup key for a from/to pair.
func RouteKey(from, to string) string {
	return strings.TrimSpace(from) + " → " + strings.TrimSpace(to)
}

// IsValidSource checks if a route source is known.
func IsValidSource(source string) bool {
	switch source {
	case SourceManual, SourceGoogleMaps, SourceHaversine, SourceOther:
		return true
	default:
		return false
	}
}
