package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Location represents a named pickup or delivery point.
type Location struct {
	Name      string    `bson:"_id" json:"location_name"`
	Lat       float64   `bson:"lat" json:"lat"`
	Lon       float64   `bson:"lon" json:"lon"`
	UpdatedBy string    `bson:"updated_by,omitempty" json:"updated_by,omitempty"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Coordinates formats the location as "lat,lng" with six decimals.
func (l Location) Coordinates() string {
	return FormatCoordinates(l.Lat, l.Lon)
}

// Validate checks that latitude and longitude are in range.
func (l Location) Validate() error {
	if strings.TrimSpace(l.Name) == "" {
		return fmt.Errorf("location name is required")
	}
	if !IsFinite(l.Lat) || l.Lat < -90 || l.Lat > 90 {
		return fmt.Errorf("latitude %v out of range", l.Lat)
	}
	if !IsFinite(l.Lon) || l.Lon < -180 || l.Lon > 180 {
		return fmt.Errorf("longitude %v out of range", l.Lon)
	}
	return nil
}

// ParseCoordinates parses a "lat,lng" string.
func ParseCoordinates(s string) (float64, float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("coordinates %q: expected \"lat,lng\"", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("coordinates %q: latitude: %w", s, err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("coordinates %q: longitude: %w", s, err)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return 0, 0, fmt.Errorf("coordinates %q out of range", s)
	}
	return lat, lon, nil
}

// FormatCoordinates renders a coordinate pair the way ParseCoordinates expects.
func FormatCoordinates(lat, lon float64) string {
	return fmt.Sprintf("%.6f,%.6f", lat, lon)
}
