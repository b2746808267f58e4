package models

import (
	"math"
	"strings"
	"time"
)

// Trip represents a single haul performed (or planned) by a truck.
// Numeric fields are optional; a nil value means the figure was never recorded.
type Trip struct {
	ID               string    `json:"id" bson:"_id"`
	TruckID          string    `json:"truck_id" bson:"truck_id"` // plate number
	Customer         string    `json:"customer" bson:"customer"`
	PickupLocation   string    `json:"pickup_location" bson:"pickup_location"`
	DeliveryLocation string    `json:"delivery_location" bson:"delivery_location"`
	TruckType        string    `json:"truck_type" bson:"truck_type"`
	CargoTons        *float64  `json:"cargo_tons,omitempty" bson:"cargo_tons,omitempty"`
	DistanceKm       *float64  `json:"distance_km,omitempty" bson:"distance_km,omitempty"`
	EnergyKWh        *float64  `json:"energy_kwh,omitempty" bson:"energy_kwh,omitempty"`
	Date             time.Time `json:"date" bson:"date"`
	CreatedAt        time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" bson:"updated_at"`
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

// Distance returns the zero-filled distance in kilometers.
func (t Trip) Distance() float64 { return value(t.DistanceKm) }

// Energy returns the zero-filled energy consumption in kWh.
func (t Trip) Energy() float64 { return value(t.EnergyKWh) }

// Cargo returns the zero-filled cargo weight in tonnes.
func (t Trip) Cargo() float64 { return value(t.CargoTons) }

func value(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

// Clone returns a deep copy of the trip, so callers may hand out snapshots
// without sharing the optional numeric fields.
func (t Trip) Clone() Trip {
	out := t
	out.CargoTons = clonePtr(t.CargoTons)
	out.DistanceKm = clonePtr(t.DistanceKm)
	out.EnergyKWh = clonePtr(t.EnergyKWh)
	return out
}

func clonePtr(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// RouteKey identifies the pickup/delivery pair of the trip.
func (t Trip) RouteKey() string {
	return RouteKey(t.PickupLocation, t.DeliveryLocation)
}

// IsFinite reports whether v is a usable number (not NaN or ±Inf).
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// TripFilter narrows a trip listing. Zero values match everything.
type TripFilter struct {
	From     time.Time `json:"from"`
	To       time.Time `json:"to"`
	TruckID  string    `json:"truck_id"`
	Customer string    `json:"customer"`
}

// Match reports whether the trip satisfies the filter. The To bound is
// inclusive of the whole day when it carries no time component.
func (f TripFilter) Match(t Trip) bool {
	if f.TruckID != "" && !strings.EqualFold(strings.TrimSpace(t.TruckID), strings.TrimSpace(f.TruckID)) {
		return false
	}
	if f.Customer != "" && !strings.EqualFold(strings.TrimSpace(t.Customer), strings.TrimSpace(f.Customer)) {
		return false
	}
	if !f.From.IsZero() && t.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !t.Date.Before(f.UpperBound()) {
		return false
	}
	return true
}

// UpperBound returns the exclusive upper date bound of the filter.
func (f TripFilter) UpperBound() time.Time {
	if f.To.IsZero() {
		return f.To
	}
	y, m, d := f.To.Date()
	if f.To.Equal(time.Date(y, m, d, 0, 0, 0, 0, f.To.Location())) {
		return f.To.AddDate(0, 0, 1)
	}
	return f.To.Add(time.Nanosecond)
}
