package models

// EnergyReading is a measured average consumption of one truck over a period.
type EnergyReading struct {
	TruckID  string  `bson:"truck_id" json:"plate_number"`
	Period   string  `bson:"period" json:"period"` // "2025-08"
	KWhPerKm float64 `bson:"kwh_per_km" json:"kwh_per_km"`
}

// Realistic consumption bounds for an electric truck, in kWh/km.
const (
	MinKWhPerKm = 0.1
	MaxKWhPerKm = 10.0
)
