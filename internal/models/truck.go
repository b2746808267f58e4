package models

import "time"

// Truck is fleet master data keyed by plate number.
type Truck struct {
	Plate        string    `bson:"_id" json:"plate"`
	Make         string    `bson:"make" json:"make"`
	Model        string    `bson:"model" json:"model"`
	Type         string    `bson:"type" json:"type"` // "Electric", "Diesel"
	CapacityTons float64   `bson:"capacity_tons" json:"capacity_tons"`
	Status       string    `bson:"status" json:"status"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
}

// DefaultMake is reported for trucks with no master data.
const DefaultMake = "Electric Truck"
