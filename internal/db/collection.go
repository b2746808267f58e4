package db

import (
	"context"
	"errors"

	"github.com/ukydev/fleet-emissions/internal/models"
)

// ErrNotFound is returned when a record with the requested key does not exist.
var ErrNotFound = errors.New("record not found")

// TripCollection defines the interface for trip data operations.
// Returned trips are copies; callers may modify them freely.
type TripCollection interface {
	InsertTrips(ctx context.Context, trips []models.Trip) ([]models.Trip, error)
	FindTrips(ctx context.Context, filter models.TripFilter) ([]models.Trip, error)
	FindTripByID(ctx context.Context, id string) (*models.Trip, error)
	UpdateTrip(ctx context.Context, id string, trip models.Trip) error
	DeleteTrip(ctx context.Context, id string) error
	DeleteAllTrips(ctx context.Context) (int64, error)
}

// EnergyCollection defines the interface for energy reading operations.
type EnergyCollection interface {
	InsertReadings(ctx context.Context, readings []models.EnergyReading) error
	// FindReadings returns all readings, or those of one truck when truckID is set.
	FindReadings(ctx context.Context, truckID string) ([]models.EnergyReading, error)
	DeleteAllReadings(ctx context.Context) (int64, error)
}

// LocationCollection defines the interface for location operations.
// Locations are keyed by name.
type LocationCollection interface {
	UpsertLocation(ctx context.Context, location models.Location) error
	FindLocations(ctx context.Context) ([]models.Location, error)
	FindLocationByName(ctx context.Context, name string) (*models.Location, error)
	DeleteLocation(ctx context.Context, name string) error
}

// RouteCollection defines the interface for route operations.
// Routes are keyed by their from/to pair.
type RouteCollection interface {
	UpsertRoute(ctx context.Context, route models.Route) error
	FindRoutes(ctx context.Context) ([]models.Route, error)
	UpdateRouteDistance(ctx context.Context, from, to string, km float64, source string) error
}

// TruckCollection defines the interface for truck master data.
type TruckCollection interface {
	UpsertTruck(ctx context.Context, truck models.Truck) error
	FindTrucks(ctx context.Context) ([]models.Truck, error)
	FindTruckByPlate(ctx context.Context, plate string) (*models.Truck, error)
}

// UserCollection defines the interface for user database operations
type UserCollection interface {
	InsertUser(ctx context.Context, user models.User) error
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, id string, user models.User) error
	DeleteUser(ctx context.Context, id string) error
	UpdateLastLogin(ctx context.Context, id string) error
}

// Store bundles the collections used by the service.
type Store struct {
	Trips     TripCollection
	Energy    EnergyCollection
	Locations LocationCollection
	Routes    RouteCollection
	Trucks    TruckCollection
	Users     UserCollection
}
