package db

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ukydev/fleet-emissions/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStore keeps all records in process memory. It is the default session
// store: nothing survives a restart. Every read returns copies, so the slices
// handed to the aggregation engine are snapshots that later writes cannot
// change.
type MemoryStore struct {
	mu        sync.RWMutex
	trips     []models.Trip
	readings  []models.EnergyReading
	locations map[string]models.Location
	routes    map[string]models.Route
	trucks    map[string]models.Truck
	users     []models.User
	now       func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		locations: make(map[string]models.Location),
		routes:    make(map[string]models.Route),
		trucks:    make(map[string]models.Truck),
		now:       time.Now,
	}
}

// Store exposes the memory store through the collection interfaces.
func (m *MemoryStore) Store() Store {
	return Store{Trips: m, Energy: m, Locations: m, Routes: m, Trucks: m, Users: m}
}

// InsertTrips stores trips in order, assigning ids where absent.
func (m *MemoryStore) InsertTrips(ctx context.Context, trips []models.Trip) ([]models.Trip, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().UTC()
	out := make([]models.Trip, 0, len(trips))
	for _, t := range trips {
		t = t.Clone()
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		t.CreatedAt = now
		t.UpdatedAt = now
		m.trips = append(m.trips, t)
		out = append(out, t.Clone())
	}
	return out, nil
}

// FindTrips returns matching trips in insertion order.
func (m *MemoryStore) FindTrips(ctx context.Context, filter models.TripFilter) ([]models.Trip, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []models.Trip{}
	for _, t := range m.trips {
		if filter.Match(t) {
			out = append(out, t.Clone())
		}
	}
	return out, nil
}

// FindTripByID finds a trip by its ID.
func (m *MemoryStore) FindTripByID(ctx context.Context, id string) (*models.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i := m.tripIndex(id)
	if i < 0 {
		return nil, fmt.Errorf("trip %s: %w", id, ErrNotFound)
	}
	t := m.trips[i].Clone()
	return &t, nil
}

// UpdateTrip replaces a trip, keeping its id and creation time.
func (m *MemoryStore) UpdateTrip(ctx context.Context, id string, trip models.Trip) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.tripIndex(id)
	if i < 0 {
		return fmt.Errorf("trip %s: %w", id, ErrNotFound)
	}
	trip = trip.Clone()
	trip.ID = id
	trip.CreatedAt = m.trips[i].CreatedAt
	trip.UpdatedAt = m.now().UTC()
	m.trips[i] = trip
	return nil
}

// DeleteTrip deletes a trip by its ID.
func (m *MemoryStore) DeleteTrip(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.tripIndex(id)
	if i < 0 {
		return fmt.Errorf("trip %s: %w", id, ErrNotFound)
	}
	m.trips = append(m.trips[:i:i], m.trips[i+1:]...)
	return nil
}

// DeleteAllTrips removes every trip and reports how many were removed.
func (m *MemoryStore) DeleteAllTrips(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := int64(len(m.trips))
	m.trips = nil
	return n, nil
}

func (m *MemoryStore) tripIndex(id string) int {
	for i, t := range m.trips {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// InsertReadings appends energy readings.
func (m *MemoryStore) InsertReadings(ctx context.Context, readings []models.EnergyReading) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readings = append(m.readings, readings...)
	return nil
}

// FindReadings returns readings in insertion order.
func (m *MemoryStore) FindReadings(ctx context.Context, truckID string) ([]models.EnergyReading, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	truckID = strings.TrimSpace(truckID)
	out := []models.EnergyReading{}
	for _, r := range m.readings {
		if truckID == "" || strings.EqualFold(r.TruckID, truckID) {
			out = append(out, r)
		}
	}
	return out, nil
}

// DeleteAllReadings removes every energy reading.
func (m *MemoryStore) DeleteAllReadings(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := int64(len(m.readings))
	m.readings = nil
	return n, nil
}

// UpsertLocation inserts or replaces a location by name.
func (m *MemoryStore) UpsertLocation(ctx context.Context, location models.Location) error {
	if err := location.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	location.Name = strings.TrimSpace(location.Name)
	location.UpdatedAt = m.now().UTC()
	m.locations[location.Name] = location
	return nil
}

// FindLocations returns all locations sorted by name.
func (m *MemoryStore) FindLocations(ctx context.Context) ([]models.Location, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Location, 0, len(m.locations))
	for _, l := range m.locations {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// FindLocationByName finds a location by its name.
func (m *MemoryStore) FindLocationByName(ctx context.Context, name string) (*models.Location, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	l, ok := m.locations[strings.TrimSpace(name)]
	if !ok {
		return nil, fmt.Errorf("location %q: %w", name, ErrNotFound)
	}
	return &l, nil
}

// DeleteLocation deletes a location by name.
func (m *MemoryStore) DeleteLocation(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	name = strings.TrimSpace(name)
	if _, ok := m.locations[name]; !ok {
		return fmt.Errorf("location %q: %w", name, ErrNotFound)
	}
	delete(m.locations, name)
	return nil
}

// UpsertRoute inserts or replaces a route by its from/to pair.
func (m *MemoryStore) UpsertRoute(ctx context.Context, route models.Route) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	route.From = strings.TrimSpace(route.From)
	route.To = strings.TrimSpace(route.To)
	if route.Source == "" {
		route.Source = models.SourceManual
	}
	route.UpdatedAt = m.now().UTC()
	m.routes[route.Key()] = route
	return nil
}

// FindRoutes returns all routes sorted by key.
func (m *MemoryStore) FindRoutes(ctx context.Context) ([]models.Route, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Route, 0, len(m.routes))
	for _, r := range m.routes {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out, nil
}

// UpdateRouteDistance sets the distance and source of an existing route.
func (m *MemoryStore) UpdateRouteDistance(ctx context.Context, from, to string, km float64, source string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := models.RouteKey(from, to)
	r, ok := m.routes[key]
	if !ok {
		return fmt.Errorf("route %s: %w", key, ErrNotFound)
	}
	r.DistanceKm = km
	r.Source = source
	r.UpdatedAt = m.now().UTC()
	m.routes[key] = r
	return nil
}

// UpsertTruck inserts or replaces a truck by plate.
func (m *MemoryStore) UpsertTruck(ctx context.Context, truck models.Truck) error {
	truck.Plate = strings.TrimSpace(truck.Plate)
	if truck.Plate == "" {
		return fmt.Errorf("truck plate is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if prev, ok := m.trucks[truck.Plate]; ok {
		truck.CreatedAt = prev.CreatedAt
	} else {
		truck.CreatedAt = m.now().UTC()
	}
	m.trucks[truck.Plate] = truck
	return nil
}

// FindTrucks returns all trucks sorted by plate.
func (m *MemoryStore) FindTrucks(ctx context.Context) ([]models.Truck, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Truck, 0, len(m.trucks))
	for _, t := range m.trucks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Plate < out[j].Plate })
	return out, nil
}

// FindTruckByPlate finds a truck by its plate number.
func (m *MemoryStore) FindTruckByPlate(ctx context.Context, plate string) (*models.Truck, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.trucks[strings.TrimSpace(plate)]
	if !ok {
		return nil, fmt.Errorf("truck %q: %w", plate, ErrNotFound)
	}
	return &t, nil
}

// InsertUser inserts a new user.
func (m *MemoryStore) InsertUser(ctx context.Context, user models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	now := m.now()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.IsActive = true
	m.users = append(m.users, user)
	return nil
}

// FindUserByID finds a user by their ID
func (m *MemoryStore) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	return m.findUser(func(u models.User) bool { return u.ID.Hex() == id })
}

// FindUserByUsername finds a user by their username
func (m *MemoryStore) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return m.findUser(func(u models.User) bool { return u.Username == username })
}

// FindUserByEmail finds a user by their email
func (m *MemoryStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.findUser(func(u models.User) bool { return strings.EqualFold(u.Email, email) })
}

func (m *MemoryStore) findUser(match func(models.User) bool) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if match(u) {
			u := u
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user: %w", ErrNotFound)
}

// FindUsers returns all users.
func (m *MemoryStore) FindUsers(ctx context.Context) ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.User{}, m.users...), nil
}

// UpdateUser replaces a user.
func (m *MemoryStore) UpdateUser(ctx context.Context, id string, user models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, u := range m.users {
		if u.ID.Hex() == id {
			user.ID = u.ID
			user.UpdatedAt = m.now()
			m.users[i] = user
			return nil
		}
	}
	return fmt.Errorf("user %s: %w", id, ErrNotFound)
}

// DeleteUser deletes a user.
func (m *MemoryStore) DeleteUser(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, u := range m.users {
		if u.ID.Hex() == id {
			m.users = append(m.users[:i:i], m.users[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("user %s: %w", id, ErrNotFound)
}

// UpdateLastLogin updates the last login time for a user
func (m *MemoryStore) UpdateLastLogin(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, u := range m.users {
		if u.ID.Hex() == id {
			now := m.now()
			m.users[i].LastLogin = &now
			m.users[i].UpdatedAt = now
			return nil
		}
	}
	return fmt.Errorf("user %s: %w", id, ErrNotFound)
}
