package db

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ukydev/fleet-emissions/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names used by NewMongoStore.
const (
	TripsCollection     = "trips"
	ReadingsCollection  = "energy_readings"
	LocationsCollection = "locations"
	RoutesCollection    = "routes"
	TrucksCollection    = "trucks"
	UsersCollection     = "users"
)

var errNilCollection = errors.New("mongo collection is nil")

// ConnectMongo connects to MongoDB and verifies the connection with a ping.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect error: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo.Ping error: %w", err)
	}
	return client, nil
}

// NewMongoStore binds every collection to the given database.
func NewMongoStore(database *mongo.Database) Store {
	return Store{
		Trips:     &MongoTripCollection{Collection: database.Collection(TripsCollection)},
		Energy:    &MongoEnergyCollection{Collection: database.Collection(ReadingsCollection)},
		Locations: &MongoLocationCollection{Collection: database.Collection(LocationsCollection)},
		Routes:    &MongoRouteCollection{Collection: database.Collection(RoutesCollection)},
		Trucks:    &MongoTruckCollection{Collection: database.Collection(TrucksCollection)},
		Users:     &MongoUserCollection{Collection: database.Collection(UsersCollection)},
	}
}

// EnsureIndexes creates the unique indexes the store relies on.
func EnsureIndexes(ctx context.Context, database *mongo.Database) error {
	_, err := database.Collection(RoutesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "from_location", Value: 1}, {Key: "to_location", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("routes index: %w", err)
	}
	_, err = database.Collection(UsersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("users index: %w", err)
	}
	_, err = database.Collection(TripsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "truck_id", Value: 1}, {Key: "date", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("trips index: %w", err)
	}
	return nil
}

func notFound(err error, what string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return err
}

// equalFold matches a string field case-insensitively.
func equalFold(v string) primitive.Regex {
	return primitive.Regex{Pattern: "^" + regexp.QuoteMeta(strings.TrimSpace(v)) + "$", Options: "i"}
}

// TripFilterBSON translates a trip filter into a Mongo query.
func TripFilterBSON(f models.TripFilter) bson.M {
	q := bson.M{}
	if f.TruckID != "" {
		q["truck_id"] = equalFold(f.TruckID)
	}
	if f.Customer != "" {
		q["customer"] = equalFold(f.Customer)
	}
	date := bson.M{}
	if !f.From.IsZero() {
		date["$gte"] = f.From
	}
	if !f.To.IsZero() {
		date["$lt"] = f.UpperBound()
	}
	if len(date) > 0 {
		q["date"] = date
	}
	return q
}

// MongoTripCollection implements TripCollection for MongoDB.
type MongoTripCollection struct {
	Collection *mongo.Collection
}

// InsertTrips inserts trip records, assigning ids where absent.
func (c *MongoTripCollection) InsertTrips(ctx context.Context, trips []models.Trip) ([]models.Trip, error) {
	if c.Collection == nil {
		return nil, errNilCollection
	}
	if len(trips) == 0 {
		return []models.Trip{}, nil
	}
	now := time.Now().UTC()
	out := make([]models.Trip, 0, len(trips))
	docs := make([]interface{}, 0, len(trips))
	for _, t := range trips {
		t = t.Clone()
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		t.CreatedAt = now
		t.UpdatedAt = now
		out = append(out, t)
		docs = append(docs, t)
	}
	if _, err := c.Collection.InsertMany(ctx, docs); err != nil {
		return nil, err
	}
	return out, nil
}

// FindTrips queries trips sorted by date.
func (c *MongoTripCollection) FindTrips(ctx context.Context, filter models.TripFilter) ([]models.Trip, error) {
	if c.Collection == nil {
		return nil, errNilCollection
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "created_at", Value: 1}})
	cursor, err := c.Collection.Find(ctx, TripFilterBSON(filter), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	trips := []models.Trip{}
	if err := cursor.All(ctx, &trips); err != nil {
		return nil, err
	}
	return trips, nil
}

// FindTripByID finds a trip by its ID.
func (c *MongoTripCollection) FindTripByID(ctx context.Context, id string) (*models.Trip, error) {
	if c.Collection == nil {
		return nil, errNilCollection
	}
	var trip models.Trip
	if err := c.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&trip); err != nil {
		return nil, notFound(err, "trip "+id)
	}
	return &trip, nil
}

// UpdateTrip replaces a trip by its ID, keeping its creation time.
func (c *MongoTripCollection) UpdateTrip(ctx context.Context, id string, trip models.Trip) error {
	existing, err := c.FindTripByID(ctx, id)
	if err != nil {
		return err
	}
	trip.ID = id
	trip.CreatedAt = existing.CreatedAt
	trip.UpdatedAt = time.Now().UTC()
	result, err := c.Collection.ReplaceOne(ctx, bson.M{"_id": id}, trip)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("trip %s: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteTrip deletes a trip by its ID.
func (c *MongoTripCollection) DeleteTrip(ctx context.Context, id string) error {
	if c.Collection == nil {
		return errNilCollection
	}
	result, err := c.Collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("trip %s: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteAllTrips deletes all trip records from the collection.
func (c *MongoTripCollection) DeleteAllTrips(ctx context.Context) (int64, error) {
	if c.Collection == nil {
		return 0, errNilCollection
	}
	result, err := c.Collection.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

// MongoEnergyCollection implements EnergyCollection for MongoDB.
type MongoEnergyCollection struct {
	Collection *mongo.Collection
}

// InsertReadings inserts energy readings.
func (c *MongoEnergyCollection) InsertReadings(ctx context.Context, readings []models.EnergyReading) error {
	if c.Collection == nil {
		return errNilCollection
	}
	if len(readings) == 0 {
		return nil
	}
	docs := make([]interface{}, len(readings))
	for i, r := range readings {
		docs[i] = r
	}
	_, err := c.Collection.InsertMany(ctx, docs)
	return err
}

// FindReadings queries readings, optionally for one truck.
func (c *MongoEnergyCollection) FindReadings(ctx context.Context, truckID string) ([]models.EnergyReading, error) {
	if c.Collection == nil {
		return nil, errNilCollection
	}
	filter := bson.M{}
	if strings.TrimSpace(truckID) != "" {
		filter["truck_id"] = equalFold(truckID)
	}
	cursor, err := c.Collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	readings := []models.EnergyReading{}
	if err := cursor.All(ctx, &readings); err != nil {
		return nil, err
	}
	return readings, nil
}

// DeleteAllReadings deletes every energy reading.
func (c *MongoEnergyCollection) DeleteAllReadings(ctx context.Context) (int64, error) {
	if c.Collection == nil {
		return 0, errNilCollection
	}
	result, err := c.Collection.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

// MongoLocationCollection implements LocationCollection for MongoDB.
type MongoLocationCollection struct {
	Collection *mongo.Collection
}

// UpsertLocation inserts or replaces a location by name.
func (c *MongoLocationCollection) UpsertLocation(ctx context.Context, location models.Location) error {
	if c.Collection == nil {
		return errNilCollection
	}
	if err := location.Validate(); err != nil {
		return err
	}
	location.Name = strings.TrimSpace(location.Name)
	location.UpdatedAt = time.Now().UTC()
	_, err := c.Collection.ReplaceOne(ctx, bson.M{"_id": location.Name}, location, options.Replace().SetUpsert(true))
	return err
}

// FindLocations returns all locations sorted by name.
func (c *MongoLocationCollection) FindLocations(ctx context.Context) ([]models.Location, error) {
	if c.Collection == nil {
		return nil, errNilCollection
	}
	cursor, err := c.Collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	locations := []models.Location{}
	if err := cursor.All(ctx, &locations); err != nil {
		return nil, err
	}
	return locations, nil
}

// FindLocationByName finds a location by its name.
func (c *MongoLocationCollection) FindLocationByName(ctx context.Context, name string) (*models.Location, error) {
	if c.Collection == nil {
		return nil, errNilCollection
	}
	var location models.Location
	if err := c.Collection.FindOne(ctx, bson.M{"_id": strings.TrimSpace(name)}).Decode(&location); err != nil {
		return nil, notFound(err, "location "+name)
	}
	return &location, nil
}

// DeleteLocation deletes a location by name.
func (c *MongoLocationCollection) DeleteLocation(ctx context.Context, name string) error {
	if c.Collection == nil {
		return errNilCollection
	}
	result, err := c.Collection.DeleteOne(ctx, bson.M{"_id": strings.TrimSpace(name)})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("location %q: %w", name, ErrNotFound)
	}
	return nil
}

// MongoRouteCollection implements RouteCollection for MongoDB.
type MongoRouteCollection struct {
	Collection *mongo.Collection
}

func routeFilter(from, to string) bson.M {
	return bson.M{"from_location": strings.TrimSpace(from), "to_location": strings.TrimSpace(to)}
}

// UpsertRoute inserts or replaces a route by its from/to pair.
func (c *MongoRouteCollection) UpsertRoute(ctx context.Context, route models.Route) error {
	if c.Collection == nil {
		return errNilCollection
	}
	route.From = strings.TrimSpace(route.From)
	route.To = strings.TrimSpace(route.To)
	if route.Source == "" {
		route.Source = models.SourceManual
	}
	route.UpdatedAt = time.Now().UTC()
	_, err := c.Collection.ReplaceOne(ctx, routeFilter(route.From, route.To), route, options.Replace().SetUpsert(true))
	return err
}

// FindRoutes returns all routes.
func (c *MongoRouteCollection) FindRoutes(ctx context.Context) ([]models.Route, error) {
	if c.Collection == nil {
		return nil, errNilCollection
	}
	opts := options.Find().SetSort(bson.D{{Key: "from_location", Value: 1}, {Key: "to_location", Value: 1}})
	cursor, err := c.Collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	routes := []models.Route{}
	if err := cursor.All(ctx, &routes); err != nil {
		return nil, err
	}
	return routes, nil
}

// UpdateRouteDistance sets the distance and source of an existing route.
func (c *MongoRouteCollection) UpdateRouteDistance(ctx context.Context, from, to string, km float64, source string) error {
	if c.Collection == nil {
		return errNilCollection
	}
	result, err := c.Collection.UpdateOne(ctx, routeFilter(from, to), bson.M{"$set": bson.M{
		"km_distance": km,
		"source":      source,
		"updated_at":  time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("route %s: %w", models.RouteKey(from, to), ErrNotFound)
	}
	return nil
}

// MongoTruckCollection implements TruckCollection for MongoDB.
type MongoTruckCollection struct {
	Collection *mongo.Collection
}

// UpsertTruck inserts or replaces a truck by plate.
func (c *MongoTruckCollection) UpsertTruck(ctx context.Context, truck models.Truck) error {
	if c.Collection == nil {
		return errNilCollection
	}
	truck.Plate = strings.TrimSpace(truck.Plate)
	if truck.Plate == "" {
		return fmt.Errorf("truck plate is required")
	}
	if truck.CreatedAt.IsZero() {
		truck.CreatedAt = time.Now().UTC()
	}
	_, err := c.Collection.ReplaceOne(ctx, bson.M{"_id": truck.Plate}, truck, options.Replace().SetUpsert(true))
	return err
}

// FindTrucks returns all trucks sorted by plate.
func (c *MongoTruckCollection) FindTrucks(ctx context.Context) ([]models.Truck, error) {
	if c.Collection == nil {
		return nil, errNilCollection
	}
	cursor, err := c.Collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	trucks := []models.Truck{}
	if err := cursor.All(ctx, &trucks); err != nil {
		return nil, err
	}
	return trucks, nil
}

// FindTruckByPlate finds a truck by its plate number.
func (c *MongoTruckCollection) FindTruckByPlate(ctx context.Context, plate string) (*models.Truck, error) {
	if c.Collection == nil {
		return nil, errNilCollection
	}
	var truck models.Truck
	if err := c.Collection.FindOne(ctx, bson.M{"_id": strings.TrimSpace(plate)}).Decode(&truck); err != nil {
		return nil, notFound(err, "truck "+plate)
	}
	return &truck, nil
}
