// Package reporting loads stored records, enriches them with route and energy
// reference data and runs the metrics aggregations over the result.
package reporting

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-emissions/internal/db"
	"github.com/ukydev/fleet-emissions/internal/ingest"
	"github.com/ukydev/fleet-emissions/internal/metrics"
	"github.com/ukydev/fleet-emissions/internal/models"
)

// Query selects the trips of a report. A nil EmissionFactor means the
// current settings value.
type Query struct {
	Filter         models.TripFilter
	EmissionFactor *float64
}

// Snapshot is an enriched, immutable view of the stored trips.
type Snapshot struct {
	Trips        []models.Trip
	Readings     []models.EnergyReading
	RoutesFilled int
	EnergyFilled int
}

// TruckRow is one truck's metrics plus its master data.
type TruckRow struct {
	metrics.TruckMetrics
	Make             string  `json:"make"`
	MeasuredKWhPerKm float64 `json:"measured_kwh_per_km,omitempty"`
}

// TruckReport is the per-truck emissions report.
type TruckReport struct {
	EmissionFactor     float64              `json:"emission_factor"`
	Trucks             []TruckRow           `json:"trucks"`
	Fleet              metrics.FleetTotals  `json:"fleet"`
	Rejected           []metrics.Rejection  `json:"rejected"`
	Adjusted           []metrics.Adjustment `json:"adjusted"`
	ZeroDistanceTrucks []string             `json:"zero_distance_trucks"`
	CarbonIntensity    float64              `json:"carbon_intensity_kg_per_tkm"`
}

// RouteReport lists route efficiency figures.
type RouteReport struct {
	Routes   []metrics.RouteSummary `json:"routes"`
	Unrouted int                    `json:"unrouted_trips"`
}

// Service runs reports against a record store.
type Service struct {
	store    db.Store
	settings *Settings
}

// NewService creates a reporting service.
func NewService(store db.Store, settings *Settings) *Service {
	return &Service{store: store, settings: settings}
}

// Settings returns the runtime settings used by the service.
func (s *Service) Settings() *Settings {
	return s.settings
}

func (s *Service) factor(q Query) (float64, error) {
	if q.EmissionFactor == nil {
		return s.settings.EmissionFactor(), nil
	}
	if err := ValidateFactor(*q.EmissionFactor); err != nil {
		return 0, err
	}
	return *q.EmissionFactor, nil
}

// Snapshot loads the trips matching filter and fills missing distances from
// known routes, then missing energy from the trucks' energy readings.
func (s *Service) Snapshot(ctx context.Context, filter models.TripFilter) (Snapshot, error) {
	trips, err := s.store.Trips.FindTrips(ctx, filter)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load trips: %w", err)
	}
	readings, err := s.store.Energy.FindReadings(ctx, "")
	if err != nil {
		return Snapshot{}, fmt.Errorf("load energy readings: %w", err)
	}
	routes, err := s.store.Routes.FindRoutes(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load routes: %w", err)
	}

	snap := Snapshot{Readings: readings}
	snap.Trips, snap.RoutesFilled = ingest.FillRouteDistances(trips, routes)
	snap.Trips, snap.EnergyFilled = ingest.FillEnergy(snap.Trips, readings)

	if snap.RoutesFilled > 0 || snap.EnergyFilled > 0 {
		log.WithFields(log.Fields{
			"trips":         len(snap.Trips),
			"routes_filled": snap.RoutesFilled,
			"energy_filled": snap.EnergyFilled,
		}).Debug("enriched trip snapshot")
	}
	return snap, nil
}

func (s *Service) compute(ctx context.Context, q Query) (Snapshot, metrics.Result, error) {
	f, err := s.factor(q)
	if err != nil {
		return Snapshot{}, metrics.Result{}, err
	}
	snap, err := s.Snapshot(ctx, q.Filter)
	if err != nil {
		return Snapshot{}, metrics.Result{}, err
	}
	res, err := metrics.Compute(snap.Trips, f)
	if err != nil {
		return Snapshot{}, metrics.Result{}, err
	}
	logResult(res)
	return snap, res, nil
}

func logResult(res metrics.Result) {
	if len(res.Rejected) == 0 && len(res.Adjusted) == 0 {
		return
	}
	log.WithFields(log.Fields{
		"rejected": len(res.Rejected),
		"adjusted": len(res.Adjusted),
		"trucks":   len(res.Trucks),
	}).Warn("trips excluded or adjusted during aggregation")
}

// TruckReport aggregates trips per truck and joins truck master data.
func (s *Service) TruckReport(ctx context.Context, q Query) (TruckReport, error) {
	snap, res, err := s.compute(ctx, q)
	if err != nil {
		return TruckReport{}, err
	}
	trucks, err := s.store.Trucks.FindTrucks(ctx)
	if err != nil {
		return TruckReport{}, fmt.Errorf("load trucks: %w", err)
	}
	makes := make(map[string]string, len(trucks))
	for _, t := range trucks {
		makes[ingest.PlateKey(t.Plate)] = t.Make
	}
	measured := ingest.TruckEfficiency(snap.Readings)

	report := TruckReport{
		EmissionFactor:     res.EmissionFactor,
		Trucks:             make([]TruckRow, 0, len(res.Trucks)),
		Fleet:              res.Fleet,
		Rejected:           res.Rejected,
		Adjusted:           res.Adjusted,
		ZeroDistanceTrucks: res.ZeroDistanceTrucks(),
		CarbonIntensity:    res.Fleet.CO2PerTKm,
	}
	for _, m := range res.Rows() {
		truckMake := makes[ingest.PlateKey(m.TruckID)]
		if truckMake == "" {
			truckMake = models.DefaultMake
		}
		report.Trucks = append(report.Trucks, TruckRow{
			TruckMetrics:     m,
			Make:             truckMake,
			MeasuredKWhPerKm: measured[ingest.PlateKey(m.TruckID)],
		})
	}
	if report.ZeroDistanceTrucks == nil {
		report.ZeroDistanceTrucks = []string{}
	}
	return report, nil
}

// Result returns the raw aggregation together with the enriched trips it
// was computed from.
func (s *Service) Result(ctx context.Context, q Query) (metrics.Result, []models.Trip, error) {
	snap, res, err := s.compute(ctx, q)
	if err != nil {
		return metrics.Result{}, nil, err
	}
	return res, snap.Trips, nil
}

// FleetKPIs returns the fleet-wide KPIs.
func (s *Service) FleetKPIs(ctx context.Context, q Query) (metrics.FleetKPIs, error) {
	snap, res, err := s.compute(ctx, q)
	if err != nil {
		return metrics.FleetKPIs{}, err
	}
	return metrics.KPIs(res, snap.Trips), nil
}

// Customer summarises one customer's trips together with those trips.
func (s *Service) Customer(ctx context.Context, q Query, name string) (metrics.CustomerSummary, []models.Trip, error) {
	f, err := s.factor(q)
	if err != nil {
		return metrics.CustomerSummary{}, nil, err
	}
	filter := q.Filter
	filter.Customer = name
	snap, err := s.Snapshot(ctx, filter)
	if err != nil {
		return metrics.CustomerSummary{}, nil, err
	}
	summary, err := metrics.Customer(snap.Trips, f, name)
	if err != nil {
		return metrics.CustomerSummary{}, nil, err
	}
	return summary, snap.Trips, nil
}

// Customers lists the distinct customers of the selected trips.
func (s *Service) Customers(ctx context.Context, q Query) ([]string, error) {
	snap, err := s.Snapshot(ctx, q.Filter)
	if err != nil {
		return nil, err
	}
	names := metrics.Customers(snap.Trips)
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// Monthly returns per-month summaries.
func (s *Service) Monthly(ctx context.Context, q Query) ([]metrics.MonthSummary, error) {
	f, err := s.factor(q)
	if err != nil {
		return nil, err
	}
	snap, err := s.Snapshot(ctx, q.Filter)
	if err != nil {
		return nil, err
	}
	return metrics.Monthly(snap.Trips, f)
}

// RouteEfficiency returns freight figures per pickup/delivery pair.
func (s *Service) RouteEfficiency(ctx context.Context, q Query) (RouteReport, error) {
	snap, err := s.Snapshot(ctx, q.Filter)
	if err != nil {
		return RouteReport{}, err
	}
	routes, unrouted := metrics.RouteEfficiency(snap.Trips)
	if routes == nil {
		routes = []metrics.RouteSummary{}
	}
	return RouteReport{Routes: routes, Unrouted: unrouted}, nil
}

// Benchmark compares every truck with the fleet means.
func (s *Service) Benchmark(ctx context.Context, q Query) ([]metrics.TruckBenchmark, error) {
	_, res, err := s.compute(ctx, q)
	if err != nil {
		return nil, err
	}
	out := metrics.Benchmark(res)
	if out == nil {
		out = []metrics.TruckBenchmark{}
	}
	return out, nil
}

// Audit checks the stored records, before enrichment, for data problems.
func (s *Service) Audit(ctx context.Context) ([]string, error) {
	trips, err := s.store.Trips.FindTrips(ctx, models.TripFilter{})
	if err != nil {
		return nil, fmt.Errorf("load trips: %w", err)
	}
	readings, err := s.store.Energy.FindReadings(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("load energy readings: %w", err)
	}
	return ingest.Audit(trips, readings), nil
}
