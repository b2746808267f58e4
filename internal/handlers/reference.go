package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-emissions/internal/db"
	"github.com/ukydev/fleet-emissions/internal/distance"
	"github.com/ukydev/fleet-emissions/internal/ingest"
	"github.com/ukydev/fleet-emissions/internal/models"
)

// ReferenceHandler serves the reference data used to enrich trips: energy
// readings, locations, routes and trucks.
type ReferenceHandler struct {
	store    db.Store
	provider distance.Provider
	now      func() time.Time
}

// NewReferenceHandler creates a reference data handler. provider resolves
// missing route distances.
func NewReferenceHandler(store db.Store, provider distance.Provider) *ReferenceHandler {
	return &ReferenceHandler{store: store, provider: provider, now: time.Now}
}

// ListEnergy returns the energy readings, optionally of one truck.
func (h *ReferenceHandler) ListEnergy(w http.ResponseWriter, r *http.Request) {
	readings, err := h.store.Energy.FindReadings(r.Context(), strings.TrimSpace(r.URL.Query().Get("truck")))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, readings)
}

// CreateEnergy stores a JSON array of energy readings.
func (h *ReferenceHandler) CreateEnergy(w http.ResponseWriter, r *http.Request) {
	var readings []models.EnergyReading
	if !decodeJSON(w, r, &readings) {
		return
	}
	if len(readings) == 0 {
		writeError(w, http.StatusBadRequest, "no readings given")
		return
	}
	for i := range readings {
		rd := &readings[i]
		rd.TruckID = strings.TrimSpace(rd.TruckID)
		fields := make(map[string]string)
		if rd.TruckID == "" {
			fields["plate_number"] = "value is required"
		}
		if period, ok := ingest.NormalizePeriod(rd.Period); ok {
			rd.Period = period
		} else {
			fields["period"] = "expected YYYY-MM"
		}
		if rd.KWhPerKm < models.MinKWhPerKm || rd.KWhPerKm > models.MaxKWhPerKm {
			fields["kwh_per_km"] = fmt.Sprintf("must be between %v and %v", models.MinKWhPerKm, models.MaxKWhPerKm)
		}
		if len(fields) > 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("reading %d is invalid", i), Fields: fields})
			return
		}
	}
	if err := h.store.Energy.InsertReadings(r.Context(), readings); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, readings)
}

// ListLocations returns all locations.
func (h *ReferenceHandler) ListLocations(w http.ResponseWriter, r *http.Request) {
	locations, err := h.store.Locations.FindLocations(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, locations)
}

// SaveLocation creates or replaces a location.
func (h *ReferenceHandler) SaveLocation(w http.ResponseWriter, r *http.Request) {
	var l models.Location
	if !decodeJSON(w, r, &l) {
		return
	}
	l.Name = strings.TrimSpace(l.Name)
	if err := l.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	l.UpdatedBy = username(r)
	l.UpdatedAt = h.now().UTC()
	if err := h.store.Locations.UpsertLocation(r.Context(), l); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

// DeleteLocation removes a location by name.
func (h *ReferenceHandler) DeleteLocation(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Locations.DeleteLocation(r.Context(), r.PathValue("name")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListRoutes returns all routes.
func (h *ReferenceHandler) ListRoutes(w http.ResponseWriter, r *http.Request) {
	routes, err := h.store.Routes.FindRoutes(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, routes)
}

// SaveRoute creates or replaces a route. The source defaults to Manual.
func (h *ReferenceHandler) SaveRoute(w http.ResponseWriter, r *http.Request) {
	var rt models.Route
	if !decodeJSON(w, r, &rt) {
		return
	}
	rt.From = strings.TrimSpace(rt.From)
	rt.To = strings.TrimSpace(rt.To)
	if rt.Source == "" {
		rt.Source = models.SourceManual
	}

	fields := make(map[string]string)
	if rt.From == "" {
		fields["from_location_name"] = "value is required"
	}
	if rt.To == "" {
		fields["to_location_name"] = "value is required"
	}
	if !models.IsFinite(rt.DistanceKm) || rt.DistanceKm < 0 {
		fields["km_distance"] = "must be a non-negative number"
	}
	if !models.IsValidSource(rt.Source) {
		fields["source"] = "must be one of Manual, Google Maps, Haversine, Other"
	}
	if len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid route", Fields: fields})
		return
	}

	rt.UpdatedAt = h.now().UTC()
	if err := h.store.Routes.UpsertRoute(r.Context(), rt); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rt)
}

// ResolveRoutes looks up the distance of every route that has none and
// stores what was found.
func (h *ReferenceHandler) ResolveRoutes(w http.ResponseWriter, r *http.Request) {
	routes, err := h.store.Routes.FindRoutes(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	locations, err := h.store.Locations.FindLocations(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	report, err := distance.ResolveRoutes(r.Context(), h.provider, routes, locations)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	for _, rt := range report.Resolved {
		if err := h.store.Routes.UpdateRouteDistance(r.Context(), rt.From, rt.To, rt.DistanceKm, rt.Source); err != nil {
			writeServiceError(w, r, err)
			return
		}
	}

	log.WithFields(log.Fields{
		"resolved":   len(report.Resolved),
		"unresolved": len(report.Unresolved),
	}).Info("route distances resolved")
	writeJSON(w, http.StatusOK, report)
}

// ListTrucks returns the truck master data.
func (h *ReferenceHandler) ListTrucks(w http.ResponseWriter, r *http.Request) {
	trucks, err := h.store.Trucks.FindTrucks(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trucks)
}

// SaveTruck creates or replaces a truck.
func (h *ReferenceHandler) SaveTruck(w http.ResponseWriter, r *http.Request) {
	var t models.Truck
	if !decodeJSON(w, r, &t) {
		return
	}
	t.Plate = strings.TrimSpace(t.Plate)
	if t.Plate == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid truck", Fields: map[string]string{"plate": "value is required"}})
		return
	}
	if !models.IsFinite(t.CapacityTons) || t.CapacityTons < 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid truck", Fields: map[string]string{"capacity_tons": "must be a non-negative number"}})
		return
	}
	if t.Make == "" {
		t.Make = models.DefaultMake
	}
	if t.Type == "" {
		t.Type = ingest.DefaultTruckType
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = h.now().UTC()
	}
	if err := h.store.Trucks.UpsertTruck(r.Context(), t); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}
