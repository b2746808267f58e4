package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-emissions/internal/db"
	"github.com/ukydev/fleet-emissions/internal/ingest"
	"github.com/ukydev/fleet-emissions/internal/models"
)

// TripHandler serves manual trip entry and listing.
type TripHandler struct {
	trips db.TripCollection
}

// NewTripHandler creates a trip handler.
func NewTripHandler(trips db.TripCollection) *TripHandler {
	return &TripHandler{trips: trips}
}

// List returns the trips matching the query filter.
func (h *TripHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	trips, err := h.trips.FindTrips(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trips)
}

// Create stores one trip or a JSON array of trips. Nothing is stored when
// any trip is invalid.
func (h *TripHandler) Create(w http.ResponseWriter, r *http.Request) {
	var raw json.RawMessage
	if !decodeJSON(w, r, &raw) {
		return
	}

	var trips []models.Trip
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &trips); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
	} else {
		var t models.Trip
		if err := json.Unmarshal(trimmed, &t); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		trips = []models.Trip{t}
	}
	if len(trips) == 0 {
		writeError(w, http.StatusBadRequest, "no trips given")
		return
	}

	for i := range trips {
		normalizeTrip(&trips[i])
		if err := ingest.ValidateTrip(trips[i]); err != nil {
			writeServiceError(w, r, err)
			return
		}
	}

	stored, err := h.trips.InsertTrips(r.Context(), trips)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	log.WithFields(log.Fields{
		"count": len(stored),
		"user":  username(r),
	}).Info("trips created")
	writeJSON(w, http.StatusCreated, stored)
}

// Get returns one trip.
func (h *TripHandler) Get(w http.ResponseWriter, r *http.Request) {
	trip, err := h.trips.FindTripByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trip)
}

// Update replaces one trip.
func (h *TripHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var trip models.Trip
	if !decodeJSON(w, r, &trip) {
		return
	}
	normalizeTrip(&trip)
	if err := ingest.ValidateTrip(trip); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := h.trips.UpdateTrip(r.Context(), id, trip); err != nil {
		writeServiceError(w, r, err)
		return
	}
	updated, err := h.trips.FindTripByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Delete removes one trip.
func (h *TripHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.trips.DeleteTrip(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteAll clears every stored trip.
func (h *TripHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	n, err := h.trips.DeleteAllTrips(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	log.WithFields(log.Fields{
		"count": n,
		"user":  username(r),
	}).Warn("all trips deleted")
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}

func normalizeTrip(t *models.Trip) {
	t.TruckID = strings.TrimSpace(t.TruckID)
	t.Customer = strings.TrimSpace(t.Customer)
	t.PickupLocation = strings.TrimSpace(t.PickupLocation)
	t.DeliveryLocation = strings.TrimSpace(t.DeliveryLocation)
	t.TruckType = strings.TrimSpace(t.TruckType)
	if t.TruckType == "" {
		t.TruckType = ingest.DefaultTruckType
	}
}
