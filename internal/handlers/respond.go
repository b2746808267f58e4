// Package handlers implements the JSON HTTP API.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-emissions/internal/db"
	"github.com/ukydev/fleet-emissions/internal/ingest"
	"github.com/ukydev/fleet-emissions/internal/metrics"
	"github.com/ukydev/fleet-emissions/internal/middleware"
	"github.com/ukydev/fleet-emissions/internal/models"
	"github.com/ukydev/fleet-emissions/internal/reporting"
)

// maxJSONBody bounds request bodies that are not file uploads.
const maxJSONBody = 10 << 20

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeServiceError maps domain errors to status codes. Unknown errors are
// logged and reported as 500 without their text.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *ingest.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "validation failed", Fields: verr.Fields})
	case errors.Is(err, db.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, reporting.ErrInvalidFactor), errors.Is(err, metrics.ErrInvalidEmissionFactor):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ingest.ErrUnsupportedFormat), errors.Is(err, ingest.ErrEmptySheet), errors.Is(err, ingest.ErrMissingColumns):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		log.WithError(err).WithFields(log.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Error("request failed")
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return false
	}
	return true
}

// parseDate accepts a calendar date or an RFC 3339 timestamp.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// parseFilter reads the trip filter from the query string: from, to,
// truck and customer.
func parseFilter(r *http.Request) (models.TripFilter, error) {
	q := r.URL.Query()
	f := models.TripFilter{
		TruckID:  strings.TrimSpace(q.Get("truck")),
		Customer: strings.TrimSpace(q.Get("customer")),
	}
	if v := q.Get("from"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			return f, errors.New("from: expected YYYY-MM-DD or RFC 3339")
		}
		f.From = t
	}
	if v := q.Get("to"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			return f, errors.New("to: expected YYYY-MM-DD or RFC 3339")
		}
		f.To = t
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return f, errors.New("to is before from")
	}
	return f, nil
}

// parseQuery reads a report query: the trip filter plus an optional
// emission_factor override.
func parseQuery(r *http.Request) (reporting.Query, error) {
	f, err := parseFilter(r)
	if err != nil {
		return reporting.Query{}, err
	}
	q := reporting.Query{Filter: f}
	if v := r.URL.Query().Get("emission_factor"); v != "" {
		ef, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return q, errors.New("emission_factor: not a number")
		}
		if err := reporting.ValidateFactor(ef); err != nil {
			return q, err
		}
		q.EmissionFactor = &ef
	}
	return q, nil
}

// username returns the name of the authenticated caller, if any.
func username(r *http.Request) string {
	if claims, ok := middleware.GetUserFromContext(r.Context()); ok {
		return claims.Username
	}
	return ""
}
