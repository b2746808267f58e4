package handlers

import (
	"errors"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-emissions/internal/db"
	"github.com/ukydev/fleet-emissions/internal/ingest"
)

// ImportHandler accepts spreadsheet uploads in the multipart field "file".
type ImportHandler struct {
	store     db.Store
	maxUpload int64
	now       func() time.Time
}

// NewImportHandler creates an import handler accepting uploads of at most
// maxUpload bytes.
func NewImportHandler(store db.Store, maxUpload int64) *ImportHandler {
	return &ImportHandler{store: store, maxUpload: maxUpload, now: time.Now}
}

type tripImportResponse struct {
	ingest.TripImport
	Inserted int `json:"inserted"`
}

type referenceImportResponse struct {
	Imported int               `json:"imported"`
	Rejected []ingest.RowError `json:"rejected"`
}

func (h *ImportHandler) readUpload(w http.ResponseWriter, r *http.Request) ([][]string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+1<<20)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
			return nil, false
		}
		writeError(w, http.StatusBadRequest, "expected a multipart form upload")
		return nil, false
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return nil, false
	}
	defer file.Close()

	rows, err := ingest.ReadTable(file, header.Filename)
	if err != nil {
		writeServiceError(w, r, err)
		return nil, false
	}
	log.WithFields(log.Fields{
		"file": header.Filename,
		"size": header.Size,
		"rows": len(rows),
		"user": username(r),
	}).Info("upload received")
	return rows, true
}

// Trips imports a trip sheet.
func (h *ImportHandler) Trips(w http.ResponseWriter, r *http.Request) {
	rows, ok := h.readUpload(w, r)
	if !ok {
		return
	}
	res, err := ingest.ParseTrips(rows, h.now().UTC())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	inserted := 0
	if len(res.Trips) > 0 {
		stored, err := h.store.Trips.InsertTrips(r.Context(), res.Trips)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		inserted = len(stored)
	}

	entry := log.WithFields(log.Fields{
		"total":    res.TotalRows,
		"inserted": inserted,
		"rejected": len(res.Rejected),
		"warnings": len(res.Warnings),
		"tms":      res.TMS,
	})
	if len(res.Rejected) > 0 {
		entry.Warn("trip import finished with rejected rows")
	} else {
		entry.Info("trip import finished")
	}
	writeJSON(w, http.StatusOK, tripImportResponse{TripImport: res, Inserted: inserted})
}

// Energy imports an energy consumption sheet.
func (h *ImportHandler) Energy(w http.ResponseWriter, r *http.Request) {
	rows, ok := h.readUpload(w, r)
	if !ok {
		return
	}
	readings, rejected, err := ingest.ParseEnergy(rows)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if len(readings) > 0 {
		if err := h.store.Energy.InsertReadings(r.Context(), readings); err != nil {
			writeServiceError(w, r, err)
			return
		}
	}
	logReferenceImport("energy", len(readings), rejected)
	writeJSON(w, http.StatusOK, referenceImportResponse{Imported: len(readings), Rejected: rejected})
}

// Locations imports a location sheet. Existing locations are replaced.
func (h *ImportHandler) Locations(w http.ResponseWriter, r *http.Request) {
	rows, ok := h.readUpload(w, r)
	if !ok {
		return
	}
	locations, rejected, err := ingest.ParseLocations(rows)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	now, user := h.now().UTC(), username(r)
	for _, l := range locations {
		l.UpdatedBy = user
		l.UpdatedAt = now
		if err := h.store.Locations.UpsertLocation(r.Context(), l); err != nil {
			writeServiceError(w, r, err)
			return
		}
	}
	logReferenceImport("locations", len(locations), rejected)
	writeJSON(w, http.StatusOK, referenceImportResponse{Imported: len(locations), Rejected: rejected})
}

// Routes imports a route distance sheet. Existing routes are replaced.
func (h *ImportHandler) Routes(w http.ResponseWriter, r *http.Request) {
	rows, ok := h.readUpload(w, r)
	if !ok {
		return
	}
	routes, rejected, err := ingest.ParseRoutes(rows)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	now := h.now().UTC()
	for _, rt := range routes {
		rt.UpdatedAt = now
		if err := h.store.Routes.UpsertRoute(r.Context(), rt); err != nil {
			writeServiceError(w, r, err)
			return
		}
	}
	logReferenceImport("routes", len(routes), rejected)
	writeJSON(w, http.StatusOK, referenceImportResponse{Imported: len(routes), Rejected: rejected})
}

func logReferenceImport(kind string, imported int, rejected []ingest.RowError) {
	entry := log.WithFields(log.Fields{
		"kind":     kind,
		"imported": imported,
		"rejected": len(rejected),
	})
	if len(rejected) > 0 {
		entry.Warn("reference import finished with rejected rows")
		return
	}
	entry.Info("reference import finished")
}
