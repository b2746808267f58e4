package handlers

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-emissions/internal/db"
	"github.com/ukydev/fleet-emissions/internal/export"
	"github.com/ukydev/fleet-emissions/internal/models"
	"github.com/ukydev/fleet-emissions/internal/reporting"
	"github.com/xuri/excelize/v2"
)

// Download formats.
const (
	formatCSV  = "csv"
	formatXLSX = "xlsx"
)

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// ExportHandler serves file downloads.
type ExportHandler struct {
	reports *reporting.Service
	store   db.Store
	now     func() time.Time
}

// NewExportHandler creates an export handler.
func NewExportHandler(reports *reporting.Service, store db.Store) *ExportHandler {
	return &ExportHandler{reports: reports, store: store, now: time.Now}
}

// format reads the format parameter, csv by default.
func format(w http.ResponseWriter, r *http.Request, allowed ...string) (string, bool) {
	f := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if f == "" {
		f = allowed[0]
	}
	for _, a := range allowed {
		if f == a {
			return f, true
		}
	}
	writeError(w, http.StatusBadRequest, fmt.Sprintf("format must be one of %s", strings.Join(allowed, ", ")))
	return "", false
}

func (h *ExportHandler) filename(base, ext string) string {
	return fmt.Sprintf("%s_%s.%s", base, h.now().Format("20060102"), ext)
}

func attach(w http.ResponseWriter, contentType, filename string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
}

func writeWorkbook(w http.ResponseWriter, r *http.Request, f *excelize.File, filename string) {
	defer f.Close()
	attach(w, export.ContentTypeXLSX, filename)
	if err := f.Write(w); err != nil {
		log.WithError(err).WithField("path", r.URL.Path).Error("failed to write workbook")
	}
}

// Trips downloads the enriched trips matching the filter.
func (h *ExportHandler) Trips(w http.ResponseWriter, r *http.Request) {
	ft, ok := format(w, r, formatCSV, formatXLSX)
	if !ok {
		return
	}
	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	snap, err := h.reports.Snapshot(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if ft == formatCSV {
		attach(w, export.ContentTypeCSV, h.filename("trips", formatCSV))
		if err := export.WriteTripsCSV(w, snap.Trips); err != nil {
			log.WithError(err).Error("failed to write trips csv")
		}
		return
	}
	f, err := export.TripsWorkbook(snap.Trips)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeWorkbook(w, r, f, h.filename("trips", formatXLSX))
}

// Report downloads the per-truck emissions report.
func (h *ExportHandler) Report(w http.ResponseWriter, r *http.Request) {
	ft, ok := format(w, r, formatCSV, formatXLSX)
	if !ok {
		return
	}
	q, err := parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	report, err := h.reports.TruckReport(r.Context(), q)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if ft == formatCSV {
		attach(w, export.ContentTypeCSV, h.filename("fleet_emissions", formatCSV))
		if err := export.WriteMetricsCSV(w, report); err != nil {
			log.WithError(err).Error("failed to write metrics csv")
		}
		return
	}
	snap, err := h.reports.Snapshot(r.Context(), q.Filter)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	f, err := export.EmissionsWorkbook(report, snap.Trips)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeWorkbook(w, r, f, h.filename("fleet_emissions", formatXLSX))
}

// Customer downloads one customer's report. The customer is named by the
// name parameter.
func (h *ExportHandler) Customer(w http.ResponseWriter, r *http.Request) {
	ft, ok := format(w, r, formatXLSX, formatCSV)
	if !ok {
		return
	}
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	q, err := parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	summary, trips, err := h.reports.Customer(r.Context(), q, name)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	base := "customer_" + strings.Trim(unsafeFilename.ReplaceAllString(name, "_"), "_")
	if ft == formatCSV {
		attach(w, export.ContentTypeCSV, h.filename(base, formatCSV))
		if err := export.WriteTripsCSV(w, trips); err != nil {
			log.WithError(err).Error("failed to write customer csv")
		}
		return
	}
	f, err := export.CustomerWorkbook(summary, trips)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeWorkbook(w, r, f, h.filename(base, formatXLSX))
}

// All downloads every stored record as one workbook.
func (h *ExportHandler) All(w http.ResponseWriter, r *http.Request) {
	if _, ok := format(w, r, formatXLSX); !ok {
		return
	}
	ctx := r.Context()
	trips, err := h.store.Trips.FindTrips(ctx, models.TripFilter{})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	readings, err := h.store.Energy.FindReadings(ctx, "")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	locations, err := h.store.Locations.FindLocations(ctx)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	routes, err := h.store.Routes.FindRoutes(ctx)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	f, err := export.CompleteWorkbook(trips, readings, locations, routes)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeWorkbook(w, r, f, h.filename("complete_fleet_data", formatXLSX))
}
