package handlers

import (
	"net/http"
	"strings"

	"github.com/ukydev/fleet-emissions/internal/reporting"
)

// ReportHandler serves the emissions reports.
type ReportHandler struct {
	reports *reporting.Service
}

// NewReportHandler creates a report handler.
func NewReportHandler(reports *reporting.Service) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// query parses the report query or writes a 400.
func (h *ReportHandler) query(w http.ResponseWriter, r *http.Request) (reporting.Query, bool) {
	q, err := parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return q, false
	}
	return q, true
}

// Trucks returns per-truck metrics and fleet totals.
func (h *ReportHandler) Trucks(w http.ResponseWriter, r *http.Request) {
	q, ok := h.query(w, r)
	if !ok {
		return
	}
	report, err := h.reports.TruckReport(r.Context(), q)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// KPIs returns fleet KPIs.
func (h *ReportHandler) KPIs(w http.ResponseWriter, r *http.Request) {
	q, ok := h.query(w, r)
	if !ok {
		return
	}
	kpis, err := h.reports.FleetKPIs(r.Context(), q)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, kpis)
}

// Customers returns the summary of the customer named by the name
// parameter, or the list of customers when no name is given.
func (h *ReportHandler) Customers(w http.ResponseWriter, r *http.Request) {
	q, ok := h.query(w, r)
	if !ok {
		return
	}
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		names, err := h.reports.Customers(r.Context(), q)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string][]string{"customers": names})
		return
	}
	summary, _, err := h.reports.Customer(r.Context(), q, name)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// Monthly returns per-month summaries.
func (h *ReportHandler) Monthly(w http.ResponseWriter, r *http.Request) {
	q, ok := h.query(w, r)
	if !ok {
		return
	}
	months, err := h.reports.Monthly(r.Context(), q)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, months)
}

// Routes returns route efficiency figures.
func (h *ReportHandler) Routes(w http.ResponseWriter, r *http.Request) {
	q, ok := h.query(w, r)
	if !ok {
		return
	}
	routes, err := h.reports.RouteEfficiency(r.Context(), q)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, routes)
}

// Benchmark compares trucks with the fleet.
func (h *ReportHandler) Benchmark(w http.ResponseWriter, r *http.Request) {
	q, ok := h.query(w, r)
	if !ok {
		return
	}
	bench, err := h.reports.Benchmark(r.Context(), q)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bench)
}

// Audit lists data quality warnings.
func (h *ReportHandler) Audit(w http.ResponseWriter, r *http.Request) {
	warnings, err := h.reports.Audit(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"warnings": warnings})
}

type emissionFactorBody struct {
	EmissionFactor *float64 `json:"emission_factor"`
}

// GetEmissionFactor returns the current emission factor.
func (h *ReportHandler) GetEmissionFactor(w http.ResponseWriter, r *http.Request) {
	f := h.reports.Settings().EmissionFactor()
	writeJSON(w, http.StatusOK, emissionFactorBody{EmissionFactor: &f})
}

// SetEmissionFactor replaces the emission factor used by default.
func (h *ReportHandler) SetEmissionFactor(w http.ResponseWriter, r *http.Request) {
	var body emissionFactorBody
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.EmissionFactor == nil {
		writeError(w, http.StatusBadRequest, "emission_factor is required")
		return
	}
	if err := h.reports.Settings().SetEmissionFactor(*body.EmissionFactor); err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.GetEmissionFactor(w, r)
}
