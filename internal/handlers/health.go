package handlers

import (
	"context"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

// HealthHandler reports liveness and, when a check is set, backend health.
type HealthHandler struct {
	backend string
	check   func(context.Context) error
}

// NewHealthHandler creates a health handler. check may be nil.
func NewHealthHandler(backend string, check func(context.Context) error) *HealthHandler {
	return &HealthHandler{backend: backend, check: check}
}

type healthResponse struct {
	Status string    `json:"status"`
	Store  string    `json:"store"`
	Time   time.Time `json:"time"`
	Error  string    `json:"error,omitempty"`
}

// ServeHTTP implements http.Handler.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Store: h.backend, Time: time.Now().UTC()}
	if h.check != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.check(ctx); err != nil {
			log.WithError(err).Warn("health check failed")
			resp.Status = "unavailable"
			resp.Error = err.Error()
			writeJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
