package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/ukydev/fleet-emissions/internal/auth"
	"github.com/ukydev/fleet-emissions/internal/db"
	"github.com/ukydev/fleet-emissions/internal/distance"
	"github.com/ukydev/fleet-emissions/internal/middleware"
	"github.com/ukydev/fleet-emissions/internal/models"
	"github.com/ukydev/fleet-emissions/internal/reporting"
)

// RouterConfig holds the dependencies of the API.
type RouterConfig struct {
	Store    db.Store
	Reports  *reporting.Service
	Distance distance.Provider
	// Auth signs and checks tokens. Nil disables authentication and the
	// /api/auth and /api/users routes.
	Auth *auth.Service

	Backend     string
	HealthCheck func(context.Context) error

	ImportRateLimit  int
	ImportRateWindow time.Duration
	MaxUploadBytes   int64
}

// NewRouter builds the HTTP handler of the API.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()
	authMW := middleware.NewAuthMiddleware(cfg.Auth)
	limiter := middleware.NewRateLimiter()

	allow := func(action string, h http.HandlerFunc) http.Handler {
		return authMW.RequirePermission(action)(h)
	}
	upload := func(h http.HandlerFunc) http.Handler {
		return limiter.Limit(cfg.ImportRateLimit, cfg.ImportRateWindow)(allow(models.ActionImportData, h))
	}

	mux.Handle("GET /health", NewHealthHandler(cfg.Backend, cfg.HealthCheck))

	if cfg.Auth != nil {
		ah := NewAuthHandler(cfg.Auth, cfg.Store.Users)
		mux.HandleFunc("POST /api/auth/login", ah.Login)
		mux.HandleFunc("POST /api/auth/register", ah.Register)
		mux.HandleFunc("GET /api/auth/profile", ah.GetProfile)
		mux.HandleFunc("PUT /api/auth/profile", ah.UpdateProfile)
		mux.HandleFunc("POST /api/auth/password", ah.ChangePassword)
		mux.Handle("GET /api/users", allow(models.ActionManageUsers, ah.ListUsers))
		mux.Handle("POST /api/users/{id}/deactivate", authMW.RequireRole(models.RoleAdmin)(http.HandlerFunc(ah.DeactivateUser)))
		mux.Handle("DELETE /api/users/{id}", authMW.RequireRole(models.RoleAdmin)(http.HandlerFunc(ah.DeleteUser)))
	}

	th := NewTripHandler(cfg.Store.Trips)
	mux.Handle("GET /api/trips", allow(models.ActionViewReports, th.List))
	mux.Handle("POST /api/trips", allow(models.ActionEditTrips, th.Create))
	mux.Handle("DELETE /api/trips", allow(models.ActionEditTrips, th.DeleteAll))
	mux.Handle("GET /api/trips/{id}", allow(models.ActionViewReports, th.Get))
	mux.Handle("PUT /api/trips/{id}", allow(models.ActionEditTrips, th.Update))
	mux.Handle("DELETE /api/trips/{id}", allow(models.ActionEditTrips, th.Delete))

	ih := NewImportHandler(cfg.Store, cfg.MaxUploadBytes)
	mux.Handle("POST /api/trips/import", upload(ih.Trips))
	mux.Handle("POST /api/energy/import", upload(ih.Energy))
	mux.Handle("POST /api/locations/import", upload(ih.Locations))
	mux.Handle("POST /api/routes/import", upload(ih.Routes))

	rh := NewReferenceHandler(cfg.Store, cfg.Distance)
	mux.Handle("GET /api/energy", allow(models.ActionViewReports, rh.ListEnergy))
	mux.Handle("POST /api/energy", allow(models.ActionImportData, rh.CreateEnergy))
	mux.Handle("GET /api/locations", allow(models.ActionViewReports, rh.ListLocations))
	mux.Handle("POST /api/locations", allow(models.ActionImportData, rh.SaveLocation))
	mux.Handle("DELETE /api/locations/{name}", allow(models.ActionImportData, rh.DeleteLocation))
	mux.Handle("GET /api/routes", allow(models.ActionViewReports, rh.ListRoutes))
	mux.Handle("POST /api/routes", allow(models.ActionImportData, rh.SaveRoute))
	mux.Handle("POST /api/routes/resolve", allow(models.ActionImportData, rh.ResolveRoutes))
	mux.Handle("GET /api/trucks", allow(models.ActionViewReports, rh.ListTrucks))
	mux.Handle("POST /api/trucks", allow(models.ActionManageSettings, rh.SaveTruck))

	rp := NewReportHandler(cfg.Reports)
	mux.Handle("GET /api/settings/emission-factor", allow(models.ActionViewReports, rp.GetEmissionFactor))
	mux.Handle("PUT /api/settings/emission-factor", allow(models.ActionManageSettings, rp.SetEmissionFactor))
	mux.Handle("GET /api/reports/trucks", allow(models.ActionViewReports, rp.Trucks))
	mux.Handle("GET /api/reports/kpis", allow(models.ActionViewReports, rp.KPIs))
	mux.Handle("GET /api/reports/customers", allow(models.ActionViewReports, rp.Customers))
	mux.Handle("GET /api/reports/monthly", allow(models.ActionViewReports, rp.Monthly))
	mux.Handle("GET /api/reports/routes", allow(models.ActionViewReports, rp.Routes))
	mux.Handle("GET /api/reports/benchmark", allow(models.ActionViewReports, rp.Benchmark))
	mux.Handle("GET /api/reports/audit", allow(models.ActionViewReports, rp.Audit))

	eh := NewExportHandler(cfg.Reports, cfg.Store)
	mux.Handle("GET /api/export/trips", allow(models.ActionViewReports, eh.Trips))
	mux.Handle("GET /api/export/report", allow(models.ActionViewReports, eh.Report))
	mux.Handle("GET /api/export/customer", allow(models.ActionViewReports, eh.Customer))
	mux.Handle("GET /api/export/all", allow(models.ActionViewReports, eh.All))

	return middleware.RequestLogger(authMW.Authenticate(mux))
}
