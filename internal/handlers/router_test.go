package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fleet-emissions/internal/auth"
	"github.com/ukydev/fleet-emissions/internal/db"
	"github.com/ukydev/fleet-emissions/internal/distance"
	"github.com/ukydev/fleet-emissions/internal/export"
	"github.com/ukydev/fleet-emissions/internal/models"
	"github.com/ukydev/fleet-emissions/internal/reporting"
	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type testAPI struct {
	store   db.Store
	handler http.Handler
	mock    *distance.Mock
}

func newTestAPI(t *testing.T, authService *auth.Service) *testAPI {
	t.Helper()
	store := db.NewMemoryStore().Store()
	settings, err := reporting.NewSettings(0.5)
	require.NoError(t, err)
	mock := distance.NewMock(map[string]float64{"Depot|Port": 42.5})

	return &testAPI{
		store: store,
		mock:  mock,
		handler: NewRouter(RouterConfig{
			Store:            store,
			Reports:          reporting.NewService(store, settings),
			Distance:         mock,
			Auth:             authService,
			Backend:          "memory",
			ImportRateLimit:  100,
			ImportRateWindow: time.Minute,
			MaxUploadBytes:   1 << 20,
		}),
	}
}

func (a *testAPI) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, req)
	return w
}

func (a *testAPI) upload(t *testing.T, path, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, req)
	return w
}

func sampleTrips() []models.Trip {
	day := time.Date(2025, 8, 4, 0, 0, 0, 0, time.UTC)
	return []models.Trip{
		{TruckID: "70-1234", Customer: "Acme", PickupLocation: "Depot", DeliveryLocation: "Port", DistanceKm: models.Float(100), EnergyKWh: models.Float(120), CargoTons: models.Float(10), Date: day},
		{TruckID: "70-5678", Customer: "Globex", PickupLocation: "Port", DeliveryLocation: "Mall", DistanceKm: models.Float(40), EnergyKWh: models.Float(60), CargoTons: models.Float(2), Date: day.AddDate(0, 0, 3)},
	}
}

func TestRouter_Health(t *testing.T) {
	api := newTestAPI(t, nil)

	w := api.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
	assert.Contains(t, w.Body.String(), `"store":"memory"`)
}

func TestHealthHandler_Unavailable(t *testing.T) {
	h := NewHealthHandler("mongo", func(context.Context) error { return errors.New("no reachable servers") })

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "unavailable")
}

func TestRouter_TripLifecycle(t *testing.T) {
	api := newTestAPI(t, nil)

	w := api.do(t, http.MethodPost, "/api/trips", sampleTrips())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created []models.Trip
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.Len(t, created, 2)
	id := created[0].ID
	require.NotEmpty(t, id)
	assert.Equal(t, "Electric", created[0].TruckType)

	w = api.do(t, http.MethodGet, "/api/trips/"+id, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = api.do(t, http.MethodGet, "/api/trips?customer=Globex", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listed []models.Trip
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "70-5678", listed[0].TruckID)

	updated := created[0]
	updated.CargoTons = models.Float(12)
	w = api.do(t, http.MethodPut, "/api/trips/"+id, updated)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var got models.Trip
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 12.0, got.Cargo())

	w = api.do(t, http.MethodDelete, "/api/trips/"+id, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = api.do(t, http.MethodGet, "/api/trips/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(t, http.MethodDelete, "/api/trips", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"deleted": 1}`, w.Body.String())
}

func TestRouter_CreateTripValidation(t *testing.T) {
	api := newTestAPI(t, nil)

	bad := sampleTrips()
	bad[1].EnergyKWh = models.Float(-5)
	w := api.do(t, http.MethodPost, "/api/trips", bad)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "energy")

	trips, err := api.store.Trips.FindTrips(context.Background(), models.TripFilter{})
	require.NoError(t, err)
	assert.Empty(t, trips, "nothing is stored when one trip is invalid")

	w = api.do(t, http.MethodGet, "/api/trips?from=2025-08-10&to=2025-08-01", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_ImportTripsCSV(t *testing.T) {
	api := newTestAPI(t, nil)

	csv := "Date,Customer,From,To,Tons,Truck Type,Plate Number,Distance,kWh\n" +
		"2025-08-04,Acme,Depot,Port,10,6W,70-1234,100,120\n" +
		"2025-08-05,Acme,Depot,,5,6W,70-1234,50,60\n"
	w := api.upload(t, "/api/trips/import", "trips.csv", csv)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		TotalRows int `json:"total_rows"`
		Inserted  int `json:"inserted"`
		Rejected  []struct {
			Row int `json:"row"`
		} `json:"rejected"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.TotalRows)
	assert.Equal(t, 1, resp.Inserted)
	require.Len(t, resp.Rejected, 1)
	assert.Equal(t, 3, resp.Rejected[0].Row)

	w = api.upload(t, "/api/trips/import", "trips.pdf", "nope")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestRouter_Reports(t *testing.T) {
	api := newTestAPI(t, nil)
	_, err := api.store.Trips.InsertTrips(context.Background(), sampleTrips())
	require.NoError(t, err)

	w := api.do(t, http.MethodGet, "/api/reports/trucks", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var report reporting.TruckReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, 0.5, report.EmissionFactor)
	require.Len(t, report.Trucks, 2)
	assert.InDelta(t, 90.0, report.Fleet.CO2Kg, 1e-9)

	w = api.do(t, http.MethodGet, "/api/reports/trucks?emission_factor=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.InDelta(t, 180.0, report.Fleet.CO2Kg, 1e-9)

	w = api.do(t, http.MethodGet, "/api/reports/trucks?emission_factor=3", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodGet, "/api/reports/customers", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"customers": ["Acme", "Globex"]}`, w.Body.String())

	for _, path := range []string{"/api/reports/kpis", "/api/reports/customers?name=Acme", "/api/reports/monthly", "/api/reports/routes", "/api/reports/benchmark", "/api/reports/audit"} {
		w = api.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestRouter_EmissionFactor(t *testing.T) {
	api := newTestAPI(t, nil)

	w := api.do(t, http.MethodPut, "/api/settings/emission-factor", map[string]float64{"emission_factor": 0.4999})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"emission_factor": 0.4999}`, w.Body.String())

	w = api.do(t, http.MethodGet, "/api/settings/emission-factor", nil)
	assert.JSONEq(t, `{"emission_factor": 0.4999}`, w.Body.String())

	w = api.do(t, http.MethodPut, "/api/settings/emission-factor", map[string]float64{"emission_factor": -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = api.do(t, http.MethodPut, "/api/settings/emission-factor", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_CreateEnergy(t *testing.T) {
	api := newTestAPI(t, nil)

	w := api.do(t, http.MethodPost, "/api/energy", []models.EnergyReading{{TruckID: "70-1234", Period: "Aug 2025", KWhPerKm: 1.2}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	readings, err := api.store.Energy.FindReadings(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, readings, 1)
	assert.Equal(t, "2025-08", readings[0].Period)

	w = api.do(t, http.MethodPost, "/api/energy", []models.EnergyReading{{TruckID: "70-1234", Period: "last month", KWhPerKm: 1.2}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "YYYY-MM")
}

func TestRouter_ResolveRoutes(t *testing.T) {
	api := newTestAPI(t, nil)

	for _, l := range []models.Location{{Name: "Depot", Lat: 13.75, Lon: 100.5}, {Name: "Port", Lat: 13.1, Lon: 100.9}} {
		w := api.do(t, http.MethodPost, "/api/locations", l)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}
	for _, rt := range []models.Route{{From: "Depot", To: "Port"}, {From: "Port", To: "Nowhere"}} {
		w := api.do(t, http.MethodPost, "/api/routes", rt)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w := api.do(t, http.MethodPost, "/api/routes/resolve", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var report distance.ResolveReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	require.Len(t, report.Resolved, 1)
	assert.Equal(t, 42.5, report.Resolved[0].DistanceKm)
	require.Len(t, report.Unresolved, 1)
	assert.Equal(t, "Nowhere", report.Unresolved[0].To)

	routes, err := api.store.Routes.FindRoutes(context.Background())
	require.NoError(t, err)
	for _, rt := range routes {
		if rt.From == "Depot" {
			assert.Equal(t, 42.5, rt.DistanceKm)
			assert.Equal(t, models.SourceOther, rt.Source)
		}
	}
	assert.Equal(t, 1, api.mock.Calls)
}

func TestRouter_Exports(t *testing.T) {
	api := newTestAPI(t, nil)
	_, err := api.store.Trips.InsertTrips(context.Background(), sampleTrips())
	require.NoError(t, err)

	w := api.do(t, http.MethodGet, "/api/export/trips", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, export.ContentTypeCSV, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	assert.Len(t, lines, 3)

	w = api.do(t, http.MethodGet, "/api/export/report?format=csv", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "TOTAL")

	w = api.do(t, http.MethodGet, "/api/export/all", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, export.ContentTypeXLSX, w.Header().Get("Content-Type"))
	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), "Trip Data")

	w = api.do(t, http.MethodGet, "/api/export/customer?name=Acme", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = api.do(t, http.MethodGet, "/api/export/customer", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = api.do(t, http.MethodGet, "/api/export/trips?format=pdf", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_Permissions(t *testing.T) {
	authService := newAuthService(t)
	api := newTestAPI(t, authService)

	token := func(role models.Role) string {
		tok, err := authService.GenerateToken(&models.User{ID: primitive.NewObjectID(), Username: string(role), Role: role})
		require.NoError(t, err)
		return "Bearer " + tok
	}
	call := func(method, path, authz string, body string) int {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		if authz != "" {
			req.Header.Set("Authorization", authz)
		}
		w := httptest.NewRecorder()
		api.handler.ServeHTTP(w, req)
		return w.Code
	}
	trip := `{"truck_id":"70-1234","customer":"Acme","distance_km":10}`

	assert.Equal(t, http.StatusUnauthorized, call(http.MethodGet, "/api/trips", "", ""))
	assert.Equal(t, http.StatusOK, call(http.MethodGet, "/api/trips", token(models.RoleViewer), ""))
	assert.Equal(t, http.StatusForbidden, call(http.MethodPost, "/api/trips", token(models.RoleViewer), trip))
	assert.Equal(t, http.StatusCreated, call(http.MethodPost, "/api/trips", token(models.RoleOperator), trip))
	assert.Equal(t, http.StatusForbidden, call(http.MethodPut, "/api/settings/emission-factor", token(models.RoleOperator), `{"emission_factor":0.4}`))
	assert.Equal(t, http.StatusOK, call(http.MethodPut, "/api/settings/emission-factor", token(models.RoleManager), `{"emission_factor":0.4}`))
	assert.Equal(t, http.StatusForbidden, call(http.MethodGet, "/api/users", token(models.RoleManager), ""))
	assert.Equal(t, http.StatusOK, call(http.MethodGet, "/api/users", token(models.RoleAdmin), ""))
	assert.Equal(t, http.StatusOK, call(http.MethodGet, "/health", "", ""))
}
