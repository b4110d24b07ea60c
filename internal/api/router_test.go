package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"store-route-planner/internal/api/dto"
	"store-route-planner/internal/domain"
	"store-route-planner/internal/platform/obs"
	"store-route-planner/internal/ports"
	"store-route-planner/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type stubRepo struct {
	locations []domain.StoreLocation
	regions   []string
	all       []domain.DemandRecord
	setErr    error
	set       [][]domain.DemandUpdate
}

func (s *stubRepo) ListLocations(_ context.Context, query string) ([]domain.StoreLocation, error) {
	if query == "" {
		return s.locations, nil
	}
	var out []domain.StoreLocation
	for _, l := range s.locations {
		if strings.Contains(strings.ToLower(l.Name), strings.ToLower(query)) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *stubRepo) ListRegions(context.Context) ([]string, error) { return s.regions, nil }

func (s *stubRepo) ListDemand(context.Context, string) ([]domain.DemandRecord, error) {
	return nil, nil
}

func (s *stubRepo) ListAllDemand(context.Context) ([]domain.DemandRecord, error) { return s.all, nil }

func (s *stubRepo) SetDemands(_ context.Context, updates []domain.DemandUpdate) error {
	if s.setErr != nil {
		return s.setErr
	}
	s.set = append(s.set, updates)
	return nil
}

type stubPlanner struct {
	plan *domain.RoutePlan
	err  error
	last services.PlanDeliveriesRequest
}

func (s *stubPlanner) PlanDeliveries(_ context.Context, req services.PlanDeliveriesRequest) (*domain.RoutePlan, error) {
	s.last = req
	if s.err != nil {
		return nil, s.err
	}
	return s.plan, nil
}

func (s *stubPlanner) GetPlan(_ context.Context, id string) (*domain.RoutePlan, error) {
	if s.plan == nil || s.plan.PlanID != id {
		return nil, ports.ErrPlanNotFound
	}
	return s.plan, nil
}

var tala = domain.StoreLocation{
	ID: 1, Name: "Carrefour Tala Mall", Code: "A1-C-NL", Region: "Region 1",
	Coords: domain.Coordinates{Lat: 24.77191384, Lon: 46.66890489},
}

var panda = domain.StoreLocation{
	ID: 2, Name: "Panda 101", Code: "A1-P-NA", Region: "Region 1",
	Coords: domain.Coordinates{Lat: 24.80675473, Lon: 46.69284581},
}

func samplePlan() *domain.RoutePlan {
	return &domain.RoutePlan{
		PlanID:    "plan-1",
		Region:    "Region 1",
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Config:    domain.PlanConfig{VehicleCapacity: 400, VehicleCount: 1, CostPerKm: 1.5},
		Vehicles: []domain.VehiclePlan{{
			Vehicle:     1,
			DemandBoxes: 120,
			StoreCount:  1,
			DistanceKm:  12.5,
			CostSAR:     18.75,
			Trips: []domain.TripPlan{{
				Trip: 1, Load: 120, Solved: true, DistanceKm: 12.5, CostSAR: 18.75,
				Stops: []domain.PlannedStop{
					{Order: 1, IsDepot: true},
					{Order: 2, Location: &tala, Boxes: 120},
					{Order: 3, IsDepot: true},
				},
			}},
		}},
		Totals: domain.RegionTotals{DistanceKm: 12.5, CostSAR: 18.75, DemandBoxes: 120, StoreCount: 1, TripCount: 1},
	}
}

func newTestServer(repo *stubRepo, planner *stubPlanner) (http.Handler, *obs.Metrics) {
	m := obs.NewMetrics()
	h := NewRouter(Deps{
		Repo:    repo,
		Planner: planner,
		Metrics: m,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return h, m
}

func do(t *testing.T, h http.Handler, method, target string, body io.Reader, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var res map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res["error"]
}

func TestHealthAndRequestID(t *testing.T) {
	h, _ := newTestServer(&stubRepo{}, &stubPlanner{})

	rec := do(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = do(t, h, http.MethodGet, "/health", nil, "X-Request-ID", "abc-123")
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))

	rec = do(t, h, http.MethodPost, "/health", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, http.MethodGet, rec.Header().Get("Allow"))
}

func TestStoresAndRegions(t *testing.T) {
	repo := &stubRepo{locations: []domain.StoreLocation{tala, panda}, regions: []string{"Region 1"}}
	h, _ := newTestServer(repo, &stubPlanner{})

	rec := do(t, h, http.MethodGet, "/stores?q=panda", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var stores dto.ListStoresResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stores))
	require.Len(t, stores.Stores, 1)
	assert.Equal(t, int64(2), stores.Stores[0].LocationID)
	assert.Equal(t, "A1-P-NA", stores.Stores[0].Code)

	rec = do(t, h, http.MethodGet, "/regions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"regions":["Region 1"]}`, rec.Body.String())
}

func TestRegionsEmptyIsArray(t *testing.T) {
	h, _ := newTestServer(&stubRepo{}, &stubPlanner{})

	rec := do(t, h, http.MethodGet, "/regions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"regions":[]}`, rec.Body.String())
}

func TestSetDemands(t *testing.T) {
	repo := &stubRepo{}
	h, _ := newTestServer(repo, &stubPlanner{})

	rec := do(t, h, http.MethodPut, "/demands",
		strings.NewReader(`{"demands":[{"location_id":1,"boxes":120},{"location_id":2,"boxes":0}]}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"updated":2}`, rec.Body.String())

	require.Len(t, repo.set, 1)
	assert.Equal(t, []domain.DemandUpdate{{LocationID: 1, Boxes: 120}, {LocationID: 2, Boxes: 0}}, repo.set[0])
}

func TestSetDemandsRejectsBadBodies(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"not json", `{`},
		{"unknown field", `{"demands":[{"location_id":1,"boxes":1}],"extra":true}`},
		{"empty list", `{"demands":[]}`},
		{"missing boxes", `{"demands":[{"location_id":1}]}`},
		{"negative boxes", `{"demands":[{"location_id":1,"boxes":-5}]}`},
		{"huge boxes", `{"demands":[{"location_id":1,"boxes":3000000}]}`},
		{"zero id", `{"demands":[{"location_id":0,"boxes":5}]}`},
		{"two objects", `{"demands":[{"location_id":1,"boxes":1}]}{}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &stubRepo{}
			h, _ := newTestServer(repo, &stubPlanner{})

			rec := do(t, h, http.MethodPut, "/demands", strings.NewReader(tc.body))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.NotEmpty(t, errorBody(t, rec))
			assert.Empty(t, repo.set)
		})
	}
}

func TestSetDemandsRepositoryErrors(t *testing.T) {
	repo := &stubRepo{setErr: domain.NewInputError("location_id", "unknown location 99")}
	h, _ := newTestServer(repo, &stubPlanner{})

	rec := do(t, h, http.MethodPut, "/demands", strings.NewReader(`{"demands":[{"location_id":99,"boxes":1}]}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorBody(t, rec), "unknown location 99")

	repo.setErr = errors.New("disk full")
	rec = do(t, h, http.MethodPut, "/demands", strings.NewReader(`{"demands":[{"location_id":1,"boxes":1}]}`))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal server error", errorBody(t, rec))
}

func TestExportDemands(t *testing.T) {
	repo := &stubRepo{all: []domain.DemandRecord{{Location: tala, Boxes: 120}}}
	h, _ := newTestServer(repo, &stubPlanner{})

	rec := do(t, h, http.MethodGet, "/demands/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/csv"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "store,code,lat,lon,region,demand (boxes)", lines[0])
	assert.Equal(t, "Carrefour Tala Mall,A1-C-NL,24.77191384,46.66890489,Region 1,120", lines[1])
}

func TestImportDemands(t *testing.T) {
	repo := &stubRepo{locations: []domain.StoreLocation{tala, panda}}
	h, _ := newTestServer(repo, &stubPlanner{})

	csv := "store,code,lat,lon,region,demand (boxes)\n" +
		"Carrefour Tala Mall,A1-C-NL,24.77191384,46.66890489,Region 1,80\n" +
		"Ghost,ZZ-9,24.1,46.1,Region 9,10\n"

	rec := do(t, h, http.MethodPost, "/demands/import", strings.NewReader(csv), "Content-Type", "text/csv")
	require.Equal(t, http.StatusOK, rec.Code)

	var res dto.ImportDemandResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 1, res.Updated)
	require.Len(t, res.Unmatched, 1)
	assert.Equal(t, "ZZ-9", res.Unmatched[0].Code)

	require.Len(t, repo.set, 1)
	assert.Equal(t, []domain.DemandUpdate{{LocationID: 1, Boxes: 80}}, repo.set[0])
}

func TestImportDemandsXLSX(t *testing.T) {
	repo := &stubRepo{locations: []domain.StoreLocation{tala, panda}}
	h, _ := newTestServer(repo, &stubPlanner{})

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"store", "code", "lat", "lon", "region", "demand (boxes)"},
		{"Panda 101", "A1-P-NA", 24.80675473, 46.69284581, "Region 1", 40},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	require.NoError(t, f.Close())

	rec := do(t, h, http.MethodPost, "/demands/import", &buf,
		"Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"updated":1,"unmatched":[]}`, rec.Body.String())
	assert.Equal(t, []domain.DemandUpdate{{LocationID: 2, Boxes: 40}}, repo.set[0])
}

func TestImportDemandsBadFile(t *testing.T) {
	repo := &stubRepo{locations: []domain.StoreLocation{tala}}
	h, _ := newTestServer(repo, &stubPlanner{})

	rec := do(t, h, http.MethodPost, "/demands/import", strings.NewReader("store,code\nx,y\n"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, repo.set)
}

func TestPlanEndpoint(t *testing.T) {
	planner := &stubPlanner{plan: samplePlan()}
	h, _ := newTestServer(&stubRepo{}, planner)

	rec := do(t, h, http.MethodPost, "/plans",
		strings.NewReader(`{"region":" Region 1 ","vehicle_count":2,"cost_per_km":2.5}`))
	require.Equal(t, http.StatusOK, rec.Code)

	require.NotNil(t, planner.last.CostPerKm)
	assert.InDelta(t, 2.5, *planner.last.CostPerKm, 1e-12)
	assert.Equal(t, "Region 1", planner.last.Region)
	assert.Equal(t, 2, planner.last.VehicleCount)

	var plan domain.RoutePlan
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &plan))
	assert.Equal(t, "plan-1", plan.PlanID)
	assert.Equal(t, 120, plan.Totals.DemandBoxes)

	metrics := do(t, h, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, metrics.Code)
	assert.Contains(t, metrics.Body.String(), `http_requests_total{method="POST",status="200"} 1`)
}

func TestPlanEndpointRateOverride(t *testing.T) {
	planner := &stubPlanner{plan: samplePlan()}
	h, _ := newTestServer(&stubRepo{}, planner)

	rec := do(t, h, http.MethodPost, "/plans", strings.NewReader(`{"region":"Region 1"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, planner.last.CostPerKm)

	rec = do(t, h, http.MethodPost, "/plans", strings.NewReader(`{"region":"Region 1","cost_per_km":0}`))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, planner.last.CostPerKm)
	assert.Zero(t, *planner.last.CostPerKm)
}

func TestPlanEndpointErrors(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		err    error
		status int
	}{
		{"missing region", `{}`, nil, http.StatusBadRequest},
		{"too many vehicles", `{"region":"R","vehicle_count":51}`, nil, http.StatusBadRequest},
		{"negative rate", `{"region":"R","cost_per_km":-1}`, nil, http.StatusBadRequest},
		{"input error", `{"region":"R"}`, domain.NewInputError("region", `region "R" has no demand`), http.StatusBadRequest},
		{"internal", `{"region":"R"}`, errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h, _ := newTestServer(&stubRepo{}, &stubPlanner{err: tc.err})

			rec := do(t, h, http.MethodPost, "/plans", strings.NewReader(tc.body))
			assert.Equal(t, tc.status, rec.Code)
			assert.NotEmpty(t, errorBody(t, rec))
		})
	}
}

func TestGetAndExportPlan(t *testing.T) {
	h, _ := newTestServer(&stubRepo{}, &stubPlanner{plan: samplePlan()})

	rec := do(t, h, http.MethodGet, "/plans/plan-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var plan domain.RoutePlan
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &plan))
	assert.Equal(t, "Region 1", plan.Region)

	rec = do(t, h, http.MethodGet, "/plans/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "plan not found", errorBody(t, rec))

	rec = do(t, h, http.MethodGet, "/plans/plan-1/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "route-plan-plan-1.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), "Summary")

	rec = do(t, h, http.MethodGet, "/plans/missing/export", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
