package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"campus_router/pkg/config"
	"campus_router/pkg/geo"
	"campus_router/pkg/graph"
	"campus_router/pkg/routing"
)

// mockPlanner implements routing.Planner for testing.
type mockPlanner struct {
	directions *routing.Directions
	err        error
	nearest    graph.Building
	found      bool

	gotX, gotY float64
}

func (m *mockPlanner) Directions(ctx context.Context, from, to string) (*routing.Directions, error) {
	return m.directions, m.err
}

func (m *mockPlanner) NearestBuilding(x, y, threshold float64) (graph.Building, bool) {
	m.gotX, m.gotY = x, y
	return m.nearest, m.found
}

// testCampus is A at (0,0), a junction at (0,10) and B at (10,10).
func testCampus(t *testing.T) *graph.Map {
	t.Helper()
	m, err := graph.Build(&graph.MapData{
		Buildings: []graph.BuildingRecord{
			{ID: "A", Floors: []graph.FloorRecord{{Name: "1", Position: "A:1"}}},
			{ID: "B", Floors: []graph.FloorRecord{{Name: "1", Position: "B:1"}}},
		},
		Waypoints: []graph.WaypointRecord{
			{Key: "A:1", X: 0, Y: 0},
			{Key: "j", X: 0, Y: 10},
			{Key: "B:1", X: 10, Y: 10},
		},
		Edges: []graph.EdgeRecord{{From: "A:1", To: "j"}, {From: "j", To: "B:1"}},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return m
}

func realDirections(t *testing.T) *routing.Directions {
	t.Helper()
	s, err := routing.NewService(testCampus(t), routing.Options{ToleranceDegrees: 20}, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	d, err := s.Directions(context.Background(), "A", "B")
	if err != nil {
		t.Fatalf("Directions: %v", err)
	}
	return d
}

func postRoute(h *Handlers, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/api/v1/route", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.HandleRoute(w, req)
	return w
}

func TestHandleRoute_Success(t *testing.T) {
	h := NewHandlers(&mockPlanner{directions: realDirections(t)}, StatsResponse{}, HandlerOptions{})

	w := postRoute(h, `{"from":"A","to":"B"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200. body: %s", w.Code, w.Body.String())
	}

	var resp RouteResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	want := []string{
		"Start at A and go straight to (0, 10)",
		"Turn left and continue to B",
	}
	if diff := cmp.Diff(want, resp.Instructions); diff != "" {
		t.Errorf("instructions mismatch (-want +got):\n%s", diff)
	}
	if resp.Weight != 20 || resp.From != "A" || resp.To != "B" {
		t.Errorf("resp = %+v", resp)
	}
	if len(resp.Steps) != 2 || resp.Steps[1].Kind != "left" {
		t.Fatalf("steps = %+v", resp.Steps)
	}
	if resp.Steps[0].Turn || !resp.Steps[1].Turn {
		t.Errorf("turn flags = %v, %v; want false, true", resp.Steps[0].Turn, resp.Steps[1].Turn)
	}
	if diff := cmp.Diff([]string{"A", "B"}, resp.Through); diff != "" {
		t.Errorf("through mismatch (-want +got):\n%s", diff)
	}
}

func TestHandleRoute_GeoJSON(t *testing.T) {
	h := NewHandlers(&mockPlanner{directions: realDirections(t)}, StatsResponse{}, HandlerOptions{})

	w := postRoute(h, `{"from":"A","to":"B","format":"geojson"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200. body: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/geo+json" {
		t.Errorf("Content-Type = %q", ct)
	}
	var fc struct {
		Type     string            `json:"type"`
		Features []json.RawMessage `json:"features"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &fc); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if fc.Type != "FeatureCollection" || len(fc.Features) == 0 {
		t.Errorf("feature collection = %s", w.Body.String())
	}
}

func TestHandleRoute_BadRequests(t *testing.T) {
	h := NewHandlers(&mockPlanner{}, StatsResponse{}, HandlerOptions{})

	tests := []struct {
		name string
		body string
		code string
	}{
		{"invalid json", "not json", "invalid_request"},
		{"missing from", `{"to":"B"}`, "missing_building"},
		{"missing to", `{"from":"A"}`, "missing_building"},
		{"unknown format", `{"from":"A","to":"B","format":"kml"}`, "invalid_format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postRoute(h, tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
			var resp ErrorResponse
			json.Unmarshal(w.Body.Bytes(), &resp)
			if resp.Error != tt.code {
				t.Errorf("error = %q, want %q", resp.Error, tt.code)
			}
		})
	}
}

func TestHandleRoute_MissingContentType(t *testing.T) {
	h := NewHandlers(&mockPlanner{}, StatsResponse{}, HandlerOptions{})

	req := httptest.NewRequest("POST", "/api/v1/route", strings.NewReader(`{"from":"A","to":"B"}`))
	w := httptest.NewRecorder()

	h.HandleRoute(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestHandleRoute_Errors(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("%w: building %q", graph.ErrNotFound, "X"), http.StatusNotFound, "unknown_building"},
		{routing.ErrInvalidRequest, http.StatusBadRequest, "same_building"},
		{routing.ErrNoRoute, http.StatusNotFound, "no_route_found"},
		{context.DeadlineExceeded, http.StatusServiceUnavailable, "request_timeout"},
		{fmt.Errorf("disk on fire"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			h := NewHandlers(&mockPlanner{err: tt.err}, StatsResponse{}, HandlerOptions{})
			w := postRoute(h, `{"from":"A","to":"B"}`)
			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
			var resp ErrorResponse
			json.Unmarshal(w.Body.Bytes(), &resp)
			if resp.Error != tt.code {
				t.Errorf("error = %q, want %q", resp.Error, tt.code)
			}
		})
	}
}

func TestHandleNearest(t *testing.T) {
	m := testCampus(t)
	b, _ := m.BuildingByID("B")
	mock := &mockPlanner{nearest: b, found: true}
	h := NewHandlers(mock, StatsResponse{}, HandlerOptions{
		Buildings:  Catalog(m),
		Dimensions: geo.Dimensions{Width: 200, Height: 100},
	})

	req := httptest.NewRequest("GET", "/api/v1/nearest?x=0.05&y=0.1", nil)
	w := httptest.NewRecorder()
	h.HandleNearest(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200. body: %s", w.Code, w.Body.String())
	}
	if mock.gotX != 10 || mock.gotY != 10 {
		t.Errorf("tap scaled to (%v, %v), want (10, 10)", mock.gotX, mock.gotY)
	}
	var resp NearestResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	want := NearestResponse{Building: "B", Position: PointJSON{X: 10, Y: 10}}
	if diff := cmp.Diff(want, resp); diff != "" {
		t.Errorf("response mismatch (-want +got):\n%s", diff)
	}
}

func TestHandleNearest_Errors(t *testing.T) {
	h := NewHandlers(&mockPlanner{}, StatsResponse{}, HandlerOptions{Dimensions: geo.Dimensions{Width: 10, Height: 10}})

	tests := []struct {
		query  string
		status int
	}{
		{"x=0.5", http.StatusBadRequest},
		{"x=abc&y=0.5", http.StatusBadRequest},
		{"x=1.5&y=0.5", http.StatusBadRequest},
		{"x=0.5&y=-0.1", http.StatusBadRequest},
		{"x=0.5&y=0.5", http.StatusNotFound},
	}
	for _, tt := range tests {
		req := httptest.NewRequest("GET", "/api/v1/nearest?"+tt.query, nil)
		w := httptest.NewRecorder()
		h.HandleNearest(w, req)
		if w.Code != tt.status {
			t.Errorf("%s: status = %d, want %d", tt.query, w.Code, tt.status)
		}
	}
}

func TestHandleBuildings(t *testing.T) {
	h := NewHandlers(&mockPlanner{}, StatsResponse{}, HandlerOptions{Buildings: Catalog(testCampus(t))})

	req := httptest.NewRequest("GET", "/api/v1/buildings", nil)
	w := httptest.NewRecorder()
	h.HandleBuildings(w, req)

	var resp []BuildingJSON
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	want := []BuildingJSON{
		{ID: "A", Floors: []string{"1"}, Main: "1", Position: PointJSON{X: 0, Y: 0}},
		{ID: "B", Floors: []string{"1"}, Main: "1", Position: PointJSON{X: 10, Y: 10}},
	}
	if diff := cmp.Diff(want, resp); diff != "" {
		t.Errorf("buildings mismatch (-want +got):\n%s", diff)
	}
}

func TestHandleHealth(t *testing.T) {
	h := NewHandlers(&mockPlanner{}, StatsResponse{}, HandlerOptions{})

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()

	h.HandleHealth(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}

	var resp HealthResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Status != "ok" {
		t.Errorf("status = %q, want 'ok'", resp.Status)
	}
}

func TestHandleStats(t *testing.T) {
	h := NewHandlers(&mockPlanner{}, Stats(testCampus(t)), HandlerOptions{})

	req := httptest.NewRequest("GET", "/api/v1/stats", nil)
	w := httptest.NewRecorder()

	h.HandleStats(w, req)

	var resp StatsResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	want := StatsResponse{NumBuildings: 2, NumFloors: 2, NumWaypoints: 3, NumEdges: 2, NumComponents: 1}
	if diff := cmp.Diff(want, resp); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}
}

func TestServerMiddleware(t *testing.T) {
	cfg := config.Default().Server
	cfg.CORSOrigin = "https://campus.example"
	h := NewHandlers(&mockPlanner{}, StatsResponse{}, HandlerOptions{})
	srv := httptest.NewServer(NewServer(cfg, h, nil).Handler)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/health")
	if err != nil {
		t.Fatalf("GET health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if _, err := uuid.Parse(resp.Header.Get(RequestIDHeader)); err != nil {
		t.Errorf("request id %q: %v", resp.Header.Get(RequestIDHeader), err)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != cfg.CORSOrigin {
		t.Errorf("CORS origin = %q", got)
	}

	// A valid caller-supplied id is echoed.
	id := uuid.NewString()
	req, _ := http.NewRequest("GET", srv.URL+"/api/v1/stats", nil)
	req.Header.Set(RequestIDHeader, id)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET stats: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get(RequestIDHeader); got != id {
		t.Errorf("request id = %q, want %q", got, id)
	}

	// Wrong method is rejected by the mux.
	resp, err = http.Post(srv.URL+"/api/v1/health", "application/json", nil)
	if err != nil {
		t.Fatalf("POST health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
}
