package admin

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"indoortrack/internal/config"
	"indoortrack/internal/telemetry"
	"indoortrack/internal/tracker"
	"indoortrack/internal/zone"
)

type nopWriter struct{}

func (nopWriter) Write(telemetry.PositionRow) error { return nil }

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := &config.TrackingConfig{
		SiteID: "site-test",
		Sensors: []config.Sensor{
			{ID: "s1", Type: "esphome", X: 0, Y: 0},
		},
		Zones: []config.Zone{
			{ID: "z1", Name: "Lobby", Coordinates: [][2]float64{{0, 0}, {10, 0}, {10, 10}, {0, 10}}},
		},
	}
	tr, err := tracker.NewTracker("site-test", cfg, nopWriter{}, nil, time.Second)
	if err != nil {
		t.Fatalf("NewTracker: %v", err)
	}
	return NewServer(tr)
}

func TestHandleHealth(t *testing.T) {
	server := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	server.routes().ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status OK, got %v", resp.StatusCode)
	}
	var h tracker.SiteHealth
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if h.SiteID != "site-test" || h.Sensors != 1 || h.Zones != 1 {
		t.Errorf("unexpected health data: %+v", h)
	}
}

func TestZoneLifecycle(t *testing.T) {
	server := newTestServer(t)
	router := server.routes()

	// Create
	body := `{"name":"Desk","coordinates":[{"x":0,"y":0},{"x":2,"y":0},{"x":2,"y":2}]}`
	req := httptest.NewRequest(http.MethodPost, "/zones", strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d (%s)", w.Code, w.Body.String())
	}
	var created zone.Zone
	if err := json.NewDecoder(w.Body).Decode(&created); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if created.ID == "" || created.Name != "Desk" || !created.Enabled {
		t.Errorf("unexpected created zone: %+v", created)
	}

	// List
	req = httptest.NewRequest(http.MethodGet, "/zones", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	var zones []zone.Zone
	if err := json.NewDecoder(w.Body).Decode(&zones); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(zones) != 2 {
		t.Fatalf("expected 2 zones, got %d", len(zones))
	}

	// Update (name only; enabled must survive)
	req = httptest.NewRequest(http.MethodPut, "/zones/"+created.ID, strings.NewReader(`{"name":"Standing Desk"}`))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d", w.Code)
	}
	var updated zone.Zone
	if err := json.NewDecoder(w.Body).Decode(&updated); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if updated.Name != "Standing Desk" || !updated.Enabled {
		t.Errorf("unexpected updated zone: %+v", updated)
	}

	// Delete
	req = httptest.NewRequest(http.MethodDelete, "/zones/"+created.ID, nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", w.Code)
	}

	// Delete again
	req = httptest.NewRequest(http.MethodDelete, "/zones/"+created.ID, nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("second delete: expected 404, got %d", w.Code)
	}
}

func TestRejectsBadZone(t *testing.T) {
	server := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/zones", strings.NewReader(`{"name":"Sliver","coordinates":[{"x":0,"y":0}]}`))
	w := httptest.NewRecorder()
	server.routes().ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestHandleOccupancy(t *testing.T) {
	server := newTestServer(t)
	router := server.routes()

	req := httptest.NewRequest(http.MethodGet, "/zones/z1/occupancy", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var data struct {
		ZoneID  string   `json:"zone_id"`
		Devices []string `json:"devices"`
	}
	if err := json.NewDecoder(w.Body).Decode(&data); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if data.ZoneID != "z1" || len(data.Devices) != 0 {
		t.Errorf("unexpected occupancy: %+v", data)
	}

	req = httptest.NewRequest(http.MethodGet, "/zones/missing/occupancy", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown zone, got %d", w.Code)
	}
}

func TestHandlePositionsEmpty(t *testing.T) {
	server := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/positions", nil)
	w := httptest.NewRecorder()
	server.routes().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}
