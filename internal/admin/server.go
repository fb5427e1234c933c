// Admin HTTP surface for live positions and zone management
package admin

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"indoortrack/internal/logging"
	"indoortrack/internal/telemetry"
	"indoortrack/internal/tracker"
	"indoortrack/internal/zone"
)

type Server struct {
	Tracker *tracker.Tracker
	tpl     *template.Template
}

//go:embed templates/index.html
var content embed.FS

func NewServer(tr *tracker.Tracker) *Server {
	tpl := template.Must(template.New("index.html").ParseFS(content, "templates/index.html"))
	return &Server{Tracker: tr, tpl: tpl}
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", s.handleIndex).Methods("GET")
	r.HandleFunc("/health", s.handleHealth).Methods("GET")
	r.HandleFunc("/positions", s.handlePositions).Methods("GET")
	r.HandleFunc("/zones", s.handleListZones).Methods("GET")
	r.HandleFunc("/zones", s.handleCreateZone).Methods("POST")
	r.HandleFunc("/zones/{id}", s.handleUpdateZone).Methods("PUT")
	r.HandleFunc("/zones/{id}", s.handleDeleteZone).Methods("DELETE")
	r.HandleFunc("/zones/{id}/occupancy", s.handleOccupancy).Methods("GET")
	r.HandleFunc("/devices/{id}/zones", s.handleDeviceZones).Methods("GET")
	return r
}

// Start serves the admin UI until the context is done, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	log := logging.FromContext(ctx)
	srv := &http.Server{
		Addr:    addr,
		Handler: handlers.LoggingHandler(os.Stderr, s.routes()),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	log.Info("admin server started", "addr", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := struct {
		Health    tracker.SiteHealth
		Positions []telemetry.PositionRow
		Zones     []*zone.Zone
	}{
		Health:    s.Tracker.Health(),
		Positions: s.Tracker.PositionSnapshot(),
		Zones:     s.Tracker.Zones(),
	}
	s.tpl.Execute(w, data)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Tracker.Health())
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Tracker.PositionSnapshot())
}

func (s *Server) handleListZones(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Tracker.Zones())
}

func (s *Server) handleCreateZone(w http.ResponseWriter, r *http.Request) {
	var z zone.Zone
	if err := json.NewDecoder(r.Body).Decode(&z); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	z.Enabled = true
	created, err := s.Tracker.CreateZone(z)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateZone(w http.ResponseWriter, r *http.Request) {
	var z zone.ZoneUpdate
	if err := json.NewDecoder(r.Body).Decode(&z); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	updated, err := s.Tracker.UpdateZone(mux.Vars(r)["id"], z)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteZone(w http.ResponseWriter, r *http.Request) {
	if !s.Tracker.DeleteZone(mux.Vars(r)["id"]) {
		http.Error(w, "zone not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleOccupancy(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, ok := s.Tracker.Zone(id); !ok {
		http.Error(w, "zone not found", http.StatusNotFound)
		return
	}
	occupants := s.Tracker.ZoneOccupancy(id)
	if occupants == nil {
		occupants = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"zone_id": id, "devices": occupants})
}

func (s *Server) handleDeviceZones(w http.ResponseWriter, r *http.Request) {
	zones := s.Tracker.DeviceZones(mux.Vars(r)["id"])
	if zones == nil {
		zones = []*zone.Zone{}
	}
	writeJSON(w, http.StatusOK, zones)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
