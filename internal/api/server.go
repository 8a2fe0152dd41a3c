// Package api serves the dashboard's JSON endpoints, the share card, and
// the operational surface (health, readiness, Prometheus metrics). All tide
// reads come from the in-memory snapshots; the SQLite archive backs the
// skill, hindcast and ingest-health endpoints.
package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Keelando/surf-website-front-end-sub000/internal/imagegen"
	"github.com/Keelando/surf-website-front-end-sub000/internal/snapshot"
	"github.com/Keelando/surf-website-front-end-sub000/internal/store"
	"github.com/Keelando/surf-website-front-end-sub000/internal/tide"
)

type Server struct {
	snapshots *snapshot.Holder
	store     *store.Store
	port      string
	loc       *time.Location
	rec       tide.Reconciler
	clock     clockwork.Clock
	cards     *imagegen.CardCache
}

func NewServer(snapshots *snapshot.Holder, st *store.Store, port string, loc *time.Location) *Server {
	return &Server{
		snapshots: snapshots,
		store:     st,
		port:      port,
		loc:       loc,
		rec:       tide.NewReconciler(loc),
		clock:     clockwork.NewRealClock(),
		cards:     imagegen.NewCardCache(5 * time.Minute),
	}
}

// SetClock replaces the wall clock used for day windows and now estimates.
// Tests pin it so windowed responses are reproducible.
func (s *Server) SetClock(clock clockwork.Clock) {
	s.clock = clock
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/stations", s.handleStations)
	mux.HandleFunc("GET /api/tides/{station}", s.handleTides)
	mux.HandleFunc("GET /api/tides/{station}/now", s.handleNow)
	mux.HandleFunc("GET /api/tides/{station}/events", s.handleEvents)
	mux.HandleFunc("GET /api/tides/{station}/skill", s.handleSkill)
	mux.HandleFunc("GET /api/waterlevel/{station}", s.handleWaterLevel)
	mux.HandleFunc("GET /api/surge", s.handleSurge)
	mux.HandleFunc("GET /api/hindcast/{station}", s.handleHindcast)
	mux.HandleFunc("GET /api/ingest/health", s.handleIngestHealth)
	mux.HandleFunc("GET /api/debug/feeds/{feed}", s.handleDebugFeed)
	// Wildcards must span a whole path segment, so the .png suffix is
	// stripped inside the handler.
	mux.HandleFunc("GET /card/{file}", s.handleCard)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    ":" + s.port,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	version, err := s.store.MigrationVersion()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "error", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "schema_version": version})
}

// handleReadyz reports ready once the first tide snapshot has published.
// Surge is advisory: the dashboard renders tides without it.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if !s.snapshots.Ready() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "waiting", "reason": "no tide snapshot yet"})
		return
	}
	td, _ := s.snapshots.Tide()
	_, surgeOK := s.snapshots.Surge()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":               "ready",
		"stations":             len(td.Stations),
		"snapshot_age_seconds": int(s.clock.Now().Sub(td.FetchedAt).Seconds()),
		"surge":                surgeOK,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("api: write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeUnavailable is the empty-state response: the request was fine, the
// data simply is not there yet. Always 200 so dashboards can poll it
// without tripping error alerting.
func writeUnavailable(w http.ResponseWriter, reason string) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "unavailable", "reason": reason})
}
