package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/lazypower/vigor/internal/activity"
	"github.com/lazypower/vigor/internal/engine"
	"github.com/lazypower/vigor/internal/eventlog"
	"github.com/lazypower/vigor/internal/store"
)

// Server is the vigor HTTP API server.
type Server struct {
	db      *store.DB
	engine  *engine.Engine
	events  *eventlog.Log
	tracker *activity.Tracker
	router  chi.Router
	logger  *slog.Logger
	version string
	started time.Time
}

// New creates a Server over the running engine and its stores.
func New(db *store.DB, eng *engine.Engine, events *eventlog.Log, tracker *activity.Tracker, version string) *Server {
	s := &Server{
		db:      db,
		engine:  eng,
		events:  events,
		tracker: tracker,
		logger:  slog.With("component", "server"),
		version: version,
		started: time.Now(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Get("/snapshot", s.handleSnapshot)
		r.Get("/snapshots", s.handleSnapshots)
		r.Post("/evaluate", s.handleEvaluate)

		r.Get("/events", s.handleEvents)
		r.Post("/events", s.handleManualEvent)

		r.Get("/suggestions", s.handleSuggestions)
		r.Get("/rules", s.handleRules)

		r.Get("/activity", s.handleActivity)
		r.Post("/activity/{kind}", s.handleLogActivity)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbOK := true
	if err := s.db.Check(r.Context()); err != nil {
		dbOK = false
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Seconds(),
		"db":      dbOK,
		"db_path": s.db.Path,
		"engine":  s.engine.Status().String(),
		"stats":   s.engine.Stats(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
