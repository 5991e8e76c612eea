package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lazypower/vigor/internal/activity"
	"github.com/lazypower/vigor/internal/engine"
	"github.com/lazypower/vigor/internal/eventlog"
)

const defaultSnapshotLimit = 24

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap := s.engine.Latest()
	if snap == nil {
		writeError(w, http.StatusNotFound, "no snapshot yet")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleSnapshots(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(w, r, defaultSnapshotLimit)
	if !ok {
		return
	}
	snaps, err := s.db.RecentSnapshots(r.Context(), limit)
	if err != nil {
		s.internalError(w, "list snapshots", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"snapshots": nonNil(snaps)})
}

// handleEvaluate starts an evaluation in the background, or runs it inline
// with ?wait=true.
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("wait") == "true" {
		res, err := s.engine.EvaluateNow(r.Context())
		if errors.Is(err, engine.ErrBusy) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		if err != nil {
			s.internalError(w, "evaluate", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"snapshot": res.Snapshot,
			"events":   nonNil(res.Events),
		})
		return
	}

	if s.engine.Status() == engine.Evaluating {
		writeError(w, http.StatusConflict, engine.ErrBusy.Error())
		return
	}
	if !s.engine.Trigger() {
		writeError(w, http.StatusConflict, "evaluation already pending")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "evaluating"})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if date := r.URL.Query().Get("date"); date != "" {
		day, err := time.ParseInLocation(activity.DayLayout, date, time.Local)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		events, err := s.events.ForDate(r.Context(), day)
		if err != nil {
			s.internalError(w, "events for date", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"events": nonNil(events)})
		return
	}

	limit, ok := queryLimit(w, r, eventlog.DefaultRecentLimit)
	if !ok {
		return
	}
	events, err := s.events.Recent(r.Context(), limit)
	if err != nil {
		s.internalError(w, "recent events", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": nonNil(events)})
}

func (s *Server) handleManualEvent(w http.ResponseWriter, r *http.Request) {
	var req engine.ManualEvent
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ev, err := s.engine.LogManualEvent(r.Context(), req)
	if errors.Is(err, engine.ErrInvalidEvent) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.internalError(w, "log event", err)
		return
	}
	writeJSON(w, http.StatusCreated, ev)
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	out, err := s.engine.Suggestions(r.Context())
	if err != nil {
		s.internalError(w, "suggestions", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"suggestions": out})
}

func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Rules())
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	day, err := s.tracker.Today(r.Context())
	if err != nil {
		s.internalError(w, "load activity", err)
		return
	}
	writeJSON(w, http.StatusOK, day)
}

func (s *Server) handleLogActivity(w http.ResponseWriter, r *http.Request) {
	kind, err := activity.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	entry := activity.Entry{Kind: kind}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body failed")
		return
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &entry); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
		entry.Kind = kind
	}

	day, err := s.tracker.Log(r.Context(), entry)
	if errors.Is(err, activity.ErrNegative) || errors.Is(err, activity.ErrUnknownKind) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.internalError(w, "log activity", err)
		return
	}
	writeJSON(w, http.StatusOK, day)
}

func (s *Server) internalError(w http.ResponseWriter, what string, err error) {
	s.logger.Error(what, "error", err)
	writeError(w, http.StatusInternalServerError, err.Error())
}

// queryLimit reads ?limit=, writing a 400 and returning false when malformed.
func queryLimit(w http.ResponseWriter, r *http.Request, def int) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		writeError(w, http.StatusBadRequest, "limit must be a positive integer")
		return 0, false
	}
	return n, true
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

