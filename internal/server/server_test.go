package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lazypower/vigor/internal/activity"
	"github.com/lazypower/vigor/internal/engine"
	"github.com/lazypower/vigor/internal/eventlog"
	"github.com/lazypower/vigor/internal/ids"
	"github.com/lazypower/vigor/internal/rules"
	"github.com/lazypower/vigor/internal/store"
	"github.com/lazypower/vigor/internal/telemetry"
)

var testNow = time.Date(2026, 10, 14, 12, 0, 0, 0, time.Local)

func testServer(t *testing.T) *Server {
	t.Helper()
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	clock := func() time.Time { return testNow }
	events := eventlog.New(db, &ids.Sequence{})
	t.Cleanup(events.Close)
	tracker := activity.New(db, activity.WithClock(clock), activity.WithFinance(100, 0), activity.WithRecorder(events))

	eng := engine.New(engine.Deps{
		Rules:     rules.MustDefault(),
		Telemetry: telemetry.NewFallback(telemetry.NewEstimated(clock)),
		Activity:  tracker,
		Events:    events,
		Snapshots: db,
		IDs:       &ids.Sequence{},
	}, engine.Options{WakeOffset: 7 * time.Hour, Now: clock})

	return New(db, eng, events, tracker, "test-version")
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
	return body
}

func TestHealthEndpoint(t *testing.T) {
	srv := testServer(t)

	w := do(t, srv, "GET", "/api/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	body := decode(t, w)
	if body["status"] != "ok" {
		t.Errorf("status = %v, want ok", body["status"])
	}
	if body["version"] != "test-version" {
		t.Errorf("version = %v, want test-version", body["version"])
	}
	if body["db"] != true {
		t.Errorf("db = %v, want true", body["db"])
	}
	if body["engine"] != "idle" {
		t.Errorf("engine = %v, want idle", body["engine"])
	}
}

func TestUnknownRoute(t *testing.T) {
	srv := testServer(t)
	if w := do(t, srv, "GET", "/api/nope", ""); w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}
