package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lazypower/vigor/internal/energy"
	"github.com/lazypower/vigor/internal/rules"
)

// run executes the root command with a config pointing at a fresh database.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	return runIn(t, dir, args...)
}

func runIn(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	cfgPath := filepath.Join(dir, "config.toml")
	if _, err := os.Stat(cfgPath); err != nil {
		doc := "[database]\npath = " + quote(filepath.Join(dir, "vigor.db")) + "\n\n[log]\nlevel = \"error\"\n"
		if err := os.WriteFile(cfgPath, []byte(doc), 0644); err != nil {
			t.Fatalf("write config: %v", err)
		}
	}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestVersionShort(t *testing.T) {
	out, err := run(t, "version", "--short")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if strings.TrimSpace(out) != Version {
		t.Errorf("output = %q, want %q", out, Version)
	}
	versionShort = false
}

func TestEvaluateJSON(t *testing.T) {
	out, err := run(t, "evaluate", "--json")
	evaluateJSON = false
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	var got struct {
		Snapshot energy.Snapshot `json:"snapshot"`
		Events   []energy.Event  `json:"events"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	for _, d := range energy.Dimensions {
		if v := got.Snapshot.Get(d); v < 0 || v > 100 {
			t.Errorf("%s = %v, out of range", d, v)
		}
	}
	if got.Snapshot.Timestamp.IsZero() {
		t.Error("snapshot has no timestamp")
	}
}

func TestLogThenEvents(t *testing.T) {
	dir := t.TempDir()

	out, err := runIn(t, dir, "log", "mental", "drain", "8", "three", "hours", "of", "meetings")
	if err != nil {
		t.Fatalf("log: %v", err)
	}
	if !strings.Contains(out, "three hours of meetings") {
		t.Errorf("log output = %q", out)
	}

	out, err = runIn(t, dir, "events", "--json", "--date", "today")
	eventsJSON, eventsDate = false, ""
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	var events []energy.Event
	if err := json.Unmarshal([]byte(out), &events); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].Impact != -8 || events[0].Source != energy.Manual {
		t.Errorf("event = %+v", events[0])
	}
}

func TestLogRejectsBadImpact(t *testing.T) {
	if _, err := run(t, "log", "mental", "drain", "lots", "x"); err == nil {
		t.Fatal("expected an error for a non-numeric impact")
	}
	if _, err := run(t, "log", "spiritual", "drain", "5", "x"); err == nil {
		t.Fatal("expected an error for an unknown dimension")
	}
}

func TestRulesValidate(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "rules.json")
	if err := os.WriteFile(good, rules.DefaultDocument(), 0644); err != nil {
		t.Fatal(err)
	}
	out, err := runIn(t, dir, "rules", "validate", good)
	if err != nil {
		t.Fatalf("validate default: %v", err)
	}
	if !strings.Contains(out, "valid") {
		t.Errorf("output = %q", out)
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`{"energy_engines": "nope"}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := runIn(t, dir, "rules", "validate", bad); err == nil {
		t.Error("expected a schema error")
	}

	if _, err := runIn(t, dir, "rules", "validate", filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestActivityLocal(t *testing.T) {
	t.Setenv("VIGOR_URL", "http://127.0.0.1:1")
	dir := t.TempDir()

	out, err := runIn(t, dir, "activity", "meditation")
	if err != nil {
		t.Fatalf("activity: %v", err)
	}
	if !strings.Contains(out, "Logged meditation") {
		t.Errorf("output = %q", out)
	}

	if _, err := runIn(t, dir, "activity", "juggling"); err == nil {
		t.Error("expected an error for an unknown kind")
	}
}
