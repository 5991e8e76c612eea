package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/lazypower/vigor/internal/config"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}

func TestTraceHandlerAddsIDs(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.Default()
	cfg.Log.Format = "json"
	logger := slog.New(NewHandler(cfg, &buf))

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{1, 2, 3},
		SpanID:     trace.SpanID{4, 5, 6},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)
	logger.With("component", "engine").InfoContext(ctx, "evaluated")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "evaluated", rec["msg"])
	assert.Equal(t, "engine", rec["component"])
	assert.Equal(t, sc.TraceID().String(), rec["trace_id"])
	assert.Equal(t, sc.SpanID().String(), rec["span_id"])
}

func TestTraceHandlerWithoutSpan(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.Default()
	cfg.Log.Format = "json"
	slog.New(NewHandler(cfg, &buf)).Info("plain")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.NotContains(t, rec, "trace_id")
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.Default()
	cfg.Log.Level = "warn"
	logger := slog.New(NewHandler(cfg, &buf))
	logger.Info("hidden")
	assert.Empty(t, buf.String())
	logger.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}
