// Package logging configures the process-wide slog logger.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/trace"

	"github.com/lazypower/vigor/internal/config"
)

// Setup installs the default logger. Logs go to stderr so command output on
// stdout stays machine readable.
func Setup(cfg config.Config) {
	slog.SetDefault(slog.New(NewHandler(cfg, os.Stderr)))
}

// NewHandler picks the OTel bridge when export is enabled, otherwise a text
// or JSON handler that carries trace ids.
func NewHandler(cfg config.Config, w io.Writer) slog.Handler {
	if cfg.OTel.Enabled() {
		return otelslog.NewHandler(
			cfg.OTel.ServiceName,
			otelslog.WithLoggerProvider(global.GetLoggerProvider()),
		)
	}

	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Log.Level)}
	if cfg.Log.Format == "json" {
		return NewTraceHandler(slog.NewJSONHandler(w, opts))
	}
	return NewTraceHandler(slog.NewTextHandler(w, opts))
}

func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// TraceHandler adds the active span's trace and span ids to each record.
type TraceHandler struct {
	slog.Handler
}

func NewTraceHandler(h slog.Handler) *TraceHandler {
	return &TraceHandler{Handler: h}
}

func (h *TraceHandler) Handle(ctx context.Context, r slog.Record) error {
	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		sc := span.SpanContext()
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return h.Handler.Handle(ctx, r)
}

func (h *TraceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TraceHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *TraceHandler) WithGroup(name string) slog.Handler {
	return &TraceHandler{Handler: h.Handler.WithGroup(name)}
}
