package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lazypower/vigor/internal/activity"
	"github.com/lazypower/vigor/internal/config"
	"github.com/lazypower/vigor/internal/energy"
	"github.com/lazypower/vigor/internal/engine"
	"github.com/lazypower/vigor/internal/eventlog"
	"github.com/lazypower/vigor/internal/feed"
	"github.com/lazypower/vigor/internal/ids"
	"github.com/lazypower/vigor/internal/rules"
	"github.com/lazypower/vigor/internal/store"
	"github.com/lazypower/vigor/internal/telemetry"
	"github.com/lazypower/vigor/internal/tracing"
)

// app is everything a command needs to evaluate locally.
type app struct {
	cfg       config.Config
	db        *store.DB
	events    *eventlog.Log
	tracker   *activity.Tracker
	telemetry *telemetry.Fallback
	feed      feed.Publisher
	otel      *tracing.Telemetry
	engine    *engine.Engine
}

// openDB opens the configured database, or ~/.vigor/vigor.db.
func openDB(cfg config.Config) (*store.DB, error) {
	dbPath := cfg.Database.Path
	if dbPath == "" {
		var err error
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return nil, err
		}
	}
	if dbPath == ":memory:" {
		return store.OpenMemory()
	}
	return store.Open(dbPath)
}

// loadRules reads the configured rule document, or the bundled one.
func loadRules(path string) (*rules.Ruleset, error) {
	var (
		rs  *rules.Ruleset
		err error
	)
	if path == "" {
		rs, err = rules.Default()
	} else {
		rs, err = rules.Load(path)
	}
	if err != nil {
		return nil, err
	}
	if unknown := energy.UnknownKeys(rs); len(unknown) > 0 {
		slog.Warn("rules reference unknown keys, they will be ignored", "component", "rules", "keys", strings.Join(unknown, ", "))
	}
	return rs, nil
}

// openApp wires the stores, providers and engine from cfg.
func openApp(ctx context.Context, cfg config.Config) (a *app, err error) {
	a = &app{cfg: cfg}
	defer func() {
		if err != nil {
			a.Close()
			a = nil
		}
	}()

	if a.otel, err = tracing.Setup(ctx, cfg.OTel, VersionString()); err != nil {
		return a, fmt.Errorf("setup tracing: %w", err)
	}

	rs, err := loadRules(cfg.Rules.Path)
	if err != nil {
		return a, err
	}

	if a.db, err = openDB(cfg); err != nil {
		return a, fmt.Errorf("open database: %w", err)
	}

	gen, err := ids.New(cfg.IDs.Node)
	if err != nil {
		return a, err
	}
	a.events = eventlog.New(a.db, gen)
	a.tracker = activity.New(a.db,
		activity.WithFinance(cfg.Finance.DailyBudget, cfg.Finance.TargetIncome),
		activity.WithRecorder(a.events),
	)

	if a.telemetry, err = telemetry.New(cfg.Telemetry); err != nil {
		return a, fmt.Errorf("telemetry: %w", err)
	}
	if a.feed, err = feed.New(cfg.Redis); err != nil {
		return a, fmt.Errorf("feed: %w", err)
	}

	wake, err := cfg.Engine.WakeOffset()
	if err != nil {
		return a, err
	}
	a.engine = engine.New(engine.Deps{
		Rules:     rs,
		Telemetry: a.telemetry,
		Activity:  a.tracker,
		Events:    a.events,
		Snapshots: a.db,
		Feed:      a.feed,
		IDs:       gen,
	}, engine.Options{
		WakeOffset: wake,
		Debounce: map[engine.Source]time.Duration{
			engine.SourceHealth:   cfg.Engine.HealthDebounce.Duration,
			engine.SourceUsage:    cfg.Engine.UsageDebounce.Duration,
			engine.SourceActivity: cfg.Engine.ActivityDebounce.Duration,
		},
		HistoryWindow: cfg.Engine.HistoryWindow.Duration,
	})
	if err := a.engine.Restore(ctx); err != nil {
		slog.Warn("could not restore snapshot", "error", err)
	}
	return a, nil
}

// Close releases everything openApp acquired, in reverse order.
func (a *app) Close() {
	if a.events != nil {
		a.events.Close()
	}
	if a.feed != nil {
		if err := a.feed.Close(); err != nil {
			slog.Warn("close feed", "error", err)
		}
	}
	if a.db != nil {
		a.db.Close()
	}
	if a.otel != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.otel.Shutdown(ctx); err != nil {
			slog.Warn("otel shutdown", "error", err)
		}
	}
}
