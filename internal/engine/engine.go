package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lazypower/vigor/internal/energy"
	"github.com/lazypower/vigor/internal/feed"
	"github.com/lazypower/vigor/internal/rules"
	"github.com/lazypower/vigor/internal/suggest"
	"github.com/lazypower/vigor/internal/telemetry"
	"github.com/lazypower/vigor/internal/tracing"
)

// ErrBusy is returned by EvaluateNow while another evaluation is running.
var ErrBusy = errors.New("evaluation already in progress")

// State is the orchestrator's evaluation gate.
type State int32

const (
	Idle State = iota
	Evaluating
)

func (s State) String() string {
	if s == Evaluating {
		return "evaluating"
	}
	return "idle"
}

// Source names a change notifier.
type Source string

const (
	SourceHealth   Source = "health"
	SourceUsage    Source = "usage"
	SourceActivity Source = "activity"
)

// Default quiet periods per source.
var DefaultDebounce = map[Source]time.Duration{
	SourceHealth:   2 * time.Second,
	SourceUsage:    2 * time.Second,
	SourceActivity: time.Second,
}

// EventLog is where fired and manual events are recorded.
type EventLog interface {
	Append(ctx context.Context, events ...energy.Event) ([]energy.Event, error)
	Since(ctx context.Context, since time.Time) ([]energy.Event, error)
}

// SnapshotStore keeps published snapshots across restarts.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, s energy.Snapshot) error
	LatestSnapshot(ctx context.Context) (*energy.Snapshot, error)
}

// ActivitySource reports today's activity and finance signals.
type ActivitySource interface {
	Read(ctx context.Context) (energy.Activity, energy.Finance, error)
}

// Deps are the engine's collaborators. Rules, Telemetry and Events are
// required; the rest may be nil.
type Deps struct {
	Rules     *rules.Ruleset
	Telemetry telemetry.Provider
	Activity  ActivitySource
	Events    EventLog
	Snapshots SnapshotStore
	Feed      feed.Publisher
	IDs       suggest.IDSource
}

type Options struct {
	// WakeOffset is the daily reference time as an offset from midnight.
	WakeOffset time.Duration
	// Debounce overrides DefaultDebounce per source.
	Debounce map[Source]time.Duration
	// HistoryWindow bounds the events handed to the suggestion engine.
	HistoryWindow time.Duration
	Now           func() time.Time
}

// Stats are running counters since the engine started.
type Stats struct {
	Evaluations    int64     `json:"evaluations"`
	Dropped        int64     `json:"dropped_triggers"`
	AppendFailures int64     `json:"append_failures"`
	PublishErrors  int64     `json:"publish_errors"`
	LastEvaluated  time.Time `json:"last_evaluated,omitzero"`
}

// Engine schedules evaluations, runs them one at a time and publishes the
// resulting snapshot.
type Engine struct {
	deps     Deps
	opts     Options
	debounce map[Source]time.Duration
	logger   *slog.Logger

	state  atomic.Int32
	latest atomic.Pointer[energy.Snapshot]

	triggerCh chan struct{}
	notifyCh  chan Source

	// periodic interval for the current hour; replaced in tests
	intervalAt func(hour int) (time.Duration, bool)

	evaluations   atomic.Int64
	dropped       atomic.Int64
	appendErrs    atomic.Int64
	publishErrs   atomic.Int64
	lastEvaluated atomic.Int64

	wg sync.WaitGroup
}

// New wires an engine. It does not start the control loop; call Run.
func New(deps Deps, opts Options) *Engine {
	if deps.Rules == nil {
		deps.Rules = rules.Empty()
	}
	if deps.Feed == nil {
		deps.Feed = feed.Nop{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.HistoryWindow <= 0 {
		opts.HistoryWindow = 48 * time.Hour
	}

	debounce := make(map[Source]time.Duration, len(DefaultDebounce))
	for src, d := range DefaultDebounce {
		debounce[src] = d
	}
	for src, d := range opts.Debounce {
		if d > 0 {
			debounce[src] = d
		}
	}

	e := &Engine{
		deps:      deps,
		opts:      opts,
		debounce:  debounce,
		logger:    slog.With("component", "engine"),
		triggerCh: make(chan struct{}, 1),
		notifyCh:  make(chan Source, 16),
	}
	e.intervalAt = deps.Rules.Schedule.IntervalAt
	return e
}

// Rules returns the ruleset the engine evaluates with.
func (e *Engine) Rules() *rules.Ruleset { return e.deps.Rules }

// Status reports whether an evaluation is running.
func (e *Engine) Status() State { return State(e.state.Load()) }

// Latest returns the most recently published snapshot, nil before the first.
func (e *Engine) Latest() *energy.Snapshot {
	s := e.latest.Load()
	if s == nil {
		return nil
	}
	cp := *s
	return &cp
}

func (e *Engine) Stats() Stats {
	st := Stats{
		Evaluations:    e.evaluations.Load(),
		Dropped:        e.dropped.Load(),
		AppendFailures: e.appendErrs.Load(),
		PublishErrors:  e.publishErrs.Load(),
	}
	if ms := e.lastEvaluated.Load(); ms > 0 {
		st.LastEvaluated = time.UnixMilli(ms)
	}
	return st
}

// Restore loads the last persisted snapshot as the published one.
func (e *Engine) Restore(ctx context.Context) error {
	if e.deps.Snapshots == nil {
		return nil
	}
	snap, err := e.deps.Snapshots.LatestSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("restore snapshot: %w", err)
	}
	if snap != nil {
		e.latest.CompareAndSwap(nil, snap)
	}
	return nil
}

// Trigger requests an evaluation and reports whether it was accepted. It
// never blocks; the request is dropped when one is already pending.
func (e *Engine) Trigger() bool {
	select {
	case e.triggerCh <- struct{}{}:
		return true
	default:
		e.drop("manual")
		return false
	}
}

// Notify reports that src has new data. Evaluation starts once src has been
// quiet for its debounce period.
func (e *Engine) Notify(src Source) {
	select {
	case e.notifyCh <- src:
	default:
		e.logger.Debug("notification queue full", "source", src)
	}
}

// Run is the control loop. It owns the periodic timer and the per-source
// quiet timers and returns when ctx is done, after any in-flight
// evaluation has stopped.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.Restore(ctx); err != nil {
		e.logger.Warn("could not restore snapshot", "error", err)
	}

	interval, _ := e.intervalAt(e.opts.Now().Hour())
	periodic := time.NewTimer(interval)
	defer periodic.Stop()

	type quietFired struct {
		src Source
		gen int
	}
	fired := make(chan quietFired, len(DefaultDebounce)+4)
	quiet := map[Source]*time.Timer{}
	gens := map[Source]int{}
	defer func() {
		for _, t := range quiet {
			t.Stop()
		}
	}()

	e.logger.Info("engine started", "interval", interval)
	e.start(ctx, "startup")
	for {
		select {
		case <-ctx.Done():
			e.wg.Wait()
			e.logger.Info("engine stopped")
			return nil

		case <-periodic.C:
			hour := e.opts.Now().Hour()
			if _, run := e.intervalAt(hour); run {
				e.start(ctx, "periodic")
			} else {
				e.logger.Debug("periodic evaluation skipped in off hours", "hour", hour)
			}
			next, _ := e.intervalAt(e.opts.Now().Hour())
			periodic.Reset(next)

		case <-e.triggerCh:
			e.start(ctx, "manual")

		case src := <-e.notifyCh:
			if t, ok := quiet[src]; ok {
				t.Stop()
			}
			gens[src]++
			msg := quietFired{src: src, gen: gens[src]}
			quiet[src] = time.AfterFunc(e.debounceFor(src), func() {
				select {
				case fired <- msg:
				default:
				}
			})

		case f := <-fired:
			// a timer reset after it already fired
			if f.gen != gens[f.src] {
				continue
			}
			delete(quiet, f.src)
			e.start(ctx, "change:"+string(f.src))
		}
	}
}

func (e *Engine) debounceFor(src Source) time.Duration {
	if d, ok := e.debounce[src]; ok {
		return d
	}
	return time.Second
}

func (e *Engine) drop(reason string) {
	e.dropped.Add(1)
	e.logger.Debug("trigger dropped", "reason", reason, "state", e.Status())
}

// start runs one evaluation in the background if the gate is idle.
func (e *Engine) start(ctx context.Context, reason string) {
	if !e.state.CompareAndSwap(int32(Idle), int32(Evaluating)) {
		e.drop(reason)
		return
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer e.state.Store(int32(Idle))
		if _, err := e.evaluate(ctx, reason); err != nil && ctx.Err() == nil {
			e.logger.Error("evaluation failed", "reason", reason, "error", err)
		}
	}()
}

// EvaluateNow runs one evaluation on the calling goroutine.
func (e *Engine) EvaluateNow(ctx context.Context) (energy.Result, error) {
	if !e.state.CompareAndSwap(int32(Idle), int32(Evaluating)) {
		e.drop("now")
		return energy.Result{}, ErrBusy
	}
	defer e.state.Store(int32(Idle))
	return e.evaluate(ctx, "now")
}

func (e *Engine) evaluate(ctx context.Context, reason string) (res energy.Result, err error) {
	ctx, span := tracing.Start(ctx, "engine.evaluate")
	defer func() { tracing.End(span, err) }()

	started := time.Now()
	now := e.opts.Now()

	in := e.gather(ctx, now)
	res = energy.Evaluate(e.deps.Rules, in)

	// an abandoned evaluation leaves no events behind
	if err := ctx.Err(); err != nil {
		return energy.Result{}, err
	}

	if len(res.Events) > 0 && e.deps.Events != nil {
		stored, aerr := e.deps.Events.Append(ctx, res.Events...)
		if aerr != nil {
			e.appendErrs.Add(1)
			e.logger.ErrorContext(ctx, "append events failed", "count", len(res.Events), "error", aerr)
		} else {
			res.Events = stored
		}
	}

	// a cancelled evaluation publishes nothing
	if err := ctx.Err(); err != nil {
		return energy.Result{}, err
	}

	snap := res.Snapshot
	e.latest.Store(&snap)
	e.evaluations.Add(1)
	e.lastEvaluated.Store(now.UnixMilli())

	if e.deps.Snapshots != nil {
		if serr := e.deps.Snapshots.SaveSnapshot(ctx, snap); serr != nil {
			e.logger.ErrorContext(ctx, "save snapshot failed", "error", serr)
		}
	}
	if perr := e.deps.Feed.Publish(ctx, snap, len(res.Events)); perr != nil {
		e.publishErrs.Add(1)
		e.logger.WarnContext(ctx, "publish snapshot failed", "error", perr)
	}

	e.logger.InfoContext(ctx, "evaluated",
		"reason", reason,
		"prime", snap.Prime,
		"mental", snap.Mental,
		"physical", snap.Physical,
		"financial", snap.Financial,
		"emotional", snap.Emotional,
		"events", len(res.Events),
		"took", time.Since(started),
	)
	return res, nil
}

// gather reads every provider concurrently and merges the readings into one
// input. Provider failures degrade to defaults.
func (e *Engine) gather(ctx context.Context, now time.Time) energy.Input {
	ctx, span := tracing.Start(ctx, "engine.gather")
	defer span.End()

	in := energy.Input{
		Now:                 now,
		HoursSinceReference: e.hoursSinceReference(now),
		Finance:             energy.Finance{IntentionalSpending: true},
	}

	var wg sync.WaitGroup
	if e.deps.Telemetry != nil {
		wg.Add(2)
		go func() {
			defer wg.Done()
			h, err := e.deps.Telemetry.Health(ctx)
			if err != nil {
				e.logger.WarnContext(ctx, "health unavailable", "error", err)
				h = telemetry.DefaultHealth
			}
			in.Health = h
		}()
		go func() {
			defer wg.Done()
			u, err := e.deps.Telemetry.Usage(ctx)
			if err != nil {
				e.logger.WarnContext(ctx, "usage unavailable", "error", err)
				u = telemetry.DefaultUsage
			}
			in.Usage = u
		}()
	} else {
		in.Health = telemetry.DefaultHealth
		in.Usage = telemetry.DefaultUsage
	}
	if e.deps.Activity != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a, f, err := e.deps.Activity.Read(ctx)
			if err != nil {
				e.logger.WarnContext(ctx, "activity unavailable", "error", err)
				return
			}
			in.Activity = a
			in.Finance = f
		}()
	}
	wg.Wait()
	return in
}

// hoursSinceReference is the time since today's wake time, never negative.
func (e *Engine) hoursSinceReference(now time.Time) float64 {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	h := now.Sub(midnight.Add(e.opts.WakeOffset)).Hours()
	return max(h, 0)
}

// Suggestions generates advice from the latest snapshot and recent events.
func (e *Engine) Suggestions(ctx context.Context) ([]suggest.Suggestion, error) {
	now := e.opts.Now()
	var events []energy.Event
	if e.deps.Events != nil {
		var err error
		events, err = e.deps.Events.Since(ctx, now.Add(-e.opts.HistoryWindow))
		if err != nil {
			return nil, fmt.Errorf("load recent events: %w", err)
		}
	}
	return suggest.Generate(e.Latest(), events, now, e.deps.IDs), nil
}
