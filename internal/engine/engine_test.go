package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lazypower/vigor/internal/energy"
	"github.com/lazypower/vigor/internal/eventlog"
	"github.com/lazypower/vigor/internal/ids"
	"github.com/lazypower/vigor/internal/rules"
	"github.com/lazypower/vigor/internal/suggest"
)

var noon = time.Date(2026, 10, 14, 12, 0, 0, 0, time.Local)

// stubProvider returns fixed readings. With a gate set, Health blocks until
// the gate closes or the context ends.
type stubProvider struct {
	health  energy.Health
	usage   energy.Usage
	gate    chan struct{}
	entered chan struct{}
	calls   atomic.Int64
}

func (p *stubProvider) Health(ctx context.Context) (energy.Health, error) {
	p.calls.Add(1)
	if p.gate != nil {
		select {
		case p.entered <- struct{}{}:
		default:
		}
		select {
		case <-p.gate:
		case <-ctx.Done():
			return energy.Health{}, ctx.Err()
		}
	}
	return p.health, nil
}

func (p *stubProvider) Usage(context.Context) (energy.Usage, error) {
	return p.usage, nil
}

type memSnapshots struct {
	mu    sync.Mutex
	saved []energy.Snapshot
}

func (m *memSnapshots) SaveSnapshot(_ context.Context, s energy.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, s)
	return nil
}

func (m *memSnapshots) LatestSnapshot(context.Context) (*energy.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.saved) == 0 {
		return nil, nil
	}
	s := m.saved[len(m.saved)-1]
	return &s, nil
}

func (m *memSnapshots) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.saved)
}

type recordingFeed struct {
	mu    sync.Mutex
	snaps []energy.Snapshot
	err   error
}

func (f *recordingFeed) Publish(_ context.Context, s energy.Snapshot, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snaps = append(f.snaps, s)
	return f.err
}

func (f *recordingFeed) Close() error { return nil }

func (f *recordingFeed) snapshots() []energy.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]energy.Snapshot(nil), f.snaps...)
}

type failingActivity struct{}

func (failingActivity) Read(context.Context) (energy.Activity, energy.Finance, error) {
	return energy.Activity{}, energy.Finance{}, errors.New("database is locked")
}

// cancellingActivity cancels the evaluation while its read succeeds.
type cancellingActivity struct{ cancel context.CancelFunc }

func (c cancellingActivity) Read(context.Context) (energy.Activity, energy.Finance, error) {
	c.cancel()
	return energy.Activity{}, energy.Finance{IntentionalSpending: true}, nil
}

type fixture struct {
	engine    *Engine
	provider  *stubProvider
	events    *eventlog.MemoryStore
	snapshots *memSnapshots
	feed      *recordingFeed
}

func newFixture(t *testing.T, rs *rules.Ruleset) *fixture {
	t.Helper()
	f := &fixture{
		provider: &stubProvider{
			health: energy.Health{SleepHours: 5, StepCount: 2000, Hydration: 6, DietScore: 7, StressScore: 7},
			usage:  energy.Usage{AppSwitches: 80, ScreenMinutes: 240, ShortFormMinutes: 50, RecentBreakMinutes: 5, SocialMediaMinutes: 90},
		},
		events:    eventlog.NewMemoryStore(),
		snapshots: &memSnapshots{},
		feed:      &recordingFeed{},
	}
	log := eventlog.New(f.events, &ids.Sequence{})
	t.Cleanup(log.Close)

	f.engine = New(Deps{
		Rules:     rs,
		Telemetry: f.provider,
		Events:    log,
		Snapshots: f.snapshots,
		Feed:      f.feed,
		IDs:       &ids.Sequence{},
	}, Options{
		WakeOffset: 7 * time.Hour,
		Debounce: map[Source]time.Duration{
			SourceHealth:   20 * time.Millisecond,
			SourceUsage:    20 * time.Millisecond,
			SourceActivity: 10 * time.Millisecond,
		},
		Now: func() time.Time { return noon },
	})
	return f
}

func TestEvaluateNowPublishes(t *testing.T) {
	rs := rules.MustDefault()
	f := newFixture(t, rs)

	res, err := f.engine.EvaluateNow(context.Background())
	require.NoError(t, err)

	want := energy.Evaluate(rs, energy.Input{
		Now:                 noon,
		HoursSinceReference: 5,
		Health:              f.provider.health,
		Usage:               f.provider.usage,
		Finance:             energy.Finance{IntentionalSpending: true},
	})
	assert.Equal(t, want.Snapshot, res.Snapshot)
	require.NotNil(t, f.engine.Latest())
	assert.Equal(t, want.Snapshot, *f.engine.Latest())

	require.NotEmpty(t, res.Events)
	for _, ev := range res.Events {
		assert.NotZero(t, ev.ID, "stored events carry ids")
		assert.Equal(t, energy.Automatic, ev.Source)
	}
	assert.Len(t, f.events.All(), len(res.Events))
	assert.Equal(t, 1, f.snapshots.count())
	assert.Len(t, f.feed.snaps, 1)

	st := f.engine.Stats()
	assert.Equal(t, int64(1), st.Evaluations)
	assert.Equal(t, noon.UnixMilli(), st.LastEvaluated.UnixMilli())
	assert.Equal(t, Idle, f.engine.Status())
}

func TestEvaluateNowIsSingleFlight(t *testing.T) {
	f := newFixture(t, rules.MustDefault())
	f.provider.gate = make(chan struct{})
	f.provider.entered = make(chan struct{}, 1)

	done := make(chan error, 1)
	go func() {
		_, err := f.engine.EvaluateNow(context.Background())
		done <- err
	}()
	<-f.provider.entered
	assert.Equal(t, Evaluating, f.engine.Status())

	const n = 20
	var wg sync.WaitGroup
	var busy atomic.Int64
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.engine.EvaluateNow(context.Background()); errors.Is(err, ErrBusy) {
				busy.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(n), busy.Load())

	close(f.provider.gate)
	require.NoError(t, <-done)

	st := f.engine.Stats()
	assert.Equal(t, int64(1), st.Evaluations)
	assert.Equal(t, int64(n), st.Dropped)
	assert.Equal(t, int64(1), f.provider.calls.Load())
}

func TestCancelledEvaluationPublishesNothing(t *testing.T) {
	f := newFixture(t, rules.MustDefault())
	f.provider.gate = make(chan struct{})
	f.provider.entered = make(chan struct{}, 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := f.engine.EvaluateNow(ctx)
		done <- err
	}()
	<-f.provider.entered
	cancel()

	require.ErrorIs(t, <-done, context.Canceled)
	assert.Nil(t, f.engine.Latest())
	assert.Zero(t, f.snapshots.count())
	assert.Empty(t, f.events.All())
	assert.Empty(t, f.feed.snaps)
	assert.Equal(t, Idle, f.engine.Status())
}

func TestCancelledBeforeAppendLeavesNoEvents(t *testing.T) {
	f := newFixture(t, rules.MustDefault())
	ctx, cancel := context.WithCancel(context.Background())
	f.engine.deps.Activity = cancellingActivity{cancel: cancel}

	_, err := f.engine.EvaluateNow(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.events.All())
	assert.Nil(t, f.engine.Latest())
	assert.Zero(t, f.snapshots.count())
}

func TestAppendFailureStillPublishes(t *testing.T) {
	f := newFixture(t, rules.MustDefault())
	f.events.Err = errors.New("disk full")

	_, err := f.engine.EvaluateNow(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, f.engine.Latest())
	assert.Equal(t, int64(1), f.engine.Stats().AppendFailures)
}

func TestPublishFailureCounted(t *testing.T) {
	f := newFixture(t, rules.MustDefault())
	f.feed.err = errors.New("connection refused")

	_, err := f.engine.EvaluateNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), f.engine.Stats().PublishErrors)
	assert.NotNil(t, f.engine.Latest())
}

func TestActivityFailureDegrades(t *testing.T) {
	f := newFixture(t, rules.MustDefault())
	f.engine.deps.Activity = failingActivity{}

	res, err := f.engine.EvaluateNow(context.Background())
	require.NoError(t, err)
	for _, v := range []float64{res.Snapshot.Mental, res.Snapshot.Physical, res.Snapshot.Financial, res.Snapshot.Emotional} {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 100.0)
	}
}

func TestSnapshotsAreNeverTorn(t *testing.T) {
	rs := rules.MustDefault()
	f := newFixture(t, rs)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var readers sync.WaitGroup
	for i := 0; i < 4; i++ {
		readers.Add(1)
		go func() {
			defer readers.Done()
			for ctx.Err() == nil {
				s := f.engine.Latest()
				if s == nil {
					continue
				}
				if got, want := s.Prime, energy.Aggregate(s.Levels, rs.PrimeWeights()); got != want {
					t.Errorf("torn snapshot: prime %v, levels give %v", got, want)
					return
				}
			}
		}()
	}

	sleep := []float64{3, 5, 7, 9}
	for i := 0; i < 40; i++ {
		f.provider.health.SleepHours = sleep[i%len(sleep)]
		_, err := f.engine.EvaluateNow(context.Background())
		require.NoError(t, err)
	}
	cancel()
	readers.Wait()
}

// waitStartup waits for the evaluation Run performs when it starts.
func waitStartup(t *testing.T, f *fixture) {
	t.Helper()
	require.Eventually(t, func() bool {
		return f.engine.Stats().Evaluations == 1 && f.engine.Status() == Idle
	}, 2*time.Second, 5*time.Millisecond)
}

func TestRunEvaluatesAtStartup(t *testing.T) {
	f := newFixture(t, rules.MustDefault())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go f.engine.Run(ctx)

	waitStartup(t, f)
	require.NotNil(t, f.engine.Latest())
	assert.Equal(t, 1, f.snapshots.count())
	assert.Len(t, f.feed.snapshots(), 1)
}

func TestTriggerReportsPending(t *testing.T) {
	f := newFixture(t, rules.MustDefault())
	// no Run loop, so the first request stays pending
	assert.True(t, f.engine.Trigger())
	assert.False(t, f.engine.Trigger())
	assert.Equal(t, int64(1), f.engine.Stats().Dropped)
}

func TestRunTriggerAndStop(t *testing.T) {
	f := newFixture(t, rules.MustDefault())
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan error, 1)
	go func() { stopped <- f.engine.Run(ctx) }()
	waitStartup(t, f)

	assert.True(t, f.engine.Trigger())
	require.Eventually(t, func() bool { return f.engine.Stats().Evaluations == 2 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-stopped:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRunDebouncesPerSource(t *testing.T) {
	f := newFixture(t, rules.MustDefault())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go f.engine.Run(ctx)
	waitStartup(t, f)

	for i := 0; i < 5; i++ {
		f.engine.Notify(SourceUsage)
		time.Sleep(5 * time.Millisecond)
	}
	require.Eventually(t, func() bool { return f.engine.Stats().Evaluations == 2 }, 2*time.Second, 5*time.Millisecond)

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int64(2), f.engine.Stats().Evaluations, "burst from one source coalesces")
}

func TestRunPeriodic(t *testing.T) {
	f := newFixture(t, rules.MustDefault())
	var off atomic.Bool
	f.engine.intervalAt = func(int) (time.Duration, bool) { return 10 * time.Millisecond, !off.Load() }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go f.engine.Run(ctx)

	require.Eventually(t, func() bool { return f.engine.Stats().Evaluations >= 2 }, 2*time.Second, 5*time.Millisecond)

	off.Store(true)
	time.Sleep(30 * time.Millisecond)
	n := f.engine.Stats().Evaluations
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, n, f.engine.Stats().Evaluations, "off hours skip periodic runs")
}

func TestRunDropsTriggersWhileEvaluating(t *testing.T) {
	f := newFixture(t, rules.MustDefault())
	f.provider.gate = make(chan struct{})
	f.provider.entered = make(chan struct{}, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go f.engine.Run(ctx)

	// the startup evaluation holds the gate
	<-f.provider.entered
	for i := 0; i < 5; i++ {
		f.engine.Trigger()
		time.Sleep(2 * time.Millisecond)
	}
	require.Eventually(t, func() bool { return f.engine.Stats().Dropped == 5 }, time.Second, 5*time.Millisecond)

	close(f.provider.gate)
	require.Eventually(t, func() bool { return f.engine.Status() == Idle }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int64(1), f.engine.Stats().Evaluations, "dropped triggers are not queued")
}

func TestRestoreLatest(t *testing.T) {
	f := newFixture(t, rules.MustDefault())
	saved := energy.Snapshot{Timestamp: noon.Add(-time.Hour), Levels: energy.Levels{Mental: 61, Physical: 62, Financial: 63, Emotional: 64}, Prime: 62.5}
	require.NoError(t, f.snapshots.SaveSnapshot(context.Background(), saved))

	require.NoError(t, f.engine.Restore(context.Background()))
	require.NotNil(t, f.engine.Latest())
	assert.Equal(t, saved, *f.engine.Latest())
}

func TestHoursSinceReference(t *testing.T) {
	f := newFixture(t, nil)
	assert.Equal(t, 5.0, f.engine.hoursSinceReference(noon))
	assert.Equal(t, 0.0, f.engine.hoursSinceReference(time.Date(2026, 10, 14, 6, 0, 0, 0, time.Local)))
	assert.Equal(t, 0.5, f.engine.hoursSinceReference(time.Date(2026, 10, 14, 7, 30, 0, 0, time.Local)))
}

func TestEmptyRulesAreNeutral(t *testing.T) {
	f := newFixture(t, nil)
	res, err := f.engine.EvaluateNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, energy.Levels{Mental: 50, Physical: 50, Financial: 50, Emotional: 50}, res.Snapshot.Levels)
	assert.Equal(t, 50.0, res.Snapshot.Prime)
	assert.Empty(t, res.Events)
}

func TestSuggestions(t *testing.T) {
	f := newFixture(t, rules.MustDefault())

	got, err := f.engine.Suggestions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got, "no snapshot yet")

	f.engine.latest.Store(&energy.Snapshot{
		Timestamp: noon,
		Levels:    energy.Levels{Mental: 20, Physical: 80, Financial: 80, Emotional: 80},
	})
	got, err = f.engine.Suggestions(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, "Mental Energy Low", got[0].Title)
	assert.Equal(t, suggest.High, got[0].Priority)
}
