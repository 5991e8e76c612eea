package telemetry

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lazypower/vigor/internal/config"
	"github.com/lazypower/vigor/internal/energy"
)

func clock(t time.Time) func() time.Time { return func() time.Time { return t } }

// 2026-10-14 is a Wednesday.
var weekdayNoon = time.Date(2026, 10, 14, 12, 0, 0, 0, time.Local)

func TestDeriveFillsMissingScores(t *testing.T) {
	h := Derive(Raw{SleepHours: 6, StepCount: 9000, RestingHeartRate: 82}, weekdayNoon)
	assert.Equal(t, 6.0, h.SleepHours)
	assert.Equal(t, 8.0, h.Hydration)
	assert.Equal(t, 8.0, h.DietScore)
	assert.Equal(t, 5.0, h.StressScore)

	h = Derive(Raw{StepCount: 6000, Workout: true, DietScore: 3}, weekdayNoon.Add(4*time.Hour))
	assert.Equal(t, 7.0, h.Hydration)
	assert.Equal(t, 3.0, h.DietScore, "measured score kept")
	assert.Equal(t, 2.0, h.StressScore)
}

func TestStressScoreFloor(t *testing.T) {
	assert.Equal(t, 2.0, StressScore(60, true))
	assert.Equal(t, 3.0, StressScore(75, true))
	assert.GreaterOrEqual(t, StressScore(0, true), 1.0)
}

func TestEstimatedUsage(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want energy.Usage
	}{
		{
			name: "before wake",
			now:  time.Date(2026, 10, 14, 5, 0, 0, 0, time.Local),
			want: energy.Usage{ScreenMinutes: 0, AppSwitches: 0, ShortFormMinutes: 2, RecentBreakMinutes: 22, SocialMediaMinutes: 2},
		},
		{
			name: "weekday noon",
			now:  weekdayNoon,
			want: energy.Usage{ScreenMinutes: 125, AppSwitches: 31, ShortFormMinutes: 17, RecentBreakMinutes: 2, SocialMediaMinutes: 10},
		},
		{
			name: "saturday evening",
			now:  time.Date(2026, 10, 17, 19, 0, 0, 0, time.Local),
			want: energy.Usage{ScreenMinutes: 546, AppSwitches: 136, ShortFormMinutes: 32, RecentBreakMinutes: 2, SocialMediaMinutes: 49},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := NewEstimated(clock(tt.now)).Usage(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, u)
		})
	}
}

func TestEstimatedHealthDeterministic(t *testing.T) {
	e := NewEstimated(clock(weekdayNoon))
	a, err := e.Health(context.Background())
	require.NoError(t, err)
	b, _ := e.Health(context.Background())
	assert.Equal(t, a, b)
	assert.Equal(t, 2500, a.StepCount)
	assert.Equal(t, 7.0, a.SleepHours)
}

func TestFileProvider(t *testing.T) {
	dir := t.TempDir()
	f := NewFile(dir, clock(weekdayNoon))

	_, err := f.Health(context.Background())
	require.ErrorIs(t, err, ErrNoReading)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "health.json"),
		[]byte(`{"sleep_hours": 5.5, "step_count": 12000, "workout": true, "resting_heart_rate": 65}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "usage.yaml"),
		[]byte("app_switches: 80\nscreen_minutes: 300\nshort_form_minutes: 45\nrecent_break_minutes: 5\nsocial_media_minutes: 90\n"), 0644))

	h, err := f.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5.5, h.SleepHours)
	assert.Equal(t, 12000, h.StepCount)
	assert.True(t, h.Workout)
	assert.Equal(t, 8.0, h.Hydration)
	assert.Equal(t, 2.0, h.StressScore)

	u, err := f.Usage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, energy.Usage{AppSwitches: 80, ScreenMinutes: 300, ShortFormMinutes: 45, RecentBreakMinutes: 5, SocialMediaMinutes: 90}, u)
}

func TestFileProviderDecodeError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "usage.json"), []byte("{not json"), 0644))
	_, err := NewFile(dir, nil).Usage(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoReading)
}

type flaky struct {
	fail   atomic.Bool
	health energy.Health
	usage  energy.Usage
}

func (f *flaky) Health(context.Context) (energy.Health, error) {
	if f.fail.Load() {
		return energy.Health{}, errors.New("sensor offline")
	}
	return f.health, nil
}

func (f *flaky) Usage(context.Context) (energy.Usage, error) {
	if f.fail.Load() {
		return energy.Usage{}, errors.New("sensor offline")
	}
	return f.usage, nil
}

func TestFallbackDefaultsThenLastKnown(t *testing.T) {
	ctx := context.Background()
	p := &flaky{
		health: energy.Health{SleepHours: 8.5, StepCount: 4000},
		usage:  energy.Usage{ScreenMinutes: 42},
	}
	p.fail.Store(true)
	fb := NewFallback(p)

	h, err := fb.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultHealth, h)
	u, err := fb.Usage(ctx)
	require.NoError(t, err)
	assert.Equal(t, 120, u.ScreenMinutes)
	assert.Equal(t, 20, u.AppSwitches)

	p.fail.Store(false)
	h, _ = fb.Health(ctx)
	assert.Equal(t, 8.5, h.SleepHours)
	u, _ = fb.Usage(ctx)
	assert.Equal(t, 42, u.ScreenMinutes)

	p.fail.Store(true)
	h, _ = fb.Health(ctx)
	assert.Equal(t, 8.5, h.SleepHours, "last known survives failure")
	u, _ = fb.Usage(ctx)
	assert.Equal(t, 42, u.ScreenMinutes)
}

func TestNewSelectsProvider(t *testing.T) {
	fb, err := New(config.TelemetryConfig{Provider: "estimated"})
	require.NoError(t, err)
	assert.IsType(t, &Estimated{}, fb.Inner())

	fb, err = New(config.TelemetryConfig{Provider: "file", Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &File{}, fb.Inner())

	_, err = New(config.TelemetryConfig{Provider: "file"})
	assert.Error(t, err)
	_, err = New(config.TelemetryConfig{Provider: "healthkit"})
	assert.Error(t, err)
}

func TestWatchCoalescesWrites(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan Signal, 8)
	require.NoError(t, Watch(ctx, dir, func(s Signal) { got <- s }))

	path := filepath.Join(dir, "usage.json")
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte(`{"screen_minutes": 1}`), 0644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))

	select {
	case s := <-got:
		assert.Equal(t, SignalUsage, s)
	case <-time.After(3 * time.Second):
		t.Fatal("no change notification")
	}

	select {
	case s := <-got:
		t.Fatalf("unexpected second notification: %s", s)
	case <-time.After(4 * settleDelay):
	}
}

func TestSignalForFile(t *testing.T) {
	for name, want := range map[string]Signal{
		"/x/health.json": SignalHealth,
		"health.yml":     SignalHealth,
		"usage.yaml":     SignalUsage,
	} {
		got, ok := signalForFile(name)
		assert.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}
	_, ok := signalForFile("health.toml")
	assert.False(t, ok)
}
