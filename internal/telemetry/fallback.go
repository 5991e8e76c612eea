package telemetry

import (
	"context"
	"log/slog"
	"sync"

	"github.com/lazypower/vigor/internal/energy"
)

// Defaults used when a provider fails before ever producing a reading.
var (
	DefaultHealth = energy.Health{
		SleepHours: 7,
		StepCount:  0,
		Workout:    false,
	}
	DefaultUsage = energy.Usage{
		AppSwitches:        20,
		ScreenMinutes:      120,
		ShortFormMinutes:   15,
		RecentBreakMinutes: 10,
		SocialMediaMinutes: 0,
	}
)

func init() {
	// derived scores for the defaults, as if measured at noon with no heart rate
	DefaultHealth.Hydration = HydrationScore(DefaultHealth.StepCount)
	DefaultHealth.DietScore = DietScore(12)
	DefaultHealth.StressScore = StressScore(0, DefaultHealth.Workout)
}

// Fallback wraps a provider so reads never fail: an error yields the last
// good reading, or the defaults if there is none.
type Fallback struct {
	inner  Provider
	logger *slog.Logger

	mu         sync.Mutex
	lastHealth *energy.Health
	lastUsage  *energy.Usage
}

func NewFallback(p Provider) *Fallback {
	return &Fallback{inner: p, logger: slog.With("component", "telemetry")}
}

// Inner returns the wrapped provider.
func (f *Fallback) Inner() Provider { return f.inner }

func (f *Fallback) Health(ctx context.Context) (energy.Health, error) {
	h, err := f.inner.Health(ctx)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.logger.Warn("health reading failed, using fallback", "error", err, "cached", f.lastHealth != nil)
		if f.lastHealth != nil {
			return *f.lastHealth, nil
		}
		return DefaultHealth, nil
	}
	f.lastHealth = &h
	return h, nil
}

func (f *Fallback) Usage(ctx context.Context) (energy.Usage, error) {
	u, err := f.inner.Usage(ctx)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.logger.Warn("usage reading failed, using fallback", "error", err, "cached", f.lastUsage != nil)
		if f.lastUsage != nil {
			return *f.lastUsage, nil
		}
		return DefaultUsage, nil
	}
	f.lastUsage = &u
	return u, nil
}
