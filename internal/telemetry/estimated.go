package telemetry

import (
	"context"
	"time"

	"github.com/lazypower/vigor/internal/energy"
)

// Estimated guesses readings from the time of day. It never fails and gives
// the same answer for the same clock reading.
type Estimated struct {
	now func() time.Time
}

func NewEstimated(now func() time.Time) *Estimated {
	if now == nil {
		now = time.Now
	}
	return &Estimated{now: now}
}

const assumedWakeHour = 7

func (e *Estimated) Health(ctx context.Context) (energy.Health, error) {
	now := e.now()
	awake := max(now.Hour()-assumedWakeHour, 0)
	return Derive(Raw{
		SleepHours: DefaultHealth.SleepHours,
		StepCount:  awake * 500,
	}, now), nil
}

func (e *Estimated) Usage(ctx context.Context) (energy.Usage, error) {
	now := e.now()
	hour := now.Hour()
	weekend := now.Weekday() == time.Saturday || now.Weekday() == time.Sunday

	screen := EstimateScreenMinutes(hour, weekend)
	return energy.Usage{
		AppSwitches:        screen / 4,
		ScreenMinutes:      screen,
		ShortFormMinutes:   estimateShortForm(hour),
		RecentBreakMinutes: estimateBreak(screen),
		SocialMediaMinutes: estimateSocial(hour, weekend),
	}, nil
}

// EstimateScreenMinutes is cumulative screen time since a 07:00 wake.
func EstimateScreenMinutes(hour int, weekend bool) int {
	awake := max(hour-assumedWakeHour, 0)

	var perHour int
	switch {
	case hour >= 7 && hour <= 9:
		perHour = 15
	case hour >= 10 && hour <= 12:
		perHour = 25
	case hour >= 13 && hour <= 14:
		perHour = 20
	case hour >= 15 && hour <= 17:
		perHour = 30
	case hour >= 18 && hour <= 20:
		perHour = 35
	case hour >= 21 && hour <= 23:
		perHour = 40
	default:
		perHour = 10
	}

	minutes := awake * perHour
	if weekend {
		minutes = minutes * 13 / 10
	}
	return minutes
}

func estimateShortForm(hour int) int {
	switch {
	case hour >= 7 && hour <= 11:
		return 10
	case hour >= 12 && hour <= 17:
		return 17
	case hour >= 18 && hour <= 23:
		return 32
	}
	return 2
}

func estimateSocial(hour int, weekend bool) int {
	var base int
	switch {
	case hour >= 7 && hour <= 9:
		base = 15
	case hour >= 10 && hour <= 12:
		base = 10
	case hour >= 13 && hour <= 14:
		base = 20
	case hour >= 15 && hour <= 17:
		base = 15
	case hour >= 18 && hour <= 23:
		base = 35
	default:
		base = 2
	}
	if weekend {
		return base * 14 / 10
	}
	return base
}

func estimateBreak(screen int) int {
	switch {
	case screen < 30:
		return 22
	case screen < 60:
		return 10
	}
	return 2
}
