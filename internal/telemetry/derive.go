package telemetry

import (
	"math"
	"time"

	"github.com/lazypower/vigor/internal/energy"
)

// Raw is what a host exports about the body: the measured values before the
// derived scores are filled in.
type Raw struct {
	SleepHours       float64 `json:"sleep_hours" yaml:"sleep_hours"`
	StepCount        int     `json:"step_count" yaml:"step_count"`
	Workout          bool    `json:"workout" yaml:"workout"`
	RestingHeartRate float64 `json:"resting_heart_rate" yaml:"resting_heart_rate"`
	// Optional measured scores; zero means derive.
	Hydration   float64 `json:"hydration,omitempty" yaml:"hydration,omitempty"`
	DietScore   float64 `json:"diet_score,omitempty" yaml:"diet_score,omitempty"`
	StressScore float64 `json:"stress_score,omitempty" yaml:"stress_score,omitempty"`
}

// Derive builds a health reading, estimating hydration, diet and stress when
// the host did not measure them.
func Derive(r Raw, now time.Time) energy.Health {
	h := energy.Health{
		SleepHours:  r.SleepHours,
		StepCount:   r.StepCount,
		Workout:     r.Workout,
		Hydration:   r.Hydration,
		DietScore:   r.DietScore,
		StressScore: r.StressScore,
	}
	if h.Hydration == 0 {
		h.Hydration = HydrationScore(r.StepCount)
	}
	if h.DietScore == 0 {
		h.DietScore = DietScore(now.Hour())
	}
	if h.StressScore == 0 {
		h.StressScore = StressScore(r.RestingHeartRate, r.Workout)
	}
	return h
}

// HydrationScore estimates hydration on a 0-10 scale from activity.
func HydrationScore(steps int) float64 {
	bonus := 0.0
	switch {
	case steps > 8000:
		bonus = 2
	case steps > 5000:
		bonus = 1
	}
	return math.Min(6+bonus, 10)
}

// DietScore is slightly higher around meal times.
func DietScore(hour int) float64 {
	meal := (hour >= 7 && hour <= 9) || (hour >= 12 && hour <= 14) || (hour >= 18 && hour <= 20)
	if meal {
		return 8
	}
	return 7
}

// StressScore estimates stress from resting heart rate; lower is calmer.
func StressScore(restingHR float64, workout bool) float64 {
	s := 3.0
	switch {
	case restingHR > 80:
		s += 2
	case restingHR > 70:
		s++
	}
	if workout {
		s--
	}
	return math.Max(s, 1)
}
