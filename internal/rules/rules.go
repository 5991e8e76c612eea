// Package rules holds the versioned energy rule document: per-dimension decay
// and factor definitions, cross-dimension dependencies, prime score weights and
// the evaluation schedule. A Ruleset is loaded once and treated as read-only.
package rules

import (
	"slices"
	"sort"
	"time"
)

// DefaultFrequency is used when the document has no evaluation schedule.
const DefaultFrequency = 60 * time.Minute

// Ruleset is the parsed rule document.
type Ruleset struct {
	Version     string                     `json:"version"`
	LastUpdated string                     `json:"last_updated"`
	Engines     map[string]DimensionConfig `json:"energy_engines"`
	Cross       map[string]Dependency      `json:"cross_energy_dependencies"`
	Schedule    Schedule                   `json:"evaluation_schedule"`
	Weights     *Weights                   `json:"prime_score_weights"`

	// Source is the path the document was read from. Empty for the bundled
	// defaults and for the fallback used when no document exists.
	Source string `json:"-"`
}

// DimensionConfig describes how one dimension decays and which factors move it.
type DimensionConfig struct {
	BaseDecay BaseDecay             `json:"base_decay"`
	Drain     map[string]FactorRule `json:"drain_factors"`
	Boost     map[string]FactorRule `json:"boost_factors"`
}

type BaseDecay struct {
	RatePerHour float64 `json:"rate_per_hour"`
	MaxHours    float64 `json:"max_hours"`
}

// FactorRule is one drain or boost factor. Impact is a non-negative magnitude;
// the sign comes from whether the rule sits under drain or boost.
type FactorRule struct {
	Threshold   *float64 `json:"threshold,omitempty"`
	Impact      float64  `json:"impact"`
	Description string   `json:"description"`
}

// ThresholdOr returns the configured threshold, or def when none is set.
func (f FactorRule) ThresholdOr(def float64) float64 {
	if f.Threshold == nil {
		return def
	}
	return *f.Threshold
}

// Dependency adjusts a target dimension by Impact (signed) when the source
// dimension's raw value is below Threshold.
type Dependency struct {
	Threshold   float64 `json:"threshold"`
	Impact      float64 `json:"impact"`
	Description string  `json:"description"`
}

// Weights are the prime score multipliers. They need not sum to 1.
type Weights struct {
	Mental    float64 `json:"mental"`
	Physical  float64 `json:"physical"`
	Financial float64 `json:"financial"`
	Emotional float64 `json:"emotional"`
}

type Schedule struct {
	FrequencyMinutes int   `json:"frequency_minutes"`
	PeakHours        []int `json:"peak_hours"`
	OffHours         []int `json:"off_hours"`
}

// Frequency returns the periodic evaluation interval.
func (s Schedule) Frequency() time.Duration {
	if s.FrequencyMinutes <= 0 {
		return DefaultFrequency
	}
	return time.Duration(s.FrequencyMinutes) * time.Minute
}

// IntervalAt returns how long to wait before the next periodic evaluation
// when the clock reads hour, and whether that evaluation should run at all.
// Off hours skip the periodic evaluation; peak hours halve the interval.
func (s Schedule) IntervalAt(hour int) (time.Duration, bool) {
	freq := s.Frequency()
	if slices.Contains(s.OffHours, hour) {
		return freq, false
	}
	if slices.Contains(s.PeakHours, hour) {
		return freq / 2, true
	}
	return freq, true
}

// Dimension returns the configuration for the named dimension, or nil when the
// document does not define it.
func (r *Ruleset) Dimension(name string) *DimensionConfig {
	if r == nil {
		return nil
	}
	cfg, ok := r.Engines[name]
	if !ok {
		return nil
	}
	return &cfg
}

// Dependencies returns the cross-dimension dependencies (possibly empty).
func (r *Ruleset) Dependencies() map[string]Dependency {
	if r == nil {
		return nil
	}
	return r.Cross
}

// PrimeWeights returns the aggregation weights, nil when absent.
func (r *Ruleset) PrimeWeights() *Weights {
	if r == nil {
		return nil
	}
	return r.Weights
}

// SortedKeys returns the keys of a factor map in lexical order.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Empty returns the ruleset used when no document exists: every dimension is
// undefined, there are no dependencies or weights, and the schedule defaults.
func Empty() *Ruleset {
	return &Ruleset{
		Engines: map[string]DimensionConfig{},
		Cross:   map[string]Dependency{},
	}
}
