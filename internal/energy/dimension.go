package energy

import (
	"math"

	"github.com/lazypower/vigor/internal/rules"
)

// NeutralScore is the level reported for a dimension with no rules.
const NeutralScore = 50.0

// EvaluateDimension scores one dimension from its rules and the input.
// Decay is applied first, then every firing drain and boost. The score is
// the same in whichever order the factors are visited; events are returned
// in sorted factor order, drains before boosts.
func EvaluateDimension(cfg *rules.DimensionConfig, dim Dimension, in Input) (float64, []Event) {
	if cfg == nil {
		return NeutralScore, nil
	}

	score := 100.0
	hours := math.Min(math.Max(in.HoursSinceReference, 0), cfg.BaseDecay.MaxHours)
	if hours > 0 {
		score -= hours * cfg.BaseDecay.RatePerHour * 100
	}

	var events []Event
	for _, key := range rules.SortedKeys(cfg.Drain) {
		f, ok := ParseDrainFactor(key)
		if !ok {
			continue
		}
		rule := cfg.Drain[key]
		if !f.fires(in, rule) {
			continue
		}
		score -= rule.Impact
		events = append(events, factorEvent(in, dim, Drain, key, rule, -rule.Impact))
	}
	for _, key := range rules.SortedKeys(cfg.Boost) {
		f, ok := ParseBoostFactor(key)
		if !ok {
			continue
		}
		rule := cfg.Boost[key]
		if !f.fires(in, rule) {
			continue
		}
		score += rule.Impact
		events = append(events, factorEvent(in, dim, Boost, key, rule, rule.Impact))
	}

	return Clamp(score), events
}

func factorEvent(in Input, dim Dimension, kind Kind, key string, rule rules.FactorRule, impact float64) Event {
	return Event{
		Timestamp:   in.Now,
		Dimension:   dim,
		Kind:        kind,
		Description: rule.Description,
		Impact:      impact,
		Source:      Automatic,
		Category:    key,
	}
}

// Clamp bounds v to [0, 100].
func Clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Min(math.Max(v, 0), 100)
}
