package energy

import (
	"time"

	"github.com/lazypower/vigor/internal/rules"
)

// Aggregate combines the four levels into the prime score: the weighted sum
// when weights are configured, the plain mean otherwise. The result is not
// clamped.
func Aggregate(l Levels, w *rules.Weights) float64 {
	if w == nil {
		return (l.Mental + l.Physical + l.Financial + l.Emotional) / 4
	}
	return l.Mental*w.Mental + l.Physical*w.Physical + l.Financial*w.Financial + l.Emotional*w.Emotional
}

// Result is the outcome of one full scoring pass.
type Result struct {
	Raw      Levels
	Snapshot Snapshot
	Events   []Event
}

// Evaluate runs the whole pipeline for one input: every dimension, then
// the cross dependencies, then aggregation.
func Evaluate(rs *rules.Ruleset, in Input) Result {
	var (
		raw    Levels
		events []Event
	)
	for _, d := range Dimensions {
		score, ev := EvaluateDimension(rs.Dimension(string(d)), d, in)
		raw = raw.With(d, score)
		events = append(events, ev...)
	}

	resolved := ResolveCross(raw, rs.Dependencies())
	ts := in.Now
	if ts.IsZero() {
		ts = time.Now()
	}
	return Result{
		Raw: raw,
		Snapshot: Snapshot{
			Timestamp: ts,
			Levels:    resolved,
			Prime:     Aggregate(resolved, rs.PrimeWeights()),
		},
		Events: events,
	}
}
