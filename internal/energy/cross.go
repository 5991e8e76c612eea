package energy

import (
	"strings"

	"github.com/lazypower/vigor/internal/rules"
)

// Link is a directed influence from one dimension onto another, named
// "<from>_to_<to>" in the rule document.
type Link struct {
	From Dimension
	To   Dimension
}

// The links shipped in the default rules.
var (
	MentalToEmotional    = Link{Mental, Emotional}
	PhysicalToMental     = Link{Physical, Mental}
	FinancialToEmotional = Link{Financial, Emotional}
	EmotionalToMental    = Link{Emotional, Mental}
)

func (l Link) String() string {
	return string(l.From) + "_to_" + string(l.To)
}

// ParseLink accepts any "<from>_to_<to>" key naming two distinct dimensions.
func ParseLink(key string) (Link, bool) {
	from, to, ok := strings.Cut(key, "_to_")
	if !ok {
		return Link{}, false
	}
	f, ok := ParseDimension(from)
	if !ok {
		return Link{}, false
	}
	t, ok := ParseDimension(to)
	if !ok || f == t {
		return Link{}, false
	}
	return Link{From: f, To: t}, true
}

// ResolveCross applies the cross-dimension dependencies to raw levels. Every
// condition reads the raw value of its source dimension, so the result does
// not depend on the order links are visited. Impacts on the same target
// accumulate and each dimension is clamped once at the end.
func ResolveCross(raw Levels, deps map[string]rules.Dependency) Levels {
	out := raw
	for _, key := range rules.SortedKeys(deps) {
		link, ok := ParseLink(key)
		if !ok {
			continue
		}
		dep := deps[key]
		if raw.Get(link.From) < dep.Threshold {
			out = out.With(link.To, out.Get(link.To)+dep.Impact)
		}
	}
	for _, d := range Dimensions {
		out = out.With(d, Clamp(out.Get(d)))
	}
	return out
}
