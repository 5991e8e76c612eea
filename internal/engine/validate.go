package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/lazypower/vigor/internal/energy"
)

// ErrInvalidEvent wraps every manual event rejection.
var ErrInvalidEvent = errors.New("invalid event")

const (
	maxDescriptionChars = 280
	maxManualImpact     = 100
)

// ManualEvent is a user-reported change, before validation.
type ManualEvent struct {
	Dimension   string  `json:"dimension"`
	Kind        string  `json:"kind"`
	Description string  `json:"description"`
	Impact      float64 `json:"impact"`
	Category    string  `json:"category,omitempty"`
}

// validateManual checks a manual event and returns it normalised: the
// description trimmed and bounded, the impact signed by kind.
func validateManual(m ManualEvent) (energy.Event, error) {
	dim, ok := energy.ParseDimension(strings.ToLower(strings.TrimSpace(m.Dimension)))
	if !ok {
		return energy.Event{}, fmt.Errorf("%w: unknown dimension %q", ErrInvalidEvent, m.Dimension)
	}
	kind, ok := energy.ParseKind(strings.ToLower(strings.TrimSpace(m.Kind)))
	if !ok {
		return energy.Event{}, fmt.Errorf("%w: kind must be drain or boost, got %q", ErrInvalidEvent, m.Kind)
	}

	desc := strings.TrimSpace(m.Description)
	if desc == "" {
		return energy.Event{}, fmt.Errorf("%w: empty description", ErrInvalidEvent)
	}
	desc = truncateClean(desc, maxDescriptionChars)

	if math.IsNaN(m.Impact) || math.IsInf(m.Impact, 0) {
		return energy.Event{}, fmt.Errorf("%w: impact is not a number", ErrInvalidEvent)
	}
	mag := math.Abs(m.Impact)
	if mag == 0 || mag > maxManualImpact {
		return energy.Event{}, fmt.Errorf("%w: impact magnitude must be in (0, %d], got %v", ErrInvalidEvent, maxManualImpact, m.Impact)
	}
	impact := mag
	if kind == energy.Drain {
		impact = -mag
	}

	return energy.Event{
		Dimension:   dim,
		Kind:        kind,
		Description: desc,
		Impact:      impact,
		Source:      energy.Manual,
		Category:    strings.ToLower(strings.TrimSpace(m.Category)),
	}, nil
}

// LogManualEvent validates and records a user-reported event.
func (e *Engine) LogManualEvent(ctx context.Context, m ManualEvent) (energy.Event, error) {
	ev, err := validateManual(m)
	if err != nil {
		return energy.Event{}, err
	}
	if e.deps.Events == nil {
		return energy.Event{}, fmt.Errorf("log manual event: no event log")
	}
	ev.Timestamp = e.opts.Now()

	stored, err := e.deps.Events.Append(ctx, ev)
	if err != nil {
		return energy.Event{}, fmt.Errorf("log manual event: %w", err)
	}
	e.logger.InfoContext(ctx, "manual event logged", "dimension", ev.Dimension, "kind", ev.Kind, "impact", ev.Impact)
	return stored[0], nil
}

// truncateClean truncates s to maxLen bytes, cutting at the last word
// boundary when one is close.
func truncateClean(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}

	truncated := s[:maxLen]
	if idx := strings.LastIndexFunc(truncated, unicode.IsSpace); idx > maxLen-40 {
		truncated = truncated[:idx]
	}
	for !utf8.ValidString(truncated) {
		truncated = truncated[:len(truncated)-1]
	}
	return strings.TrimSpace(truncated)
}
