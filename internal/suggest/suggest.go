// Package suggest turns the current energy snapshot and recent history into a
// ranked list of suggestions. Suggestions are recomputed in full on every
// call and never stored.
package suggest

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/lazypower/vigor/internal/energy"
	"github.com/lazypower/vigor/internal/eventlog"
	"github.com/lazypower/vigor/internal/ids"
)

type Category string

const (
	Recovery     Category = "recovery"
	Optimization Category = "optimization"
	PatternAlert Category = "patternAlert"
	Opportunity  Category = "opportunity"
)

type Priority string

const (
	Low    Priority = "low"
	Medium Priority = "medium"
	High   Priority = "high"
)

func (p Priority) rank() int {
	switch p {
	case High:
		return 2
	case Medium:
		return 1
	}
	return 0
}

type Action string

const (
	Meditate  Action = "meditation"
	Exercise  Action = "exercise"
	Journal   Action = "journaling"
	Reflect   Action = "reflection"
	TakeBreak Action = "break"
	KeepGoing Action = "continue"
)

type Suggestion struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Category    Category         `json:"category"`
	Priority    Priority         `json:"priority"`
	Action      Action           `json:"action"`
	Dimension   energy.Dimension `json:"dimension,omitempty"`
	Timestamp   time.Time        `json:"timestamp"`
}

// IDSource hands out suggestion ids.
type IDSource interface {
	Next() int64
}

// Thresholds used by the detectors.
const (
	CriticalLevel    = 30.0
	FatigueLevel     = 40.0
	FatigueCount     = 3
	HabitWindow      = 24 * time.Hour
	DrainBoostFactor = 2
)

type detector func(snap *energy.Snapshot, events []energy.Event, now time.Time) []Suggestion

var detectors = []detector{
	criticalLevels,
	missedHabits,
	multiFatigue,
	patterns,
	timeOfDay,
	crossPairs,
}

// Generate runs every detector and returns the suggestions ordered by
// priority, high first. Within a priority the detector order is kept.
// Suggestions with identical titles collapse to the first. A nil snapshot
// yields no suggestions.
func Generate(snap *energy.Snapshot, events []energy.Event, now time.Time, src IDSource) []Suggestion {
	out := []Suggestion{}
	if snap == nil {
		return out
	}
	if src == nil {
		src = &ids.Sequence{}
	}

	seen := map[string]bool{}
	for _, detect := range detectors {
		for _, s := range detect(snap, events, now) {
			if seen[s.Title] {
				continue
			}
			seen[s.Title] = true
			s.ID = ids.Format(src.Next())
			s.Timestamp = now
			out = append(out, s)
		}
	}

	slices.SortStableFunc(out, func(a, b Suggestion) int {
		return b.Priority.rank() - a.Priority.rank()
	})
	return out
}

func criticalLevels(snap *energy.Snapshot, _ []energy.Event, _ time.Time) []Suggestion {
	type alert struct {
		dim    energy.Dimension
		desc   string
		action Action
	}
	alerts := []alert{
		{energy.Mental, "Your mental energy is critically low. Consider taking a break or doing a mindfulness exercise.", TakeBreak},
		{energy.Physical, "Your physical energy is low. Consider light exercise or a short walk to boost it.", Exercise},
		{energy.Financial, "Your financial energy is low. Consider reviewing your budget or financial goals.", Reflect},
		{energy.Emotional, "Your emotional energy is low. Consider journaling or connecting with loved ones.", Journal},
	}

	var out []Suggestion
	for _, a := range alerts {
		if snap.Get(a.dim) >= CriticalLevel {
			continue
		}
		out = append(out, Suggestion{
			Title:       a.dim.DisplayName() + " Low",
			Description: a.desc,
			Category:    Recovery,
			Priority:    High,
			Action:      a.action,
			Dimension:   a.dim,
		})
	}
	return out
}

type habit struct {
	keywords []string
	title    string
	desc     string
	priority Priority
	action   Action
	dim      energy.Dimension
}

var habits = []habit{
	{
		keywords: []string{"meditation", "mindfulness"},
		title:    "Missed Meditation",
		desc:     "You haven't meditated today. Even 5 minutes can help boost your mental energy.",
		priority: Medium,
		action:   Meditate,
		dim:      energy.Mental,
	},
	{
		keywords: []string{"workout", "exercise"},
		title:    "Missed Exercise",
		desc:     "You haven't exercised today. A short walk or workout can boost your physical energy.",
		priority: Medium,
		action:   Exercise,
		dim:      energy.Physical,
	},
	{
		keywords: []string{"journaling", "reflection"},
		title:    "Missed Journaling",
		desc:     "You haven't journaled today. Reflecting on your day can help process emotions.",
		priority: Low,
		action:   Journal,
		dim:      energy.Emotional,
	},
}

// matches reports whether e records the habit being done. Drains that mention
// a habit ("No workout today") are evidence it was skipped.
func (h habit) matches(e energy.Event) bool {
	if e.Kind != energy.Boost {
		return false
	}
	desc := strings.ToLower(e.Description)
	cat := strings.ToLower(e.Category)
	for _, k := range h.keywords {
		if strings.Contains(desc, k) || strings.Contains(cat, k) {
			return true
		}
	}
	return false
}

func missedHabits(_ *energy.Snapshot, events []energy.Event, now time.Time) []Suggestion {
	since := now.Add(-HabitWindow)
	var out []Suggestion
	for _, h := range habits {
		done := slices.ContainsFunc(events, func(e energy.Event) bool {
			return e.Timestamp.After(since) && !e.Timestamp.After(now) && h.matches(e)
		})
		if done {
			continue
		}
		out = append(out, Suggestion{
			Title:       h.title,
			Description: h.desc,
			Category:    Optimization,
			Priority:    h.priority,
			Action:      h.action,
			Dimension:   h.dim,
		})
	}
	return out
}

func multiFatigue(snap *energy.Snapshot, _ []energy.Event, _ time.Time) []Suggestion {
	low := 0
	for _, d := range energy.Dimensions {
		if snap.Get(d) < FatigueLevel {
			low++
		}
	}
	if low < FatigueCount {
		return nil
	}
	return []Suggestion{{
		Title:       "Multi-Energy Fatigue",
		Description: "Multiple energy types are low. Consider a comprehensive recovery approach: rest, nutrition, and reflection.",
		Category:    Recovery,
		Priority:    High,
		Action:      TakeBreak,
	}}
}

func patterns(_ *energy.Snapshot, events []energy.Event, now time.Time) []Suggestion {
	start, end := eventlog.DayBounds(now)
	var (
		drains   int
		boosts   int
		topBoost *energy.Event
	)
	for i := range events {
		e := &events[i]
		if e.Timestamp.Before(start) || !e.Timestamp.Before(end) {
			continue
		}
		switch e.Kind {
		case energy.Drain:
			drains++
		case energy.Boost:
			boosts++
			if topBoost == nil || e.Impact > topBoost.Impact {
				topBoost = e
			}
		}
	}

	var out []Suggestion
	if drains > boosts*DrainBoostFactor {
		out = append(out, Suggestion{
			Title:       "Energy Drain Pattern",
			Description: "You've had more energy drains than boosts today. Consider what activities are draining your energy.",
			Category:    PatternAlert,
			Priority:    Medium,
			Action:      Reflect,
		})
	}
	if topBoost != nil {
		out = append(out, Suggestion{
			Title:       "Energy Boost Success",
			Description: fmt.Sprintf("%s has been boosting your energy. Consider doing more of this activity.", topBoost.Description),
			Category:    Opportunity,
			Priority:    Low,
			Action:      KeepGoing,
			Dimension:   topBoost.Dimension,
		})
	}
	return out
}

func timeOfDay(snap *energy.Snapshot, _ []energy.Event, now time.Time) []Suggestion {
	hour := now.Hour()
	switch {
	case hour >= 6 && hour < 12 && snap.Mental < 60:
		return []Suggestion{{
			Title:       "Morning Mental Boost",
			Description: "Start your day with a mental energy boost. Consider meditation or planning your priorities.",
			Category:    Optimization,
			Priority:    Medium,
			Action:      Meditate,
			Dimension:   energy.Mental,
		}}
	case hour >= 12 && hour < 18 && snap.Physical < 50:
		return []Suggestion{{
			Title:       "Afternoon Energy Boost",
			Description: "Your physical energy is low. Consider a short walk or light exercise to recharge.",
			Category:    Optimization,
			Priority:    Medium,
			Action:      Exercise,
			Dimension:   energy.Physical,
		}}
	case hour >= 18 && snap.Emotional < 60:
		return []Suggestion{{
			Title:       "Evening Reflection",
			Description: "End your day with emotional processing. Consider journaling or gratitude practice.",
			Category:    Optimization,
			Priority:    Low,
			Action:      Journal,
			Dimension:   energy.Emotional,
		}}
	}
	return nil
}

func crossPairs(snap *energy.Snapshot, _ []energy.Event, _ time.Time) []Suggestion {
	var out []Suggestion
	if snap.Mental < 40 && snap.Emotional < 50 {
		out = append(out, Suggestion{
			Title:       "Mental-Emotional Connection",
			Description: "Low mental energy is affecting your emotional state. Try mindfulness or deep breathing.",
			Category:    Recovery,
			Priority:    Medium,
			Action:      Meditate,
			Dimension:   energy.Emotional,
		})
	}
	if snap.Physical < 40 && snap.Mental < 50 {
		out = append(out, Suggestion{
			Title:       "Physical-Mental Connection",
			Description: "Low physical energy is affecting your mental clarity. Try light exercise or a walk.",
			Category:    Recovery,
			Priority:    Medium,
			Action:      Exercise,
			Dimension:   energy.Mental,
		})
	}
	if snap.Financial < 40 && snap.Emotional < 50 {
		out = append(out, Suggestion{
			Title:       "Financial-Emotional Connection",
			Description: "Financial stress is affecting your emotional well-being. Consider budgeting or financial planning.",
			Category:    Recovery,
			Priority:    Medium,
			Action:      Reflect,
			Dimension:   energy.Emotional,
		})
	}
	return out
}
