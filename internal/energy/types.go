// Package energy scores the four energy dimensions. Everything here is pure:
// the same rules and input always produce the same levels and the same set of
// events.
package energy

import "time"

// Dimension is one of the four tracked energy axes.
type Dimension string

const (
	Mental    Dimension = "mental"
	Physical  Dimension = "physical"
	Financial Dimension = "financial"
	Emotional Dimension = "emotional"
)

// Dimensions lists every dimension in canonical order.
var Dimensions = [4]Dimension{Mental, Physical, Financial, Emotional}

// ParseDimension accepts the lower-case dimension name.
func ParseDimension(s string) (Dimension, bool) {
	for _, d := range Dimensions {
		if string(d) == s {
			return d, true
		}
	}
	return "", false
}

// DisplayName returns the title used in suggestions and CLI output.
func (d Dimension) DisplayName() string {
	switch d {
	case Mental:
		return "Mental Energy"
	case Physical:
		return "Physical Energy"
	case Financial:
		return "Financial Energy"
	case Emotional:
		return "Emotional Energy"
	default:
		return string(d)
	}
}

// Kind says whether an event lowered or raised a dimension.
type Kind string

const (
	Drain Kind = "drain"
	Boost Kind = "boost"
)

func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case Drain, Boost:
		return Kind(s), true
	}
	return "", false
}

// Source records where an event came from.
type Source string

const (
	Automatic Source = "automatic"
	Manual    Source = "manual"
	Detected  Source = "detected"
)

// Event is one entry in the energy log: a factor that fired during an
// evaluation, or a manual entry.
type Event struct {
	ID          int64     `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Dimension   Dimension `json:"dimension"`
	Kind        Kind      `json:"kind"`
	Description string    `json:"description"`
	Impact      float64   `json:"impact"`
	Source      Source    `json:"source"`
	Category    string    `json:"category,omitempty"`
}

// Levels holds one value per dimension.
type Levels struct {
	Mental    float64 `json:"mental"`
	Physical  float64 `json:"physical"`
	Financial float64 `json:"financial"`
	Emotional float64 `json:"emotional"`
}

// Get returns the value for d.
func (l Levels) Get(d Dimension) float64 {
	switch d {
	case Mental:
		return l.Mental
	case Physical:
		return l.Physical
	case Financial:
		return l.Financial
	case Emotional:
		return l.Emotional
	}
	return 0
}

// With returns a copy of l with d set to v.
func (l Levels) With(d Dimension, v float64) Levels {
	switch d {
	case Mental:
		l.Mental = v
	case Physical:
		l.Physical = v
	case Financial:
		l.Financial = v
	case Emotional:
		l.Emotional = v
	}
	return l
}

// Snapshot is the immutable result of one full evaluation.
type Snapshot struct {
	Timestamp time.Time `json:"timestamp"`
	Levels
	Prime float64 `json:"prime_score"`
}

// Input is one consistent read of every signal the rules can refer to.
type Input struct {
	Now                 time.Time
	HoursSinceReference float64
	Health              Health
	Usage               Usage
	Activity            Activity
	Finance             Finance
}

type Health struct {
	SleepHours  float64 `json:"sleep_hours" yaml:"sleep_hours"`
	StepCount   int     `json:"step_count" yaml:"step_count"`
	Workout     bool    `json:"workout" yaml:"workout"`
	Hydration   float64 `json:"hydration" yaml:"hydration"`
	DietScore   float64 `json:"diet_score" yaml:"diet_score"`
	StressScore float64 `json:"stress_score" yaml:"stress_score"`
}

type Usage struct {
	AppSwitches        int `json:"app_switches" yaml:"app_switches"`
	ScreenMinutes      int `json:"screen_minutes" yaml:"screen_minutes"`
	ShortFormMinutes   int `json:"short_form_minutes" yaml:"short_form_minutes"`
	RecentBreakMinutes int `json:"recent_break_minutes" yaml:"recent_break_minutes"`
	SocialMediaMinutes int `json:"social_media_minutes" yaml:"social_media_minutes"`
}

type Activity struct {
	Journaling        bool `json:"journaling"`
	Meditation        bool `json:"meditation"`
	DeepWork          bool `json:"deep_work"`
	PositiveJournal   bool `json:"positive_journal"`
	NegativeJournal   bool `json:"negative_journal"`
	Gratitude         bool `json:"gratitude"`
	DeepConnection    bool `json:"deep_connection"`
	Mindfulness       bool `json:"mindfulness"`
	HoursSinceCheckIn int  `json:"hours_since_check_in"`
	MessageCount      int  `json:"message_count"`
	CallMinutes       int  `json:"call_minutes"`
}

type Finance struct {
	SpentToday          float64 `json:"spent_today"`
	EarnedToday         float64 `json:"earned_today"`
	BudgetLimit         float64 `json:"budget_limit"`
	TargetIncome        float64 `json:"target_income"`
	IntentionalSpending bool    `json:"intentional_spending"`
	Reflected           bool    `json:"reflected"`
}
