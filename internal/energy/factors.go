package energy

import (
	"fmt"

	"github.com/lazypower/vigor/internal/rules"
)

// DrainFactor names a condition that lowers a dimension.
type DrainFactor string

const (
	AppSwitching          DrainFactor = "app_switching"
	ScreenTime            DrainFactor = "screen_time"
	ShortFormContent      DrainFactor = "short_form_content"
	InsufficientBreak     DrainFactor = "insufficient_break"
	PoorSleep             DrainFactor = "poor_sleep"
	LowActivity           DrainFactor = "low_activity"
	NoWorkout             DrainFactor = "no_workout"
	PoorHydration         DrainFactor = "poor_hydration"
	PoorDiet              DrainFactor = "poor_diet"
	HighStress            DrainFactor = "high_stress"
	Overspending          DrainFactor = "overspending"
	NoIncome              DrainFactor = "no_income"
	UnintentionalSpending DrainFactor = "unintentional_spending"
	NoReflection          DrainFactor = "no_reflection"
	LongCheckInGap        DrainFactor = "long_check_in_gap"
	NegativeJournal       DrainFactor = "negative_journal"
	NoPositiveJournal     DrainFactor = "no_positive_journal"
	NoGratitude           DrainFactor = "no_gratitude"
	NoConnection          DrainFactor = "no_connection"
	ExcessiveSocialMedia  DrainFactor = "excessive_social_media"
)

// BoostFactor names a condition that raises a dimension.
type BoostFactor string

const (
	MeditationBoost     BoostFactor = "meditation"
	JournalingBoost     BoostFactor = "journaling"
	DeepWorkBoost       BoostFactor = "deep_work"
	WorkoutBoost        BoostFactor = "workout"
	GoodSleep           BoostFactor = "good_sleep"
	HighActivity        BoostFactor = "high_activity"
	GoodHydration       BoostFactor = "good_hydration"
	GoodDiet            BoostFactor = "good_diet"
	LowStress           BoostFactor = "low_stress"
	UnderBudget         BoostFactor = "under_budget"
	IncomeEarned        BoostFactor = "income_earned"
	IntentionalSpending BoostFactor = "intentional_spending"
	ReflectionDone      BoostFactor = "reflection_done"
	RecentCheckIn       BoostFactor = "recent_check_in"
	PositiveJournal     BoostFactor = "positive_journal"
	GratitudeLogged     BoostFactor = "gratitude_logged"
	DeepConnection      BoostFactor = "deep_connection"
	MindfulnessPractice BoostFactor = "mindfulness_practice"
)

// predicate reports whether a factor fires. t is the configured threshold,
// zero when the rule has none; flag factors ignore it.
type predicate func(in Input, t float64) bool

var drainPredicates = map[DrainFactor]predicate{
	AppSwitching:          func(in Input, t float64) bool { return float64(in.Usage.AppSwitches) >= t },
	ScreenTime:            func(in Input, t float64) bool { return float64(in.Usage.ScreenMinutes) >= t },
	ShortFormContent:      func(in Input, t float64) bool { return float64(in.Usage.ShortFormMinutes) >= t },
	InsufficientBreak:     func(in Input, t float64) bool { return float64(in.Usage.RecentBreakMinutes) < t },
	PoorSleep:             func(in Input, t float64) bool { return in.Health.SleepHours < t },
	LowActivity:           func(in Input, t float64) bool { return float64(in.Health.StepCount) < t },
	NoWorkout:             func(in Input, _ float64) bool { return !in.Health.Workout },
	PoorHydration:         func(in Input, t float64) bool { return in.Health.Hydration < t },
	PoorDiet:              func(in Input, t float64) bool { return in.Health.DietScore < t },
	HighStress:            func(in Input, t float64) bool { return in.Health.StressScore > t },
	Overspending:          func(in Input, _ float64) bool { return in.Finance.SpentToday > in.Finance.BudgetLimit },
	NoIncome:              func(in Input, t float64) bool { return in.Finance.EarnedToday < t },
	UnintentionalSpending: func(in Input, _ float64) bool { return !in.Finance.IntentionalSpending },
	NoReflection:          func(in Input, _ float64) bool { return !in.Finance.Reflected },
	LongCheckInGap:        func(in Input, t float64) bool { return float64(in.Activity.HoursSinceCheckIn) > t },
	NegativeJournal:       func(in Input, _ float64) bool { return in.Activity.NegativeJournal },
	NoPositiveJournal:     func(in Input, _ float64) bool { return !in.Activity.PositiveJournal },
	NoGratitude:           func(in Input, _ float64) bool { return !in.Activity.Gratitude },
	NoConnection:          func(in Input, _ float64) bool { return !in.Activity.DeepConnection },
	ExcessiveSocialMedia:  func(in Input, t float64) bool { return float64(in.Usage.SocialMediaMinutes) > t },
}

var boostPredicates = map[BoostFactor]predicate{
	MeditationBoost:     func(in Input, _ float64) bool { return in.Activity.Meditation },
	JournalingBoost:     func(in Input, _ float64) bool { return in.Activity.Journaling },
	DeepWorkBoost:       func(in Input, _ float64) bool { return in.Activity.DeepWork },
	WorkoutBoost:        func(in Input, _ float64) bool { return in.Health.Workout },
	GoodSleep:           func(in Input, t float64) bool { return in.Health.SleepHours >= t },
	HighActivity:        func(in Input, t float64) bool { return float64(in.Health.StepCount) >= t },
	GoodHydration:       func(in Input, t float64) bool { return in.Health.Hydration >= t },
	GoodDiet:            func(in Input, t float64) bool { return in.Health.DietScore >= t },
	LowStress:           func(in Input, t float64) bool { return in.Health.StressScore <= t },
	UnderBudget:         func(in Input, _ float64) bool { return in.Finance.SpentToday < in.Finance.BudgetLimit },
	IncomeEarned:        func(in Input, _ float64) bool { return in.Finance.EarnedToday > 0 },
	IntentionalSpending: func(in Input, _ float64) bool { return in.Finance.IntentionalSpending },
	ReflectionDone:      func(in Input, _ float64) bool { return in.Finance.Reflected },
	RecentCheckIn:       func(in Input, t float64) bool { return float64(in.Activity.HoursSinceCheckIn) <= t },
	PositiveJournal:     func(in Input, _ float64) bool { return in.Activity.PositiveJournal },
	GratitudeLogged:     func(in Input, _ float64) bool { return in.Activity.Gratitude },
	DeepConnection:      func(in Input, _ float64) bool { return in.Activity.DeepConnection },
	MindfulnessPractice: func(in Input, _ float64) bool { return in.Activity.Meditation },
}

// ParseDrainFactor maps a rule key onto the drain vocabulary.
func ParseDrainFactor(name string) (DrainFactor, bool) {
	f := DrainFactor(name)
	_, ok := drainPredicates[f]
	return f, ok
}

// ParseBoostFactor maps a rule key onto the boost vocabulary.
func ParseBoostFactor(name string) (BoostFactor, bool) {
	f := BoostFactor(name)
	_, ok := boostPredicates[f]
	return f, ok
}

func (f DrainFactor) fires(in Input, rule rules.FactorRule) bool {
	p, ok := drainPredicates[f]
	return ok && p(in, rule.ThresholdOr(0))
}

func (f BoostFactor) fires(in Input, rule rules.FactorRule) bool {
	p, ok := boostPredicates[f]
	return ok && p(in, rule.ThresholdOr(0))
}

// UnknownKeys lists every key in rs the evaluator will ignore: unknown
// dimensions, factor names outside the vocabulary and unrecognised
// dependency links. The result is sorted and meant for operator warnings.
func UnknownKeys(rs *rules.Ruleset) []string {
	if rs == nil {
		return nil
	}
	var out []string
	for _, name := range rules.SortedKeys(rs.Engines) {
		if _, ok := ParseDimension(name); !ok {
			out = append(out, fmt.Sprintf("energy_engines.%s", name))
			continue
		}
		cfg := rs.Engines[name]
		for _, k := range rules.SortedKeys(cfg.Drain) {
			if _, ok := ParseDrainFactor(k); !ok {
				out = append(out, fmt.Sprintf("energy_engines.%s.drain_factors.%s", name, k))
			}
		}
		for _, k := range rules.SortedKeys(cfg.Boost) {
			if _, ok := ParseBoostFactor(k); !ok {
				out = append(out, fmt.Sprintf("energy_engines.%s.boost_factors.%s", name, k))
			}
		}
	}
	for _, k := range rules.SortedKeys(rs.Cross) {
		if _, ok := ParseLink(k); !ok {
			out = append(out, fmt.Sprintf("cross_energy_dependencies.%s", k))
		}
	}
	return out
}
