// Package activity records what the user did today: journaling, meditation,
// connection, spending. Each calendar day gets a fresh record, so the daily
// reset is just a new day key.
package activity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/lazypower/vigor/internal/energy"
	"github.com/lazypower/vigor/internal/store"
)

// DayLayout is the day key format.
const DayLayout = "2006-01-02"

// DeepCallMinutes is the call length above which a call counts as a
// meaningful connection.
const DeepCallMinutes = 10

const lastCheckInKey = "last_check_in"

// Kind is a loggable activity.
type Kind string

const (
	PositiveJournal Kind = "journal-positive"
	NegativeJournal Kind = "journal-negative"
	Meditation      Kind = "meditation"
	Gratitude       Kind = "gratitude"
	DeepWork        Kind = "deep-work"
	Call            Kind = "call"
	Message         Kind = "message"
	InPerson        Kind = "in-person"
	CheckIn         Kind = "check-in"
	Spend           Kind = "spend"
	Income          Kind = "income"
	Reflection      Kind = "reflection"
)

// Kinds lists every loggable activity.
var Kinds = []Kind{
	PositiveJournal, NegativeJournal, Meditation, Gratitude, DeepWork,
	Call, Message, InPerson, CheckIn, Spend, Income, Reflection,
}

var (
	ErrUnknownKind = errors.New("unknown activity kind")
	ErrNegative    = errors.New("negative value")
)

// ParseKind accepts any name in Kinds.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Entry is one logged activity. Minutes applies to calls, Amount to spend and
// income; Unintentional marks a purchase as unplanned.
type Entry struct {
	Kind          Kind    `json:"kind"`
	Minutes       int     `json:"minutes,omitempty"`
	Amount        float64 `json:"amount,omitempty"`
	Unintentional bool    `json:"unintentional,omitempty"`
}

// Store is the persistence the tracker needs; *store.DB satisfies it.
type Store interface {
	LoadActivityDay(ctx context.Context, day string) (store.ActivityDay, error)
	SaveActivityDay(ctx context.Context, a store.ActivityDay) error
	GetState(ctx context.Context, key string) (string, bool, error)
	SetState(ctx context.Context, key, value string) error
}

// Recorder receives the events a Tracker detects.
type Recorder interface {
	Append(ctx context.Context, events ...energy.Event) ([]energy.Event, error)
}

// Tracker applies entries to today's record.
type Tracker struct {
	store    Store
	recorder Recorder
	budget   float64
	target   float64
	now      func() time.Time

	mu       sync.Mutex
	onChange func()
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithFinance sets the daily budget and income target reported alongside the
// day's spending.
func WithFinance(budget, target float64) Option {
	return func(t *Tracker) {
		t.budget = budget
		t.target = target
	}
}

// WithRecorder records a detected event the first time each day a deep
// connection or a deep work session shows up in the record.
func WithRecorder(r Recorder) Option {
	return func(t *Tracker) { t.recorder = r }
}

func New(s Store, opts ...Option) *Tracker {
	t := &Tracker{store: s, now: time.Now}
	for _, o := range opts {
		o(t)
	}
	return t
}

// OnChange registers fn to run after every successful Log.
func (t *Tracker) OnChange(fn func()) {
	t.mu.Lock()
	t.onChange = fn
	t.mu.Unlock()
}

// Log applies e to today's record and marks a check-in.
func (t *Tracker) Log(ctx context.Context, e Entry) (store.ActivityDay, error) {
	if e.Minutes < 0 || e.Amount < 0 {
		return store.ActivityDay{}, fmt.Errorf("log %s: %w", e.Kind, ErrNegative)
	}

	t.mu.Lock()
	now := t.now()
	day, err := t.store.LoadActivityDay(ctx, now.Format(DayLayout))
	if err != nil {
		t.mu.Unlock()
		return store.ActivityDay{}, err
	}
	before := day
	if err := apply(&day, e); err != nil {
		t.mu.Unlock()
		return store.ActivityDay{}, err
	}
	if err := t.store.SaveActivityDay(ctx, day); err != nil {
		t.mu.Unlock()
		return store.ActivityDay{}, err
	}
	if err := t.store.SetState(ctx, lastCheckInKey, strconv.FormatInt(now.UnixMilli(), 10)); err != nil {
		t.mu.Unlock()
		return store.ActivityDay{}, err
	}
	fn := t.onChange
	t.mu.Unlock()

	slog.Debug("activity logged", "component", "activity", "kind", e.Kind, "day", day.Day)
	if detected := detect(before, day, now); len(detected) > 0 && t.recorder != nil {
		if _, err := t.recorder.Append(ctx, detected...); err != nil {
			slog.Warn("record detected events", "component", "activity", "error", err)
		}
	}
	if fn != nil {
		fn()
	}
	return day, nil
}

func apply(day *store.ActivityDay, e Entry) error {
	switch e.Kind {
	case PositiveJournal:
		day.Journaling = true
		day.PositiveJournal = true
	case NegativeJournal:
		day.Journaling = true
		day.NegativeJournal = true
	case Meditation:
		day.Meditation = true
		day.Mindfulness = true
	case Gratitude:
		day.Gratitude = true
	case DeepWork:
		day.DeepWork = true
	case Call:
		day.CallMinutes += e.Minutes
		if e.Minutes > DeepCallMinutes {
			day.DeepConnection = true
		}
	case Message:
		day.MessageCount++
	case InPerson:
		day.DeepConnection = true
	case CheckIn:
	case Spend:
		day.Spent += e.Amount
		if e.Unintentional {
			day.IntentionalSpending = false
		}
	case Income:
		day.Earned += e.Amount
	case Reflection:
		day.Reflected = true
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, e.Kind)
	}
	return nil
}

// detect returns a detected event for each signal that turned on between
// before and after. The score effect comes from the rules; these only mark
// when the signal appeared.
func detect(before, after store.ActivityDay, now time.Time) []energy.Event {
	var out []energy.Event
	if after.DeepConnection && !before.DeepConnection {
		out = append(out, energy.Event{
			Timestamp:   now,
			Dimension:   energy.Emotional,
			Kind:        energy.Boost,
			Description: "Deep connection detected",
			Source:      energy.Detected,
			Category:    "deep_connection",
		})
	}
	if after.DeepWork && !before.DeepWork {
		out = append(out, energy.Event{
			Timestamp:   now,
			Dimension:   energy.Mental,
			Kind:        energy.Boost,
			Description: "Deep work session detected",
			Source:      energy.Detected,
			Category:    "deep_work",
		})
	}
	return out
}

// Today returns the current day's record.
func (t *Tracker) Today(ctx context.Context) (store.ActivityDay, error) {
	return t.store.LoadActivityDay(ctx, t.now().Format(DayLayout))
}

// Read returns today's activity and finance signals for an evaluation.
func (t *Tracker) Read(ctx context.Context) (energy.Activity, energy.Finance, error) {
	now := t.now()
	day, err := t.store.LoadActivityDay(ctx, now.Format(DayLayout))
	if err != nil {
		return energy.Activity{}, energy.Finance{}, err
	}

	hours := 0
	if v, ok, err := t.store.GetState(ctx, lastCheckInKey); err != nil {
		return energy.Activity{}, energy.Finance{}, err
	} else if ok {
		ms, perr := strconv.ParseInt(v, 10, 64)
		if perr != nil {
			slog.Warn("bad last check-in value", "component", "activity", "value", v)
		} else if gap := now.Sub(time.UnixMilli(ms)); gap > 0 {
			hours = int(gap / time.Hour)
		}
	}

	a := energy.Activity{
		Journaling:        day.Journaling,
		Meditation:        day.Meditation,
		DeepWork:          day.DeepWork,
		PositiveJournal:   day.PositiveJournal,
		NegativeJournal:   day.NegativeJournal,
		Gratitude:         day.Gratitude,
		DeepConnection:    day.DeepConnection,
		Mindfulness:       day.Mindfulness,
		HoursSinceCheckIn: hours,
		MessageCount:      day.MessageCount,
		CallMinutes:       day.CallMinutes,
	}
	f := energy.Finance{
		SpentToday:          day.Spent,
		EarnedToday:         day.Earned,
		BudgetLimit:         t.budget,
		TargetIncome:        t.target,
		IntentionalSpending: day.IntentionalSpending,
		Reflected:           day.Reflected,
	}
	return a, f, nil
}
