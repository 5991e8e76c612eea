package eventlog

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/lazypower/vigor/internal/energy"
)

// MemoryStore keeps events in process. Used by tests and by one-shot runs
// with no database.
type MemoryStore struct {
	mu     sync.Mutex
	events []energy.Event
	// Err, when set, is returned by every AppendEvents call.
	Err error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) AppendEvents(_ context.Context, events []energy.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.events = append(m.events, events...)
	return nil
}

func (m *MemoryStore) EventsForDate(_ context.Context, day time.Time) ([]energy.Event, error) {
	start, end := DayBounds(day)
	return m.filter(func(e energy.Event) bool {
		return !e.Timestamp.Before(start) && e.Timestamp.Before(end)
	}), nil
}

func (m *MemoryStore) RecentEvents(_ context.Context, limit int) ([]energy.Event, error) {
	all := m.filter(func(energy.Event) bool { return true })
	slices.Reverse(all)
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (m *MemoryStore) EventsSince(_ context.Context, since time.Time) ([]energy.Event, error) {
	return m.filter(func(e energy.Event) bool { return !e.Timestamp.Before(since) }), nil
}

// All returns every stored event in append order.
func (m *MemoryStore) All() []energy.Event {
	return m.filter(func(energy.Event) bool { return true })
}

// filter returns matching events sorted by timestamp, append order breaking
// ties.
func (m *MemoryStore) filter(keep func(energy.Event) bool) []energy.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []energy.Event
	for _, e := range m.events {
		if keep(e) {
			out = append(out, e)
		}
	}
	slices.SortStableFunc(out, func(a, b energy.Event) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return out
}
