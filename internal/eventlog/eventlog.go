// Package eventlog is the append-only record of why energy levels changed.
// All writes go through a single writer goroutine so ids and rows are
// assigned in append order.
package eventlog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lazypower/vigor/internal/energy"
)

// DefaultRecentLimit is the number of events returned by a recent-events
// query when the caller does not ask for a specific count.
const DefaultRecentLimit = 50

// ErrClosed is returned by Append after Close.
var ErrClosed = errors.New("event log closed")

// Store persists events. Implementations never mutate or delete rows.
type Store interface {
	AppendEvents(ctx context.Context, events []energy.Event) error
	// EventsForDate returns the events of the local calendar day containing
	// day, oldest first.
	EventsForDate(ctx context.Context, day time.Time) ([]energy.Event, error)
	// RecentEvents returns up to limit events, newest first.
	RecentEvents(ctx context.Context, limit int) ([]energy.Event, error)
	// EventsSince returns events with timestamp at or after since, oldest first.
	EventsSince(ctx context.Context, since time.Time) ([]energy.Event, error)
}

// IDSource hands out unique event ids.
type IDSource interface {
	Next() int64
}

type appendReq struct {
	ctx    context.Context
	events []energy.Event
	result chan appendResult
}

type appendResult struct {
	events []energy.Event
	err    error
}

// Log serialises appends to a Store.
type Log struct {
	store  Store
	ids    IDSource
	reqs   chan appendReq
	done   chan struct{}
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool

	appended atomic.Int64
	failures atomic.Int64
}

// New starts the writer goroutine. Call Close to stop it.
func New(store Store, ids IDSource) *Log {
	l := &Log{
		store:  store,
		ids:    ids,
		reqs:   make(chan appendReq, 16),
		done:   make(chan struct{}),
		logger: slog.With("component", "eventlog"),
	}
	go l.writer()
	return l
}

func (l *Log) writer() {
	defer close(l.done)
	for req := range l.reqs {
		out := make([]energy.Event, len(req.events))
		for i, e := range req.events {
			if e.ID == 0 {
				e.ID = l.ids.Next()
			}
			if e.Timestamp.IsZero() {
				e.Timestamp = time.Now()
			}
			out[i] = e
		}

		err := l.store.AppendEvents(context.WithoutCancel(req.ctx), out)
		if err != nil {
			l.failures.Add(1)
			l.logger.Error("append events", "count", len(out), "error", err)
			err = fmt.Errorf("append events: %w", err)
		} else {
			l.appended.Add(int64(len(out)))
		}
		req.result <- appendResult{events: out, err: err}
	}
}

// Append writes events in order and returns them with ids assigned. Once
// accepted by the writer the append completes even if ctx is cancelled.
func (l *Log) Append(ctx context.Context, events ...energy.Event) ([]energy.Event, error) {
	if len(events) == 0 {
		return nil, nil
	}

	req := appendReq{ctx: ctx, events: events, result: make(chan appendResult, 1)}

	l.mu.RLock()
	if l.closed {
		l.mu.RUnlock()
		return nil, ErrClosed
	}
	select {
	case l.reqs <- req:
		l.mu.RUnlock()
	case <-ctx.Done():
		l.mu.RUnlock()
		return nil, ctx.Err()
	}

	res := <-req.result
	return res.events, res.err
}

// ForDate returns the events of the local day containing day.
func (l *Log) ForDate(ctx context.Context, day time.Time) ([]energy.Event, error) {
	return l.store.EventsForDate(ctx, day)
}

// Recent returns the newest events; limit <= 0 means DefaultRecentLimit.
func (l *Log) Recent(ctx context.Context, limit int) ([]energy.Event, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	return l.store.RecentEvents(ctx, limit)
}

// Since returns events at or after since, oldest first.
func (l *Log) Since(ctx context.Context, since time.Time) ([]energy.Event, error) {
	return l.store.EventsSince(ctx, since)
}

// Failures is the number of appends the store rejected.
func (l *Log) Failures() int64 { return l.failures.Load() }

// Appended is the number of events written.
func (l *Log) Appended() int64 { return l.appended.Load() }

// Close stops accepting appends and waits for queued ones to finish.
func (l *Log) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		<-l.done
		return
	}
	l.closed = true
	close(l.reqs)
	l.mu.Unlock()
	<-l.done
}

// DayBounds returns the start of the local calendar day containing t and the
// start of the next one.
func DayBounds(t time.Time) (time.Time, time.Time) {
	y, m, d := t.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}
