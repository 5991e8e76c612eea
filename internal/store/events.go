package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lazypower/vigor/internal/energy"
)

const eventColumns = `id, occurred_at, dimension, kind, description, impact, source, category`

// AppendEvents inserts events in one transaction. Events must already carry
// their ids.
func (db *DB) AppendEvents(ctx context.Context, events []energy.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO energy_events (`+eventColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare append: %w", err)
	}
	defer stmt.Close()

	for _, e := range events {
		var category sql.NullString
		if e.Category != "" {
			category = sql.NullString{String: e.Category, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx,
			e.ID, toMillis(e.Timestamp), string(e.Dimension), string(e.Kind),
			e.Description, e.Impact, string(e.Source), category,
		); err != nil {
			return fmt.Errorf("insert event %d: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit append: %w", err)
	}
	return nil
}

// EventsForDate returns the events of the local calendar day containing day,
// oldest first.
func (db *DB) EventsForDate(ctx context.Context, day time.Time) ([]energy.Event, error) {
	y, m, d := day.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	return db.queryEvents(ctx, "events for date", `
		SELECT `+eventColumns+` FROM energy_events
		WHERE occurred_at >= ? AND occurred_at < ?
		ORDER BY occurred_at, id
	`, toMillis(start), toMillis(end))
}

// RecentEvents returns up to limit events, newest first.
func (db *DB) RecentEvents(ctx context.Context, limit int) ([]energy.Event, error) {
	return db.queryEvents(ctx, "recent events", `
		SELECT `+eventColumns+` FROM energy_events
		ORDER BY occurred_at DESC, id DESC LIMIT ?
	`, limit)
}

// EventsSince returns events at or after since, oldest first.
func (db *DB) EventsSince(ctx context.Context, since time.Time) ([]energy.Event, error) {
	return db.queryEvents(ctx, "events since", `
		SELECT `+eventColumns+` FROM energy_events
		WHERE occurred_at >= ?
		ORDER BY occurred_at, id
	`, toMillis(since))
}

// CountEvents returns the number of stored events.
func (db *DB) CountEvents(ctx context.Context) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM energy_events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

func (db *DB) queryEvents(ctx context.Context, what, query string, args ...any) ([]energy.Event, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", what, err)
	}
	defer rows.Close()

	var events []energy.Event
	for rows.Next() {
		var (
			e        energy.Event
			ms       int64
			dim      string
			kind     string
			source   string
			category sql.NullString
		)
		if err := rows.Scan(&e.ID, &ms, &dim, &kind, &e.Description, &e.Impact, &source, &category); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Timestamp = fromMillis(ms)
		e.Dimension = energy.Dimension(dim)
		e.Kind = energy.Kind(kind)
		e.Source = energy.Source(source)
		e.Category = category.String
		events = append(events, e)
	}
	return events, rows.Err()
}
