package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ActivityDay is the user-logged record for one calendar day, keyed by
// "2006-01-02".
type ActivityDay struct {
	Day                 string  `json:"day"`
	Journaling          bool    `json:"journaling"`
	Meditation          bool    `json:"meditation"`
	DeepWork            bool    `json:"deep_work"`
	PositiveJournal     bool    `json:"positive_journal"`
	NegativeJournal     bool    `json:"negative_journal"`
	Gratitude           bool    `json:"gratitude"`
	DeepConnection      bool    `json:"deep_connection"`
	Mindfulness         bool    `json:"mindfulness"`
	MessageCount        int     `json:"message_count"`
	CallMinutes         int     `json:"call_minutes"`
	Spent               float64 `json:"spent"`
	Earned              float64 `json:"earned"`
	IntentionalSpending bool    `json:"intentional_spending"`
	Reflected           bool    `json:"reflected"`
	UpdatedAt           int64   `json:"updated_at"`
}

// NewActivityDay returns the empty record for a day.
func NewActivityDay(day string) ActivityDay {
	return ActivityDay{Day: day, IntentionalSpending: true}
}

// LoadActivityDay returns the record for day, or the empty record if nothing
// was logged yet.
func (db *DB) LoadActivityDay(ctx context.Context, day string) (ActivityDay, error) {
	a := ActivityDay{Day: day}
	err := db.QueryRowContext(ctx, `
		SELECT journaling, meditation, deep_work, positive_journal, negative_journal,
		       gratitude, deep_connection, mindfulness, message_count, call_minutes,
		       spent, earned, intentional_spending, reflected, updated_at
		FROM activity_days WHERE day = ?
	`, day).Scan(
		&a.Journaling, &a.Meditation, &a.DeepWork, &a.PositiveJournal, &a.NegativeJournal,
		&a.Gratitude, &a.DeepConnection, &a.Mindfulness, &a.MessageCount, &a.CallMinutes,
		&a.Spent, &a.Earned, &a.IntentionalSpending, &a.Reflected, &a.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return NewActivityDay(day), nil
	}
	if err != nil {
		return ActivityDay{}, fmt.Errorf("load activity %s: %w", day, err)
	}
	return a, nil
}

// SaveActivityDay upserts the record for a.Day.
func (db *DB) SaveActivityDay(ctx context.Context, a ActivityDay) error {
	a.UpdatedAt = time.Now().UnixMilli()
	_, err := db.ExecContext(ctx, `
		INSERT INTO activity_days (
			day, journaling, meditation, deep_work, positive_journal, negative_journal,
			gratitude, deep_connection, mindfulness, message_count, call_minutes,
			spent, earned, intentional_spending, reflected, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(day) DO UPDATE SET
			journaling = excluded.journaling,
			meditation = excluded.meditation,
			deep_work = excluded.deep_work,
			positive_journal = excluded.positive_journal,
			negative_journal = excluded.negative_journal,
			gratitude = excluded.gratitude,
			deep_connection = excluded.deep_connection,
			mindfulness = excluded.mindfulness,
			message_count = excluded.message_count,
			call_minutes = excluded.call_minutes,
			spent = excluded.spent,
			earned = excluded.earned,
			intentional_spending = excluded.intentional_spending,
			reflected = excluded.reflected,
			updated_at = excluded.updated_at
	`,
		a.Day, a.Journaling, a.Meditation, a.DeepWork, a.PositiveJournal, a.NegativeJournal,
		a.Gratitude, a.DeepConnection, a.Mindfulness, a.MessageCount, a.CallMinutes,
		a.Spent, a.Earned, a.IntentionalSpending, a.Reflected, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save activity %s: %w", a.Day, err)
	}
	return nil
}

// GetState returns a stored value, or "" and false if the key is unset.
func (db *DB) GetState(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := db.QueryRowContext(ctx, `SELECT value FROM kv_state WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get state %s: %w", key, err)
	}
	return v, true, nil
}

// SetState stores a value under key.
func (db *DB) SetState(ctx context.Context, key, value string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO kv_state (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("set state %s: %w", key, err)
	}
	return nil
}
