package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lazypower/vigor/internal/energy"
)

// SaveSnapshot records a published snapshot.
func (db *DB) SaveSnapshot(ctx context.Context, s energy.Snapshot) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO snapshots (taken_at, mental, physical, financial, emotional, prime)
		VALUES (?, ?, ?, ?, ?, ?)
	`, toMillis(s.Timestamp), s.Mental, s.Physical, s.Financial, s.Emotional, s.Prime)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// LatestSnapshot returns the most recent snapshot, or nil if none exist.
func (db *DB) LatestSnapshot(ctx context.Context) (*energy.Snapshot, error) {
	var (
		s  energy.Snapshot
		ms int64
	)
	err := db.QueryRowContext(ctx, `
		SELECT taken_at, mental, physical, financial, emotional, prime
		FROM snapshots ORDER BY taken_at DESC, id DESC LIMIT 1
	`).Scan(&ms, &s.Mental, &s.Physical, &s.Financial, &s.Emotional, &s.Prime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get latest snapshot: %w", err)
	}
	s.Timestamp = fromMillis(ms)
	return &s, nil
}

// RecentSnapshots returns up to limit snapshots, newest first.
func (db *DB) RecentSnapshots(ctx context.Context, limit int) ([]energy.Snapshot, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT taken_at, mental, physical, financial, emotional, prime
		FROM snapshots ORDER BY taken_at DESC, id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("get recent snapshots: %w", err)
	}
	defer rows.Close()

	var out []energy.Snapshot
	for rows.Next() {
		var (
			s  energy.Snapshot
			ms int64
		)
		if err := rows.Scan(&ms, &s.Mental, &s.Physical, &s.Financial, &s.Emotional, &s.Prime); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		s.Timestamp = fromMillis(ms)
		out = append(out, s)
	}
	return out, rows.Err()
}
