package store

import (
	"fmt"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "energy_events: append-only log of level changes",
		SQL: `
CREATE TABLE energy_events (
    id          INTEGER PRIMARY KEY,
    occurred_at INTEGER NOT NULL,
    dimension   TEXT NOT NULL CHECK (dimension IN ('mental', 'physical', 'financial', 'emotional')),
    kind        TEXT NOT NULL CHECK (kind IN ('drain', 'boost')),
    description TEXT NOT NULL,
    impact      REAL NOT NULL,
    source      TEXT NOT NULL CHECK (source IN ('automatic', 'manual', 'detected')),
    category    TEXT
);

CREATE INDEX idx_events_occurred ON energy_events(occurred_at DESC);
CREATE INDEX idx_events_dimension ON energy_events(dimension);
`,
	},
	{
		Version:     2,
		Description: "snapshots: history of evaluated energy levels",
		SQL: `
CREATE TABLE snapshots (
    id         INTEGER PRIMARY KEY,
    taken_at   INTEGER NOT NULL,
    mental     REAL NOT NULL,
    physical   REAL NOT NULL,
    financial  REAL NOT NULL,
    emotional  REAL NOT NULL,
    prime      REAL NOT NULL
);

CREATE INDEX idx_snapshots_taken_at ON snapshots(taken_at DESC);
`,
	},
	{
		Version:     3,
		Description: "activity_days: user-logged activity per calendar day",
		SQL: `
CREATE TABLE activity_days (
    day                  TEXT PRIMARY KEY,
    journaling           INTEGER NOT NULL DEFAULT 0,
    meditation           INTEGER NOT NULL DEFAULT 0,
    deep_work            INTEGER NOT NULL DEFAULT 0,
    positive_journal     INTEGER NOT NULL DEFAULT 0,
    negative_journal     INTEGER NOT NULL DEFAULT 0,
    gratitude            INTEGER NOT NULL DEFAULT 0,
    deep_connection      INTEGER NOT NULL DEFAULT 0,
    mindfulness          INTEGER NOT NULL DEFAULT 0,
    message_count        INTEGER NOT NULL DEFAULT 0,
    call_minutes         INTEGER NOT NULL DEFAULT 0,
    spent                REAL NOT NULL DEFAULT 0,
    earned               REAL NOT NULL DEFAULT 0,
    intentional_spending INTEGER NOT NULL DEFAULT 1,
    reflected            INTEGER NOT NULL DEFAULT 0,
    updated_at           INTEGER NOT NULL
);
`,
	},
	{
		Version:     4,
		Description: "kv_state: small named values that outlive a day",
		SQL: `
CREATE TABLE kv_state (
    key        TEXT PRIMARY KEY,
    value      TEXT NOT NULL,
    updated_at INTEGER NOT NULL
);
`,
	},
}

func (db *DB) migrate() error {
	// Create schema_versions table if it doesn't exist
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_versions (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now') * 1000)
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	for _, m := range migrations {
		if err := db.apply(m); err != nil {
			return err
		}
	}
	return nil
}

func (db *DB) apply(m migration) error {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM schema_versions WHERE version = ?", m.Version).Scan(&count)
	if err != nil {
		return fmt.Errorf("check migration %d: %w", m.Version, err)
	}
	if count > 0 {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin migration %d: %w", m.Version, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(m.SQL); err != nil {
		return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
	}
	if _, err := tx.Exec(
		"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
		m.Version, m.Description,
	); err != nil {
		return fmt.Errorf("record migration %d: %w", m.Version, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %d: %w", m.Version, err)
	}
	return nil
}

// SchemaVersion returns the current schema version.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&version)
	return version, err
}
