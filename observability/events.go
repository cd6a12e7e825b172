// CLAUDE:SUMMARY SQLite-backed per-item event log for migration runs. Best-effort, never blocks the run.
// Package observability records per-item conversion events in a local SQLite
// database. It is an optional side channel: the append-only run log remains
// the source of truth for failure analysis, the event store only supports
// inspection of past runs with SQL.
package observability

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS conversion_events (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	source      TEXT NOT NULL,
	destination TEXT,
	category    TEXT NOT NULL,
	outcome     TEXT NOT NULL,
	message     TEXT,
	duration_ms INTEGER NOT NULL DEFAULT 0,
	created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_conversion_events_outcome ON conversion_events(outcome);
CREATE INDEX IF NOT EXISTS idx_conversion_events_source ON conversion_events(source);
`

// ConversionEvent is one recorded item outcome.
type ConversionEvent struct {
	Source      string
	Destination string
	Category    string
	Outcome     string // ok | fallback | error | skip
	Message     string
	DurationMS  int64
}

// EventLogger writes conversion events. A nil *EventLogger is valid and
// records nothing, so callers never need to branch.
type EventLogger struct {
	db *sql.DB
}

// Open creates or opens the event database at path.
func Open(path string) (*EventLogger, error) {
	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open event db %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("event db schema: %w", err)
	}
	return &EventLogger{db: db}, nil
}

// Log records an event. Non-blocking contract: store errors are logged via
// slog but never propagate, so a failing event store never aborts a run.
func (l *EventLogger) Log(ctx context.Context, ev ConversionEvent) {
	if l == nil || l.db == nil {
		return
	}
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO conversion_events (
			source, destination, category, outcome, message, duration_ms, created_at
		) VALUES (?,?,?,?,?,?,?)`,
		ev.Source, ev.Destination, ev.Category, ev.Outcome, ev.Message, ev.DurationMS,
		time.Now().Unix())
	if err != nil {
		slog.Error("observability event log failed", "error", err, "source", ev.Source)
	}
}

// CountByOutcome aggregates recorded events per outcome.
func (l *EventLogger) CountByOutcome(ctx context.Context) (map[string]int, error) {
	if l == nil || l.db == nil {
		return nil, nil
	}
	rows, err := l.db.QueryContext(ctx, `
		SELECT outcome, COUNT(*) FROM conversion_events GROUP BY outcome`)
	if err != nil {
		return nil, fmt.Errorf("count events: %w", err)
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var outcome string
		var n int
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, err
		}
		out[outcome] = n
	}
	return out, rows.Err()
}

// Close closes the underlying database.
func (l *EventLogger) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}
