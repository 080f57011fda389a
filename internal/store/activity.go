package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// LogEntry is one immutable AgentLog row.
type LogEntry struct {
	ID        string          `json:"id"`
	Action    string          `json:"action"`
	Context   json.RawMessage `json:"context"`
	Timestamp time.Time       `json:"timestamp"`
	Status    string          `json:"status"`
}

// InsertLog writes one activity log row. The row is never updated or
// pruned by this service.
func (s *Store) InsertLog(ctx context.Context, e *LogEntry) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO "AgentLog" ("id", "action", "context", "timestamp", "status")
		VALUES ($1, $2, $3, NOW(), $4)`,
		e.ID, e.Action, e.Context, e.Status)
	if err != nil {
		return fmt.Errorf("insert agent log: %w", err)
	}
	return nil
}

// ListLogs returns the most recent activity log rows, optionally
// filtered by action.
func (s *Store) ListLogs(ctx context.Context, limit int, action string) ([]LogEntry, error) {
	q := `SELECT "id", "action", "context", "timestamp", "status" FROM "AgentLog"`
	var args []any
	if action != "" {
		q += ` WHERE "action" = $1 ORDER BY "timestamp" DESC LIMIT $2`
		args = []any{action, limit}
	} else {
		q += ` ORDER BY "timestamp" DESC LIMIT $1`
		args = []any{limit}
	}

	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list agent logs: %w", err)
	}
	defer rows.Close()

	var entries []LogEntry
	for rows.Next() {
		var e LogEntry
		if err := rows.Scan(&e.ID, &e.Action, &e.Context, &e.Timestamp, &e.Status); err != nil {
			return nil, fmt.Errorf("scan agent log: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
