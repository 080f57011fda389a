package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// StuckTask is a Task row joined with its project name, as selected by
// the stuck-task scans.
type StuckTask struct {
	ID           string
	Title        string
	ProjectID    string
	ProjectName  string
	Status       string
	HealthStatus string
	LastUpdated  time.Time
}

// StuckTasks returns ACTIVE tasks not updated since before threshold.
// When taskID is non-empty the scan is restricted to that single task.
func (s *Store) StuckTasks(ctx context.Context, threshold time.Time, taskID string) ([]StuckTask, error) {
	q := `
		SELECT t."id", t."title", t."projectId", p."name", t."status", t."healthStatus", t."lastUpdated"
		FROM "Task" t
		JOIN "Project" p ON t."projectId" = p."id"
		WHERE t."status" = 'ACTIVE' AND t."lastUpdated" < $1`
	args := []any{threshold}
	if taskID != "" {
		q += ` AND t."id" = $2`
		args = append(args, taskID)
	}
	q += ` ORDER BY t."lastUpdated" ASC`

	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("stuck tasks: %w", err)
	}
	defer rows.Close()

	var tasks []StuckTask
	for rows.Next() {
		var t StuckTask
		if err := rows.Scan(&t.ID, &t.Title, &t.ProjectID, &t.ProjectName, &t.Status, &t.HealthStatus, &t.LastUpdated); err != nil {
			return nil, fmt.Errorf("scan stuck task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// CountStuckTasks counts ACTIVE tasks older than threshold that are not
// already CRITICAL. Used by the orchestrator's event-poll loop.
func (s *Store) CountStuckTasks(ctx context.Context, threshold time.Time) (int, error) {
	var count int
	err := s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM "Task"
		WHERE "status" = 'ACTIVE'
		AND "lastUpdated" < $1
		AND "healthStatus" != 'CRITICAL'`, threshold).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count stuck tasks: %w", err)
	}
	return count, nil
}

// EscalateTask flips a task's health status to CRITICAL and upserts the
// matching TaskDetail row. Re-escalating an already-CRITICAL task is a no-op
// at the data level.
func (s *Store) EscalateTask(ctx context.Context, taskID string) error {
	_, err := s.db.Exec(ctx, `
		UPDATE "Task"
		SET "healthStatus" = 'CRITICAL', "updatedAt" = NOW()
		WHERE "id" = $1`, taskID)
	if err != nil {
		return fmt.Errorf("escalate task %s: %w", taskID, err)
	}

	var detailID string
	err = s.db.QueryRow(ctx,
		`SELECT "id" FROM "TaskDetail" WHERE "taskId" = $1`, taskID).Scan(&detailID)
	if err == nil {
		_, err = s.db.Exec(ctx, `
			UPDATE "TaskDetail"
			SET "healthStatus" = 'CRITICAL', "updatedAt" = NOW()
			WHERE "taskId" = $1`, taskID)
		if err != nil {
			return fmt.Errorf("update task detail %s: %w", taskID, err)
		}
		return nil
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO "TaskDetail" ("id", "taskId", "healthStatus", "createdAt", "updatedAt")
		VALUES ($1, $2, 'CRITICAL', NOW(), NOW())`, uuid.New().String(), taskID)
	if err != nil {
		return fmt.Errorf("insert task detail %s: %w", taskID, err)
	}
	return nil
}

// RecentCompletedTaskTitles returns the titles of the most recently
// updated DONE tasks, newest first.
func (s *Store) RecentCompletedTaskTitles(ctx context.Context, limit int) ([]string, error) {
	rows, err := s.db.Query(ctx, `
		SELECT "title" FROM "Task"
		WHERE "status" = 'DONE'
		ORDER BY "lastUpdated" DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent completed tasks: %w", err)
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan task title: %w", err)
		}
		titles = append(titles, t)
	}
	return titles, rows.Err()
}
