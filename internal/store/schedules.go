package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Schedule is an AgentSchedule row. Created and edited via the HTTP
// surface; the orchestrator's schedule loop reads it and stamps lastRun.
type Schedule struct {
	ID             string     `json:"id"`
	AgentType      string     `json:"agent_type"`
	CronExpression string     `json:"cron_expression"`
	IsActive       bool       `json:"is_active"`
	LastRun        *time.Time `json:"last_run"`
	NextRun        *time.Time `json:"next_run"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

const scheduleColumns = `"id", "agentType", "cronExpression", "isActive", "lastRun", "nextRun", "createdAt", "updatedAt"`

func scanSchedule(row interface{ Scan(...any) error }) (*Schedule, error) {
	var sc Schedule
	err := row.Scan(&sc.ID, &sc.AgentType, &sc.CronExpression, &sc.IsActive,
		&sc.LastRun, &sc.NextRun, &sc.CreatedAt, &sc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &sc, nil
}

// DueSchedules returns active schedules whose nextRun is null or has
// passed. A null nextRun fires every loop iteration; the loop only ever
// stamps lastRun, so nextRun stays null unless something else sets it.
func (s *Store) DueSchedules(ctx context.Context) ([]Schedule, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+scheduleColumns+`
		FROM "AgentSchedule"
		WHERE "isActive" = true
		AND ("nextRun" IS NULL OR "nextRun" <= NOW())`)
	if err != nil {
		return nil, fmt.Errorf("due schedules: %w", err)
	}
	defer rows.Close()

	var schedules []Schedule
	for rows.Next() {
		sc, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		schedules = append(schedules, *sc)
	}
	return schedules, rows.Err()
}

// TouchSchedule stamps lastRun after a dispatch.
func (s *Store) TouchSchedule(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `
		UPDATE "AgentSchedule"
		SET "lastRun" = NOW(), "updatedAt" = NOW()
		WHERE "id" = $1`, id)
	if err != nil {
		return fmt.Errorf("touch schedule %s: %w", id, err)
	}
	return nil
}

// ListSchedules returns all schedules ordered by creation time.
func (s *Store) ListSchedules(ctx context.Context) ([]Schedule, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+scheduleColumns+` FROM "AgentSchedule" ORDER BY "createdAt"`)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	defer rows.Close()

	var schedules []Schedule
	for rows.Next() {
		sc, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		schedules = append(schedules, *sc)
	}
	return schedules, rows.Err()
}

// CreateSchedule inserts a new schedule and returns it.
func (s *Store) CreateSchedule(ctx context.Context, agentType, cronExpression string, isActive bool) (*Schedule, error) {
	row := s.db.QueryRow(ctx, `
		INSERT INTO "AgentSchedule" ("id", "agentType", "cronExpression", "isActive", "createdAt", "updatedAt")
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING `+scheduleColumns,
		uuid.New().String(), agentType, cronExpression, isActive)
	sc, err := scanSchedule(row)
	if err != nil {
		return nil, fmt.Errorf("create schedule: %w", err)
	}
	return sc, nil
}

// UpdateSchedule patches cron expression and active flag, returning the
// updated row.
func (s *Store) UpdateSchedule(ctx context.Context, id, cronExpression string, isActive bool) (*Schedule, error) {
	row := s.db.QueryRow(ctx, `
		UPDATE "AgentSchedule"
		SET "cronExpression" = $2, "isActive" = $3, "updatedAt" = NOW()
		WHERE "id" = $1
		RETURNING `+scheduleColumns, id, cronExpression, isActive)
	sc, err := scanSchedule(row)
	if err != nil {
		return nil, fmt.Errorf("update schedule %s: %w", id, err)
	}
	return sc, nil
}

// DeleteSchedule removes a schedule.
func (s *Store) DeleteSchedule(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM "AgentSchedule" WHERE "id" = $1`, id)
	if err != nil {
		return fmt.Errorf("delete schedule %s: %w", id, err)
	}
	return nil
}
