package store

import (
	"context"
	"fmt"
	"time"
)

// Assignment is a TaskAssignment row joined with the member's email and
// the task title.
type Assignment struct {
	ID           string
	TeamMemberID string
	TaskID       string
	TaskTitle    string
	Email        string
	AssignedAt   time.Time
}

// TeamMemberStat summarizes one member's workload inside a project report.
type TeamMemberStat struct {
	ID        string
	Name      string
	Email     string
	TaskCount int
}

// TaskStats aggregates task counts for a project report.
type TaskStats struct {
	Total     int
	Completed int
	Active    int
	Critical  int
}

// ActiveAssignments returns assignments on ACTIVE tasks, newest first.
func (s *Store) ActiveAssignments(ctx context.Context) ([]Assignment, error) {
	rows, err := s.db.Query(ctx, `
		SELECT a."id", a."teamMemberId", t."id", t."title", m."email", a."assignedAt"
		FROM "TaskAssignment" a
		JOIN "TeamMember" m ON a."teamMemberId" = m."id"
		JOIN "Task" t ON a."taskId" = t."id"
		WHERE t."status" = 'ACTIVE'
		ORDER BY a."assignedAt" DESC`)
	if err != nil {
		return nil, fmt.Errorf("active assignments: %w", err)
	}
	defer rows.Close()

	var assignments []Assignment
	for rows.Next() {
		var a Assignment
		if err := rows.Scan(&a.ID, &a.TeamMemberID, &a.TaskID, &a.TaskTitle, &a.Email, &a.AssignedAt); err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

// LatestTeamDocumentAt returns when the member last uploaded a document,
// or nil if they never have.
func (s *Store) LatestTeamDocumentAt(ctx context.Context, teamMemberID string) (*time.Time, error) {
	rows, err := s.db.Query(ctx, `
		SELECT "uploadedAt" FROM "TeamDocument"
		WHERE "teamMemberId" = $1
		ORDER BY "uploadedAt" DESC
		LIMIT 1`, teamMemberID)
	if err != nil {
		return nil, fmt.Errorf("latest team document %s: %w", teamMemberID, err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	var t time.Time
	if err := rows.Scan(&t); err != nil {
		return nil, fmt.Errorf("scan team document: %w", err)
	}
	return &t, nil
}

// TeamMemberStats returns per-member task counts for a project.
func (s *Store) TeamMemberStats(ctx context.Context, projectID string) ([]TeamMemberStat, error) {
	rows, err := s.db.Query(ctx, `
		SELECT m."id", m."name", m."email", COUNT(a."id")
		FROM "TeamMember" m
		LEFT JOIN "TaskAssignment" a ON m."id" = a."teamMemberId"
		LEFT JOIN "Task" t ON a."taskId" = t."id" AND t."projectId" = $1
		GROUP BY m."id", m."name", m."email"`, projectID)
	if err != nil {
		return nil, fmt.Errorf("team member stats: %w", err)
	}
	defer rows.Close()

	var stats []TeamMemberStat
	for rows.Next() {
		var st TeamMemberStat
		if err := rows.Scan(&st.ID, &st.Name, &st.Email, &st.TaskCount); err != nil {
			return nil, fmt.Errorf("scan team member stat: %w", err)
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

// ProjectTaskStats aggregates task status counts for a project.
func (s *Store) ProjectTaskStats(ctx context.Context, projectID string) (*TaskStats, error) {
	var st TaskStats
	err := s.db.QueryRow(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN "status" = 'DONE' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN "status" = 'ACTIVE' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN "healthStatus" = 'CRITICAL' THEN 1 ELSE 0 END), 0)
		FROM "Task" WHERE "projectId" = $1`, projectID).
		Scan(&st.Total, &st.Completed, &st.Active, &st.Critical)
	if err != nil {
		return nil, fmt.Errorf("project task stats: %w", err)
	}
	return &st, nil
}
