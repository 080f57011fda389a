package store

import (
	"context"
	"fmt"
	"time"
)

// OverdueApproval is an ApprovalStep row joined with its invoice amount
// and project name.
type OverdueApproval struct {
	ID            string
	Stage         string
	AssigneeEmail string
	Deadline      time.Time
	LastNudgedAt  *time.Time
	Status        string
	RequiredDocs  []string
	InvoiceID     string
	InvoiceAmount float64
	ProjectName   string
}

// OverdueApprovals returns PENDING approval steps whose deadline has
// passed and that have never been nudged or were last nudged more than
// 24 hours ago. When approvalID is non-empty the scan is restricted to
// that single step; the guard still applies.
func (s *Store) OverdueApprovals(ctx context.Context, approvalID string) ([]OverdueApproval, error) {
	q := `
		SELECT a."id", a."stage", a."assigneeEmail", a."deadline", a."lastNudgedAt",
		       a."status", a."requiredDocs", a."invoiceId", i."amount", p."name"
		FROM "ApprovalStep" a
		JOIN "Invoice" i ON a."invoiceId" = i."id"
		JOIN "Project" p ON i."projectId" = p."id"
		WHERE a."status" = 'PENDING'
		AND a."deadline" < NOW()
		AND (a."lastNudgedAt" IS NULL OR a."lastNudgedAt" < NOW() - INTERVAL '24 hours')`
	args := []any{}
	if approvalID != "" {
		q += ` AND a."id" = $1`
		args = append(args, approvalID)
	}

	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("overdue approvals: %w", err)
	}
	defer rows.Close()

	var approvals []OverdueApproval
	for rows.Next() {
		var a OverdueApproval
		if err := rows.Scan(&a.ID, &a.Stage, &a.AssigneeEmail, &a.Deadline, &a.LastNudgedAt,
			&a.Status, &a.RequiredDocs, &a.InvoiceID, &a.InvoiceAmount, &a.ProjectName); err != nil {
			return nil, fmt.Errorf("scan approval: %w", err)
		}
		approvals = append(approvals, a)
	}
	return approvals, rows.Err()
}

// MarkNudged stamps lastNudgedAt on an approval step. This timestamp is
// the 24-hour idempotency guard against nudge storms.
func (s *Store) MarkNudged(ctx context.Context, approvalID string) error {
	_, err := s.db.Exec(ctx, `
		UPDATE "ApprovalStep"
		SET "lastNudgedAt" = NOW(), "updatedAt" = NOW()
		WHERE "id" = $1`, approvalID)
	if err != nil {
		return fmt.Errorf("mark nudged %s: %w", approvalID, err)
	}
	return nil
}

// CountOverdueApprovals counts approval steps the nudger would act on.
func (s *Store) CountOverdueApprovals(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM "ApprovalStep"
		WHERE "status" = 'PENDING'
		AND "deadline" < NOW()
		AND ("lastNudgedAt" IS NULL OR "lastNudgedAt" < NOW() - INTERVAL '24 hours')`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count overdue approvals: %w", err)
	}
	return count, nil
}
