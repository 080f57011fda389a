// Package agent holds the autonomous background agents and the uniform
// contract they run under: Run produces an Outcome, Execute wraps Run
// with audit logging, and ActionType names the agent in the audit trail.
package agent

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Outcome is the structured result of one agent run. There is no fixed
// schema beyond being JSON-serializable; it is consumed only by the
// activity recorder and returned to manual-trigger callers.
type Outcome map[string]any

// Agent is a stateless unit of autonomous work. Run must be safe to
// invoke repeatedly: selection predicates and status transitions in the
// database are the idempotency guards, not in-process locking.
type Agent interface {
	Run(ctx context.Context) (Outcome, error)
	ActionType() string
}

// Action types, as recorded in the AgentLog action column.
const (
	ActionTaskStuckAlert    = "TASK_STUCK_ALERT"
	ActionApprovalNudge     = "APPROVAL_NUDGE"
	ActionTaskEscalated     = "TASK_ESCALATED"
	ActionTimesheetReminder = "TIMESHEET_REMINDER"
	ActionBroadcastSent     = "BROADCAST_SENT"
	ActionDocumentIndexed   = "DOCUMENT_INDEXED"
	ActionTeamReminder      = "TEAM_REMINDER"
	ActionEmailParsed       = "EMAIL_PARSED"
)

// Classify maps an error to the stable kind string recorded in a FAILED
// log entry's context.
func Classify(err error) string {
	var pgErr *pgconn.PgError
	switch {
	case errors.As(err, &pgErr):
		return "database"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	default:
		return "internal"
	}
}
