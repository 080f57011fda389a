package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/zoark/agentd/internal/notify"
	"github.com/zoark/agentd/internal/store"
	"go.uber.org/zap"
)

// ApprovalNudgerStore is the slice of the store the nudger needs.
type ApprovalNudgerStore interface {
	OverdueApprovals(ctx context.Context, approvalID string) ([]store.OverdueApproval, error)
	MarkNudged(ctx context.Context, approvalID string) error
}

// ApprovalNudger sends escalating-urgency emails for PENDING approval
// steps whose deadline has passed. The 24-hour lastNudgedAt guard in the
// selection query makes repeat sweeps safe.
type ApprovalNudger struct {
	store      ApprovalNudgerStore
	sender     notify.Sender
	approvalID string
	logger     *zap.Logger
}

// NewApprovalNudger creates an ApprovalNudger. approvalID restricts the
// sweep to one step when set; empty sweeps all overdue steps.
func NewApprovalNudger(st ApprovalNudgerStore, sender notify.Sender, approvalID string, logger *zap.Logger) *ApprovalNudger {
	return &ApprovalNudger{store: st, sender: sender, approvalID: approvalID, logger: logger}
}

func (a *ApprovalNudger) ActionType() string { return ActionApprovalNudge }

func (a *ApprovalNudger) Run(ctx context.Context) (Outcome, error) {
	approvals, err := a.store.OverdueApprovals(ctx, a.approvalID)
	if err != nil {
		return nil, err
	}

	nudges := make([]map[string]any, 0, len(approvals))
	for _, ap := range approvals {
		nudge, err := a.sendNudge(ctx, ap)
		if err != nil {
			return nil, err
		}
		nudges = append(nudges, nudge)
	}

	return Outcome{
		"nudges_sent": len(nudges),
		"approvals":   nudges,
	}, nil
}

func (a *ApprovalNudger) sendNudge(ctx context.Context, ap store.OverdueApproval) (map[string]any, error) {
	daysOverdue := int(time.Since(ap.Deadline).Hours() / 24)
	urgency := UrgencyFor(daysOverdue)

	a.logger.Info("sending nudge",
		zap.String("approval", ap.ID),
		zap.String("urgency", string(urgency)),
		zap.Int("days_overdue", daysOverdue))

	if err := a.store.MarkNudged(ctx, ap.ID); err != nil {
		return nil, err
	}

	subject := fmt.Sprintf("[%s] Approval Pending — %s ($%.2f)", urgency.Label(), ap.Stage, ap.InvoiceAmount)
	result := a.sender.Send(ctx, ap.AssigneeEmail, subject, nudgeBody(ap, urgency, daysOverdue))

	return map[string]any{
		"approval_id":  ap.ID,
		"stage":        ap.Stage,
		"assignee":     ap.AssigneeEmail,
		"days_overdue": daysOverdue,
		"urgency":      string(urgency),
		"nudge_sent":   true,
		"email_sent":   result.Sent,
	}, nil
}

func nudgeBody(ap store.OverdueApproval, urgency Urgency, daysOverdue int) string {
	var b strings.Builder
	fmt.Fprintf(&b,
		"<h2 style='color:%s'>%s: Approval Pending</h2>"+
			"<table style='border-collapse:collapse;width:100%%'>"+
			"<tr><td style='padding:6px 12px;color:#9ca3af'>Stage</td>"+
			"<td style='padding:6px 12px;font-weight:bold'>%s</td></tr>"+
			"<tr><td style='padding:6px 12px;color:#9ca3af'>Project</td>"+
			"<td style='padding:6px 12px'>%s</td></tr>"+
			"<tr><td style='padding:6px 12px;color:#9ca3af'>Invoice Amount</td>"+
			"<td style='padding:6px 12px;font-weight:bold'>$%.2f</td></tr>"+
			"<tr><td style='padding:6px 12px;color:#9ca3af'>Deadline</td>"+
			"<td style='padding:6px 12px;color:#ef4444'>%s</td></tr>"+
			"<tr><td style='padding:6px 12px;color:#9ca3af'>Days Overdue</td>"+
			"<td style='padding:6px 12px;color:#ef4444;font-weight:bold'>%d day(s)</td></tr>"+
			"</table>",
		urgency.Color(), urgency.Label(), ap.Stage, ap.ProjectName,
		ap.InvoiceAmount, ap.Deadline.Format(time.RFC1123), daysOverdue)

	if len(ap.RequiredDocs) > 0 {
		b.WriteString("<p style='margin-top:12px;color:#9ca3af'>Required documents:</p><ul>")
		for _, d := range ap.RequiredDocs {
			fmt.Fprintf(&b, "<li>%s</li>", d)
		}
		b.WriteString("</ul>")
	}

	b.WriteString(
		"<p style='margin-top:16px;color:#6b7280'>Please review and approve at your earliest convenience.</p>" +
			"<p style='color:#6b7280'>— ZOARK OS Approval Nudger</p>")
	return b.String()
}
