package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/zoark/agentd/internal/notify"
	"github.com/zoark/agentd/internal/store"
	"go.uber.org/zap"
)

// stuckThreshold is how long an ACTIVE task may go without an update
// before it counts as stuck.
const stuckThreshold = 48 * time.Hour

// TaskMonitorStore is the slice of the store the task monitor needs.
type TaskMonitorStore interface {
	StuckTasks(ctx context.Context, threshold time.Time, taskID string) ([]store.StuckTask, error)
}

// TaskMonitor alerts on ACTIVE tasks not updated in over 48 hours. It
// has no idempotency guard of its own; it relies on low poll frequency.
type TaskMonitor struct {
	store      TaskMonitorStore
	sender     notify.Sender
	alertEmail string
	taskID     string
	logger     *zap.Logger
}

// NewTaskMonitor creates a TaskMonitor. taskID restricts the scan to one
// task when set (event-driven dispatch); empty scans everything.
func NewTaskMonitor(st TaskMonitorStore, sender notify.Sender, alertEmail, taskID string, logger *zap.Logger) *TaskMonitor {
	return &TaskMonitor{store: st, sender: sender, alertEmail: alertEmail, taskID: taskID, logger: logger}
}

func (a *TaskMonitor) ActionType() string { return ActionTaskStuckAlert }

func (a *TaskMonitor) Run(ctx context.Context) (Outcome, error) {
	threshold := time.Now().UTC().Add(-stuckThreshold)
	tasks, err := a.store.StuckTasks(ctx, threshold, a.taskID)
	if err != nil {
		return nil, err
	}

	alerts := make([]map[string]any, 0, len(tasks))
	for _, t := range tasks {
		alerts = append(alerts, a.sendAlert(ctx, t))
	}

	return Outcome{
		"alerts_sent": len(alerts),
		"tasks":       alerts,
	}, nil
}

func (a *TaskMonitor) sendAlert(ctx context.Context, t store.StuckTask) map[string]any {
	stuckDays := int(time.Since(t.LastUpdated).Hours() / 24)

	a.logger.Warn("task stuck",
		zap.String("task", t.ID),
		zap.String("title", t.Title),
		zap.Int("stuck_days", stuckDays))

	emailSent := false
	if a.alertEmail != "" {
		subject := fmt.Sprintf("[ZOARK OS] Task Stuck — %s", t.Title)
		body := stuckAlertBody(t, stuckDays)
		emailSent = a.sender.Send(ctx, a.alertEmail, subject, body).Sent
	}

	return map[string]any{
		"task_id":    t.ID,
		"task_title": t.Title,
		"project":    t.ProjectName,
		"stuck_days": stuckDays,
		"alert_sent": true,
		"email_sent": emailSent,
	}
}

func stuckAlertBody(t store.StuckTask, stuckDays int) string {
	return fmt.Sprintf(
		"<h2>Task Stuck Alert</h2>"+
			"<table style='border-collapse:collapse;width:100%%'>"+
			"<tr><td style='padding:6px 12px;color:#9ca3af'>Task</td>"+
			"<td style='padding:6px 12px;font-weight:bold'>%s</td></tr>"+
			"<tr><td style='padding:6px 12px;color:#9ca3af'>Project</td>"+
			"<td style='padding:6px 12px'>%s</td></tr>"+
			"<tr><td style='padding:6px 12px;color:#9ca3af'>Status</td>"+
			"<td style='padding:6px 12px'>%s</td></tr>"+
			"<tr><td style='padding:6px 12px;color:#9ca3af'>Stuck For</td>"+
			"<td style='padding:6px 12px;color:#ef4444;font-weight:bold'>%d day(s)</td></tr>"+
			"</table>"+
			"<p style='margin-top:16px;color:#6b7280'>Last updated: %s</p>"+
			"<p style='color:#6b7280'>— ZOARK OS Task Monitor</p>",
		t.Title, t.ProjectName, t.Status, stuckDays, t.LastUpdated.Format(time.RFC1123))
}
