package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/zoark/agentd/internal/notify"
	"github.com/zoark/agentd/internal/store"
	"go.uber.org/zap"
)

// TimesheetDrafterStore is the slice of the store the drafter needs.
type TimesheetDrafterStore interface {
	IncompleteTimesheetUsers(ctx context.Context) ([]store.User, error)
	RecentCompletedTaskTitles(ctx context.Context, limit int) ([]string, error)
}

// GithubActivity is the external-activity context folded into a
// timesheet reminder.
type GithubActivity struct {
	Commits    int
	Repos      []string
	LastCommit string
}

// ActivitySource supplies a user's recent external activity.
type ActivitySource interface {
	RecentActivity(ctx context.Context, githubUsername string) GithubActivity
}

// StubActivitySource returns placeholder activity until a real GitHub
// integration lands. Users without a username get an empty summary.
type StubActivitySource struct{}

func (StubActivitySource) RecentActivity(_ context.Context, githubUsername string) GithubActivity {
	if githubUsername == "" {
		return GithubActivity{}
	}
	return GithubActivity{
		Commits:    15,
		Repos:      []string{"zoark-os", "frontend-app"},
		LastCommit: "2 days ago",
	}
}

// TimesheetDrafter sends personalized timesheet reminders to users whose
// timesheet is incomplete. Content generation is resend-safe; there is
// no dedup guard beyond the weekly cadence.
type TimesheetDrafter struct {
	store    TimesheetDrafterStore
	sender   notify.Sender
	activity ActivitySource
	logger   *zap.Logger
}

// NewTimesheetDrafter creates a TimesheetDrafter. A nil activity source
// falls back to the stub.
func NewTimesheetDrafter(st TimesheetDrafterStore, sender notify.Sender, activity ActivitySource, logger *zap.Logger) *TimesheetDrafter {
	if activity == nil {
		activity = StubActivitySource{}
	}
	return &TimesheetDrafter{store: st, sender: sender, activity: activity, logger: logger}
}

func (a *TimesheetDrafter) ActionType() string { return ActionTimesheetReminder }

func (a *TimesheetDrafter) Run(ctx context.Context) (Outcome, error) {
	users, err := a.store.IncompleteTimesheetUsers(ctx)
	if err != nil {
		return nil, err
	}

	recentTasks, err := a.store.RecentCompletedTaskTitles(ctx, 5)
	if err != nil {
		return nil, err
	}

	userIDs := make([]string, 0, len(users))
	for _, u := range users {
		activity := a.activity.RecentActivity(ctx, u.GithubUsername)
		body := reminderBody(u.Name, recentTasks, activity)

		result := a.sender.Send(ctx, u.Email, "Reminder: Please Submit Your Timesheet", body)
		a.logger.Info("timesheet reminder drafted",
			zap.String("user", u.ID),
			zap.Bool("email_sent", result.Sent))
		userIDs = append(userIDs, u.ID)
	}

	return Outcome{
		"drafts_created": len(userIDs),
		"users":          userIDs,
	}, nil
}

func reminderBody(userName string, recentTasks []string, activity GithubActivity) string {
	var tasks strings.Builder
	if len(recentTasks) == 0 {
		tasks.WriteString("<li style='color:#6b7280'>(no recent completed tasks)</li>")
	}
	for _, t := range recentTasks {
		fmt.Fprintf(&tasks, "<li style='padding:4px 0;color:#cbd5e1'>%s</li>", t)
	}

	repos := "none"
	if len(activity.Repos) > 0 {
		repos = strings.Join(activity.Repos, ", ")
	}

	return fmt.Sprintf(
		"<h2 style='color:#e2e8f0'>Hi %s,</h2>"+
			"<p style='color:#cbd5e1'>Hope you're wrapping up a great week! Here's a summary of your recent activity:</p>"+
			"<h3 style='color:#a78bfa;margin-top:20px'>Recent Task Progress</h3>"+
			"<ul style='list-style:disc;padding-left:20px'>%s</ul>"+
			"<h3 style='color:#60a5fa;margin-top:20px'>GitHub Activity</h3>"+
			"<table style='border-collapse:collapse;width:100%%'>"+
			"<tr><td style='padding:4px 12px;color:#9ca3af'>Commits</td>"+
			"<td style='padding:4px 12px;color:#cbd5e1;font-weight:bold'>%d</td></tr>"+
			"<tr><td style='padding:4px 12px;color:#9ca3af'>Repositories</td>"+
			"<td style='padding:4px 12px;color:#cbd5e1'>%s</td></tr>"+
			"</table>"+
			"<div style='margin-top:24px;padding:16px;background:#1e293b;border-radius:8px;border-left:4px solid #a78bfa'>"+
			"<p style='color:#e2e8f0;margin:0;font-weight:bold'>Action Required</p>"+
			"<p style='color:#cbd5e1;margin:8px 0 0'>Please submit your timesheet before end of day today.</p>"+
			"</div>"+
			"<p style='color:#6b7280;margin-top:24px;font-size:14px'>— ZOARK OS Timesheet Drafter</p>",
		userName, tasks.String(), activity.Commits, repos)
}
