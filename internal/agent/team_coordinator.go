package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/zoark/agentd/internal/notify"
	"github.com/zoark/agentd/internal/store"
	"go.uber.org/zap"
)

// documentStaleness is how old a member's latest upload may be before
// they get a collection reminder.
const documentStaleness = 7 * 24 * time.Hour

// TeamCoordinatorStore is the slice of the store the coordinator needs.
type TeamCoordinatorStore interface {
	ActiveAssignments(ctx context.Context) ([]store.Assignment, error)
	LatestTeamDocumentAt(ctx context.Context, teamMemberID string) (*time.Time, error)
	TeamMemberStats(ctx context.Context, projectID string) ([]store.TeamMemberStat, error)
	ProjectTaskStats(ctx context.Context, projectID string) (*store.TaskStats, error)
}

// TeamCoordinator chases document submissions on active assignments:
// members whose latest upload is missing or older than a week get a
// reminder.
type TeamCoordinator struct {
	store  TeamCoordinatorStore
	sender notify.Sender
	logger *zap.Logger
}

// NewTeamCoordinator creates a TeamCoordinator.
func NewTeamCoordinator(st TeamCoordinatorStore, sender notify.Sender, logger *zap.Logger) *TeamCoordinator {
	return &TeamCoordinator{store: st, sender: sender, logger: logger}
}

func (a *TeamCoordinator) ActionType() string { return ActionTeamReminder }

func (a *TeamCoordinator) Run(ctx context.Context) (Outcome, error) {
	assignments, err := a.store.ActiveAssignments(ctx)
	if err != nil {
		return nil, err
	}

	reminded := 0
	for _, asg := range assignments {
		sent, err := a.checkAssignment(ctx, asg)
		if err != nil {
			a.logger.Error("failed to check assignment",
				zap.String("assignment", asg.ID), zap.Error(err))
			continue
		}
		if sent {
			reminded++
		}
	}

	return Outcome{
		"assignments_checked": len(assignments),
		"reminders_sent":      reminded,
	}, nil
}

func (a *TeamCoordinator) checkAssignment(ctx context.Context, asg store.Assignment) (bool, error) {
	uploadedAt, err := a.store.LatestTeamDocumentAt(ctx, asg.TeamMemberID)
	if err != nil {
		return false, err
	}
	if uploadedAt != nil && time.Since(*uploadedAt) <= documentStaleness {
		return false, nil
	}

	a.logger.Info("sending document reminder",
		zap.String("email", asg.Email),
		zap.String("task", asg.TaskID))

	subject := fmt.Sprintf("Document Submission Reminder — %s", asg.TaskTitle)
	body := fmt.Sprintf(
		"<h2>Document Submission Reminder</h2>"+
			"<p style='color:#cbd5e1'>You have an active assignment on <b>%s</b> with no recent document uploads.</p>"+
			"<p style='color:#cbd5e1'>Please upload your latest documents so the team stays in sync.</p>"+
			"<p style='color:#6b7280'>— ZOARK OS Team Coordinator</p>",
		asg.TaskTitle)
	result := a.sender.Send(ctx, asg.Email, subject, body)
	return result.Sent, nil
}

// TeamReport summarizes a project's team workload and task health.
type TeamReport struct {
	ProjectID   string                 `json:"projectId"`
	GeneratedAt time.Time              `json:"generatedAt"`
	TeamMembers []store.TeamMemberStat `json:"teamMembers"`
	TaskStats   store.TaskStats        `json:"taskStatistics"`
}

// GenerateTeamReport builds a point-in-time report for one project.
func (a *TeamCoordinator) GenerateTeamReport(ctx context.Context, projectID string) (*TeamReport, error) {
	members, err := a.store.TeamMemberStats(ctx, projectID)
	if err != nil {
		return nil, err
	}
	stats, err := a.store.ProjectTaskStats(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return &TeamReport{
		ProjectID:   projectID,
		GeneratedAt: time.Now().UTC(),
		TeamMembers: members,
		TaskStats:   *stats,
	}, nil
}
