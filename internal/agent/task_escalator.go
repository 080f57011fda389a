package agent

import (
	"context"
	"time"

	"github.com/zoark/agentd/internal/store"
	"go.uber.org/zap"
)

// TaskEscalatorStore is the slice of the store the escalator needs.
type TaskEscalatorStore interface {
	StuckTasks(ctx context.Context, threshold time.Time, taskID string) ([]store.StuckTask, error)
	EscalateTask(ctx context.Context, taskID string) error
}

// TaskEscalator flips stuck tasks to CRITICAL health. Re-escalating an
// already-CRITICAL task rewrites the same status, so overlapping sweeps
// converge on the same end state.
type TaskEscalator struct {
	store  TaskEscalatorStore
	logger *zap.Logger
}

// NewTaskEscalator creates a TaskEscalator.
func NewTaskEscalator(st TaskEscalatorStore, logger *zap.Logger) *TaskEscalator {
	return &TaskEscalator{store: st, logger: logger}
}

func (a *TaskEscalator) ActionType() string { return ActionTaskEscalated }

func (a *TaskEscalator) Run(ctx context.Context) (Outcome, error) {
	threshold := time.Now().UTC().Add(-stuckThreshold)
	tasks, err := a.store.StuckTasks(ctx, threshold, "")
	if err != nil {
		return nil, err
	}

	escalated := 0
	for _, t := range tasks {
		// One bad row never aborts the sweep.
		if err := a.store.EscalateTask(ctx, t.ID); err != nil {
			a.logger.Error("failed to escalate task",
				zap.String("task", t.ID), zap.Error(err))
			continue
		}
		a.logger.Info("escalated stuck task",
			zap.String("task", t.ID), zap.String("title", t.Title))
		escalated++
	}

	return Outcome{"tasks_escalated": escalated}, nil
}
