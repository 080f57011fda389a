package agent

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Executor is the single supervision boundary around agent runs. Every
// dispatch path (bus, cron, orchestrator loops, manual trigger) goes
// through Execute; nothing upstream of it swallows agent errors.
type Executor struct {
	recorder *Recorder
	logger   *zap.Logger
}

// NewExecutor creates an Executor logging through recorder.
func NewExecutor(recorder *Recorder, logger *zap.Logger) *Executor {
	return &Executor{recorder: recorder, logger: logger}
}

// Execute runs the agent and records the outcome. On success the Outcome
// is logged as SUCCESS and returned; on failure a FAILED entry is
// recorded and the error is returned to the caller, which must contain
// it at its own level (the polling and subscribe loops log and continue).
func (e *Executor) Execute(ctx context.Context, a Agent) (Outcome, error) {
	action := a.ActionType()
	e.logger.Info("agent starting", zap.String("action", action))

	outcome, err := a.Run(ctx)
	if err != nil {
		e.logger.Error("agent failed", zap.String("action", action), zap.Error(err))
		e.recorder.Failure(ctx, action, err)
		return nil, fmt.Errorf("%s: %w", action, err)
	}

	e.recorder.Success(ctx, action, outcome)
	e.logger.Info("agent completed", zap.String("action", action))
	return outcome, nil
}
