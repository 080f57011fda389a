// Package orchestrator is the top-level coordinator: it owns the agent
// registry and two polling loops, one over persisted schedules and one
// that synthesizes dispatches by inspecting database state directly. The
// state poll is a safety net: agents still fire when the notify/bus
// pipeline is down.
package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/zoark/agentd/internal/agent"
	"github.com/zoark/agentd/internal/store"
	"go.uber.org/zap"
)

const (
	defaultScheduleInterval = 30 * time.Second
	defaultEventInterval    = 10 * time.Second

	stuckThreshold = 48 * time.Hour
)

// Store is the slice of the store the orchestrator's loops need.
type Store interface {
	DueSchedules(ctx context.Context) ([]store.Schedule, error)
	TouchSchedule(ctx context.Context, id string) error
	CountStuckTasks(ctx context.Context, threshold time.Time) (int, error)
	CountOverdueApprovals(ctx context.Context) (int, error)
	CountDueBroadcasts(ctx context.Context) (int, error)
}

// Orchestrator supervises the two polling loops over one agent registry.
type Orchestrator struct {
	store            Store
	executor         *agent.Executor
	registry         map[string]agent.Agent
	scheduleInterval time.Duration
	eventInterval    time.Duration
	logger           *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates an Orchestrator. Zero intervals fall back to the 30s/10s
// defaults.
func New(st Store, executor *agent.Executor, registry map[string]agent.Agent, scheduleInterval, eventInterval time.Duration, logger *zap.Logger) *Orchestrator {
	if scheduleInterval <= 0 {
		scheduleInterval = defaultScheduleInterval
	}
	if eventInterval <= 0 {
		eventInterval = defaultEventInterval
	}
	return &Orchestrator{
		store:            st,
		executor:         executor,
		registry:         registry,
		scheduleInterval: scheduleInterval,
		eventInterval:    eventInterval,
		logger:           logger,
	}
}

// Start launches the schedule loop and the event-poll loop.
func (o *Orchestrator) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	o.cancel = cancel

	o.wg.Add(2)
	go o.loop(ctx, "schedule", o.scheduleInterval, o.pollSchedules)
	go o.loop(ctx, "event-poll", o.eventInterval, o.pollEvents)

	o.logger.Info("orchestrator started",
		zap.Duration("schedule_interval", o.scheduleInterval),
		zap.Duration("event_interval", o.eventInterval))
}

// Stop cancels both loops and waits for their current iterations to
// finish.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	o.wg.Wait()
	o.logger.Info("orchestrator stopped")
}

// loop runs fn on a fixed cadence until ctx is cancelled. A failed
// iteration is logged and the cadence continues, resilience over strict
// scheduling precision.
func (o *Orchestrator) loop(ctx context.Context, name string, interval time.Duration, fn func(ctx context.Context) error) {
	defer o.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := fn(ctx); err != nil && ctx.Err() == nil {
				o.logger.Error("poll iteration failed",
					zap.String("loop", name), zap.Error(err))
			}
		}
	}
}

// pollSchedules executes every due active schedule whose agent type is
// registered, then stamps lastRun. nextRun is never advanced here: a
// schedule with a null nextRun fires every cycle regardless of its cron
// expression. That matches the deployed behavior; see the schedules
// store for the caveat.
func (o *Orchestrator) pollSchedules(ctx context.Context) error {
	schedules, err := o.store.DueSchedules(ctx)
	if err != nil {
		return err
	}

	for _, sc := range schedules {
		a, ok := o.registry[sc.AgentType]
		if !ok {
			o.logger.Warn("scheduled agent not registered",
				zap.String("schedule", sc.ID),
				zap.String("type", sc.AgentType))
			continue
		}
		if _, err := o.executor.Execute(ctx, a); err != nil {
			o.logger.Error("scheduled agent failed",
				zap.String("schedule", sc.ID),
				zap.String("type", sc.AgentType),
				zap.Error(err))
		}
		if err := o.store.TouchSchedule(ctx, sc.ID); err != nil {
			o.logger.Error("failed to stamp schedule",
				zap.String("schedule", sc.ID), zap.Error(err))
		}
	}
	return nil
}

// pollEvents scans for the three poll-detectable conditions and fires
// the corresponding agent for each nonzero count.
func (o *Orchestrator) pollEvents(ctx context.Context) error {
	checks := []struct {
		name      string
		agentType string
		count     func(ctx context.Context) (int, error)
	}{
		{"stuck tasks", TypeTaskEscalator, func(ctx context.Context) (int, error) {
			return o.store.CountStuckTasks(ctx, time.Now().UTC().Add(-stuckThreshold))
		}},
		{"overdue approvals", TypeApprovalNudger, o.store.CountOverdueApprovals},
		{"due broadcasts", TypeBroadcaster, o.store.CountDueBroadcasts},
	}

	for _, check := range checks {
		count, err := check.count(ctx)
		if err != nil {
			return err
		}
		if count == 0 {
			continue
		}

		o.logger.Info("poll condition met",
			zap.String("condition", check.name),
			zap.Int("count", count),
			zap.String("agent", check.agentType))
		o.execute(ctx, check.agentType)
	}
	return nil
}

// execute runs a registered agent by type, containing its failure.
func (o *Orchestrator) execute(ctx context.Context, agentType string) {
	a, ok := o.registry[agentType]
	if !ok {
		o.logger.Warn("agent not registered", zap.String("type", agentType))
		return
	}
	if _, err := o.executor.Execute(ctx, a); err != nil {
		o.logger.Error("agent execution failed",
			zap.String("type", agentType), zap.Error(err))
	}
}

// Registry exposes the registry for the trigger surface.
func (o *Orchestrator) Registry() map[string]agent.Agent {
	return o.registry
}
