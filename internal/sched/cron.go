// Package sched fires a fixed set of agents on wall-clock schedules,
// independent of events and of the persisted AgentSchedule table.
package sched

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/zoark/agentd/internal/agent"
	"go.uber.org/zap"
)

// Fixed schedules: Friday 16:00 timesheet reminder, daily 09:00 task
// health check, hourly approval nudge sweep.
const (
	timesheetSpec   = "0 16 * * 5"
	healthCheckSpec = "0 9 * * *"
	nudgeSpec       = "0 * * * *"
)

// Cron wraps the cron runner. Each firing constructs a fresh agent via
// its factory and runs it through the executor; failures are logged and
// the schedule keeps ticking.
type Cron struct {
	runner   *cron.Cron
	executor *agent.Executor
	logger   *zap.Logger
}

// Factories supplies a constructor per cron-dispatched agent.
type Factories struct {
	TimesheetDrafter func() agent.Agent
	TaskMonitor      func() agent.Agent
	ApprovalNudger   func() agent.Agent
}

// New registers the fixed jobs and returns the scheduler, not yet started.
func New(executor *agent.Executor, factories Factories, logger *zap.Logger) (*Cron, error) {
	c := &Cron{
		runner:   cron.New(),
		executor: executor,
		logger:   logger,
	}

	jobs := []struct {
		name    string
		spec    string
		factory func() agent.Agent
	}{
		{"timesheet_reminder", timesheetSpec, factories.TimesheetDrafter},
		{"task_health_check", healthCheckSpec, factories.TaskMonitor},
		{"approval_nudge", nudgeSpec, factories.ApprovalNudger},
	}
	for _, j := range jobs {
		job := j
		if _, err := c.runner.AddFunc(job.spec, func() { c.fire(job.name, job.factory) }); err != nil {
			return nil, fmt.Errorf("register cron job %s: %w", job.name, err)
		}
	}
	return c, nil
}

func (c *Cron) fire(name string, factory func() agent.Agent) {
	c.logger.Info("cron job firing", zap.String("job", name))
	outcome, err := c.executor.Execute(context.Background(), factory())
	if err != nil {
		c.logger.Error("cron job failed", zap.String("job", name), zap.Error(err))
		return
	}
	c.logger.Info("cron job completed",
		zap.String("job", name), zap.Any("outcome", outcome))
}

// Start begins firing jobs.
func (c *Cron) Start() {
	c.runner.Start()
	c.logger.Info("cron scheduler started")
}

// Stop waits for in-flight jobs and stops the runner.
func (c *Cron) Stop() {
	<-c.runner.Stop().Done()
	c.logger.Info("cron scheduler stopped")
}
