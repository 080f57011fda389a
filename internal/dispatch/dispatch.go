// Package dispatch subscribes to the message bus and routes each domain
// event to the matching agent by its type field.
package dispatch

import (
	"context"
	"encoding/json"

	"github.com/zoark/agentd/internal/agent"
	"github.com/zoark/agentd/internal/bus"
	"github.com/zoark/agentd/internal/notify"
	"github.com/zoark/agentd/internal/retry"
	"go.uber.org/zap"
)

// Store is the union of store slices the event-constructible agents need.
type Store interface {
	agent.TaskMonitorStore
	agent.ApprovalNudgerStore
}

// Deps holds everything the routing table needs to construct agents with
// event-specific arguments.
type Deps struct {
	Store      Store
	Sender     notify.Sender
	Fetcher    agent.InvoiceTextFetcher
	Embedder   agent.Embedder
	Index      agent.VectorIndex
	AlertEmail string
}

// Event types carried on the bus.
const (
	EventTaskStuck       = "task_stuck"
	EventApprovalOverdue = "approval_overdue"
	EventInvoiceCreated  = "invoice_created"
)

// Dispatcher routes bus events to agents. Unknown event types are logged
// and dropped; per-event failures never kill the subscribe loop.
type Dispatcher struct {
	bus      *bus.Bus
	executor *agent.Executor
	routes   map[string]func(ev *bus.Event) agent.Agent
	backoff  *retry.Backoff
	logger   *zap.Logger
}

// New creates a Dispatcher with the static event routing table.
func New(b *bus.Bus, executor *agent.Executor, deps Deps, logger *zap.Logger) *Dispatcher {
	routes := map[string]func(ev *bus.Event) agent.Agent{
		EventTaskStuck: func(ev *bus.Event) agent.Agent {
			return agent.NewTaskMonitor(deps.Store, deps.Sender, deps.AlertEmail, ev.String("task_id"), logger)
		},
		EventApprovalOverdue: func(ev *bus.Event) agent.Agent {
			return agent.NewApprovalNudger(deps.Store, deps.Sender, ev.String("approval_id"), logger)
		},
		EventInvoiceCreated: func(ev *bus.Event) agent.Agent {
			return agent.NewEmailParser(deps.Fetcher, deps.Embedder, deps.Index, ev.String("pdf_url"), ev.String("invoice_id"), logger)
		},
	}
	return &Dispatcher{
		bus:      b,
		executor: executor,
		routes:   routes,
		backoff:  retry.NewBackoff(),
		logger:   logger,
	}
}

// Run subscribes until ctx is cancelled, reconnecting with the standard
// backoff on connection loss.
func (d *Dispatcher) Run(ctx context.Context) {
	retry.Forever(ctx, "dispatcher", d.backoff, d.logger, func(ctx context.Context) error {
		return d.bus.Subscribe(ctx, bus.EventChannel, func(payload string) {
			d.HandleEvent(ctx, payload)
		})
	})
}

// HandleEvent decodes one event payload and runs the matching agent.
// All failures are contained here so the subscribe loop survives.
func (d *Dispatcher) HandleEvent(ctx context.Context, payload string) {
	var ev bus.Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		d.logger.Error("undecodable event payload", zap.Error(err))
		return
	}

	build, ok := d.routes[ev.Type]
	if !ok {
		d.logger.Warn("unknown event type", zap.String("type", ev.Type))
		return
	}

	d.logger.Info("dispatching event", zap.String("type", ev.Type))
	if _, err := d.executor.Execute(ctx, build(&ev)); err != nil {
		d.logger.Error("event agent failed",
			zap.String("type", ev.Type), zap.Error(err))
	}
}
