package orchestrator

import (
	"github.com/zoark/agentd/internal/agent"
	"go.uber.org/zap"
)

// Agent type names, as stored in AgentSchedule.agentType and used by the
// manual trigger surface.
const (
	TypeTaskMonitor      = "task_monitor"
	TypeApprovalNudger   = "approval_nudger"
	TypeTaskEscalator    = "task_escalator"
	TypeTimesheetDrafter = "timesheet_drafter"
	TypeBroadcaster      = "broadcast_agent"
	TypeDocumentIndexer  = "document_indexer"
	TypeTeamCoordinator  = "team_coordinator"
)

// RegistryEntry is one agent type's construction result. A failed entry
// carries the error instead of the agent.
type RegistryEntry struct {
	Type  string
	Agent agent.Agent
	Err   error
}

// BuildRegistry turns construction results into the dispatch registry,
// logging each failure once at startup. A failed agent is omitted; the
// orchestrator degrades rather than refusing to start.
func BuildRegistry(entries []RegistryEntry, logger *zap.Logger) map[string]agent.Agent {
	registry := make(map[string]agent.Agent, len(entries))
	for _, e := range entries {
		if e.Err != nil {
			logger.Warn("could not load agent, omitting from registry",
				zap.String("type", e.Type), zap.Error(e.Err))
			continue
		}
		registry[e.Type] = e.Agent
	}
	logger.Info("agent registry built", zap.Int("agents", len(registry)))
	return registry
}
