package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/zoark/agentd/internal/agent"
	"github.com/zoark/agentd/internal/store"
	"go.uber.org/zap"
)

type fakeStore struct {
	schedules         []store.Schedule
	scheduleErr       error
	touched           []string
	stuckCount        int
	overdueCount      int
	broadcastCount    int
	countErr          error
	gotStuckThreshold time.Time
}

func (f *fakeStore) DueSchedules(_ context.Context) ([]store.Schedule, error) {
	return f.schedules, f.scheduleErr
}

func (f *fakeStore) TouchSchedule(_ context.Context, id string) error {
	f.touched = append(f.touched, id)
	return nil
}

func (f *fakeStore) CountStuckTasks(_ context.Context, threshold time.Time) (int, error) {
	f.gotStuckThreshold = threshold
	return f.stuckCount, f.countErr
}

func (f *fakeStore) CountOverdueApprovals(_ context.Context) (int, error) {
	return f.overdueCount, f.countErr
}

func (f *fakeStore) CountDueBroadcasts(_ context.Context) (int, error) {
	return f.broadcastCount, f.countErr
}

type countingAgent struct {
	action string
	runs   int
	err    error
}

func (a *countingAgent) Run(context.Context) (agent.Outcome, error) {
	a.runs++
	return agent.Outcome{}, a.err
}

func (a *countingAgent) ActionType() string { return a.action }

type nopLogStore struct{}

func (nopLogStore) InsertLog(context.Context, *store.LogEntry) error { return nil }

func newTestOrchestrator(st *fakeStore, registry map[string]agent.Agent) *Orchestrator {
	logger := zap.NewNop()
	executor := agent.NewExecutor(agent.NewRecorder(nopLogStore{}, nil, logger), logger)
	return New(st, executor, registry, time.Minute, time.Minute, logger)
}

func TestPollSchedulesRunsDueAgents(t *testing.T) {
	escalator := &countingAgent{action: agent.ActionTaskEscalated}
	st := &fakeStore{schedules: []store.Schedule{
		{ID: "s1", AgentType: TypeTaskEscalator, IsActive: true},
	}}

	o := newTestOrchestrator(st, map[string]agent.Agent{TypeTaskEscalator: escalator})
	if err := o.pollSchedules(context.Background()); err != nil {
		t.Fatalf("pollSchedules: %v", err)
	}

	if escalator.runs != 1 {
		t.Errorf("agent ran %d times, want 1", escalator.runs)
	}
	if len(st.touched) != 1 || st.touched[0] != "s1" {
		t.Errorf("touched = %v, want [s1]", st.touched)
	}
}

func TestPollSchedulesSkipsUnregisteredType(t *testing.T) {
	st := &fakeStore{schedules: []store.Schedule{
		{ID: "s1", AgentType: "unknown_agent", IsActive: true},
	}}

	o := newTestOrchestrator(st, map[string]agent.Agent{})
	if err := o.pollSchedules(context.Background()); err != nil {
		t.Fatalf("pollSchedules: %v", err)
	}

	// Unregistered schedules are skipped entirely, lastRun included.
	if len(st.touched) != 0 {
		t.Errorf("touched = %v, want none", st.touched)
	}
}

func TestPollSchedulesStampsEvenOnAgentFailure(t *testing.T) {
	failing := &countingAgent{action: agent.ActionTaskEscalated, err: errors.New("boom")}
	st := &fakeStore{schedules: []store.Schedule{
		{ID: "s1", AgentType: TypeTaskEscalator, IsActive: true},
	}}

	o := newTestOrchestrator(st, map[string]agent.Agent{TypeTaskEscalator: failing})
	if err := o.pollSchedules(context.Background()); err != nil {
		t.Fatalf("pollSchedules: %v", err)
	}

	if len(st.touched) != 1 {
		t.Errorf("touched = %v, want [s1]", st.touched)
	}
}

// A schedule whose nextRun is null is due on every poll; lastRun is
// stamped but nextRun never advances, so it stays due. This documents
// the current re-fire behavior rather than an aspiration.
func TestPollSchedulesNullNextRunRefires(t *testing.T) {
	a := &countingAgent{action: agent.ActionTaskEscalated}
	st := &fakeStore{schedules: []store.Schedule{
		{ID: "s1", AgentType: TypeTaskEscalator, IsActive: true},
	}}

	o := newTestOrchestrator(st, map[string]agent.Agent{TypeTaskEscalator: a})
	for i := 0; i < 3; i++ {
		if err := o.pollSchedules(context.Background()); err != nil {
			t.Fatalf("pollSchedules: %v", err)
		}
	}

	if a.runs != 3 {
		t.Errorf("agent ran %d times over 3 polls, want 3", a.runs)
	}
}

func TestPollEventsFiresMatchingAgents(t *testing.T) {
	escalator := &countingAgent{action: agent.ActionTaskEscalated}
	nudger := &countingAgent{action: agent.ActionApprovalNudge}
	broadcaster := &countingAgent{action: agent.ActionBroadcastSent}
	st := &fakeStore{stuckCount: 2, overdueCount: 1, broadcastCount: 0}

	o := newTestOrchestrator(st, map[string]agent.Agent{
		TypeTaskEscalator:  escalator,
		TypeApprovalNudger: nudger,
		TypeBroadcaster:    broadcaster,
	})
	if err := o.pollEvents(context.Background()); err != nil {
		t.Fatalf("pollEvents: %v", err)
	}

	if escalator.runs != 1 {
		t.Errorf("escalator ran %d times, want 1", escalator.runs)
	}
	if nudger.runs != 1 {
		t.Errorf("nudger ran %d times, want 1", nudger.runs)
	}
	if broadcaster.runs != 0 {
		t.Errorf("broadcaster ran %d times, want 0", broadcaster.runs)
	}

	wantAround := time.Now().UTC().Add(-48 * time.Hour)
	if d := st.gotStuckThreshold.Sub(wantAround); d < -time.Minute || d > time.Minute {
		t.Errorf("stuck threshold %v not ~48h ago", st.gotStuckThreshold)
	}
}

func TestPollEventsPropagatesCountError(t *testing.T) {
	st := &fakeStore{countErr: errors.New("db down")}
	o := newTestOrchestrator(st, map[string]agent.Agent{})
	if err := o.pollEvents(context.Background()); err == nil {
		t.Fatal("pollEvents succeeded, want error")
	}
}

func TestStartStop(t *testing.T) {
	st := &fakeStore{}
	o := newTestOrchestrator(st, map[string]agent.Agent{})
	o.Start()
	o.Stop()
}

func TestBuildRegistryOmitsFailedEntries(t *testing.T) {
	good := &countingAgent{action: agent.ActionTaskEscalated}
	registry := BuildRegistry([]RegistryEntry{
		{Type: TypeTaskEscalator, Agent: good},
		{Type: TypeDocumentIndexer, Err: errors.New("qdrant unavailable")},
	}, zap.NewNop())

	if _, ok := registry[TypeTaskEscalator]; !ok {
		t.Error("healthy agent missing from registry")
	}
	if _, ok := registry[TypeDocumentIndexer]; ok {
		t.Error("failed agent present in registry")
	}
}
