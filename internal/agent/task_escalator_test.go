package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/zoark/agentd/internal/store"
	"go.uber.org/zap"
)

func TestTaskEscalatorFlipsStuckTasks(t *testing.T) {
	st := &fakeTaskStore{tasks: []store.StuckTask{
		stuckTask("t1", "Ship billing", 72*time.Hour),
		stuckTask("t2", "Fix importer", 96*time.Hour),
	}}

	a := NewTaskEscalator(st, zap.NewNop())
	outcome, err := a.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := outcome["tasks_escalated"]; got != 2 {
		t.Errorf("tasks_escalated = %v, want 2", got)
	}
	if len(st.escalated) != 2 || st.escalated[0] != "t1" || st.escalated[1] != "t2" {
		t.Errorf("escalated = %v, want [t1 t2]", st.escalated)
	}
}

func TestTaskEscalatorSkipsFailedRowAndContinues(t *testing.T) {
	st := &fakeTaskStore{
		tasks: []store.StuckTask{
			stuckTask("t1", "Ship billing", 72*time.Hour),
			stuckTask("t2", "Fix importer", 96*time.Hour),
		},
		escalateErr: map[string]error{"t1": errors.New("deadlock detected")},
	}

	a := NewTaskEscalator(st, zap.NewNop())
	outcome, err := a.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := outcome["tasks_escalated"]; got != 1 {
		t.Errorf("tasks_escalated = %v, want 1", got)
	}
	if len(st.escalated) != 1 || st.escalated[0] != "t2" {
		t.Errorf("escalated = %v, want [t2]", st.escalated)
	}
}
