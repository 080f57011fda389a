package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/zoark/agentd/internal/agent"
	"github.com/zoark/agentd/internal/notify"
	"github.com/zoark/agentd/internal/store"
	"go.uber.org/zap"
)

type fakeStore struct {
	stuckTaskIDs    []string
	approvalIDs     []string
	nudged          []string
	lastTaskScope   string
	lastApprovalArg string
}

func (f *fakeStore) StuckTasks(_ context.Context, _ time.Time, taskID string) ([]store.StuckTask, error) {
	f.lastTaskScope = taskID
	var out []store.StuckTask
	for _, id := range f.stuckTaskIDs {
		out = append(out, store.StuckTask{ID: id, Title: id, LastUpdated: time.Now().Add(-72 * time.Hour)})
	}
	return out, nil
}

func (f *fakeStore) OverdueApprovals(_ context.Context, approvalID string) ([]store.OverdueApproval, error) {
	f.lastApprovalArg = approvalID
	var out []store.OverdueApproval
	for _, id := range f.approvalIDs {
		out = append(out, store.OverdueApproval{ID: id, Deadline: time.Now().Add(-48 * time.Hour)})
	}
	return out, nil
}

func (f *fakeStore) MarkNudged(_ context.Context, approvalID string) error {
	f.nudged = append(f.nudged, approvalID)
	return nil
}

type fakeLogStore struct {
	actions []string
}

func (f *fakeLogStore) InsertLog(_ context.Context, e *store.LogEntry) error {
	f.actions = append(f.actions, e.Action+":"+e.Status)
	return nil
}

type fakeSender struct{}

func (fakeSender) Send(context.Context, string, string, string) notify.Result {
	return notify.Result{Sent: true}
}
func (fakeSender) Name() string { return "fake" }

func newTestDispatcher(st *fakeStore, logs *fakeLogStore) *Dispatcher {
	logger := zap.NewNop()
	executor := agent.NewExecutor(agent.NewRecorder(logs, nil, logger), logger)
	return New(nil, executor, Deps{
		Store:      st,
		Sender:     fakeSender{},
		AlertEmail: "ops@zoark.dev",
	}, logger)
}

func TestHandleEventRoutesTaskStuck(t *testing.T) {
	st := &fakeStore{stuckTaskIDs: []string{"t1"}}
	logs := &fakeLogStore{}
	d := newTestDispatcher(st, logs)

	d.HandleEvent(context.Background(), `{"type":"task_stuck","task_id":"t1"}`)

	if st.lastTaskScope != "t1" {
		t.Errorf("task scope = %q, want t1", st.lastTaskScope)
	}
	if len(logs.actions) != 1 || logs.actions[0] != agent.ActionTaskStuckAlert+":SUCCESS" {
		t.Errorf("recorded actions = %v", logs.actions)
	}
}

func TestHandleEventRoutesApprovalOverdue(t *testing.T) {
	st := &fakeStore{approvalIDs: []string{"a1"}}
	logs := &fakeLogStore{}
	d := newTestDispatcher(st, logs)

	d.HandleEvent(context.Background(), `{"type":"approval_overdue","approval_id":"a1"}`)

	if st.lastApprovalArg != "a1" {
		t.Errorf("approval scope = %q, want a1", st.lastApprovalArg)
	}
	if len(st.nudged) != 1 {
		t.Errorf("nudged = %v", st.nudged)
	}
}

func TestHandleEventDropsUnknownType(t *testing.T) {
	st := &fakeStore{}
	logs := &fakeLogStore{}
	d := newTestDispatcher(st, logs)

	d.HandleEvent(context.Background(), `{"type":"solar_flare","task_id":"t1"}`)

	if len(logs.actions) != 0 {
		t.Errorf("unknown event ran an agent: %v", logs.actions)
	}
}

type stubFetcher struct{}

func (stubFetcher) FetchText(context.Context, string) (string, error) { return "INVOICE", nil }

type stubEmbedder struct{}

func (stubEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.1, 0.2}
	}
	return out, nil
}

func TestHandleEventInvoiceCreatedWithoutVectorStore(t *testing.T) {
	st := &fakeStore{}
	logs := &fakeLogStore{}
	logger := zap.NewNop()
	executor := agent.NewExecutor(agent.NewRecorder(logs, nil, logger), logger)
	// Same wiring main falls back to when Qdrant is down: Index stays nil.
	d := New(nil, executor, Deps{
		Store:    st,
		Sender:   fakeSender{},
		Fetcher:  stubFetcher{},
		Embedder: stubEmbedder{},
	}, logger)

	d.HandleEvent(context.Background(), `{"type":"invoice_created","invoice_id":"inv-1","pdf_url":"https://files/inv.pdf"}`)

	if len(logs.actions) != 1 || logs.actions[0] != agent.ActionEmailParsed+":FAILED" {
		t.Errorf("recorded actions = %v, want one failed email parse", logs.actions)
	}
}

func TestHandleEventSurvivesBadPayload(t *testing.T) {
	st := &fakeStore{}
	logs := &fakeLogStore{}
	d := newTestDispatcher(st, logs)

	d.HandleEvent(context.Background(), `{not json`)
	d.HandleEvent(context.Background(), ``)

	if len(logs.actions) != 0 {
		t.Errorf("bad payload ran an agent: %v", logs.actions)
	}
}
