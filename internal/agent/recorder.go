package agent

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/zoark/agentd/internal/bus"
	"github.com/zoark/agentd/internal/store"
	"go.uber.org/zap"
)

// LogStore persists activity log rows.
type LogStore interface {
	InsertLog(ctx context.Context, e *store.LogEntry) error
}

// LogPublisher broadcasts activity log entries to live observers.
type LogPublisher interface {
	PublishJSON(ctx context.Context, channel string, v any) error
}

// Recorder is the activity logger: one durable row plus one broadcast
// per execution. Both writes are best-effort; a failed audit write is
// logged locally and never escalates, so logging can't undo an agent's
// already-completed side effects. The two writes are not transactional
// with each other or with the agent's own work.
type Recorder struct {
	store     LogStore
	publisher LogPublisher
	logger    *zap.Logger
}

// NewRecorder creates a Recorder. publisher may be nil when no bus is
// available; entries are then only persisted.
func NewRecorder(logStore LogStore, publisher LogPublisher, logger *zap.Logger) *Recorder {
	return &Recorder{store: logStore, publisher: publisher, logger: logger}
}

// Success records a SUCCESS entry carrying the run's outcome.
func (r *Recorder) Success(ctx context.Context, action string, outcome Outcome) {
	r.record(ctx, action, "SUCCESS", outcome)
}

// Failure records a FAILED entry carrying the error message and kind.
func (r *Recorder) Failure(ctx context.Context, action string, err error) {
	r.record(ctx, action, "FAILED", map[string]any{
		"error": err.Error(),
		"type":  Classify(err),
	})
}

func (r *Recorder) record(ctx context.Context, action, status string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		r.logger.Error("failed to encode log context",
			zap.String("action", action), zap.Error(err))
		raw = []byte(`{}`)
	}

	entry := &store.LogEntry{
		ID:        uuid.New().String(),
		Action:    action,
		Context:   raw,
		Timestamp: time.Now().UTC(),
		Status:    status,
	}

	if err := r.store.InsertLog(ctx, entry); err != nil {
		r.logger.Error("failed to persist log entry",
			zap.String("action", action), zap.Error(err))
	}

	if r.publisher == nil {
		return
	}
	if err := r.publisher.PublishJSON(ctx, bus.LogChannel, entry); err != nil {
		r.logger.Error("failed to broadcast log entry",
			zap.String("action", action), zap.Error(err))
	}
}
