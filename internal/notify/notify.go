// Package notify is the outbound notification boundary. Agents only ever
// see the Sender contract and the boolean outcome; provider detail stays
// behind the adapters.
package notify

import (
	"context"

	"go.uber.org/zap"
)

// Result is the outcome of one send attempt. Reason is set only when the
// message did not go out.
type Result struct {
	Sent   bool   `json:"sent"`
	Reason string `json:"reason,omitempty"`
}

// Sender delivers one HTML notification.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) Result
	Name() string
}

// LogSender is the development fallback: it records the send in the log
// and reports success without delivering anything.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Name() string { return "log" }

func (s *LogSender) Send(_ context.Context, to, subject, _ string) Result {
	s.logger.Info("notification (log sender)",
		zap.String("to", to),
		zap.String("subject", subject))
	return Result{Sent: true}
}

// Multi sends through a primary sender and mirrors the notification to
// any number of ops channels. The primary result is the outcome; mirror
// failures are logged and otherwise ignored.
type Multi struct {
	primary Sender
	mirrors []Sender
	logger  *zap.Logger
}

// NewMulti wraps a primary sender with best-effort mirrors.
func NewMulti(primary Sender, mirrors []Sender, logger *zap.Logger) *Multi {
	return &Multi{primary: primary, mirrors: mirrors, logger: logger}
}

func (m *Multi) Name() string { return m.primary.Name() }

func (m *Multi) Send(ctx context.Context, to, subject, htmlBody string) Result {
	result := m.primary.Send(ctx, to, subject, htmlBody)
	for _, mirror := range m.mirrors {
		if r := mirror.Send(ctx, to, subject, htmlBody); !r.Sent {
			m.logger.Warn("notification mirror failed",
				zap.String("mirror", mirror.Name()),
				zap.String("reason", r.Reason))
		}
	}
	return result
}
