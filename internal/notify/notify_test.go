package notify

import (
	"context"
	"testing"

	"go.uber.org/zap"
)

type recordingSender struct {
	name   string
	fail   bool
	sends  int
	lastTo string
}

func (s *recordingSender) Send(_ context.Context, to, _, _ string) Result {
	s.sends++
	s.lastTo = to
	if s.fail {
		return Result{Sent: false, Reason: "down"}
	}
	return Result{Sent: true}
}

func (s *recordingSender) Name() string { return s.name }

func TestLogSenderAlwaysSucceeds(t *testing.T) {
	s := NewLogSender(zap.NewNop())
	if r := s.Send(context.Background(), "a@x.dev", "Hi", "<p>body</p>"); !r.Sent {
		t.Errorf("Result = %+v, want sent", r)
	}
}

func TestMultiReturnsPrimaryResult(t *testing.T) {
	primary := &recordingSender{name: "primary"}
	mirror := &recordingSender{name: "mirror", fail: true}
	m := NewMulti(primary, []Sender{mirror}, zap.NewNop())

	r := m.Send(context.Background(), "a@x.dev", "Hi", "body")

	if !r.Sent {
		t.Errorf("Result = %+v, want primary success", r)
	}
	if primary.sends != 1 || mirror.sends != 1 {
		t.Errorf("sends = primary %d, mirror %d, want 1 each", primary.sends, mirror.sends)
	}
}

func TestMultiPrimaryFailureSurfaces(t *testing.T) {
	primary := &recordingSender{name: "primary", fail: true}
	mirror := &recordingSender{name: "mirror"}
	m := NewMulti(primary, []Sender{mirror}, zap.NewNop())

	r := m.Send(context.Background(), "a@x.dev", "Hi", "body")

	if r.Sent {
		t.Errorf("Result = %+v, want primary failure", r)
	}
	// Mirrors still get the message.
	if mirror.sends != 1 {
		t.Errorf("mirror sends = %d, want 1", mirror.sends)
	}
}

func TestMultiNameIsPrimary(t *testing.T) {
	m := NewMulti(&recordingSender{name: "resend"}, nil, zap.NewNop())
	if m.Name() != "resend" {
		t.Errorf("Name() = %q", m.Name())
	}
}
