package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/zoark/agentd/internal/notify"
)

// fakeSender records every send and reports success unless failAll is set.
type fakeSender struct {
	failAll bool
	sends   []fakeSend
}

type fakeSend struct {
	To      string
	Subject string
	Body    string
}

func (s *fakeSender) Send(_ context.Context, to, subject, body string) notify.Result {
	s.sends = append(s.sends, fakeSend{To: to, Subject: subject, Body: body})
	if s.failAll {
		return notify.Result{Sent: false, Reason: "fake failure"}
	}
	return notify.Result{Sent: true}
}

func (s *fakeSender) Name() string { return "fake" }

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"pg error", &pgconn.PgError{Code: "42P01"}, "database"},
		{"wrapped pg error", errors.Join(errors.New("query"), &pgconn.PgError{Code: "23505"}), "database"},
		{"deadline", context.DeadlineExceeded, "timeout"},
		{"cancelled", context.Canceled, "cancelled"},
		{"plain", errors.New("boom"), "internal"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.err); got != tc.want {
				t.Errorf("Classify(%v) = %q, want %q", tc.err, got, tc.want)
			}
		})
	}
}
