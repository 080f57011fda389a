package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestBackoffSequence(t *testing.T) {
	b := NewBackoff()

	want := []time.Duration{
		5 * time.Second,
		10 * time.Second,
		20 * time.Second,
		40 * time.Second,
		60 * time.Second,
		60 * time.Second,
		60 * time.Second,
	}
	for i, w := range want {
		if got := b.Next(); got != w {
			t.Errorf("delay %d: got %v, want %v", i, got, w)
		}
	}
}

func TestBackoffResetAfterCleanRun(t *testing.T) {
	b := NewBackoff()
	b.Next()
	b.Next()
	b.Next()

	b.Reset()
	if got := b.Next(); got != 5*time.Second {
		t.Errorf("after reset got %v, want 5s", got)
	}
}

func TestForeverStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	done := make(chan struct{})
	go func() {
		defer close(done)
		Forever(ctx, "test", &Backoff{Initial: time.Millisecond, Max: 4 * time.Millisecond}, zap.NewNop(), func(ctx context.Context) error {
			calls++
			if calls >= 3 {
				cancel()
				return ctx.Err()
			}
			return errors.New("boom")
		})
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Forever did not stop after cancel")
	}
	if calls != 3 {
		t.Errorf("got %d calls, want 3", calls)
	}
}
