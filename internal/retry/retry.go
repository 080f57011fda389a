package retry

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Backoff produces the reconnect delay sequence used by the long-lived
// subscribe loops: 5s, 10s, 20s, 40s, 60s, 60s, ... Reset returns it to
// the initial delay after a clean run.
type Backoff struct {
	Initial time.Duration
	Max     time.Duration
	current time.Duration
}

// NewBackoff returns a Backoff with the standard 5s initial / 60s cap.
func NewBackoff() *Backoff {
	return &Backoff{Initial: 5 * time.Second, Max: 60 * time.Second}
}

// Next returns the delay to sleep before the next attempt and advances
// the sequence.
func (b *Backoff) Next() time.Duration {
	if b.current == 0 {
		b.current = b.Initial
	}
	d := b.current
	b.current *= 2
	if b.current > b.Max {
		b.current = b.Max
	}
	return d
}

// Reset returns the sequence to its initial delay.
func (b *Backoff) Reset() {
	b.current = 0
}

// Forever runs fn until ctx is cancelled. A non-nil error from fn is
// logged and fn is retried after the current backoff delay; a nil return
// (clean run) resets the delay before the next attempt. Forever never
// returns an error to its caller; transient infrastructure failures are
// contained here.
func Forever(ctx context.Context, name string, b *Backoff, logger *zap.Logger, fn func(context.Context) error) {
	for {
		err := fn(ctx)
		if ctx.Err() != nil {
			logger.Info("loop shut down", zap.String("loop", name))
			return
		}
		if err != nil {
			delay := b.Next()
			logger.Error("loop crashed, reconnecting",
				zap.String("loop", name),
				zap.Duration("delay", delay),
				zap.Error(err))
			select {
			case <-ctx.Done():
				logger.Info("loop shut down", zap.String("loop", name))
				return
			case <-time.After(delay):
			}
			continue
		}
		b.Reset()
	}
}
