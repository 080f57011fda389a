// Package bridge relays PostgreSQL change notifications onto the
// message bus. Database triggers fire pg_notify('agent_events', payload);
// the bridge forwards each payload verbatim to the bus so consumers
// never hold a database connection for eventing.
package bridge

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/zoark/agentd/internal/bus"
	"github.com/zoark/agentd/internal/retry"
	"go.uber.org/zap"
)

// ListenChannel is the pg_notify channel the triggers fire on.
const ListenChannel = "agent_events"

// Bridge owns one long-lived LISTEN connection, separate from the pool.
type Bridge struct {
	dsn     string
	bus     *bus.Bus
	backoff *retry.Backoff
	logger  *zap.Logger
}

// New creates a Bridge. The connection is dialed inside Run, not here,
// so construction never fails on a down database.
func New(dsn string, b *bus.Bus, logger *zap.Logger) *Bridge {
	return &Bridge{
		dsn:     dsn,
		bus:     b,
		backoff: retry.NewBackoff(),
		logger:  logger,
	}
}

// Run listens until ctx is cancelled, reconnecting with exponential
// backoff (5s doubling to 60s, reset after a clean run) on any failure.
func (b *Bridge) Run(ctx context.Context) {
	retry.Forever(ctx, "pg-listener", b.backoff, b.logger, b.listen)
}

// listen is a single connection lifecycle: connect, LISTEN, forward
// notifications until the connection drops or ctx is cancelled.
func (b *Bridge) listen(ctx context.Context) error {
	conn, err := pgx.Connect(ctx, b.dsn)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+ListenChannel); err != nil {
		return fmt.Errorf("listen %s: %w", ListenChannel, err)
	}
	b.logger.Info("PostgreSQL LISTEN active", zap.String("channel", ListenChannel))

	for {
		notification, err := conn.WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("wait for notification: %w", err)
		}
		if err := b.bus.PublishRaw(ctx, bus.EventChannel, notification.Payload); err != nil {
			return fmt.Errorf("forward notification: %w", err)
		}
		b.logger.Info("pg_notify forwarded", zap.String("payload", notification.Payload))
	}
}
