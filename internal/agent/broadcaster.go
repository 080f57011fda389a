package agent

import (
	"context"
	"fmt"

	"github.com/zoark/agentd/internal/notify"
	"github.com/zoark/agentd/internal/store"
	"go.uber.org/zap"
)

// BroadcasterStore is the slice of the store the broadcaster needs.
type BroadcasterStore interface {
	DueBroadcasts(ctx context.Context) ([]store.Broadcast, error)
	GetEmailAccount(ctx context.Context, id string) (*store.EmailAccount, error)
	MarkBroadcastSent(ctx context.Context, id string) error
	MarkBroadcastFailed(ctx context.Context, id string) error
}

// Broadcaster sends SCHEDULED broadcast emails whose time has come. The
// SCHEDULED -> SENT/FAILED transition is the re-send guard: a broadcast
// leaves the selection set on its first processing either way.
type Broadcaster struct {
	store  BroadcasterStore
	sender notify.Sender
	logger *zap.Logger
}

// NewBroadcaster creates a Broadcaster.
func NewBroadcaster(st BroadcasterStore, sender notify.Sender, logger *zap.Logger) *Broadcaster {
	return &Broadcaster{store: st, sender: sender, logger: logger}
}

func (a *Broadcaster) ActionType() string { return ActionBroadcastSent }

func (a *Broadcaster) Run(ctx context.Context) (Outcome, error) {
	broadcasts, err := a.store.DueBroadcasts(ctx)
	if err != nil {
		return nil, err
	}

	for _, b := range broadcasts {
		if err := a.sendBroadcast(ctx, b); err != nil {
			a.logger.Error("broadcast failed",
				zap.String("broadcast", b.ID), zap.Error(err))
			if markErr := a.store.MarkBroadcastFailed(ctx, b.ID); markErr != nil {
				a.logger.Error("failed to mark broadcast failed",
					zap.String("broadcast", b.ID), zap.Error(markErr))
			}
		}
	}

	return Outcome{"broadcasts_processed": len(broadcasts)}, nil
}

func (a *Broadcaster) sendBroadcast(ctx context.Context, b store.Broadcast) error {
	account, err := a.store.GetEmailAccount(ctx, b.EmailAccountID)
	if err != nil {
		return err
	}
	if !account.IsConnected {
		return fmt.Errorf("email account %s not connected", b.EmailAccountID)
	}

	a.logger.Info("sending broadcast",
		zap.String("broadcast", b.ID),
		zap.Int("recipients", len(b.Recipients)))

	for _, to := range b.Recipients {
		if result := a.sender.Send(ctx, to, b.Subject, b.Body); !result.Sent {
			a.logger.Warn("broadcast recipient send failed",
				zap.String("broadcast", b.ID),
				zap.String("to", to),
				zap.String("reason", result.Reason))
		}
	}

	return a.store.MarkBroadcastSent(ctx, b.ID)
}
