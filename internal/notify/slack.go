package notify

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
	"go.uber.org/zap"
)

// SlackSender mirrors notifications into a Slack channel. The recipient
// address is included in the message since Slack has no equivalent of a
// "to" header.
type SlackSender struct {
	client  *slack.Client
	channel string
	logger  *zap.Logger
}

// NewSlackSender creates a Slack-backed sender posting to one channel.
func NewSlackSender(botToken, channel string, logger *zap.Logger) *SlackSender {
	return &SlackSender{
		client:  slack.New(botToken),
		channel: channel,
		logger:  logger,
	}
}

func (s *SlackSender) Name() string { return "slack" }

func (s *SlackSender) Send(ctx context.Context, to, subject, _ string) Result {
	text := fmt.Sprintf("*%s*\nrecipient: %s", subject, to)
	_, _, err := s.client.PostMessageContext(ctx, s.channel,
		slack.MsgOptionText(text, false),
	)
	if err != nil {
		return Result{Reason: fmt.Sprintf("slack post: %v", err)}
	}
	s.logger.Debug("slack notification posted", zap.String("channel", s.channel))
	return Result{Sent: true}
}
