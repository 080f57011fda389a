package notify

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// DiscordSender mirrors notifications into a Discord channel over the
// REST API; no gateway websocket is opened.
type DiscordSender struct {
	session   *discordgo.Session
	channelID string
	logger    *zap.Logger
}

// NewDiscordSender creates a Discord-backed sender posting to one channel.
func NewDiscordSender(botToken, channelID string, logger *zap.Logger) (*DiscordSender, error) {
	session, err := discordgo.New("Bot " + botToken)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	return &DiscordSender{
		session:   session,
		channelID: channelID,
		logger:    logger,
	}, nil
}

func (s *DiscordSender) Name() string { return "discord" }

func (s *DiscordSender) Send(_ context.Context, to, subject, _ string) Result {
	text := fmt.Sprintf("**%s**\nrecipient: %s", subject, to)
	if _, err := s.session.ChannelMessageSend(s.channelID, text); err != nil {
		return Result{Reason: fmt.Sprintf("discord post: %v", err)}
	}
	s.logger.Debug("discord notification posted", zap.String("channel", s.channelID))
	return Result{Sent: true}
}
