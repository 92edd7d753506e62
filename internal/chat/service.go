package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"imobi-crm/internal/models"
	"imobi-crm/internal/store"

	"go.uber.org/zap"
)

var ErrEmptyMessage = errors.New("message text is empty")

// Service is the chat panel: it interprets typed input, sends the result and
// keeps the conversation log.
type Service struct {
	Resolver *Resolver
	Outbox   *Outbox
	Log      store.ConversationLog
	Logger   *zap.Logger
}

func NewService(resolver *Resolver, outbox *Outbox, log store.ConversationLog, logger *zap.Logger) *Service {
	return &Service{Resolver: resolver, Outbox: outbox, Log: log, Logger: logger}
}

// Send parses text, resolves it to the outbound message and delivers it to
// the lead.
func (s *Service) Send(ctx context.Context, leadID, text string) (models.ChatMessage, Command, error) {
	if strings.TrimSpace(text) == "" {
		return models.ChatMessage{}, Command{Kind: KindNone}, ErrEmptyMessage
	}

	cmd := Parse(text)
	outbound, err := s.Resolver.Resolve(ctx, cmd, text)
	if err != nil {
		return models.ChatMessage{}, cmd, err
	}

	s.Logger.Debug("Sending chat message",
		zap.String("lead_id", leadID),
		zap.String("command", string(cmd.Kind)))

	msg, err := s.Outbox.Deliver(ctx, leadID, outbound)
	if err != nil {
		return models.ChatMessage{}, cmd, err
	}
	return msg, cmd, nil
}

// Receive records an inbound message from the lead.
func (s *Service) Receive(ctx context.Context, leadID, from, text string, at time.Time) (models.ChatMessage, error) {
	if at.IsZero() {
		at = time.Now().UTC()
	}
	msg, err := s.Log.Append(ctx, leadID, models.ChatMessage{
		From:      from,
		To:        s.Outbox.AgentID,
		Text:      text,
		Direction: models.DirectionInbound,
		Timestamp: at,
	})
	if err != nil {
		return models.ChatMessage{}, err
	}
	if s.Outbox.Notifier != nil {
		s.Outbox.Notifier.NotifyMessage(msg)
	}
	return msg, nil
}

func (s *Service) History(ctx context.Context, leadID string) ([]models.ChatMessage, error) {
	return s.Log.History(ctx, leadID)
}
