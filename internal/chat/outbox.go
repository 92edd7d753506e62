package chat

import (
	"context"
	"errors"
	"time"

	"imobi-crm/internal/models"
	"imobi-crm/internal/store"

	"go.uber.org/zap"
)

// Messenger delivers a text to a recipient. Implementations own their
// timeout and retry policy.
type Messenger interface {
	Send(ctx context.Context, recipientID, text string) error
}

// Notifier is told about every message written to a conversation log.
type Notifier interface {
	NotifyMessage(msg models.ChatMessage)
}

// Outbox sends through a Messenger and records each delivered message in the
// lead's conversation log. It is itself a Messenger keyed by lead id.
type Outbox struct {
	Messenger Messenger
	Leads     store.LeadStore
	Log       store.ConversationLog
	Notifier  Notifier
	AgentID   string
	Logger    *zap.Logger

	now func() time.Time
}

func NewOutbox(messenger Messenger, leads store.LeadStore, log store.ConversationLog, agentID string, logger *zap.Logger) *Outbox {
	return &Outbox{
		Messenger: messenger,
		Leads:     leads,
		Log:       log,
		AgentID:   agentID,
		Logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (o *Outbox) Send(ctx context.Context, leadID, text string) error {
	_, err := o.Deliver(ctx, leadID, text)
	return err
}

// Deliver sends text to the lead and returns the logged message. A failed
// send writes nothing to the log.
func (o *Outbox) Deliver(ctx context.Context, leadID, text string) (models.ChatMessage, error) {
	to := o.recipient(ctx, leadID)
	if err := o.Messenger.Send(ctx, to, text); err != nil {
		return models.ChatMessage{}, err
	}

	msg := models.ChatMessage{
		From:      o.AgentID,
		To:        to,
		Text:      text,
		Direction: models.DirectionOutbound,
		Timestamp: o.now(),
	}
	// The text is already out, so the log entry is written even if ctx is done.
	saved, err := o.Log.Append(context.WithoutCancel(ctx), leadID, msg)
	if err != nil {
		// The message is already out; losing the log entry must not fail the send.
		o.Logger.Error("Failed to append outbound message", zap.String("lead_id", leadID), zap.Error(err))
		msg.LeadID = leadID
		return msg, nil
	}
	if o.Notifier != nil {
		o.Notifier.NotifyMessage(saved)
	}
	return saved, nil
}

// recipient maps a lead id to the phone number the messenger addresses.
func (o *Outbox) recipient(ctx context.Context, leadID string) string {
	if o.Leads == nil {
		return leadID
	}
	lead, err := o.Leads.GetLead(ctx, leadID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			o.Logger.Warn("Lead lookup failed, addressing by id", zap.String("lead_id", leadID), zap.Error(err))
		}
		return leadID
	}
	if lead.Phone == "" {
		return leadID
	}
	return lead.Phone
}
