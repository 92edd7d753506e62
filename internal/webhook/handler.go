package webhook

import (
	"context"
	"errors"
	"net/http"

	"imobi-crm/internal/chat"
	"imobi-crm/internal/config"
	"imobi-crm/internal/models"
	"imobi-crm/internal/store"
	wa "imobi-crm/pkg/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DefaultStage is the pipeline stage of leads created from inbound messages.
const DefaultStage = "novo"

type Handler struct {
	Config *config.Config
	Chat   *chat.Service
	Leads  store.LeadStore
	Logger *zap.Logger
}

func NewHandler(cfg *config.Config, chatService *chat.Service, leads store.LeadStore, logger *zap.Logger) *Handler {
	return &Handler{
		Config: cfg,
		Chat:   chatService,
		Leads:  leads,
		Logger: logger,
	}
}

func (h *Handler) VerifyWebhook(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode != "" && token != "" {
		if mode == "subscribe" && token == h.Config.VerifyToken {
			h.Logger.Info("Webhook verified successfully")
			c.String(http.StatusOK, challenge)
		} else {
			c.Status(http.StatusForbidden)
		}
	} else {
		c.Status(http.StatusBadRequest)
	}
}

// HandleMessage records every inbound message in the sender's conversation,
// creating the lead on first contact. Status callbacks are acknowledged and
// ignored.
func (h *Handler) HandleMessage(c *gin.Context) {
	var payload wa.WebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.Logger.Warn("Error binding webhook JSON", zap.Error(err))
		c.Status(http.StatusBadRequest)
		return
	}

	ctx := c.Request.Context()
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			names := profileNames(change.Value.Contacts)
			for _, message := range change.Value.Messages {
				h.handleIncoming(ctx, message, names[message.From])
			}
		}
	}

	c.Status(http.StatusOK)
}

func (h *Handler) handleIncoming(ctx context.Context, message wa.IncomingMessage, profileName string) {
	content := Content(message)
	h.Logger.Info("Received message",
		zap.String("from", message.From),
		zap.String("type", message.Type))

	if err := h.ensureLead(ctx, message.From, profileName); err != nil {
		h.Logger.Error("Error saving lead", zap.String("from", message.From), zap.Error(err))
		return
	}
	if _, err := h.Chat.Receive(ctx, message.From, message.From, content, message.SentAt()); err != nil {
		h.Logger.Error("Error appending inbound message", zap.String("from", message.From), zap.Error(err))
	}
}

// ensureLead creates a lead keyed by the sender's number. Existing leads are
// left alone apart from filling in a missing name.
func (h *Handler) ensureLead(ctx context.Context, waID, profileName string) error {
	lead, err := h.Leads.GetLead(ctx, waID)
	switch {
	case err == nil:
		if lead.Name != "" || profileName == "" {
			return nil
		}
		lead.Name = profileName
	case errors.Is(err, store.ErrNotFound):
		name := profileName
		if name == "" {
			name = waID
		}
		lead = models.Lead{ID: waID, Name: name, Phone: waID, Stage: DefaultStage}
	default:
		return err
	}
	_, err = h.Leads.SaveLead(ctx, lead)
	return err
}

// Content flattens a WhatsApp message into the text kept in the conversation
// log. Media is recorded as "[type]:id[:caption|filename]".
func Content(message wa.IncomingMessage) string {
	media := func(kind string, m *wa.MediaMessage, suffix string) string {
		if m == nil {
			return "[" + kind + "]"
		}
		content := "[" + kind + "]:" + m.ID
		if suffix != "" {
			content += ":" + suffix
		}
		return content
	}

	switch message.Type {
	case "text":
		return message.Text.Body
	case "image":
		if message.Image == nil {
			return media("image", nil, "")
		}
		return media("image", message.Image, message.Image.Caption)
	case "video":
		if message.Video == nil {
			return media("video", nil, "")
		}
		return media("video", message.Video, message.Video.Caption)
	case "audio":
		return media("audio", message.Audio, "")
	case "document":
		if message.Document == nil {
			return media("document", nil, "")
		}
		return media("document", message.Document, message.Document.Filename)
	default:
		return "[" + message.Type + "]"
	}
}

func profileNames(contacts []wa.WebhookContact) map[string]string {
	names := make(map[string]string, len(contacts))
	for _, c := range contacts {
		names[c.WaID] = c.Profile.Name
	}
	return names
}
