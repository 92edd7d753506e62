package api

import (
	"context"
	"net/http"

	"imobi-crm/internal/chat"
	"imobi-crm/internal/models"
	"imobi-crm/internal/store"
	"imobi-crm/internal/templates"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type BroadcastHandler struct {
	Templates store.TemplateStore
	Leads     store.LeadStore
	Messenger chat.Messenger
	Logger    *zap.Logger
}

// NewBroadcastHandler sends through messenger, which is keyed by lead id.
func NewBroadcastHandler(tmpls store.TemplateStore, leads store.LeadStore, messenger chat.Messenger, logger *zap.Logger) *BroadcastHandler {
	return &BroadcastHandler{Templates: tmpls, Leads: leads, Messenger: messenger, Logger: logger}
}

type BroadcastRequest struct {
	TemplateID string            `json:"template_id" binding:"required"`
	LeadIDs    []string          `json:"lead_ids" binding:"required,min=1"`
	Variables  map[string]string `json:"variables"`
}

type BroadcastFailure struct {
	LeadID string `json:"lead_id"`
	Error  string `json:"error"`
}

// LeadVariables are the placeholders every lead fills on its own.
func LeadVariables(l models.Lead) map[string]string {
	return map[string]string{
		"nome":     l.Name,
		"telefone": l.Phone,
		"email":    l.Email,
		"etapa":    l.Stage,
	}
}

// SendBroadcast fills the template once per lead and sends it. Request
// variables override the lead's own values. One failed lead does not stop
// the rest.
func (h *BroadcastHandler) SendBroadcast(c *gin.Context) {
	var req BroadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	tmpl, err := h.Templates.GetTemplateByID(ctx, req.TemplateID)
	if err != nil {
		respondError(c, err)
		return
	}

	successCount := 0
	failures := []BroadcastFailure{}
	for _, leadID := range req.LeadIDs {
		if err := h.sendOne(ctx, tmpl, leadID, req.Variables); err != nil {
			h.Logger.Warn("Failed to broadcast", zap.String("lead_id", leadID), zap.Error(err))
			failures = append(failures, BroadcastFailure{LeadID: leadID, Error: err.Error()})
			continue
		}
		successCount++
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "Broadcast processed",
		"sent_to":  successCount,
		"total":    len(req.LeadIDs),
		"failures": failures,
	})
}

func (h *BroadcastHandler) sendOne(ctx context.Context, tmpl models.Template, leadID string, overrides map[string]string) error {
	lead, err := h.Leads.GetLead(ctx, leadID)
	if err != nil {
		return err
	}
	vars := LeadVariables(lead)
	for k, v := range overrides {
		vars[k] = v
	}
	return h.Messenger.Send(ctx, leadID, templates.Substitute(tmpl.Content, vars))
}
