package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// TemplateSender sends Meta-approved templates, which are the only messages
// allowed outside the 24h customer service window.
type TemplateSender interface {
	SendTemplateMessage(ctx context.Context, to, templateName, languageCode string) error
}

type WhatsAppHandler struct {
	Client TemplateSender
}

func NewWhatsAppHandler(client TemplateSender) *WhatsAppHandler {
	return &WhatsAppHandler{Client: client}
}

type SendApprovedTemplateRequest struct {
	To           string `json:"to" binding:"required"`
	TemplateName string `json:"template_name" binding:"required"`
	Language     string `json:"language"`
}

// SendApprovedTemplate opens a conversation with a Meta-approved template
func (h *WhatsAppHandler) SendApprovedTemplate(c *gin.Context) {
	var req SendApprovedTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Language == "" {
		req.Language = "pt_BR"
	}

	if err := h.Client.SendTemplateMessage(c.Request.Context(), req.To, req.TemplateName, req.Language); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "Message sent"})
}
