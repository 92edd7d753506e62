package api

import (
	"net/http"

	"imobi-crm/internal/chat"

	"github.com/gin-gonic/gin"
)

type ChatHandler struct {
	Chat *chat.Service
}

func NewChatHandler(s *chat.Service) *ChatHandler {
	return &ChatHandler{Chat: s}
}

func (h *ChatHandler) GetMessages(c *gin.Context) {
	history, err := h.Chat.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

type SendRequest struct {
	Text string `json:"text" binding:"required,notblank"`
}

// SendMessage interprets the typed text (/@, /"name", /template id or plain
// text) and sends the result to the lead.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	msg, cmd, err := h.Chat.Send(c.Request.Context(), c.Param("id"), req.Text)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": "Failed to send message: " + err.Error(), "command": cmd.Kind})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": msg, "command": cmd.Kind})
}
