package api

import (
	"github.com/gin-gonic/gin"
)

// Handlers groups every REST handler mounted under /api. WhatsApp is nil
// when messaging is disabled.
type Handlers struct {
	Templates       *TemplateHandler
	Automation      *AutomationHandler
	Leads           *LeadHandler
	Chat            *ChatHandler
	Broadcast       *BroadcastHandler
	Empreendimentos *EmpreendimentoHandler
	WhatsApp        *WhatsAppHandler
}

func (h *Handlers) Register(apiGroup *gin.RouterGroup) {
	// Template Routes
	apiGroup.GET("/templates", h.Templates.GetTemplates)
	apiGroup.POST("/templates", h.Templates.SaveTemplate)
	apiGroup.GET("/templates/:id", h.Templates.GetTemplate)
	apiGroup.DELETE("/templates/:id", h.Templates.DeleteTemplate)
	apiGroup.POST("/templates/:id/render", h.Templates.RenderTemplate)

	// Automation Routes
	apiGroup.GET("/automation/rules", h.Automation.GetRules)
	apiGroup.POST("/automation/rules", h.Automation.SaveRule)
	apiGroup.DELETE("/automation/rules/:id", h.Automation.DeleteRule)
	apiGroup.POST("/automation/rules/:id/toggle", h.Automation.ToggleRule)
	apiGroup.GET("/automation/logs", h.Automation.GetLogs)
	apiGroup.GET("/automation/analytics", h.Automation.GetAnalytics)

	// CRM Routes
	apiGroup.GET("/leads", h.Leads.GetLeads)
	apiGroup.POST("/leads", h.Leads.SaveLead)
	apiGroup.GET("/leads/export", h.Leads.ExportLeads)
	apiGroup.GET("/leads/:id", h.Leads.GetLead)
	apiGroup.DELETE("/leads/:id", h.Leads.DeleteLead)
	apiGroup.PUT("/leads/:id/stage", h.Leads.MoveStage)

	// Chat Routes
	apiGroup.GET("/leads/:id/messages", h.Chat.GetMessages)
	apiGroup.POST("/leads/:id/messages", h.Chat.SendMessage)

	apiGroup.POST("/broadcast", h.Broadcast.SendBroadcast)

	apiGroup.GET("/empreendimentos", h.Empreendimentos.GetEmpreendimentos)
	apiGroup.POST("/empreendimentos", h.Empreendimentos.SaveEmpreendimento)
	apiGroup.GET("/empreendimentos/summary", h.Empreendimentos.GetSummary)

	if h.WhatsApp != nil {
		apiGroup.POST("/whatsapp/template", h.WhatsApp.SendApprovedTemplate)
	}
}

// CORS allows the dashboard to call the API from any origin.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
