package api

import (
	"net/http"
	"strconv"

	"imobi-crm/internal/models"
	"imobi-crm/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const defaultLogLimit = 50

type AutomationHandler struct {
	Rules store.RuleStore
	Logs  store.AutomationLogStore
}

func NewAutomationHandler(rules store.RuleStore, logs store.AutomationLogStore) *AutomationHandler {
	return &AutomationHandler{Rules: rules, Logs: logs}
}

// GetRules returns all automation rules in the order they were created
func (h *AutomationHandler) GetRules(c *gin.Context) {
	rules, err := h.Rules.ListRules(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rules)
}

type SaveRuleRequest struct {
	ID         string `json:"id"`
	Stage      string `json:"stage" binding:"required,notblank"`
	TemplateID string `json:"template_id" binding:"required"`
	Enabled    *bool  `json:"enabled"`
}

// SaveRule creates a rule, or overwrites the one with the same id. New rules
// are enabled unless the request says otherwise.
func (h *AutomationHandler) SaveRule(c *gin.Context) {
	var req SaveRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	rule := models.AutomationRule{ID: req.ID, Stage: req.Stage, TemplateID: req.TemplateID, Enabled: true}
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	} else if existing, err := h.Rules.GetRule(ctx, rule.ID); err == nil {
		rule.Enabled = existing.Enabled
	}
	if req.Enabled != nil {
		rule.Enabled = *req.Enabled
	}

	saved, err := h.Rules.SaveRule(ctx, rule)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, saved)
}

// DeleteRule deletes an automation rule
func (h *AutomationHandler) DeleteRule(c *gin.Context) {
	if err := h.Rules.DeleteRule(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Rule deleted successfully"})
}

// ToggleRule enables or disables a rule
func (h *AutomationHandler) ToggleRule(c *gin.Context) {
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.Rules.SetRuleEnabled(c.Request.Context(), c.Param("id"), req.Enabled); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Rule toggled successfully", "enabled": req.Enabled})
}

// GetLogs returns automation execution logs, newest first
func (h *AutomationHandler) GetLogs(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLogLimit)))
	if err != nil || limit <= 0 {
		limit = defaultLogLimit
	}

	logs, err := h.Logs.ListAutomationLogs(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}

// GetAnalytics returns automation analytics
func (h *AutomationHandler) GetAnalytics(c *gin.Context) {
	stats, err := h.Logs.AutomationStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
