package api

import (
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"time"

	"imobi-crm/internal/automation"
	"imobi-crm/internal/models"
	"imobi-crm/internal/pipeline"
	"imobi-crm/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const defaultStage = "novo"

type LeadHandler struct {
	Leads    store.LeadStore
	Pipeline *pipeline.Service
	Logger   *zap.Logger
}

func NewLeadHandler(leads store.LeadStore, p *pipeline.Service, logger *zap.Logger) *LeadHandler {
	return &LeadHandler{Leads: leads, Pipeline: p, Logger: logger}
}

func (h *LeadHandler) GetLeads(c *gin.Context) {
	leads, err := h.Leads.ListLeads(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if stage := c.Query("stage"); stage != "" {
		leads = lo.Filter(leads, func(l models.Lead, _ int) bool { return l.Stage == stage })
	}
	c.JSON(http.StatusOK, leads)
}

func (h *LeadHandler) GetLead(c *gin.Context) {
	lead, err := h.Leads.GetLead(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, lead)
}

type SaveLeadRequest struct {
	ID    string `json:"id"`
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone"`
	Email string `json:"email"`
	Stage string `json:"stage"`
}

// SaveLead creates or overwrites a lead. Stage changes go through the stage
// endpoint, so an existing lead keeps its stage here.
func (h *LeadHandler) SaveLead(c *gin.Context) {
	var req SaveLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	lead := models.Lead{ID: req.ID, Name: req.Name, Phone: req.Phone, Email: req.Email, Stage: req.Stage}
	if lead.ID == "" {
		lead.ID = uuid.NewString()
	} else if existing, err := h.Leads.GetLead(ctx, lead.ID); err == nil {
		lead.Stage = existing.Stage
	} else if !errors.Is(err, store.ErrNotFound) {
		respondError(c, err)
		return
	}
	if lead.Stage == "" {
		lead.Stage = defaultStage
	}

	saved, err := h.Leads.SaveLead(ctx, lead)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, saved)
}

func (h *LeadHandler) DeleteLead(c *gin.Context) {
	if err := h.Leads.DeleteLead(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "Lead deleted"})
}

type MoveStageRequest struct {
	Stage string `json:"stage" binding:"required,notblank"`
}

// MoveStage moves the lead on the kanban and reports what the stage
// automations did. Failed sends come back as warnings; the move itself has
// already happened.
func (h *LeadHandler) MoveStage(c *gin.Context) {
	var req MoveStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, moved, err := h.Pipeline.MoveLead(c.Request.Context(), c.Param("id"), req.Stage)
	if err != nil && !errors.Is(err, automation.ErrDispatchFailed) {
		respondError(c, err)
		return
	}

	body := gin.H{
		"lead_id":  c.Param("id"),
		"stage":    result.Stage,
		"moved":    moved,
		"outcomes": result.Outcomes,
		"sent":     result.Sent(),
		"skipped":  result.Skipped(),
		"failed":   result.Failed(),
		"warnings": warnings(result),
	}
	if err != nil {
		body["error"] = err.Error()
		c.JSON(http.StatusBadGateway, body)
		return
	}
	c.JSON(http.StatusOK, body)
}

func warnings(r automation.Result) []string {
	failed := lo.Filter(r.Outcomes, func(o automation.Outcome, _ int) bool {
		return o.Status == models.AutomationFailed
	})
	return lo.Map(failed, func(o automation.Outcome, _ int) string {
		return fmt.Sprintf("rule %s (template %s): %s", o.RuleID, o.TemplateID, o.Error)
	})
}

func (h *LeadHandler) ExportLeads(c *gin.Context) {
	leads, err := h.Leads.ListLeads(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=leads.csv")
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"ID", "Name", "Phone", "Email", "Stage", "Created At"})
	for _, l := range leads {
		_ = w.Write([]string{l.ID, l.Name, l.Phone, l.Email, l.Stage, l.CreatedAt.Format(time.RFC3339)})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		h.Logger.Error("Error writing leads CSV", zap.Error(err))
	}
}
