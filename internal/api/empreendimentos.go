package api

import (
	"net/http"

	"imobi-crm/internal/empreendimento"
	"imobi-crm/internal/models"
	"imobi-crm/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type EmpreendimentoHandler struct {
	Store    store.EmpreendimentoStore
	Provider *empreendimento.Provider
}

func NewEmpreendimentoHandler(s store.EmpreendimentoStore, p *empreendimento.Provider) *EmpreendimentoHandler {
	return &EmpreendimentoHandler{Store: s, Provider: p}
}

func (h *EmpreendimentoHandler) GetEmpreendimentos(c *gin.Context) {
	list, err := h.Store.ListEmpreendimentos(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

type SaveEmpreendimentoRequest struct {
	ID             string  `json:"id"`
	Name           string  `json:"name" binding:"required"`
	Neighborhood   string  `json:"neighborhood"`
	City           string  `json:"city"`
	Typology       string  `json:"typology"`
	PriceFrom      float64 `json:"price_from" binding:"gte=0"`
	UnitsAvailable int     `json:"units_available" binding:"gte=0"`
	Description    string  `json:"description"`
}

func (h *EmpreendimentoHandler) SaveEmpreendimento(c *gin.Context) {
	var req SaveEmpreendimentoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	saved, err := h.Store.SaveEmpreendimento(c.Request.Context(), models.Empreendimento{
		ID:             req.ID,
		Name:           req.Name,
		Neighborhood:   req.Neighborhood,
		City:           req.City,
		Typology:       req.Typology,
		PriceFrom:      req.PriceFrom,
		UnitsAvailable: req.UnitsAvailable,
		Description:    req.Description,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, saved)
}

// GetSummary renders the same text the /"name" chat command sends.
func (h *EmpreendimentoHandler) GetSummary(c *gin.Context) {
	summary, err := h.Provider.Summarize(c.Request.Context(), c.Query("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary})
}
