package api

import (
	"net/http"

	"imobi-crm/internal/models"
	"imobi-crm/internal/store"
	"imobi-crm/internal/templates"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type TemplateHandler struct {
	Store store.TemplateStore
}

func NewTemplateHandler(s store.TemplateStore) *TemplateHandler {
	return &TemplateHandler{Store: s}
}

// GetTemplates returns every stored template
func (h *TemplateHandler) GetTemplates(c *gin.Context) {
	list, err := h.Store.ListTemplates(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *TemplateHandler) GetTemplate(c *gin.Context) {
	tmpl, err := h.Store.GetTemplateByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"template":  tmpl,
		"variables": templates.ExtractVariables(tmpl.Content),
	})
}

type SaveTemplateRequest struct {
	ID      string `json:"id"`
	Name    string `json:"name" binding:"required"`
	Content string `json:"content" binding:"required"`
}

// SaveTemplate creates or overwrites a template. An empty id gets a new uuid.
func (h *TemplateHandler) SaveTemplate(c *gin.Context) {
	var req SaveTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	saved, err := h.Store.SaveTemplate(c.Request.Context(), models.Template{
		ID:      req.ID,
		Name:    req.Name,
		Content: req.Content,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, saved)
}

func (h *TemplateHandler) DeleteTemplate(c *gin.Context) {
	if err := h.Store.DeleteTemplate(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Template deleted successfully"})
}

type RenderRequest struct {
	Variables map[string]string `json:"variables"`
}

// RenderTemplate previews a template with the given variables and lists the
// placeholders left unresolved.
func (h *TemplateHandler) RenderTemplate(c *gin.Context) {
	var req RenderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	tmpl, err := h.Store.GetTemplateByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"content":   templates.Substitute(tmpl.Content, req.Variables),
		"variables": templates.ExtractVariables(tmpl.Content),
		"missing":   templates.Missing(tmpl.Content, req.Variables),
	})
}
