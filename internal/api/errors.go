package api

import (
	"errors"
	"net/http"

	"imobi-crm/internal/automation"
	"imobi-crm/internal/chat"
	"imobi-crm/internal/pipeline"
	"imobi-crm/internal/store"

	"github.com/gin-gonic/gin"
)

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, chat.ErrEmptyMessage), errors.Is(err, pipeline.ErrEmptyStage):
		return http.StatusBadRequest
	case errors.Is(err, automation.ErrDispatchFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
