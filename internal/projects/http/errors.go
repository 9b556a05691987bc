package http

import (
	"errors"
	"net/http"

	"github.com/citizen-portaal/portaal-backend/internal/projects/domain"
	"github.com/gin-gonic/gin"
)

// writeError maps service errors onto HTTP responses.
func writeError(c *gin.Context, err error) {
	var inputErr *domain.InputError
	var payloadErr *domain.PayloadError

	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	case errors.As(err, &inputErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": inputErr.Message, "field": inputErr.Field})
	case errors.As(err, &payloadErr):
		writePayloadError(c, payloadErr)
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
	case errors.Is(err, domain.ErrTerminalState):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func writePayloadError(c *gin.Context, e *domain.PayloadError) {
	body := gin.H{
		"error":         e.Reason,
		"valid_formats": domain.ValidCompletionFormats,
	}
	if e.Received != nil {
		body["received"] = e.Received
	}
	if e.Value != "" {
		body["value"] = e.Value
	}
	c.JSON(http.StatusBadRequest, body)
}
