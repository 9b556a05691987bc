package http

import (
	"net/http"

	"github.com/citizen-portaal/portaal-backend/internal/auth"
	"github.com/gin-gonic/gin"
)

type Handler struct{}

func New() *Handler {
	return &Handler{}
}

// Me returns the identity the caller authenticated as.
func (h *Handler) Me(c *gin.Context) {
	id, ok := auth.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": id})
}
