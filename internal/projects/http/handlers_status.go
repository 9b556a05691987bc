package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetStatus reports {status, error?} for any project id. A poll past the
// analysis ceiling expires the project as a side effect.
func (h *Handler) GetStatus(c *gin.Context) {
	view, err := h.status.GetStatus(c.Request.Context(), callerFrom(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
