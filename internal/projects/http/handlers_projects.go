package http

import (
	"net/http"

	"github.com/citizen-portaal/portaal-backend/internal/logging"
	"github.com/citizen-portaal/portaal-backend/internal/projects/domain"
	"github.com/gin-gonic/gin"
)

// CreateWithWebhook stores a project and dispatches it for analysis. The
// response is 200 with the id even when the dispatch failed; the outcome is
// only visible through the status endpoint.
func (h *Handler) CreateWithWebhook(c *gin.Context) {
	caller := callerFrom(c)
	if caller.UserID == "" {
		writeError(c, domain.ErrUnauthorized)
		return
	}

	var in domain.ProjectInput
	if err := c.ShouldBindJSON(&in); err != nil {
		logging.NewLogger(c.Request.Context()).LogWarnf("projects.create", "invalid body: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Ongeldige invoer"})
		return
	}

	p, err := h.analysis.CreateAndDispatch(c.Request.Context(), caller, in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"projectId": p.ID})
}

func (h *Handler) List(c *gin.Context) {
	list, err := h.projects.List(c.Request.Context(), callerFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	if list == nil {
		list = []domain.Project{}
	}
	c.JSON(http.StatusOK, gin.H{"projects": list})
}

func (h *Handler) Get(c *gin.Context) {
	p, err := h.projects.Get(c.Request.Context(), callerFrom(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": p})
}

func (h *Handler) Dashboard(c *gin.Context) {
	d, err := h.projects.Dashboard(c.Request.Context(), callerFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}
