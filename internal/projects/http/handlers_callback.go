package http

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/citizen-portaal/portaal-backend/internal/logging"
	"github.com/citizen-portaal/portaal-backend/internal/projects/domain"
	"github.com/gin-gonic/gin"
)

// StatusUpdateCallback receives the engine's completion for the project in the path.
func (h *Handler) StatusUpdateCallback(c *gin.Context) {
	completion, ok := h.readCompletion(c, domain.NormalizeCompletion)
	if !ok {
		return
	}
	h.ingest(c, strings.TrimSpace(c.Param("id")), completion)
}

// WorkflowCompleteCallback is the legacy completion webhook; the project id
// travels in the body as projectId, and analysis_complete: false means draft.
func (h *Handler) WorkflowCompleteCallback(c *gin.Context) {
	completion, ok := h.readCompletion(c, domain.NormalizeWorkflowCompletion)
	if !ok {
		return
	}
	if completion.ProjectID == "" {
		writePayloadError(c, &domain.PayloadError{Reason: "projectId is required"})
		return
	}
	h.ingest(c, completion.ProjectID, completion)
}

func (h *Handler) readCompletion(c *gin.Context, normalize func([]byte) (domain.Completion, error)) (domain.Completion, bool) {
	logger := logging.NewLogger(c.Request.Context())

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxCallbackBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "callback body too large"})
			return domain.Completion{}, false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
		return domain.Completion{}, false
	}

	completion, err := normalize(body)
	if err != nil {
		logger.LogWarnf("callback.normalize", "path=%s error=%v", c.Request.URL.Path, err)
		writeError(c, err)
		return domain.Completion{}, false
	}
	return completion, true
}

func (h *Handler) ingest(c *gin.Context, projectID string, completion domain.Completion) {
	res, err := h.analysis.Ingest(c.Request.Context(), projectID, completion)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":               true,
		"projectId":             res.ProjectID,
		"status":                res.Status,
		"message":               res.Message,
		"stakeholders_inserted": res.StakeholdersInserted,
	})
}
