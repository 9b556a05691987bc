package http

import "github.com/gin-gonic/gin"

// Register mounts the user-authenticated routes. rg must already carry the
// auth middleware.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/dashboard", h.Dashboard)

	projects := rg.Group("/projects")
	projects.GET("", h.List)
	projects.POST("/create-with-webhook", h.CreateWithWebhook)
	projects.GET("/:id", h.Get)
	projects.GET("/:id/status", h.GetStatus)
	projects.GET("/:id/events", h.StreamStatus)
}

// RegisterCallbackRoutes mounts the workflow engine callbacks. rg must carry
// the shared-secret middleware instead of user auth.
func (h *Handler) RegisterCallbackRoutes(rg *gin.RouterGroup) {
	rg.POST("/projects/:id/status/update", h.StatusUpdateCallback)
	rg.POST("/webhooks/n8n-complete", h.WorkflowCompleteCallback)
}
