package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/citizen-portaal/portaal-backend/internal/events"
	"github.com/citizen-portaal/portaal-backend/internal/logging"
	"github.com/citizen-portaal/portaal-backend/internal/projects/domain"
	"github.com/gin-gonic/gin"
)

// StreamStatus pushes the poller view of a project over Server-Sent Events
// until it is terminal or the client goes away. Published status events
// trigger an immediate re-read; a slow poll covers lost events.
func (h *Handler) StreamStatus(c *gin.Context) {
	projectID := c.Param("id")
	caller := callerFrom(c)
	ctx := c.Request.Context()
	logger := logging.NewLogger(ctx)

	view, err := h.status.GetStatus(ctx, caller, projectID)
	if err != nil {
		writeError(c, err)
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming unsupported"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	writeEvent(c, flusher, "status", view)
	if view.Terminal() {
		return
	}

	var updates <-chan events.StatusEvent
	if h.events != nil {
		ch, cancel, err := h.events.Subscribe(ctx, projectID)
		if err != nil {
			logger.LogWarnf("projects.stream", "project_id=%s subscribe failed, polling only: %v", projectID, err)
		} else {
			defer cancel()
			updates = ch
		}
	}

	keepAlive := time.NewTicker(h.keepAlive)
	defer keepAlive.Stop()
	poll := time.NewTicker(h.pollInterval)
	defer poll.Stop()

	last := view
	refresh := func() bool {
		next, err := h.status.GetStatus(ctx, caller, projectID)
		if err != nil {
			logger.LogWarnf("projects.stream", "project_id=%s refresh failed: %v", projectID, err)
			return false
		}
		if next != last {
			last = next
			writeEvent(c, flusher, "status", next)
		}
		return next.Terminal()
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-keepAlive.C:
			fmt.Fprint(c.Writer, ": keep-alive\n\n")
			flusher.Flush()
		case _, open := <-updates:
			if !open {
				updates = nil
				continue
			}
			if refresh() {
				return
			}
		case <-poll.C:
			if refresh() {
				return
			}
		}
	}
}

func writeEvent(c *gin.Context, flusher http.Flusher, name string, view domain.StatusView) {
	data, _ := json.Marshal(view)
	fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", name, data)
	flusher.Flush()
}
