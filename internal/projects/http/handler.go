package http

import (
	"context"
	"time"

	"github.com/citizen-portaal/portaal-backend/internal/auth"
	"github.com/citizen-portaal/portaal-backend/internal/events"
	"github.com/citizen-portaal/portaal-backend/internal/projects/domain"
	"github.com/citizen-portaal/portaal-backend/internal/projects/service"
	"github.com/gin-gonic/gin"
)

// maxCallbackBody caps engine callback bodies.
const maxCallbackBody = 1 << 20

type AnalysisAPI interface {
	CreateAndDispatch(ctx context.Context, caller domain.Caller, in domain.ProjectInput) (*domain.Project, error)
	Ingest(ctx context.Context, projectID string, c domain.Completion) (*service.IngestResult, error)
}

type StatusAPI interface {
	GetStatus(ctx context.Context, caller domain.Caller, projectID string) (domain.StatusView, error)
}

type ProjectsAPI interface {
	List(ctx context.Context, caller domain.Caller) ([]domain.Project, error)
	Get(ctx context.Context, caller domain.Caller, projectID string) (*domain.Project, error)
	Dashboard(ctx context.Context, caller domain.Caller) (*domain.Dashboard, error)
}

type Handler struct {
	analysis AnalysisAPI
	status   StatusAPI
	projects ProjectsAPI
	events   events.Subscriber

	keepAlive    time.Duration
	pollInterval time.Duration
}

// New builds the project handlers. subscriber may be nil, in which case event
// streams fall back to polling the status service.
func New(analysis AnalysisAPI, status StatusAPI, projects ProjectsAPI, subscriber events.Subscriber) *Handler {
	return &Handler{
		analysis:     analysis,
		status:       status,
		projects:     projects,
		events:       subscriber,
		keepAlive:    15 * time.Second,
		pollInterval: 30 * time.Second,
	}
}

func callerFrom(c *gin.Context) domain.Caller {
	id, ok := auth.CurrentIdentity(c)
	if !ok {
		return domain.Caller{}
	}
	return domain.Caller{UserID: id.UID, Email: id.Email}
}
