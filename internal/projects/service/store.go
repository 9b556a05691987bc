package service

import (
	"context"
	"time"

	"github.com/citizen-portaal/portaal-backend/internal/projects/domain"
	"github.com/citizen-portaal/portaal-backend/internal/workflow"
)

// AnalysisStore is the privileged gateway used by dispatch and completion.
type AnalysisStore interface {
	SlugExists(ctx context.Context, slug string) (bool, error)
	Create(ctx context.Context, np domain.NewProject) (*domain.Project, error)
	AddMember(ctx context.Context, projectID, userID string) error
	GetStatusRecord(ctx context.Context, projectID string) (*domain.StatusRecord, error)
	SetStatus(ctx context.Context, projectID, status string, reason *string) (bool, error)
	SetStatusIfPending(ctx context.Context, projectID, status string, reason *string) (bool, error)
	InsertStakeholders(ctx context.Context, projectID string, list []domain.Stakeholder) (int, error)
}

// StatusStore is the user-scoped gateway used by the status poller.
type StatusStore interface {
	GetStatusRecord(ctx context.Context, projectID string) (*domain.StatusRecord, error)
	SetStatusIfPending(ctx context.Context, projectID, status string, reason *string) (bool, error)
}

type SweepStore interface {
	ExpireStale(ctx context.Context, cutoff time.Time, reason string) ([]string, error)
}

type ProjectReader interface {
	ListForUser(ctx context.Context, userID string, limit int) ([]domain.Project, error)
	GetForUser(ctx context.Context, userID, projectID string) (*domain.Project, error)
	StakeholdersForProject(ctx context.Context, projectID string) ([]domain.Stakeholder, error)
	CountForUser(ctx context.Context, userID string, statuses []string) (total, matching int, err error)
}

// Engine submits analysis jobs to the external workflow.
type Engine interface {
	Configured() bool
	Submit(ctx context.Context, job workflow.Job) error
}

// Locker grants a short exclusive lease; see kv.Locker.
type Locker interface {
	TryLock(ctx context.Context, name string, ttl time.Duration) (release func(context.Context) error, ok bool, err error)
}
