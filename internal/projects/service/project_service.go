package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/citizen-portaal/portaal-backend/internal/logging"
	"github.com/citizen-portaal/portaal-backend/internal/projects/domain"
)

// ProjectService handles the user-scoped project views
type ProjectService struct {
	repo ProjectReader
	now  func() time.Time
}

// NewProjectService creates a new project service
func NewProjectService(repo ProjectReader) *ProjectService {
	return &ProjectService{repo: repo, now: time.Now}
}

// List returns every project the caller created or is a member of, newest first.
func (s *ProjectService) List(ctx context.Context, caller domain.Caller) ([]domain.Project, error) {
	if caller.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	list, err := s.repo.ListForUser(ctx, caller.UserID, 0)
	if err != nil {
		logging.NewLogger(ctx).LogError("projects.list", err)
		return nil, fmt.Errorf("%w: list projects: %v", domain.ErrPersistence, err)
	}
	return list, nil
}

// Get returns a visible project together with its stakeholders.
func (s *ProjectService) Get(ctx context.Context, caller domain.Caller, projectID string) (*domain.Project, error) {
	if caller.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	p, err := s.repo.GetForUser(ctx, caller.UserID, projectID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		logging.NewLogger(ctx).LogError("projects.get", err)
		return nil, fmt.Errorf("%w: get project: %v", domain.ErrPersistence, err)
	}

	stakeholders, err := s.repo.StakeholdersForProject(ctx, p.ID)
	if err != nil {
		logging.NewLogger(ctx).LogError("projects.stakeholders", err)
		return nil, fmt.Errorf("%w: list stakeholders: %v", domain.ErrPersistence, err)
	}
	p.Stakeholders = stakeholders
	p.StakeholderCount = len(stakeholders)
	return p, nil
}

// Dashboard assembles the caller's landing page data.
func (s *ProjectService) Dashboard(ctx context.Context, caller domain.Caller) (*domain.Dashboard, error) {
	if caller.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	logger := logging.NewLogger(ctx)

	total, pending, err := s.repo.CountForUser(ctx, caller.UserID, domain.PendingStatuses)
	if err != nil {
		logger.LogError("dashboard.stats", err)
		return nil, fmt.Errorf("%w: dashboard stats: %v", domain.ErrPersistence, err)
	}

	recent, err := s.repo.ListForUser(ctx, caller.UserID, domain.RecentProjectsLimit)
	if err != nil {
		logger.LogError("dashboard.recent", err)
		return nil, fmt.Errorf("%w: recent projects: %v", domain.ErrPersistence, err)
	}

	return &domain.Dashboard{
		Stats: domain.DashboardStats{
			TotalProjects:   total,
			OpenMessages:    0,
			PendingAnalysis: pending,
		},
		RecentProjects: recent,
		Activities:     domain.BuildActivities(recent, s.now()),
	}, nil
}
