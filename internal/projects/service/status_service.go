package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/citizen-portaal/portaal-backend/internal/events"
	"github.com/citizen-portaal/portaal-backend/internal/logging"
	"github.com/citizen-portaal/portaal-backend/internal/projects/domain"
)

// StatusService answers status polls. It is the only read path with a write
// side effect: a poll that finds a project pending past the ceiling expires it.
type StatusService struct {
	store   StatusStore
	events  events.Publisher
	ceiling time.Duration
	now     func() time.Time
}

// NewStatusService creates a new StatusService
func NewStatusService(store StatusStore, publisher events.Publisher, ceiling time.Duration) *StatusService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &StatusService{
		store:   store,
		events:  publisher,
		ceiling: ceiling,
		now:     time.Now,
	}
}

// GetStatus reports the poller view of a project. Any authenticated caller
// may poll any project id.
func (s *StatusService) GetStatus(ctx context.Context, caller domain.Caller, projectID string) (domain.StatusView, error) {
	if caller.UserID == "" {
		return domain.StatusView{}, domain.ErrUnauthorized
	}

	rec, err := s.read(ctx, projectID)
	if err != nil {
		return domain.StatusView{}, err
	}

	now := s.now()
	view, expire := domain.EvaluateStatus(*rec, now, s.ceiling)
	if !expire {
		return view, nil
	}

	logger := logging.NewLogger(ctx)
	reason := domain.ReasonTimedOut

	changed, err := s.store.SetStatusIfPending(ctx, projectID, domain.StatusDraft, &reason)
	if err != nil {
		// still report the timeout; the sweeper persists it later
		logger.LogErrorf("status.expire", "project_id=%s error=%v", projectID, err)
		return view, nil
	}
	if changed {
		logger.LogInfof("status.expire", "project_id=%s %v after %s", projectID, domain.ErrTimedOut, now.Sub(rec.CreatedAt).Round(time.Second))
		ev := events.StatusEvent{ProjectID: projectID, Status: domain.StatusDraft, Error: reason, Source: events.SourcePoller, At: now}
		if err := s.events.Publish(ctx, ev); err != nil {
			logger.LogWarnf("events.publish", "project_id=%s error=%v", projectID, err)
		}
		return view, nil
	}

	// A completion landed between the read and the write; report what is stored.
	rec, err = s.read(ctx, projectID)
	if err != nil {
		return domain.StatusView{}, err
	}
	view, _ = domain.EvaluateStatus(*rec, now, s.ceiling)
	return view, nil
}

func (s *StatusService) read(ctx context.Context, projectID string) (*domain.StatusRecord, error) {
	rec, err := s.store.GetStatusRecord(ctx, projectID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		logging.NewLogger(ctx).LogError("status.read", err)
		return nil, fmt.Errorf("%w: read status: %v", domain.ErrPersistence, err)
	}
	return rec, nil
}
