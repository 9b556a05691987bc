package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/citizen-portaal/portaal-backend/internal/events"
	"github.com/citizen-portaal/portaal-backend/internal/logging"
	"github.com/citizen-portaal/portaal-backend/internal/projects/domain"
)

const sweepLockName = "analysis-timeout-sweeper"

// Sweeper expires projects left in pending_analysis past the ceiling, so a
// project times out even when nobody polls it. The write is conditional on
// the project still being pending and never races a completion.
type Sweeper struct {
	store   SweepStore
	locker  Locker
	events  events.Publisher
	ceiling time.Duration
	now     func() time.Time
	cron    *cron.Cron
}

// NewSweeper builds a sweeper. locker may be nil when a single replica runs.
func NewSweeper(store SweepStore, locker Locker, publisher events.Publisher, ceiling time.Duration) *Sweeper {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &Sweeper{
		store:   store,
		locker:  locker,
		events:  publisher,
		ceiling: ceiling,
		now:     time.Now,
	}
}

// SweepOnce runs a single pass and returns the ids it expired.
func (s *Sweeper) SweepOnce(ctx context.Context) ([]string, error) {
	ctx = logging.WithRequestID(ctx, "sweeper")
	logger := logging.NewLogger(ctx)

	if s.locker != nil {
		release, ok, err := s.locker.TryLock(ctx, sweepLockName, time.Minute)
		if err != nil {
			return nil, err
		}
		if !ok {
			logger.LogInfo("sweeper.run", "another replica holds the sweep lock, skipping")
			return nil, nil
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				logger.LogWarnf("sweeper.run", "release lock: %v", err)
			}
		}()
	}

	now := s.now()
	ids, err := s.store.ExpireStale(ctx, now.Add(-s.ceiling), domain.ReasonTimedOut)
	if err != nil {
		return nil, fmt.Errorf("expire stale projects: %w", err)
	}

	for _, id := range ids {
		ev := events.StatusEvent{ProjectID: id, Status: domain.StatusDraft, Error: domain.ReasonTimedOut, Source: events.SourceSweeper, At: now}
		if err := s.events.Publish(ctx, ev); err != nil {
			logger.LogWarnf("events.publish", "project_id=%s error=%v", id, err)
		}
	}
	if len(ids) > 0 {
		logger.LogInfof("sweeper.run", "expired=%d reason=%q", len(ids), domain.ErrTimedOut)
	}
	return ids, nil
}

// Start schedules SweepOnce on spec (standard cron syntax or "@every 1m").
func (s *Sweeper) Start(ctx context.Context, spec string) error {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		rctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if _, err := s.SweepOnce(rctx); err != nil {
			logging.NewLogger(logging.WithRequestID(rctx, "sweeper")).LogError("sweeper.run", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule sweeper %q: %w", spec, err)
	}

	s.cron = c
	c.Start()
	logging.NewLogger(logging.WithRequestID(ctx, "sweeper")).LogInfof("sweeper.start", "schedule=%q ceiling=%s", spec, s.ceiling)
	return nil
}

// Stop halts scheduling and waits for a running pass to finish.
func (s *Sweeper) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}
