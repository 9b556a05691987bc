package client

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
)

const (
	DefaultPollInterval = 30 * time.Second
	// DefaultCeiling sits one minute above the server's own timeout so the
	// server-side verdict normally arrives first.
	DefaultCeiling = 13 * time.Minute
)

// ErrTimedOut is returned by Wait when the client ceiling passes while the
// project is still pending.
var ErrTimedOut = errors.New("analysis timed out")

// AnalysisFailedError is returned when the project ends in the failed state.
type AnalysisFailedError struct {
	ProjectID string
	Reason    string
}

func (e *AnalysisFailedError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("analysis of project %s failed", e.ProjectID)
	}
	return fmt.Sprintf("analysis of project %s failed: %s", e.ProjectID, e.Reason)
}

// StatusGetter is the single call the poller needs; *Client satisfies it.
type StatusGetter interface {
	GetStatus(ctx context.Context, projectID string) (Status, error)
}

// Poller waits for a project to reach a terminal status.
type Poller struct {
	Client   StatusGetter
	Interval time.Duration
	Ceiling  time.Duration
	// Logf receives transient poll errors; defaults to log.Printf.
	Logf func(format string, args ...any)
}

func NewPoller(c StatusGetter) *Poller {
	return &Poller{Client: c, Interval: DefaultPollInterval, Ceiling: DefaultCeiling}
}

// Wait polls immediately and then every Interval until the project is
// terminal, the ceiling passes, a non-retryable error occurs, or ctx is done.
// Transient errors are logged and retried on the next tick.
func (p *Poller) Wait(ctx context.Context, projectID string) (Status, error) {
	interval, ceiling := p.Interval, p.Ceiling
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if ceiling <= 0 {
		ceiling = DefaultCeiling
	}
	logf := p.Logf
	if logf == nil {
		logf = log.Printf
	}

	deadline := time.NewTimer(ceiling)
	defer deadline.Stop()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		st, err := p.Client.GetStatus(ctx, projectID)
		switch {
		case err == nil && st.Status == StatusCompleted:
			return st, nil
		case err == nil && st.Status == StatusFailed:
			return st, &AnalysisFailedError{ProjectID: projectID, Reason: st.Error}
		case err != nil:
			if ctx.Err() != nil {
				return Status{}, ctx.Err()
			}
			if !retryable(err) {
				return Status{}, err
			}
			logf("[warn] poll project_id=%s error=%v", projectID, err)
		}

		select {
		case <-ctx.Done():
			return Status{}, ctx.Err()
		case <-deadline.C:
			return Status{Status: StatusFailed, Error: ErrTimedOut.Error()}, ErrTimedOut
		case <-ticker.C:
		}
	}
}

func retryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}
	return true
}
