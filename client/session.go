package client

import (
	"context"
	"sync"
)

// Phase is the lifecycle of one create-and-wait session.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseSubmitting Phase = "submitting"
	PhaseAnalyzing  Phase = "analyzing"
	PhaseDone       Phase = "done"
	PhaseError      Phase = "error"
)

// Session creates one project and follows it to a terminal state. Run owns
// the polling task; cancelling its context stops it on every path.
type Session struct {
	client *Client
	poller *Poller
	// OnPhase, when set, is called on every transition.
	OnPhase func(Phase)

	mu        sync.Mutex
	phase     Phase
	projectID string
	err       error
}

func NewSession(c *Client, p *Poller) *Session {
	if p == nil {
		p = NewPoller(c)
	}
	return &Session{client: c, poller: p, phase: PhaseIdle}
}

// Run submits in and waits for the analysis. It returns the project id, which
// is set as soon as the project exists, even when the analysis fails.
func (s *Session) Run(ctx context.Context, in ProjectInput) (string, error) {
	s.set(PhaseSubmitting, "", nil)

	id, err := s.client.CreateProject(ctx, in)
	if err != nil {
		s.set(PhaseError, "", err)
		return "", err
	}

	s.set(PhaseAnalyzing, id, nil)
	if _, err := s.poller.Wait(ctx, id); err != nil {
		s.set(PhaseError, id, err)
		return id, err
	}

	s.set(PhaseDone, id, nil)
	return id, nil
}

// State returns the current phase, project id and last error.
func (s *Session) State() (Phase, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase, s.projectID, s.err
}

func (s *Session) set(phase Phase, projectID string, err error) {
	s.mu.Lock()
	s.phase = phase
	if projectID != "" {
		s.projectID = projectID
	}
	s.err = err
	cb := s.OnPhase
	s.mu.Unlock()

	if cb != nil {
		cb(phase)
	}
}
