package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/citizen-portaal/portaal-backend/internal/events"
	"github.com/citizen-portaal/portaal-backend/internal/logging"
	"github.com/citizen-portaal/portaal-backend/internal/projects/domain"
	"github.com/citizen-portaal/portaal-backend/internal/workflow"
)

// fallbackWriteTimeout bounds the draft write after a failed dispatch.
const fallbackWriteTimeout = 5 * time.Second

// Completion policies for callbacks that arrive after a project left pending_analysis.
const (
	PolicyLastWriteWins  = "last_write_wins"
	PolicyRejectTerminal = "reject_terminal"
)

type AnalysisOptions struct {
	Policy string
	// CallbackBaseURL is the public API root, e.g. https://portaal.example/api.
	CallbackBaseURL string
	CallbackSecret  string
	DispatchTimeout time.Duration
}

// AnalysisService creates projects, hands them to the workflow engine and
// ingests the engine's completion callbacks. It must be built on the
// privileged store.
type AnalysisService struct {
	store     AnalysisStore
	engine    Engine
	events    events.Publisher
	opts      AnalysisOptions
	sanitizer *textSanitizer
	now       func() time.Time
}

// NewAnalysisService creates a new AnalysisService
func NewAnalysisService(store AnalysisStore, engine Engine, publisher events.Publisher, opts AnalysisOptions) *AnalysisService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	if opts.Policy == "" {
		opts.Policy = PolicyLastWriteWins
	}
	if opts.DispatchTimeout == 0 {
		opts.DispatchTimeout = 10 * time.Second
	}
	return &AnalysisService{
		store:     store,
		engine:    engine,
		events:    publisher,
		opts:      opts,
		sanitizer: newTextSanitizer(),
		now:       time.Now,
	}
}

// IngestResult is what the receiver reports back to the engine.
type IngestResult struct {
	ProjectID            string `json:"projectId"`
	Status               string `json:"status"`
	Message              string `json:"message"`
	Changed              bool   `json:"changed"`
	StakeholdersInserted int    `json:"stakeholders_inserted"`
}

// CreateAndDispatch stores a new pending project and submits it for analysis.
// A failed submission never fails the call: the project is kept, moved to
// draft, and the caller learns about it by polling.
func (s *AnalysisService) CreateAndDispatch(ctx context.Context, caller domain.Caller, in domain.ProjectInput) (*domain.Project, error) {
	logger := logging.NewLogger(ctx)

	if caller.UserID == "" {
		return nil, domain.ErrUnauthorized
	}

	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	slug := s.uniqueSlug(ctx, in.Name)

	p, err := s.store.Create(ctx, domain.NewProject{
		ProjectInput: in,
		Slug:         slug,
		Status:       domain.StatusPendingAnalysis,
		CreatedBy:    caller.UserID,
	})
	if err != nil {
		logger.LogError("analysis.create_project", err)
		return nil, fmt.Errorf("%w: create project: %v", domain.ErrPersistence, err)
	}
	logger.LogInfof("analysis.create_project", "project_id=%s slug=%s", p.ID, p.Slug)

	if err := s.store.AddMember(ctx, p.ID, caller.UserID); err != nil {
		logger.LogWarnf("analysis.add_member", "project_id=%s user_id=%s error=%v", p.ID, caller.UserID, err)
	}

	s.publish(ctx, p.ID, domain.StatusPendingAnalysis, "", events.SourceDispatch)

	if err := s.dispatch(ctx, p, caller); err != nil {
		logger.LogErrorf("analysis.dispatch", "project_id=%s error=%v", p.ID, err)

		// The dispatch context may already be past its deadline here.
		wctx, wcancel := context.WithTimeout(context.WithoutCancel(ctx), fallbackWriteTimeout)
		defer wcancel()

		reason := domain.ReasonDispatchFailed
		changed, werr := s.store.SetStatusIfPending(wctx, p.ID, domain.StatusDraft, &reason)
		if werr != nil {
			logger.LogErrorf("analysis.dispatch_fallback", "project_id=%s error=%v", p.ID, werr)
		}
		if changed {
			p.Status = domain.StatusDraft
			p.AnalysisError = &reason
			s.publish(ctx, p.ID, domain.StatusDraft, reason, events.SourceDispatch)
		}
		return p, nil
	}

	logger.LogInfof("analysis.dispatch", "project_id=%s submitted", p.ID)
	return p, nil
}

// dispatch submits the job once. The project exists already, so finishing the
// call must not depend on the caller staying connected.
func (s *AnalysisService) dispatch(ctx context.Context, p *domain.Project, caller domain.Caller) error {
	if !s.engine.Configured() {
		return fmt.Errorf("%w: workflow engine not configured", domain.ErrDispatchFailed)
	}

	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.DispatchTimeout)
	defer cancel()

	if err := s.engine.Submit(dctx, s.job(p, caller)); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDispatchFailed, err)
	}
	return nil
}

// uniqueSlug tries up to MaxSlugAttempts candidates. Slugs are unique by
// intent only, so lookup failures fall back to the current candidate.
func (s *AnalysisService) uniqueSlug(ctx context.Context, name string) string {
	base := domain.Slugify(name)
	slug := base

	for i := 0; i < domain.MaxSlugAttempts; i++ {
		exists, err := s.store.SlugExists(ctx, slug)
		if err != nil {
			logging.NewLogger(ctx).LogWarnf("analysis.slug", "slug=%s lookup failed: %v", slug, err)
			return slug
		}
		if !exists {
			return slug
		}
		next, err := domain.SlugCandidate(base)
		if err != nil {
			return slug
		}
		slug = next
	}
	return slug
}

func (s *AnalysisService) job(p *domain.Project, caller domain.Caller) workflow.Job {
	job := workflow.Job{
		ProjectID:       p.ID,
		Name:            p.Name,
		Location:        p.Location,
		RadiusMeters:    p.RadiusMeters,
		WorkDescription: p.WorkDescription,
		Planning:        p.Planning,
		Detours:         p.Detours,
		UserID:          caller.UserID,
		UserEmail:       caller.Email,
		CreatedAt:       p.CreatedAt.UTC().Format(time.RFC3339),
	}
	if s.opts.CallbackBaseURL != "" {
		job.CallbackURL = fmt.Sprintf("%s/projects/%s/status/update", s.opts.CallbackBaseURL, p.ID)
		job.CallbackSecret = s.opts.CallbackSecret
	}
	return job
}

// Ingest applies a normalized completion to a project.
func (s *AnalysisService) Ingest(ctx context.Context, projectID string, c domain.Completion) (*IngestResult, error) {
	logger := logging.NewLogger(ctx)

	if projectID == "" {
		return nil, &domain.PayloadError{Reason: "projectId is required"}
	}

	rec, err := s.store.GetStatusRecord(ctx, projectID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		logger.LogError("analysis.ingest_lookup", err)
		return nil, fmt.Errorf("%w: read project: %v", domain.ErrPersistence, err)
	}

	reason := s.completionReason(c)
	same := rec.Status == c.Status && equalReason(rec.AnalysisError, reason)
	result := &IngestResult{ProjectID: projectID, Status: c.Status}

	switch {
	case same:
		result.Message = fmt.Sprintf("Project status already %s", c.Status)

	case s.opts.Policy == PolicyRejectTerminal && domain.IsTerminal(rec.Status):
		if rec.Status != c.Status {
			logger.LogWarnf("analysis.ingest", "project_id=%s rejected %s, project already %s", projectID, c.Status, rec.Status)
			return nil, fmt.Errorf("%w: project is %s", domain.ErrTerminalState, rec.Status)
		}
		result.Message = fmt.Sprintf("Project status already %s", c.Status)

	default:
		changed, err := s.store.SetStatus(ctx, projectID, c.Status, reason)
		if err != nil {
			logger.LogError("analysis.ingest_update", err)
			return nil, fmt.Errorf("%w: update status: %v", domain.ErrPersistence, err)
		}
		result.Changed = changed
		result.Message = fmt.Sprintf("Project status updated to %s", c.Status)
		logger.LogInfof("analysis.ingest", "project_id=%s kind=%s status=%s->%s", projectID, c.Kind, rec.Status, c.Status)
	}

	if c.Status == domain.StatusActive {
		result.StakeholdersInserted = s.storeStakeholders(ctx, projectID, c)
	}

	if result.Changed {
		s.publish(ctx, projectID, c.Status, derefOr(reason, ""), events.SourceCallback)
	}
	return result, nil
}

// storeStakeholders is best-effort: failures are logged, never returned.
func (s *AnalysisService) storeStakeholders(ctx context.Context, projectID string, c domain.Completion) int {
	logger := logging.NewLogger(ctx)

	if c.StakeholderErr != nil {
		logger.LogWarnf("analysis.stakeholders", "project_id=%s unreadable stakeholder list: %v", projectID, c.StakeholderErr)
	}
	if !c.HasStakeholders() {
		return 0
	}

	list := s.sanitizer.stakeholders(projectID, c.Stakeholders)
	if skipped := len(c.Stakeholders) - len(list); skipped > 0 {
		logger.LogWarnf("analysis.stakeholders", "project_id=%s skipped %d stakeholders without stakeholder_id", projectID, skipped)
	}

	n, err := s.store.InsertStakeholders(ctx, projectID, list)
	if err != nil {
		logger.LogErrorf("analysis.stakeholders", "project_id=%s error=%v", projectID, err)
		return 0
	}
	logger.LogInfof("analysis.stakeholders", "project_id=%s inserted=%d received=%d", projectID, n, len(c.Stakeholders))
	return n
}

// completionReason is the analysis_error to store for a completion; nil clears it.
func (s *AnalysisService) completionReason(c domain.Completion) *string {
	switch c.Status {
	case domain.StatusFailed:
		msg := s.sanitizer.text(c.ErrorMessage)
		if msg == "" {
			msg = domain.ReasonWorkflowFailed
		}
		return &msg
	case domain.StatusDraft:
		return s.sanitizer.optional(&c.ErrorMessage)
	default:
		return nil
	}
}

func (s *AnalysisService) publish(ctx context.Context, projectID, status, reason, source string) {
	ev := events.StatusEvent{ProjectID: projectID, Status: status, Error: reason, Source: source, At: s.now()}
	if err := s.events.Publish(ctx, ev); err != nil {
		logging.NewLogger(ctx).LogWarnf("events.publish", "project_id=%s error=%v", projectID, err)
	}
}

func equalReason(a, b *string) bool {
	return derefOr(a, "") == derefOr(b, "")
}

func derefOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}
