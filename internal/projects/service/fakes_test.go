package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/citizen-portaal/portaal-backend/internal/events"
	"github.com/citizen-portaal/portaal-backend/internal/projects/domain"
	"github.com/citizen-portaal/portaal-backend/internal/workflow"
)

// memStore is an in-memory stand-in for the project repository.
type memStore struct {
	mu           sync.Mutex
	projects     map[string]*domain.Project
	members      map[string]map[string]bool
	stakeholders map[string]map[string]domain.Stakeholder
	takenSlugs   map[string]bool

	createErr      error
	memberErr      error
	stakeholderErr error
	// beforeConditional runs inside SetStatusIfPending before the check.
	beforeConditional func(id string)
	slugLookups       int
}

func newMemStore() *memStore {
	return &memStore{
		projects:     map[string]*domain.Project{},
		members:      map[string]map[string]bool{},
		stakeholders: map[string]map[string]domain.Stakeholder{},
		takenSlugs:   map[string]bool{},
	}
}

func (m *memStore) SlugExists(_ context.Context, slug string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slugLookups++
	if m.takenSlugs[slug] {
		return true, nil
	}
	for _, p := range m.projects {
		if p.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) Create(_ context.Context, np domain.NewProject) (*domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return nil, m.createErr
	}
	now := time.Now()
	p := &domain.Project{
		ID:              uuid.NewString(),
		Name:            np.Name,
		Location:        np.Location,
		RadiusMeters:    np.RadiusMeters,
		WorkDescription: np.WorkDescription,
		Planning:        np.Planning,
		Detours:         np.Detours,
		Slug:            np.Slug,
		Status:          np.Status,
		CreatedBy:       np.CreatedBy,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	m.projects[p.ID] = p
	cp := *p
	return &cp, nil
}

func (m *memStore) AddMember(_ context.Context, projectID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.memberErr != nil {
		return m.memberErr
	}
	if m.members[projectID] == nil {
		m.members[projectID] = map[string]bool{}
	}
	m.members[projectID][userID] = true
	return nil
}

func (m *memStore) GetStatusRecord(_ context.Context, projectID string) (*domain.StatusRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[projectID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &domain.StatusRecord{ID: p.ID, Status: p.Status, AnalysisError: p.AnalysisError, CreatedAt: p.CreatedAt}, nil
}

// SetStatus fails on a done context, as database/sql does before reaching the driver.
func (m *memStore) SetStatus(ctx context.Context, projectID, status string, reason *string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[projectID]
	if !ok {
		return false, nil
	}
	p.Status = status
	p.AnalysisError = reason
	p.UpdatedAt = time.Now()
	return true, nil
}

func (m *memStore) SetStatusIfPending(ctx context.Context, projectID, status string, reason *string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if m.beforeConditional != nil {
		m.beforeConditional(projectID)
	}
	m.mu.Lock()
	p, ok := m.projects[projectID]
	pending := ok && p.Status == domain.StatusPendingAnalysis
	m.mu.Unlock()
	if !pending {
		return false, nil
	}
	return m.SetStatus(ctx, projectID, status, reason)
}

func (m *memStore) ExpireStale(_ context.Context, cutoff time.Time, reason string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for id, p := range m.projects {
		if p.Status == domain.StatusPendingAnalysis && p.CreatedAt.Before(cutoff) {
			r := reason
			p.Status = domain.StatusDraft
			p.AnalysisError = &r
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *memStore) InsertStakeholders(_ context.Context, projectID string, list []domain.Stakeholder) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stakeholderErr != nil {
		return 0, m.stakeholderErr
	}
	if m.stakeholders[projectID] == nil {
		m.stakeholders[projectID] = map[string]domain.Stakeholder{}
	}
	n := 0
	for _, s := range list {
		if _, dup := m.stakeholders[projectID][s.StakeholderID]; dup {
			continue
		}
		m.stakeholders[projectID][s.StakeholderID] = s
		n++
	}
	return n, nil
}

func (m *memStore) visible(userID string, p *domain.Project) bool {
	return p.CreatedBy == userID || m.members[p.ID][userID]
}

func (m *memStore) ListForUser(_ context.Context, userID string, limit int) ([]domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Project
	for _, p := range m.projects {
		if m.visible(userID, p) {
			cp := *p
			cp.StakeholderCount = len(m.stakeholders[p.ID])
			out = append(out, cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) GetForUser(_ context.Context, userID, projectID string) (*domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[projectID]
	if !ok || !m.visible(userID, p) {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) StakeholdersForProject(_ context.Context, projectID string) ([]domain.Stakeholder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Stakeholder
	for _, s := range m.stakeholders[projectID] {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StakeholderID < out[j].StakeholderID })
	return out, nil
}

func (m *memStore) CountForUser(_ context.Context, userID string, statuses []string) (int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	total, matching := 0, 0
	for _, p := range m.projects {
		if !m.visible(userID, p) {
			continue
		}
		total++
		for _, s := range statuses {
			if p.Status == s {
				matching++
				break
			}
		}
	}
	return total, matching, nil
}

// project returns a copy of the stored project.
func (m *memStore) project(id string) domain.Project {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.projects[id]
}

func (m *memStore) backdate(id string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projects[id].CreatedAt = m.projects[id].CreatedAt.Add(-d)
}

type fakeEngine struct {
	mu   sync.Mutex
	jobs []workflow.Job
	err  error
	// hang makes Submit wait for its context like a stalled webhook.
	hang         bool
	unconfigured bool
}

func (e *fakeEngine) Configured() bool { return !e.unconfigured }

func (e *fakeEngine) Submit(ctx context.Context, job workflow.Job) error {
	e.mu.Lock()
	e.jobs = append(e.jobs, job)
	hang, err := e.hang, e.err
	e.mu.Unlock()

	if hang {
		<-ctx.Done()
		return ctx.Err()
	}
	return err
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.StatusEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.StatusEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) statuses() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Status)
	}
	return out
}

type fakeLocker struct {
	held     bool
	err      error
	released int
}

func (l *fakeLocker) TryLock(_ context.Context, _ string, _ time.Duration) (func(context.Context) error, bool, error) {
	if l.err != nil {
		return nil, false, l.err
	}
	if l.held {
		return nil, false, nil
	}
	l.held = true
	return func(context.Context) error {
		l.held = false
		l.released++
		return nil
	}, true, nil
}

var errBoom = errors.New("boom")

var alice = domain.Caller{UserID: "user-alice", Email: "alice@example.nl"}
