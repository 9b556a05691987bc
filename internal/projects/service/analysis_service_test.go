package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citizen-portaal/portaal-backend/internal/projects/domain"
)

func newTestAnalysis(policy string) (*AnalysisService, *memStore, *fakeEngine, *recordingPublisher) {
	store := newMemStore()
	engine := &fakeEngine{}
	pub := &recordingPublisher{}
	svc := NewAnalysisService(store, engine, pub, AnalysisOptions{
		Policy:          policy,
		CallbackBaseURL: "https://portaal.example/api",
		CallbackSecret:  "s3cret",
		DispatchTimeout: time.Second,
	})
	return svc, store, engine, pub
}

func TestAnalysisService_CreateAndDispatch(t *testing.T) {
	ctx := context.Background()
	loc := "Dorpsstraat"

	t.Run("creates pending project and submits job", func(t *testing.T) {
		svc, store, engine, pub := newTestAnalysis(PolicyLastWriteWins)

		p, err := svc.CreateAndDispatch(ctx, alice, domain.ProjectInput{Name: " Riool Dorpsstraat ", Location: &loc})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusPendingAnalysis, p.Status)
		assert.Equal(t, "riool-dorpsstraat", p.Slug)
		assert.Equal(t, domain.StatusPendingAnalysis, store.project(p.ID).Status)
		assert.True(t, store.members[p.ID][alice.UserID])

		require.Len(t, engine.jobs, 1)
		job := engine.jobs[0]
		assert.Equal(t, p.ID, job.ProjectID)
		assert.Equal(t, "Riool Dorpsstraat", job.Name)
		assert.Equal(t, alice.UserID, job.UserID)
		assert.Equal(t, alice.Email, job.UserEmail)
		assert.Equal(t, "https://portaal.example/api/projects/"+p.ID+"/status/update", job.CallbackURL)
		assert.Equal(t, "s3cret", job.CallbackSecret)
		_, err = time.Parse(time.RFC3339, job.CreatedAt)
		assert.NoError(t, err)

		assert.Equal(t, []string{domain.StatusPendingAnalysis}, pub.statuses())
	})

	t.Run("dispatch failure keeps the project as draft", func(t *testing.T) {
		svc, store, engine, _ := newTestAnalysis(PolicyLastWriteWins)
		engine.err = errors.New("502 bad gateway")

		p, err := svc.CreateAndDispatch(ctx, alice, domain.ProjectInput{Name: "Brug"})
		require.NoError(t, err, "dispatch failure must not fail creation")
		assert.NotEmpty(t, p.ID)

		stored := store.project(p.ID)
		assert.Equal(t, domain.StatusDraft, stored.Status)
		require.NotNil(t, stored.AnalysisError)
		assert.Equal(t, domain.ReasonDispatchFailed, *stored.AnalysisError)
	})

	t.Run("dispatch failure does not clobber an early completion", func(t *testing.T) {
		svc, store, engine, _ := newTestAnalysis(PolicyLastWriteWins)
		engine.err = errors.New("timeout")
		store.beforeConditional = func(id string) {
			_, _ = store.SetStatus(ctx, id, domain.StatusActive, nil)
		}

		p, err := svc.CreateAndDispatch(ctx, alice, domain.ProjectInput{Name: "Brug"})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusActive, store.project(p.ID).Status)
	})

	t.Run("engine timeout still records the draft", func(t *testing.T) {
		svc, store, engine, pub := newTestAnalysis(PolicyLastWriteWins)
		svc.opts.DispatchTimeout = 20 * time.Millisecond
		engine.hang = true

		p, err := svc.CreateAndDispatch(ctx, alice, domain.ProjectInput{Name: "Brug"})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusDraft, p.Status)

		stored := store.project(p.ID)
		assert.Equal(t, domain.StatusDraft, stored.Status)
		require.NotNil(t, stored.AnalysisError)
		assert.Equal(t, domain.ReasonDispatchFailed, *stored.AnalysisError)
		assert.Equal(t, []string{domain.StatusPendingAnalysis, domain.StatusDraft}, pub.statuses())
	})

	t.Run("unconfigured engine is never called", func(t *testing.T) {
		svc, store, engine, _ := newTestAnalysis(PolicyLastWriteWins)
		engine.unconfigured = true

		p, err := svc.CreateAndDispatch(ctx, alice, domain.ProjectInput{Name: "Brug"})
		require.NoError(t, err)
		assert.Empty(t, engine.jobs)
		assert.Equal(t, domain.StatusDraft, store.project(p.ID).Status)
	})

	t.Run("membership failure is tolerated", func(t *testing.T) {
		svc, store, _, _ := newTestAnalysis(PolicyLastWriteWins)
		store.memberErr = errBoom

		p, err := svc.CreateAndDispatch(ctx, alice, domain.ProjectInput{Name: "Brug"})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusPendingAnalysis, store.project(p.ID).Status)
	})

	t.Run("rejects anonymous callers", func(t *testing.T) {
		svc, _, engine, _ := newTestAnalysis(PolicyLastWriteWins)
		_, err := svc.CreateAndDispatch(ctx, domain.Caller{}, domain.ProjectInput{Name: "Brug"})
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
		assert.Empty(t, engine.jobs)
	})

	t.Run("rejects blank name", func(t *testing.T) {
		svc, store, engine, _ := newTestAnalysis(PolicyLastWriteWins)
		_, err := svc.CreateAndDispatch(ctx, alice, domain.ProjectInput{Name: "  "})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		assert.Empty(t, store.projects)
		assert.Empty(t, engine.jobs)
	})

	t.Run("persistence failure", func(t *testing.T) {
		svc, store, engine, _ := newTestAnalysis(PolicyLastWriteWins)
		store.createErr = errBoom
		_, err := svc.CreateAndDispatch(ctx, alice, domain.ProjectInput{Name: "Brug"})
		assert.ErrorIs(t, err, domain.ErrPersistence)
		assert.Empty(t, engine.jobs)
	})

	t.Run("slug collision appends a suffix", func(t *testing.T) {
		svc, store, _, _ := newTestAnalysis(PolicyLastWriteWins)
		store.takenSlugs["brug"] = true

		p, err := svc.CreateAndDispatch(ctx, alice, domain.ProjectInput{Name: "Brug"})
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(p.Slug, "brug-"), p.Slug)
	})

	t.Run("slug gives up after the attempt budget", func(t *testing.T) {
		svc, store, _, _ := newTestAnalysis(PolicyLastWriteWins)
		store.takenSlugs["brug"] = true
		// every candidate collides
		for i := 0; i < 999; i++ {
			store.takenSlugs["brug-"+strconv.Itoa(i)] = true
		}

		p, err := svc.CreateAndDispatch(ctx, alice, domain.ProjectInput{Name: "Brug"})
		require.NoError(t, err)
		assert.Equal(t, domain.MaxSlugAttempts, store.slugLookups)
		assert.True(t, strings.HasPrefix(p.Slug, "brug-"))
	})
}

const activeWithStakeholders = `{"status":"active","result":{"stakeholders":[
	{"stakeholder_id":"sh-1","naam":"<b>Bakker & Zn</b>","prioriteit":"HOOG","maatregelen":["<script>x</script>omleiding"]},
	{"stakeholder_id":"","naam":"zonder id"},
	{"stakeholder_id":"sh-2","naam":"School","prioriteit":"middel"}
]}}`

func normalize(t *testing.T, body string) domain.Completion {
	t.Helper()
	c, err := domain.NormalizeCompletion([]byte(body))
	require.NoError(t, err)
	return c
}

func TestAnalysisService_Ingest(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path stores status and stakeholders", func(t *testing.T) {
		svc, store, _, pub := newTestAnalysis(PolicyLastWriteWins)
		p, err := svc.CreateAndDispatch(ctx, alice, domain.ProjectInput{Name: "Brug"})
		require.NoError(t, err)

		res, err := svc.Ingest(ctx, p.ID, normalize(t, activeWithStakeholders))
		require.NoError(t, err)
		assert.True(t, res.Changed)
		assert.Equal(t, domain.StatusActive, res.Status)
		assert.Equal(t, "Project status updated to active", res.Message)
		assert.Equal(t, 2, res.StakeholdersInserted)

		assert.Equal(t, domain.StatusActive, store.project(p.ID).Status)
		sh := store.stakeholders[p.ID]["sh-1"]
		assert.Equal(t, "Bakker & Zn", sh.Name)
		assert.Equal(t, "hoog", sh.Priority)
		assert.Equal(t, []string{"omleiding"}, sh.Measures)
		assert.Equal(t, p.ID, sh.ProjectID)

		assert.Equal(t, []string{domain.StatusPendingAnalysis, domain.StatusActive}, pub.statuses())
	})

	t.Run("duplicate callback is idempotent", func(t *testing.T) {
		svc, store, _, pub := newTestAnalysis(PolicyLastWriteWins)
		p, _ := svc.CreateAndDispatch(ctx, alice, domain.ProjectInput{Name: "Brug"})
		c := normalize(t, activeWithStakeholders)

		_, err := svc.Ingest(ctx, p.ID, c)
		require.NoError(t, err)
		res, err := svc.Ingest(ctx, p.ID, c)
		require.NoError(t, err)

		assert.False(t, res.Changed)
		assert.Equal(t, 0, res.StakeholdersInserted)
		assert.Len(t, store.stakeholders[p.ID], 2)
		assert.Len(t, pub.events, 2, "no event for the repeated callback")
	})

	t.Run("explicit failure keeps the message", func(t *testing.T) {
		svc, store, _, _ := newTestAnalysis(PolicyLastWriteWins)
		p, _ := svc.CreateAndDispatch(ctx, alice, domain.ProjectInput{Name: "Brug"})

		_, err := svc.Ingest(ctx, p.ID, normalize(t, `{"status":"failed","error":"geocoding failed"}`))
		require.NoError(t, err)

		stored := store.project(p.ID)
		assert.Equal(t, domain.StatusFailed, stored.Status)
		assert.Equal(t, "geocoding failed", *stored.AnalysisError)
	})

	t.Run("failure shorthand uses default reason", func(t *testing.T) {
		svc, store, _, _ := newTestAnalysis(PolicyLastWriteWins)
		p, _ := svc.CreateAndDispatch(ctx, alice, domain.ProjectInput{Name: "Brug"})

		_, err := svc.Ingest(ctx, p.ID, normalize(t, `{"failed":true}`))
		require.NoError(t, err)
		assert.Equal(t, domain.ReasonWorkflowFailed, *store.project(p.ID).AnalysisError)
	})

	t.Run("success after failure clears the reason under last write wins", func(t *testing.T) {
		svc, store, _, _ := newTestAnalysis(PolicyLastWriteWins)
		p, _ := svc.CreateAndDispatch(ctx, alice, domain.ProjectInput{Name: "Brug"})

		_, err := svc.Ingest(ctx, p.ID, normalize(t, `{"error":"x"}`))
		require.NoError(t, err)
		_, err = svc.Ingest(ctx, p.ID, normalize(t, `{"analysis_complete":true}`))
		require.NoError(t, err)

		stored := store.project(p.ID)
		assert.Equal(t, domain.StatusActive, stored.Status)
		assert.Nil(t, stored.AnalysisError)
	})

	t.Run("reject terminal refuses a different outcome", func(t *testing.T) {
		svc, store, _, _ := newTestAnalysis(PolicyRejectTerminal)
		p, _ := svc.CreateAndDispatch(ctx, alice, domain.ProjectInput{Name: "Brug"})

		_, err := svc.Ingest(ctx, p.ID, normalize(t, `{"status":"active"}`))
		require.NoError(t, err)

		_, err = svc.Ingest(ctx, p.ID, normalize(t, `{"status":"failed","error":"late"}`))
		assert.ErrorIs(t, err, domain.ErrTerminalState)
		assert.Equal(t, domain.StatusActive, store.project(p.ID).Status)

		res, err := svc.Ingest(ctx, p.ID, normalize(t, `{"analysis_complete":true}`))
		require.NoError(t, err)
		assert.False(t, res.Changed)
	})

	t.Run("reject terminal still accepts stakeholders on a repeated success", func(t *testing.T) {
		svc, store, _, _ := newTestAnalysis(PolicyRejectTerminal)
		p, _ := svc.CreateAndDispatch(ctx, alice, domain.ProjectInput{Name: "Brug"})

		_, err := svc.Ingest(ctx, p.ID, normalize(t, `{"status":"active"}`))
		require.NoError(t, err)
		res, err := svc.Ingest(ctx, p.ID, normalize(t, activeWithStakeholders))
		require.NoError(t, err)
		assert.Equal(t, 2, res.StakeholdersInserted)
		assert.Len(t, store.stakeholders[p.ID], 2)
	})

	t.Run("stakeholder failure does not fail the callback", func(t *testing.T) {
		svc, store, _, _ := newTestAnalysis(PolicyLastWriteWins)
		p, _ := svc.CreateAndDispatch(ctx, alice, domain.ProjectInput{Name: "Brug"})
		store.stakeholderErr = errBoom

		res, err := svc.Ingest(ctx, p.ID, normalize(t, activeWithStakeholders))
		require.NoError(t, err)
		assert.Equal(t, 0, res.StakeholdersInserted)
		assert.Equal(t, domain.StatusActive, store.project(p.ID).Status)
	})

	t.Run("unknown project", func(t *testing.T) {
		svc, _, _, _ := newTestAnalysis(PolicyLastWriteWins)
		_, err := svc.Ingest(ctx, "c0ffee00-0000-4000-8000-000000000000", normalize(t, `{"status":"active"}`))
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("missing project id", func(t *testing.T) {
		svc, _, _, _ := newTestAnalysis(PolicyLastWriteWins)
		_, err := svc.Ingest(ctx, "", normalize(t, `{"status":"active"}`))
		assert.ErrorIs(t, err, domain.ErrInvalidPayload)
	})
}

func TestAnalysisService_dispatchErrors(t *testing.T) {
	ctx := context.Background()
	p := &domain.Project{ID: "p-1", Name: "Brug", CreatedAt: time.Now()}

	t.Run("engine error", func(t *testing.T) {
		svc, _, engine, _ := newTestAnalysis(PolicyLastWriteWins)
		engine.err = errBoom

		err := svc.dispatch(ctx, p, alice)
		assert.ErrorIs(t, err, domain.ErrDispatchFailed)
		assert.Contains(t, err.Error(), "boom")
	})

	t.Run("not configured", func(t *testing.T) {
		svc, _, engine, _ := newTestAnalysis(PolicyLastWriteWins)
		engine.unconfigured = true

		assert.ErrorIs(t, svc.dispatch(ctx, p, alice), domain.ErrDispatchFailed)
		assert.Empty(t, engine.jobs)
	})

	t.Run("submitted", func(t *testing.T) {
		svc, _, engine, _ := newTestAnalysis(PolicyLastWriteWins)
		assert.NoError(t, svc.dispatch(ctx, p, alice))
		assert.Len(t, engine.jobs, 1)
	})
}
