package repository

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citizen-portaal/portaal-backend/internal/projects/domain"
	"github.com/citizen-portaal/portaal-backend/internal/storage/postgres"
)

// setupTestPostgres connects to TEST_DB_DSN and applies the migrations.
// Skips the test if TEST_DB_DSN is not set.
func setupTestPostgres(t *testing.T) *sql.DB {
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set, skipping PostgreSQL integration test")
	}

	ctx := context.Background()
	db, err := postgres.NewConnection(ctx, postgres.Options{DSN: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = postgres.Migrate(ctx, db)
	require.NoError(t, err)
	return db
}

func TestProjectRepository_Postgres(t *testing.T) {
	db := setupTestPostgres(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	p, err := repo.Create(ctx, domain.NewProject{
		ProjectInput: domain.ProjectInput{Name: "Integratie"},
		Slug:         "integratie-" + time.Now().Format("150405.000"),
		Status:       domain.StatusPendingAnalysis,
		CreatedBy:    "it-user",
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Exec(`DELETE FROM projects WHERE id = $1`, p.ID) })

	require.NoError(t, repo.AddMember(ctx, p.ID, "it-user"))
	require.NoError(t, repo.AddMember(ctx, p.ID, "it-user"))

	ok, err := repo.SetStatus(ctx, p.ID, domain.StatusActive, nil)
	require.NoError(t, err)
	assert.True(t, ok)

	reason := domain.ReasonTimedOut
	ok, err = repo.SetStatusIfPending(ctx, p.ID, domain.StatusDraft, &reason)
	require.NoError(t, err)
	assert.False(t, ok, "conditional write must not overwrite a completed project")

	list := []domain.Stakeholder{{StakeholderID: "sh-1", Name: "Winkel", Priority: "hoog"}}
	n, err := repo.InsertStakeholders(ctx, p.ID, list)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = repo.InsertStakeholders(ctx, p.ID, list)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	got, err := repo.GetForUser(ctx, "it-user", p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, got.Status)
	assert.Equal(t, 1, got.StakeholderCount)
}
