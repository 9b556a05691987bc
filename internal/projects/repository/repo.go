package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/citizen-portaal/portaal-backend/internal/projects/domain"
	"github.com/citizen-portaal/portaal-backend/internal/storage/postgres"
)

// ProjectRepository provides persistence operations for projects, their
// memberships and stakeholders. Whether it acts with user or service
// privileges depends on the *sql.DB it was built with.
type ProjectRepository struct {
	db *sql.DB
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(db *sql.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

const projectColumns = `
	p.id, p.projectnaam, p.locatie, p.radius_meters, p.omschrijving_werkzaamheden,
	p.globale_planning, p.omleidingen_bereikbaarheidsissues, p.slug, p.status,
	p.analysis_error, p.created_by, p.created_at, p.updated_at,
	(SELECT COUNT(*) FROM stakeholders s WHERE s.project_id = p.id)`

// visibleTo restricts to projects the user created or is a member of. $1 is the user id.
const visibleTo = `(p.created_by = $1 OR EXISTS (
	SELECT 1 FROM project_users pu WHERE pu.project_id = p.id AND pu.user_id = $1))`

// SlugExists reports whether any project already uses slug.
func (r *ProjectRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM projects WHERE slug = $1)`, slug).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// Create inserts a new project and returns it with its generated id and timestamps.
func (r *ProjectRepository) Create(ctx context.Context, np domain.NewProject) (*domain.Project, error) {
	if np.Name == "" {
		return nil, fmt.Errorf("name required")
	}
	if np.CreatedBy == "" {
		return nil, fmt.Errorf("creator required")
	}

	const q = `
INSERT INTO projects (
	id, projectnaam, locatie, radius_meters, omschrijving_werkzaamheden,
	globale_planning, omleidingen_bereikbaarheidsissues, slug, status, created_by
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING created_at, updated_at;
`
	for i := 0; i < 3; i++ {
		p := domain.Project{
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
		}

		err := r.db.QueryRowContext(ctx, q,
			p.ID, p.Name, p.Location, p.RadiusMeters, p.WorkDescription,
			p.Planning, p.Detours, p.Slug, p.Status, p.CreatedBy,
		).Scan(&p.CreatedAt, &p.UpdatedAt)
		if err == nil {
			return &p, nil
		}

		// id collision → retry with a fresh uuid
		if postgres.IsUniqueViolation(err) {
			continue
		}
		return nil, err
	}

	return nil, fmt.Errorf("failed to generate unique project id")
}

// AddMember links a user to a project. Existing memberships are left alone.
func (r *ProjectRepository) AddMember(ctx context.Context, projectID, userID string) error {
	const q = `
INSERT INTO project_users (project_id, user_id)
VALUES ($1, $2)
ON CONFLICT (project_id, user_id) DO NOTHING;
`
	_, err := r.db.ExecContext(ctx, q, projectID, userID)
	return err
}

// GetStatusRecord reads the fields the analysis protocol needs.
func (r *ProjectRepository) GetStatusRecord(ctx context.Context, projectID string) (*domain.StatusRecord, error) {
	if _, err := uuid.Parse(projectID); err != nil {
		return nil, domain.ErrNotFound
	}

	const q = `SELECT id, status, analysis_error, created_at FROM projects WHERE id = $1;`

	var (
		rec    domain.StatusRecord
		reason sql.NullString
	)
	err := r.db.QueryRowContext(ctx, q, projectID).Scan(&rec.ID, &rec.Status, &reason, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	rec.AnalysisError = nullableString(reason)
	return &rec, nil
}

// SetStatus unconditionally writes status and reason. A nil reason clears it.
func (r *ProjectRepository) SetStatus(ctx context.Context, projectID, status string, reason *string) (bool, error) {
	const q = `
UPDATE projects
SET status = $2, analysis_error = $3, updated_at = now()
WHERE id = $1;
`
	return r.execAffected(ctx, q, projectID, status, reason)
}

// SetStatusIfPending writes status and reason only while the project is still
// pending_analysis, so it never overwrites a completion that landed first.
func (r *ProjectRepository) SetStatusIfPending(ctx context.Context, projectID, status string, reason *string) (bool, error) {
	const q = `
UPDATE projects
SET status = $2, analysis_error = $3, updated_at = now()
WHERE id = $1 AND status = 'pending_analysis';
`
	return r.execAffected(ctx, q, projectID, status, reason)
}

// ExpireStale moves every project pending since before the cutoff to draft
// with the given reason and returns the ids it touched.
func (r *ProjectRepository) ExpireStale(ctx context.Context, cutoff time.Time, reason string) ([]string, error) {
	const q = `
UPDATE projects
SET status = 'draft', analysis_error = $2, updated_at = now()
WHERE status = 'pending_analysis' AND created_at < $1
RETURNING id;
`
	rows, err := r.db.QueryContext(ctx, q, cutoff, reason)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListPending returns projects still waiting on the analysis, oldest first.
func (r *ProjectRepository) ListPending(ctx context.Context, limit int) ([]domain.Project, error) {
	q := `
SELECT ` + projectColumns + `
FROM projects p
WHERE p.status = 'pending_analysis'
ORDER BY p.created_at ASC
LIMIT NULLIF($1, 0);
`
	return r.queryProjects(ctx, q, limit)
}

// InsertStakeholders stores a batch in one transaction. Rows whose
// (project_id, stakeholder_id) already exists are skipped; the number of new
// rows is returned.
func (r *ProjectRepository) InsertStakeholders(ctx context.Context, projectID string, list []domain.Stakeholder) (int, error) {
	if len(list) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO stakeholders (
	project_id, stakeholder_id, naam, type, adres, telefoon, openingstijden,
	prioriteit, hinder_data, maatregelen, communicatie_data, opmerkingen, gegevenskwaliteit
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
ON CONFLICT (project_id, stakeholder_id) DO NOTHING;
`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	inserted := 0
	for _, s := range list {
		impact, err := json.Marshal(orEmptyImpact(s.Impact))
		if err != nil {
			return 0, fmt.Errorf("marshal hinder for %s: %w", s.StakeholderID, err)
		}
		comm, err := json.Marshal(s.Communication)
		if err != nil {
			return 0, fmt.Errorf("marshal communicatie for %s: %w", s.StakeholderID, err)
		}
		quality, err := json.Marshal(s.DataQuality)
		if err != nil {
			return 0, fmt.Errorf("marshal gegevenskwaliteit for %s: %w", s.StakeholderID, err)
		}
		measures := s.Measures
		if measures == nil {
			measures = []string{}
		}

		res, err := stmt.ExecContext(ctx,
			projectID, s.StakeholderID, s.Name, s.Type, s.Address, s.Phone, s.OpeningHours,
			s.Priority, impact, pq.Array(measures), comm, s.Remarks, quality,
		)
		if err != nil {
			return 0, fmt.Errorf("insert stakeholder %s: %w", s.StakeholderID, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

// ListForUser returns the projects a user created or belongs to, newest first.
// A limit of 0 returns all of them.
func (r *ProjectRepository) ListForUser(ctx context.Context, userID string, limit int) ([]domain.Project, error) {
	q := `
SELECT ` + projectColumns + `
FROM projects p
WHERE ` + visibleTo + `
ORDER BY p.created_at DESC
LIMIT NULLIF($2, 0);
`
	return r.queryProjects(ctx, q, userID, limit)
}

// GetForUser returns one project if the user may see it.
func (r *ProjectRepository) GetForUser(ctx context.Context, userID, projectID string) (*domain.Project, error) {
	if _, err := uuid.Parse(projectID); err != nil {
		return nil, domain.ErrNotFound
	}

	q := `
SELECT ` + projectColumns + `
FROM projects p
WHERE p.id = $2 AND ` + visibleTo + `;
`
	list, err := r.queryProjects(ctx, q, userID, projectID)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, domain.ErrNotFound
	}
	return &list[0], nil
}

// StakeholdersForProject lists a project's stakeholders, high priority first.
func (r *ProjectRepository) StakeholdersForProject(ctx context.Context, projectID string) ([]domain.Stakeholder, error) {
	const q = `
SELECT project_id, stakeholder_id, naam, type, adres, telefoon, openingstijden,
	prioriteit, hinder_data, maatregelen, communicatie_data, opmerkingen, gegevenskwaliteit, created_at
FROM stakeholders
WHERE project_id = $1
ORDER BY CASE prioriteit WHEN 'hoog' THEN 0 WHEN 'middel' THEN 1 WHEN 'laag' THEN 2 ELSE 3 END, naam;
`
	rows, err := r.db.QueryContext(ctx, q, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Stakeholder, 0, 16)
	for rows.Next() {
		var (
			s                     domain.Stakeholder
			phone, hours, remarks sql.NullString
			impact, comm, quality []byte
			measures              pq.StringArray
		)
		if err := rows.Scan(
			&s.ProjectID, &s.StakeholderID, &s.Name, &s.Type, &s.Address, &phone, &hours,
			&s.Priority, &impact, &measures, &comm, &remarks, &quality, &s.CreatedAt,
		); err != nil {
			return nil, err
		}
		s.Phone = nullableString(phone)
		s.OpeningHours = nullableString(hours)
		s.Remarks = nullableString(remarks)
		s.Measures = []string(measures)

		if err := unmarshalJSONB(impact, &s.Impact); err != nil {
			return nil, fmt.Errorf("hinder_data for %s: %w", s.StakeholderID, err)
		}
		if err := unmarshalJSONB(comm, &s.Communication); err != nil {
			return nil, fmt.Errorf("communicatie_data for %s: %w", s.StakeholderID, err)
		}
		if err := unmarshalJSONB(quality, &s.DataQuality); err != nil {
			return nil, fmt.Errorf("gegevenskwaliteit for %s: %w", s.StakeholderID, err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// CountForUser returns the number of visible projects and how many of them
// are in one of the given statuses.
func (r *ProjectRepository) CountForUser(ctx context.Context, userID string, statuses []string) (total, matching int, err error) {
	q := `
SELECT COUNT(*), COUNT(*) FILTER (WHERE p.status = ANY($2))
FROM projects p
WHERE ` + visibleTo + `;
`
	err = r.db.QueryRowContext(ctx, q, userID, pq.Array(statuses)).Scan(&total, &matching)
	return total, matching, err
}

func (r *ProjectRepository) queryProjects(ctx context.Context, q string, args ...any) ([]domain.Project, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Project, 0, 16)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanProject(rows *sql.Rows) (domain.Project, error) {
	var (
		p                                     domain.Project
		location, work, planning, detours, ae sql.NullString
		radius                                sql.NullInt64
	)
	err := rows.Scan(
		&p.ID, &p.Name, &location, &radius, &work,
		&planning, &detours, &p.Slug, &p.Status,
		&ae, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt,
		&p.StakeholderCount,
	)
	if err != nil {
		return p, err
	}
	p.Location = nullableString(location)
	p.WorkDescription = nullableString(work)
	p.Planning = nullableString(planning)
	p.Detours = nullableString(detours)
	p.AnalysisError = nullableString(ae)
	if radius.Valid {
		v := int(radius.Int64)
		p.RadiusMeters = &v
	}
	return p, nil
}

func (r *ProjectRepository) execAffected(ctx context.Context, q string, args ...any) (bool, error) {
	result, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func nullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func unmarshalJSONB(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

func orEmptyImpact(i domain.Impact) domain.Impact {
	if i == nil {
		return domain.Impact{}
	}
	return i
}
