package domain

import "time"

// Stored project statuses.
const (
	StatusDraft           = "draft"
	StatusPendingAnalysis = "pending_analysis"
	StatusActive          = "active"
	StatusFailed          = "failed"
)

// Reasons recorded in analysis_error when the protocol itself fails a project.
const (
	ReasonDispatchFailed = "analysis dispatch failed"
	ReasonTimedOut       = "analysis timed out"
	ReasonWorkflowFailed = "analysis workflow failed"
)

// Project is a civil-works project tracked through the analysis protocol.
// JSON names follow the portal's wire format.
type Project struct {
	ID              string    `json:"id"`
	Name            string    `json:"projectnaam"`
	Location        *string   `json:"locatie"`
	RadiusMeters    *int      `json:"radius_meters"`
	WorkDescription *string   `json:"omschrijving_werkzaamheden"`
	Planning        *string   `json:"globale_planning"`
	Detours         *string   `json:"omleidingen_bereikbaarheidsissues"`
	Slug            string    `json:"slug"`
	Status          string    `json:"status"`
	AnalysisError   *string   `json:"analysis_error,omitempty"`
	CreatedBy       string    `json:"created_by"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	StakeholderCount int           `json:"stakeholder_count"`
	Stakeholders     []Stakeholder `json:"stakeholders,omitempty"`
}

// ProjectInput is the descriptor submitted by a user to create a project.
type ProjectInput struct {
	Name            string  `json:"projectnaam"`
	Location        *string `json:"locatie"`
	RadiusMeters    *int    `json:"radius_meters"`
	WorkDescription *string `json:"omschrijving_werkzaamheden"`
	Planning        *string `json:"globale_planning"`
	Detours         *string `json:"omleidingen_bereikbaarheidsissues"`
}

// NewProject is what the gateway inserts.
type NewProject struct {
	ProjectInput
	Slug      string
	Status    string
	CreatedBy string
}

// StatusRecord is the subset of a project the status protocol reads.
type StatusRecord struct {
	ID            string
	Status        string
	AnalysisError *string
	CreatedAt     time.Time
}

// ImpactScore is one named nuisance sub-score with its rationale.
type ImpactScore struct {
	Score       float64 `json:"score"`
	Explanation string  `json:"toelichting"`
}

// Impact maps sub-score names (geluid, trillingen, bereikbaarheid,
// parkeren_logistiek, stof_emissies, veiligheid_continuiteit) to scores.
type Impact map[string]ImpactScore

type CommunicationPlan struct {
	Approach      []string `json:"aanpak"`
	Timing        string   `json:"timing"`
	ContactPerson string   `json:"contactpersoon"`
}

type DataQuality struct {
	MissingFields []string `json:"ontbrekende_velden"`
	Reliability   string   `json:"betrouwbaarheid"`
}

// Stakeholder is an affected party derived by the external analysis.
type Stakeholder struct {
	ProjectID     string            `json:"project_id,omitempty"`
	StakeholderID string            `json:"stakeholder_id"`
	Name          string            `json:"naam"`
	Type          string            `json:"type"`
	Address       string            `json:"adres"`
	Phone         *string           `json:"telefoon,omitempty"`
	OpeningHours  *string           `json:"openingstijden,omitempty"`
	Impact        Impact            `json:"hinder"`
	Priority      string            `json:"prioriteit"`
	Measures      []string          `json:"maatregelen"`
	Communication CommunicationPlan `json:"communicatie"`
	Remarks       *string           `json:"opmerkingen,omitempty"`
	DataQuality   DataQuality       `json:"gegevenskwaliteit"`
	CreatedAt     time.Time         `json:"created_at,omitempty"`
}

// DashboardStats summarises the projects visible to a user.
type DashboardStats struct {
	TotalProjects   int `json:"total_projects"`
	OpenMessages    int `json:"open_messages"`
	PendingAnalysis int `json:"pending_analysis"`
}

const (
	ActivityProjectCreated    = "project_created"
	ActivityAnalysisCompleted = "analysis_completed"
)

type Activity struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	ProjectName string    `json:"project_name"`
	CreatedAt   time.Time `json:"created_at"`
	Timestamp   string    `json:"timestamp"`
}

type Dashboard struct {
	Stats          DashboardStats `json:"stats"`
	RecentProjects []Project      `json:"recent_projects"`
	Activities     []Activity     `json:"activities"`
}

// Caller is the verified identity on whose behalf an operation runs.
type Caller struct {
	UserID string
	Email  string
}
