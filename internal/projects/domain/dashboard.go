package domain

import (
	"fmt"
	"sort"
	"time"
)

const (
	RecentProjectsLimit = 5
	ActivitiesLimit     = 4
)

// PendingStatuses are counted as "awaiting analysis" on the dashboard.
var PendingStatuses = []string{StatusPendingAnalysis, StatusDraft}

// FormatTimeAgo renders the Dutch relative timestamp used on the dashboard.
func FormatTimeAgo(t, now time.Time) string {
	hours := int(now.Sub(t).Hours())
	switch {
	case hours < 1:
		return "Minder dan een uur geleden"
	case hours == 1:
		return "1 uur geleden"
	case hours < 24:
		return fmt.Sprintf("%d uur geleden", hours)
	}

	days := hours / 24
	switch {
	case days == 1:
		return "1 dag geleden"
	case days < 7:
		return fmt.Sprintf("%d dagen geleden", days)
	}
	return t.Format("2-1-2006")
}

// BuildActivities derives the activity feed from recent projects: one entry
// per creation and one per completed analysis, newest first.
func BuildActivities(recent []Project, now time.Time) []Activity {
	out := make([]Activity, 0, len(recent)*2)
	for _, p := range recent {
		out = append(out, Activity{
			ID:          "activity-" + p.ID,
			Type:        ActivityProjectCreated,
			Description: fmt.Sprintf("Project %q is aangemaakt.", p.Name),
			ProjectName: p.Name,
			CreatedAt:   p.CreatedAt,
		})
		if p.Status == StatusActive && p.UpdatedAt.After(p.CreatedAt) {
			desc := fmt.Sprintf("Analyse voor project %q is voltooid.", p.Name)
			if p.StakeholderCount > 0 {
				desc = fmt.Sprintf("Analyse voor project %q is voltooid met %d stakeholders.", p.Name, p.StakeholderCount)
			}
			out = append(out, Activity{
				ID:          "analysis-" + p.ID,
				Type:        ActivityAnalysisCompleted,
				Description: desc,
				ProjectName: p.Name,
				CreatedAt:   p.UpdatedAt,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > ActivitiesLimit {
		out = out[:ActivitiesLimit]
	}
	for i := range out {
		out[i].Timestamp = FormatTimeAgo(out[i].CreatedAt, now)
	}
	return out
}
