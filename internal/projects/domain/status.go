package domain

import (
	"fmt"
	"time"
)

// Status values reported to pollers.
const (
	ViewPending   = "pending"
	ViewCompleted = "completed"
	ViewFailed    = "failed"
)

const (
	msgFailed       = "analysis failed"
	msgResetToDraft = "analysis was reset to draft"
)

// StatusView is the poller-facing projection of a stored project status.
type StatusView struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func (v StatusView) Terminal() bool {
	return v.Status == ViewCompleted || v.Status == ViewFailed
}

// EvaluateStatus maps a stored record onto the poller view. expire is true when
// the record is still pending past the ceiling and the caller must persist the
// timeout (status draft, reason ReasonTimedOut) before reporting the view.
func EvaluateStatus(rec StatusRecord, now time.Time, ceiling time.Duration) (view StatusView, expire bool) {
	switch rec.Status {
	case StatusActive, "analysis_complete", "completed":
		return StatusView{Status: ViewCompleted}, false
	case StatusFailed:
		return StatusView{Status: ViewFailed, Error: reasonOr(rec.AnalysisError, msgFailed)}, false
	case StatusDraft:
		return StatusView{Status: ViewFailed, Error: reasonOr(rec.AnalysisError, msgResetToDraft)}, false
	case StatusPendingAnalysis:
		if now.Sub(rec.CreatedAt) > ceiling {
			return StatusView{Status: ViewFailed, Error: ReasonTimedOut}, true
		}
		return StatusView{Status: ViewPending}, false
	default:
		return StatusView{Status: ViewFailed, Error: fmt.Sprintf("unexpected project status %q", rec.Status)}, false
	}
}

// IsTerminal reports whether a stored status has left pending_analysis.
func IsTerminal(status string) bool {
	return status != StatusPendingAnalysis
}

func reasonOr(reason *string, fallback string) string {
	if reason != nil && *reason != "" {
		return *reason
	}
	return fallback
}
