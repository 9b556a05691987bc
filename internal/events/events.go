// Package events fans out project status transitions so that open event
// streams can react without polling the database.
package events

import (
	"context"
	"time"
)

// StatusEvent is published whenever a project's stored status changes.
type StatusEvent struct {
	ProjectID string    `json:"project_id"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	Source    string    `json:"source"`
	At        time.Time `json:"at"`
}

// Event sources.
const (
	SourceDispatch = "dispatch"
	SourceCallback = "callback"
	SourcePoller   = "poller"
	SourceSweeper  = "sweeper"
)

type Publisher interface {
	Publish(ctx context.Context, ev StatusEvent) error
}

// Subscriber delivers events for one project until ctx is done or the
// returned cancel func is called.
type Subscriber interface {
	Subscribe(ctx context.Context, projectID string) (<-chan StatusEvent, func(), error)
}

// Noop discards events. Used when Redis is not configured.
type Noop struct{}

func (Noop) Publish(context.Context, StatusEvent) error { return nil }
