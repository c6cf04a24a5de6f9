package ports

import (
	"context"
	"time"
)

// RouteEvent announces a change to the stop list.
type RouteEvent struct {
	Type       string    `json:"type"`
	StopID     string    `json:"stop_id,omitempty"`
	StopCount  int       `json:"stop_count"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Contract for announcing route changes to other systems.
type EventPublisher interface {
	Publish(ctx context.Context, evt RouteEvent) error
}
