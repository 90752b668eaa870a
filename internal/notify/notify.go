// Package notify implements the outbound notification boundary.
//
// Lifecycle events are handed to a Dispatcher, which fans them out to a
// Notifier sink on a background goroutine. Delivery is best-effort: sink
// failures are counted and logged, never surfaced to the lifecycle engine.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventType identifies the lifecycle event being announced.
type EventType string

const (
	// EventAssigned fires when a report is routed to an officer.
	EventAssigned EventType = "assigned"

	// EventAwaitingVerification fires when an officer finishes the work
	// and the reporter must confirm it.
	EventAwaitingVerification EventType = "awaiting_verification"

	// EventMisrouted fires when an officer flags a report as misrouted.
	EventMisrouted EventType = "misrouted"
)

// Event is a single outbound notification.
type Event struct {
	Recipients []uuid.UUID    `json:"recipients"`
	Type       EventType      `json:"type"`
	ReportID   uuid.UUID      `json:"report_id"`
	Payload    map[string]any `json:"payload,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Notifier delivers an event to its recipients. Implementations must be safe
// for concurrent use. No delivery guarantee is assumed by callers.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}
