package events

import (
	"time"

	"github.com/spec-kit/campus-fix/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventIssueRaised        EventType = "issue_raised"
	EventIssueStatusChanged EventType = "issue_status_changed"
)

// Actor identifies the user behind an event.
type Actor struct {
	UserID string      `json:"user_id"`
	Role   domain.Role `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// IssueRaisedPayload payload.
type IssueRaisedPayload struct {
	ServiceType domain.ServiceType `json:"service_type"`
	Location    string             `json:"location"`
}

// IssueStatusChangedPayload payload.
type IssueStatusChangedPayload struct {
	OldStatus domain.IssueStatus `json:"old_status"`
	NewStatus domain.IssueStatus `json:"new_status"`
}
