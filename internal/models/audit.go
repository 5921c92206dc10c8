package models

import "time"

// Ticket event actions.
const (
	ActionCreated   = "created"
	ActionStarted   = "started"
	ActionCompleted = "completed"
	ActionUpdated   = "updated"
	ActionDeleted   = "deleted"
)

// TicketEvent is one entry of a ticket's audit trail.
type TicketEvent struct {
	ID         int64     `json:"id"`
	TicketID   int64     `json:"ticket_id"`
	Action     string    `json:"action"`
	FromStatus string    `json:"from_status,omitempty"`
	ToStatus   string    `json:"to_status,omitempty"`
	Details    string    `json:"details,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
