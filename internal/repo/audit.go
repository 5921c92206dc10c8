package repo

import (
	"context"
	"time"

	"github.com/crucial707/itam/internal/db"
	"github.com/crucial707/itam/internal/models"
)

// AuditRepo persists the ticket audit trail in ticket_events.
type AuditRepo struct {
	q db.Querier
}

// NewAuditRepo returns a new AuditRepo.
func NewAuditRepo(q db.Querier) *AuditRepo {
	return &AuditRepo{q: q}
}

// Log records one ticket event. Events outlive the ticket they describe.
func (r *AuditRepo) Log(ctx context.Context, e models.TicketEvent) error {
	at := e.CreatedAt
	if at.IsZero() {
		at = time.Now()
	}
	_, err := r.q.Execute(ctx,
		`INSERT INTO ticket_events (ticket_id, action, from_status, to_status, details, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		e.TicketID, e.Action, nullString(e.FromStatus), nullString(e.ToStatus), nullString(e.Details), at.UTC(),
	)
	return err
}

// ListByTicket returns the events of one ticket, oldest first.
func (r *AuditRepo) ListByTicket(ctx context.Context, ticketID int64) ([]models.TicketEvent, error) {
	res, err := r.q.Execute(ctx,
		`SELECT id, ticket_id, action, from_status, to_status, details, created_at FROM ticket_events WHERE ticket_id = ? ORDER BY id`,
		ticketID,
	)
	if err != nil {
		return nil, err
	}

	events := make([]models.TicketEvent, 0, len(res.Rows))
	for _, row := range res.Rows {
		e := models.TicketEvent{
			ID:         row.Int64("id"),
			TicketID:   row.Int64("ticket_id"),
			Action:     row.String("action"),
			FromStatus: row.String("from_status"),
			ToStatus:   row.String("to_status"),
			Details:    row.String("details"),
		}
		if ts := row.Time("created_at"); ts != nil {
			e.CreatedAt = *ts
		}
		events = append(events, e)
	}
	return events, nil
}
