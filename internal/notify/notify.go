// Package notify delivers ticket events to operators outside the request path.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Event kinds.
const (
	KindTicketCreated = "ticket.created"
)

// Event describes something that already happened and committed.
type Event struct {
	ID           string
	Kind         string
	TicketID     int64
	AssetID      int64
	AssetCode    string
	ServiceType  string
	Status       string
	ReporterName string
	Location     string
	Description  string
	OccurredAt   time.Time
}

// NewEvent stamps a fresh id and time on an event.
func NewEvent(kind string) Event {
	return Event{
		ID:         uuid.NewString(),
		Kind:       kind,
		OccurredAt: time.Now(),
	}
}

// Notifier sends one event somewhere. Implementations may block.
type Notifier interface {
	Notify(ctx context.Context, e Event) error
}

// Text renders the event as a short plain-text message.
func (e Event) Text() string {
	var b strings.Builder
	switch e.ServiceType {
	case "new_setup":
		b.WriteString("New equipment setup request")
	case "service":
		b.WriteString("New service request")
	default:
		b.WriteString("New repair request")
	}
	fmt.Fprintf(&b, " #%d\n", e.TicketID)
	line := func(label, v string) {
		if v == "" {
			v = "-"
		}
		fmt.Fprintf(&b, "%s: %s\n", label, v)
	}
	line("Asset", e.AssetCode)
	line("Reporter", e.ReporterName)
	line("Location", e.Location)
	line("Details", e.Description)
	line("Status", e.Status)
	return strings.TrimRight(b.String(), "\n")
}

// LogNotifier only writes events to the log. It is used when no push channel
// is configured.
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{log: logger}
}

func (n *LogNotifier) Notify(_ context.Context, e Event) error {
	n.log.Info("ticket notification",
		"event_id", e.ID,
		"kind", e.Kind,
		"ticket_id", e.TicketID,
		"asset_code", e.AssetCode,
		"service_type", e.ServiceType)
	return nil
}
