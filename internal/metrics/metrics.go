package metrics

import (
	"regexp"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestDuration tracks HTTP request duration in seconds by method, path, status.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RequestTotal counts HTTP requests by method, path, status.
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// TicketsCreated counts maintenance tickets by service type.
	TicketsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "maintenance_tickets_created_total",
			Help: "Total number of maintenance tickets created by service type",
		},
		[]string{"service_type"},
	)

	// TicketTransitions counts status changes by target status and outcome (ok, rejected).
	TicketTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "maintenance_ticket_transitions_total",
			Help: "Ticket status transitions by target status and outcome",
		},
		[]string{"to", "outcome"},
	)

	// NotificationsTotal counts notification deliveries by outcome (sent, failed, dropped).
	NotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_total",
			Help: "Outbound ticket notifications by outcome",
		},
		[]string{"outcome"},
	)

	// MigrationSteps counts schema convergence steps by outcome (applied, skipped, failed).
	MigrationSteps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schema_migration_steps_total",
			Help: "Schema convergence steps by outcome",
		},
		[]string{"outcome"},
	)
)

var (
	numericPathSegment = regexp.MustCompile(`/[0-9]+(/|$)`)
	initOnce           sync.Once
)

func init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestDuration, RequestTotal, TicketsCreated, TicketTransitions, NotificationsTotal, MigrationSteps)
	})
}

// NormalizePath reduces cardinality by replacing numeric path segments with {id}.
// E.g. /api/maintenance/12/start -> /api/maintenance/{id}/start.
func NormalizePath(path string) string {
	return numericPathSegment.ReplaceAllString(path, "/{id}$1")
}

// RecordRequest records duration and count for an HTTP request.
func RecordRequest(method, path string, statusCode int, durationSeconds float64) {
	path = NormalizePath(path)
	status := strconv.Itoa(statusCode)
	RequestDuration.WithLabelValues(method, path, status).Observe(durationSeconds)
	RequestTotal.WithLabelValues(method, path, status).Inc()
}

func IncTicketsCreated(serviceType string) {
	TicketsCreated.WithLabelValues(serviceType).Inc()
}

func IncTransition(to, outcome string) {
	TicketTransitions.WithLabelValues(to, outcome).Inc()
}

func IncNotifications(outcome string) {
	NotificationsTotal.WithLabelValues(outcome).Inc()
}

func IncMigrationSteps(outcome string) {
	MigrationSteps.WithLabelValues(outcome).Inc()
}
