package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/crucial707/itam/internal/errs"
	"github.com/crucial707/itam/internal/metrics"
)

// Dispatcher queues events and delivers them from one background worker.
// Delivery failures are logged and counted, never returned.
type Dispatcher struct {
	notifier Notifier
	log      *slog.Logger
	timeout  time.Duration

	mu      sync.Mutex
	queue   chan Event
	closed  bool
	started bool
	done    chan struct{}
}

// NewDispatcher builds a dispatcher with room for size pending events.
func NewDispatcher(n Notifier, size int, logger *slog.Logger) *Dispatcher {
	if size <= 0 {
		size = 100
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		notifier: n,
		log:      logger,
		timeout:  15 * time.Second,
		queue:    make(chan Event, size),
		done:     make(chan struct{}),
	}
}

// Start launches the worker. Calling it more than once has no effect.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.closed {
		return
	}
	d.started = true
	go d.run()
}

// Publish enqueues e without blocking. The event is dropped when the queue is
// full or the dispatcher is stopped.
func (d *Dispatcher) Publish(e Event) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		d.log.Warn("notification dropped, dispatcher stopped", "event_id", e.ID, "ticket_id", e.TicketID)
		metrics.IncNotifications("dropped")
		return
	}
	select {
	case d.queue <- e:
	default:
		d.log.Warn("notification dropped, queue full", "event_id", e.ID, "ticket_id", e.TicketID)
		metrics.IncNotifications("dropped")
	}
}

// Stop closes the queue and waits for pending events until ctx expires.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	started := d.started
	d.mu.Unlock()

	if !started {
		return nil
	}
	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for e := range d.queue {
		d.deliver(e)
	}
}

func (d *Dispatcher) deliver(e Event) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	defer func() {
		if p := recover(); p != nil {
			d.log.Error("notifier panicked", "event_id", e.ID, "panic", p)
			metrics.IncNotifications("failed")
		}
	}()

	if err := d.notifier.Notify(ctx, e); err != nil {
		wrapped := errs.Wrap(errs.NotificationDispatch, "notification not delivered", err)
		d.log.Warn("notification failed",
			"event_id", e.ID,
			"kind", e.Kind,
			"ticket_id", e.TicketID,
			"error", wrapped)
		metrics.IncNotifications("failed")
		return
	}
	metrics.IncNotifications("sent")
}
