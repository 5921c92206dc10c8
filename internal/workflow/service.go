// Package workflow implements the maintenance ticket lifecycle and the asset
// operations it depends on. Every multi-statement step runs in one
// transaction; notifications are published only after commit.
package workflow

import (
	"context"
	"log/slog"
	"time"

	"github.com/crucial707/itam/internal/assetcode"
	"github.com/crucial707/itam/internal/db"
	"github.com/crucial707/itam/internal/notify"
)

// Store is the persistence the service needs. *db.Gateway implements it.
type Store interface {
	db.Querier
	WithTx(ctx context.Context, fn func(q db.Querier) error) error
}

// Publisher receives events after a successful commit. It must not block.
type Publisher interface {
	Publish(e notify.Event)
}

// Options configures a Service. The zero value is permissive, uses the wall
// clock and the default logger.
type Options struct {
	// Strict makes Edit reject status changes that skip or reverse the
	// pending -> in_progress -> completed order.
	Strict bool
	Now    func() time.Time
	Logger *slog.Logger
}

type Service struct {
	store  Store
	codes  *assetcode.Generator
	events Publisher
	strict bool
	now    func() time.Time
	log    *slog.Logger
}

// NewService wires the engine. events may be nil, in which case nothing is
// published.
func NewService(store Store, codes *assetcode.Generator, events Publisher, opts Options) *Service {
	if codes == nil {
		codes = assetcode.NewGenerator()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		codes:  codes,
		events: events,
		strict: opts.Strict,
		now:    func() time.Time { return now().UTC() },
		log:    logger,
	}
}

func (s *Service) publish(e notify.Event) {
	if s.events == nil {
		return
	}
	s.events.Publish(e)
}
