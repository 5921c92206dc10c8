package db

import (
	"context"
	"log/slog"
	"time"

	"github.com/crucial707/itam/internal/errs"
	"github.com/crucial707/itam/internal/metrics"
)

// Report lists what a Converge run did, by step name.
type Report struct {
	Applied []string
	Skipped []string
	Failed  []string
}

// Migrator brings the live schema to the expected shape. It is best effort:
// failures are logged and startup continues.
type Migrator struct {
	gw  *Gateway
	log *slog.Logger
	now func() time.Time
}

func NewMigrator(gw *Gateway, logger *slog.Logger) *Migrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Migrator{gw: gw, log: logger, now: time.Now}
}

// Converge adds every catalog column missing from the live schema and records
// it in schema_migrations. It never returns an error; running it again on a
// converged schema changes nothing.
func (m *Migrator) Converge(ctx context.Context) Report {
	d := m.gw.Dialect()
	var rep Report

	m.log.Info("converging schema", "backend", d.Name())

	history := m.loadHistory(ctx)

	for _, stmt := range baseTables(d) {
		if _, err := m.gw.Execute(ctx, stmt); err != nil && !d.IsDuplicateTable(err) {
			m.log.Warn("create table failed", "backend", d.Name(), "error", err)
		}
	}

	for _, step := range columnCatalog {
		name := step.Name()
		switch m.applyColumn(ctx, step, history) {
		case outcomeApplied:
			rep.Applied = append(rep.Applied, name)
		case outcomeSkipped:
			rep.Skipped = append(rep.Skipped, name)
		default:
			rep.Failed = append(rep.Failed, name)
		}
	}

	for _, stmt := range indexes {
		if _, err := m.gw.Execute(ctx, stmt); err != nil && !d.IsDuplicateTable(err) {
			m.log.Warn("create index failed", "backend", d.Name(), "error", err)
		}
	}

	m.log.Info("schema convergence completed",
		"backend", d.Name(),
		"applied", len(rep.Applied),
		"skipped", len(rep.Skipped),
		"failed", len(rep.Failed))
	return rep
}

type outcome int

const (
	outcomeApplied outcome = iota
	outcomeSkipped
	outcomeFailed
)

func (m *Migrator) applyColumn(ctx context.Context, step ColumnStep, history map[string]bool) outcome {
	d := m.gw.Dialect()
	name := step.Name()

	// The live schema wins over history: a column dropped by hand is added
	// back even though its step was recorded.
	exists, err := d.ColumnExists(ctx, m.gw, step.Table, step.Column)
	if err != nil {
		m.log.Warn("column lookup failed", "step", name, "error", err)
		if history[name] {
			metrics.IncMigrationSteps("skipped")
			return outcomeSkipped
		}
	}
	if exists {
		if !history[name] {
			m.record(ctx, name)
		}
		metrics.IncMigrationSteps("skipped")
		return outcomeSkipped
	}
	if history[name] {
		m.log.Warn("recorded column is missing, adding it again", "table", step.Table, "column", step.Column)
	}

	// Table and column names come from the fixed catalog, never from input.
	stmt := "ALTER TABLE " + step.Table + " ADD COLUMN " + step.Column + " " + step.Definition
	if _, err := m.gw.Execute(ctx, stmt); err != nil {
		if d.IsDuplicateColumn(err) {
			if !history[name] {
				m.record(ctx, name)
			}
			metrics.IncMigrationSteps("skipped")
			return outcomeSkipped
		}
		m.log.Warn("migration step failed", "step", name, "error", err)
		metrics.IncMigrationSteps("failed")
		return outcomeFailed
	}

	m.log.Info("column added", "table", step.Table, "column", step.Column)
	if !history[name] {
		m.record(ctx, name)
	}
	metrics.IncMigrationSteps("applied")
	return outcomeApplied
}

func (m *Migrator) loadHistory(ctx context.Context) map[string]bool {
	history := make(map[string]bool)

	if _, err := m.gw.Execute(ctx,
		`CREATE TABLE IF NOT EXISTS schema_migrations (name TEXT PRIMARY KEY, applied_at TIMESTAMP)`,
	); err != nil {
		m.log.Warn("migration history unavailable", "error", err)
		return history
	}

	res, err := m.gw.Execute(ctx, `SELECT name FROM schema_migrations`)
	if err != nil {
		m.log.Warn("read migration history failed", "error", err)
		return history
	}
	for _, row := range res.Rows {
		history[row.String("name")] = true
	}
	return history
}

func (m *Migrator) record(ctx context.Context, name string) {
	_, err := m.gw.Execute(ctx,
		`INSERT INTO schema_migrations (name, applied_at) VALUES (?, ?)`,
		name, m.now().UTC(),
	)
	// Another process may have recorded the same step first.
	if err != nil && !errs.Is(err, errs.Conflict) {
		m.log.Warn("record migration step failed", "step", name, "error", err)
	}
}
