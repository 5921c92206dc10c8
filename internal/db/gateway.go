package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/crucial707/itam/internal/errs"
)

// Result is the backend-independent outcome of a statement.
type Result struct {
	Rows       []Row
	Affected   int64
	InsertedID *int64
}

// Querier executes statements written with '?' placeholders. Both the pool
// and an open transaction implement it.
type Querier interface {
	Execute(ctx context.Context, stmt string, args ...any) (Result, error)
	Dialect() Dialect
}

// QueryError annotates a backend failure with the backend and the statement.
type QueryError struct {
	Backend   string
	Statement string
	Err       error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s: %v (statement: %s)", e.Backend, e.Err, compact(e.Statement))
}

func (e *QueryError) Unwrap() error { return e.Err }

// runner is satisfied by both *sql.DB and *sql.Tx.
type runner interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// ========================
// GATEWAY
// ========================

// Gateway is the single entry point for queries. It owns the connection pool
// for the lifetime of the process.
type Gateway struct {
	db      *sql.DB
	dialect Dialect
	log     *slog.Logger
}

// New wraps an already opened pool. Open is the usual constructor.
func New(sqlDB *sql.DB, dialect Dialect, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{db: sqlDB, dialect: dialect, log: logger}
}

func (g *Gateway) Dialect() Dialect { return g.dialect }

// DB exposes the pool for health checks.
func (g *Gateway) DB() *sql.DB { return g.db }

func (g *Gateway) Ping(ctx context.Context) error { return g.db.PingContext(ctx) }

func (g *Gateway) Close() error { return g.db.Close() }

// Execute runs one statement outside any transaction.
func (g *Gateway) Execute(ctx context.Context, stmt string, args ...any) (Result, error) {
	return execute(ctx, g.db, g.dialect, g.log, stmt, args)
}

// WithTx runs fn inside a transaction. The transaction is rolled back when fn
// returns an error or panics, and committed otherwise.
func (g *Gateway) WithTx(ctx context.Context, fn func(q Querier) error) error {
	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return g.fail(err, "BEGIN")
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&txQuerier{tx: tx, dialect: g.dialect, log: g.log}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			g.log.Error("rollback failed",
				"backend", g.dialect.Name(),
				"error", err,
				"rollback_error", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return g.fail(err, "COMMIT")
	}
	return nil
}

func (g *Gateway) fail(err error, stmt string) error {
	return classify(g.dialect, g.log, err, stmt)
}

type txQuerier struct {
	tx      *sql.Tx
	dialect Dialect
	log     *slog.Logger
}

func (t *txQuerier) Execute(ctx context.Context, stmt string, args ...any) (Result, error) {
	return execute(ctx, t.tx, t.dialect, t.log, stmt, args)
}

func (t *txQuerier) Dialect() Dialect { return t.dialect }

// ========================
// EXECUTION
// ========================

type stmtKind int

const (
	kindRead stmtKind = iota
	kindWrite
	kindWriteReturning
)

var returningClause = regexp.MustCompile(`(?i)\bRETURNING\b`)

func kindOf(stmt string) stmtKind {
	fields := strings.Fields(stmt)
	if len(fields) == 0 {
		return kindWrite
	}
	switch strings.ToUpper(fields[0]) {
	case "SELECT", "WITH", "PRAGMA", "VALUES":
		return kindRead
	case "INSERT", "UPDATE", "DELETE":
		if returningClause.MatchString(stmt) {
			return kindWriteReturning
		}
	}
	return kindWrite
}

func execute(ctx context.Context, r runner, d Dialect, log *slog.Logger, stmt string, args []any) (Result, error) {
	query := d.Translate(stmt)
	kind := kindOf(stmt)

	if kind == kindWrite {
		res, err := r.ExecContext(ctx, query, args...)
		if err != nil {
			return Result{}, classify(d, log, err, stmt)
		}
		out := Result{}
		if n, err := res.RowsAffected(); err == nil {
			out.Affected = n
		}
		if isInsert(stmt) {
			out.InsertedID = d.ExtractInsertID(res)
		}
		return out, nil
	}

	rows, err := r.QueryContext(ctx, query, args...)
	if err != nil {
		return Result{}, classify(d, log, err, stmt)
	}
	list, err := scanRows(rows)
	if err != nil {
		return Result{}, classify(d, log, err, stmt)
	}

	out := Result{Rows: list}
	if kind == kindWriteReturning {
		out.Affected = int64(len(list))
		if len(list) > 0 {
			out.InsertedID = list[0].NullInt64("id")
		}
	}
	return out, nil
}

func scanRows(rows *sql.Rows) ([]Row, error) {
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var list []Row
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(Row, len(cols))
		for i, c := range cols {
			if b, ok := vals[i].([]byte); ok {
				row[c] = string(b)
				continue
			}
			row[c] = vals[i]
		}
		list = append(list, row)
	}
	return list, rows.Err()
}

// classify wraps err with the backend identity and statement and maps
// uniqueness failures to errs.Conflict. Nothing is retried.
func classify(d Dialect, log *slog.Logger, err error, stmt string) error {
	qe := &QueryError{Backend: d.Name(), Statement: stmt, Err: err}
	if d.IsUniqueViolation(err) {
		log.Warn("unique constraint violated", "backend", d.Name(), "statement", compact(stmt), "error", err)
		return errs.Wrap(errs.Conflict, "unique constraint violated", qe)
	}
	// DDL failures such as "column already exists" are often expected; the
	// caller decides how loud to be.
	level := slog.LevelError
	if isDDL(stmt) {
		level = slog.LevelDebug
	}
	log.Log(context.Background(), level, "query failed", "backend", d.Name(), "statement", compact(stmt), "error", err)
	return errs.Wrap(errs.Persistence, "database query failed", qe)
}

func isDDL(stmt string) bool {
	fields := strings.Fields(stmt)
	if len(fields) == 0 {
		return false
	}
	switch strings.ToUpper(fields[0]) {
	case "CREATE", "ALTER", "DROP":
		return true
	}
	return false
}

func isInsert(stmt string) bool {
	fields := strings.Fields(stmt)
	return len(fields) > 0 && strings.EqualFold(fields[0], "INSERT")
}

func compact(stmt string) string {
	return strings.Join(strings.Fields(stmt), " ")
}
