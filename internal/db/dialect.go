package db

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Dialect hides the differences between the supported relational backends.
// Callers always write statements with '?' placeholders.
type Dialect interface {
	// Name is the backend identity used in logs and wrapped errors.
	Name() string
	// DriverName is the database/sql driver to open.
	DriverName() string
	// Translate rewrites '?' placeholders into the backend's native style.
	Translate(stmt string) string
	// ExtractInsertID reads the generated key of a plain INSERT, or nil when
	// the driver cannot report one (use RETURNING id instead).
	ExtractInsertID(res sql.Result) *int64
	IsUniqueViolation(err error) bool
	IsDuplicateColumn(err error) bool
	IsDuplicateTable(err error) bool
	// AutoIncrementPK is the column definition of a surrogate integer key.
	AutoIncrementPK() string
	ColumnExists(ctx context.Context, q Querier, table, column string) (bool, error)
}

// ==========================
// PostgreSQL
// ==========================

// Postgres is the networked dialect, backed by lib/pq.
type Postgres struct{}

func (Postgres) Name() string       { return "postgres" }
func (Postgres) DriverName() string { return "postgres" }

// Translate numbers placeholders as $1, $2, ... Question marks inside quoted
// literals or identifiers are left alone.
func (Postgres) Translate(stmt string) string {
	var b strings.Builder
	b.Grow(len(stmt) + 8)
	n := 0
	var quote rune
	for _, ch := range stmt {
		switch {
		case quote != 0:
			if ch == quote {
				quote = 0
			}
			b.WriteRune(ch)
		case ch == '\'' || ch == '"':
			quote = ch
			b.WriteRune(ch)
		case ch == '?':
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteRune(ch)
		}
	}
	return b.String()
}

// ExtractInsertID always returns nil: lib/pq does not implement LastInsertId.
func (Postgres) ExtractInsertID(sql.Result) *int64 { return nil }

func (Postgres) IsUniqueViolation(err error) bool { return pqCode(err) == "23505" }
func (Postgres) IsDuplicateColumn(err error) bool { return pqCode(err) == "42701" }
func (Postgres) IsDuplicateTable(err error) bool  { return pqCode(err) == "42P07" }

func (Postgres) AutoIncrementPK() string { return "SERIAL PRIMARY KEY" }

func (Postgres) ColumnExists(ctx context.Context, q Querier, table, column string) (bool, error) {
	res, err := q.Execute(ctx,
		`SELECT 1 AS present FROM information_schema.columns
		 WHERE table_schema = current_schema() AND table_name = ? AND column_name = ?`,
		table, column,
	)
	if err != nil {
		return false, err
	}
	return len(res.Rows) > 0, nil
}

func pqCode(err error) pq.ErrorCode {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code
	}
	return ""
}

// ==========================
// SQLite
// ==========================

// SQLite is the embedded-file dialect, backed by the pure Go modernc driver.
type SQLite struct{}

func (SQLite) Name() string       { return "sqlite" }
func (SQLite) DriverName() string { return "sqlite" }

// Translate is the identity: SQLite understands '?' natively.
func (SQLite) Translate(stmt string) string { return stmt }

func (SQLite) ExtractInsertID(res sql.Result) *int64 {
	id, err := res.LastInsertId()
	if err != nil || id <= 0 {
		return nil
	}
	return &id
}

func (SQLite) IsUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// IsDuplicateColumn matches on the message: SQLite reports a duplicate column
// as a generic SQLITE_ERROR.
func (SQLite) IsDuplicateColumn(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "duplicate column name")
}

func (SQLite) IsDuplicateTable(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "already exists")
}

func (SQLite) AutoIncrementPK() string { return "INTEGER PRIMARY KEY AUTOINCREMENT" }

func (SQLite) ColumnExists(ctx context.Context, q Querier, table, column string) (bool, error) {
	res, err := q.Execute(ctx, `SELECT name FROM pragma_table_info(?) WHERE name = ?`, table, column)
	if err != nil {
		return false, err
	}
	return len(res.Rows) > 0, nil
}
