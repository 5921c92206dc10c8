//go:build integration

package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/crucial707/itam/internal/errs"
)

// setupPostgres starts a throwaway PostgreSQL container, or uses TEST_DB_DSN
// when it is set.
func setupPostgres(t *testing.T) *Gateway {
	t.Helper()
	ctx := context.Background()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		req := testcontainers.ContainerRequest{
			Image: "postgres:15",
			Env: map[string]string{
				"POSTGRES_PASSWORD": "test",
				"POSTGRES_USER":     "test",
				"POSTGRES_DB":       "itam",
			},
			ExposedPorts: []string{"5432/tcp"},
			WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
		}
		pg, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: req,
			Started:          true,
		})
		if err != nil {
			t.Fatalf("start postgres container: %v", err)
		}
		t.Cleanup(func() { _ = pg.Terminate(ctx) })

		host, err := pg.Host(ctx)
		if err != nil {
			t.Fatalf("container host: %v", err)
		}
		port, err := pg.MappedPort(ctx, "5432")
		if err != nil {
			t.Fatalf("container port: %v", err)
		}
		dsn = fmt.Sprintf("postgres://test:test@%s:%s/itam?sslmode=disable", host, port.Port())
	}

	// retry db connect
	var sqlDB *sql.DB
	var err error
	for i := 0; i < 10; i++ {
		sqlDB, err = sql.Open("postgres", dsn)
		if err == nil {
			if err = sqlDB.PingContext(ctx); err == nil {
				break
			}
		}
		time.Sleep(time.Second)
	}
	if err != nil {
		t.Fatalf("connect postgres: %v", err)
	}

	gw := New(sqlDB, Postgres{}, discardLogger())
	t.Cleanup(func() { gw.Close() })
	return gw
}

func TestIntegration_PostgresConverge(t *testing.T) {
	gw := setupPostgres(t)
	ctx := context.Background()
	m := NewMigrator(gw, discardLogger())

	if first := m.Converge(ctx); len(first.Failed) != 0 {
		t.Fatalf("first converge failed steps: %v", first.Failed)
	}

	second := m.Converge(ctx)
	if len(second.Applied) != 0 || len(second.Failed) != 0 {
		t.Errorf("second converge should only skip: %+v", second)
	}
	if len(second.Skipped) != len(columnCatalog) {
		t.Errorf("skipped: got %d, want %d", len(second.Skipped), len(columnCatalog))
	}

	for _, step := range columnCatalog {
		ok, err := gw.Dialect().ColumnExists(ctx, gw, step.Table, step.Column)
		if err != nil {
			t.Fatalf("ColumnExists(%s.%s): %v", step.Table, step.Column, err)
		}
		if !ok {
			t.Errorf("column %s.%s missing after converge", step.Table, step.Column)
		}
	}
}

func TestIntegration_PostgresInsertShape(t *testing.T) {
	gw := setupPostgres(t)
	ctx := context.Background()
	NewMigrator(gw, discardLogger()).Converge(ctx)

	res, err := gw.Execute(ctx,
		`INSERT INTO assets (asset_code, name, type) VALUES (?, ?, ?) RETURNING id`,
		"SV-2025-001", "rack server", "Server")
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if res.InsertedID == nil {
		t.Fatal("RETURNING id not reported")
	}
	if res.Affected != 1 {
		t.Errorf("affected: got %d, want 1", res.Affected)
	}

	_, err = gw.Execute(ctx,
		`INSERT INTO assets (asset_code, name, type) VALUES (?, ?, ?) RETURNING id`,
		"SV-2025-001", "duplicate", "Server")
	if !errs.Is(err, errs.Conflict) {
		t.Errorf("duplicate code: got %v, want Conflict", err)
	}

	err = gw.WithTx(ctx, func(q Querier) error {
		if _, err := q.Execute(ctx, `UPDATE assets SET status = ? WHERE id = ?`, "repair", *res.InsertedID); err != nil {
			return err
		}
		return errs.New(errs.Validation, "abort")
	})
	if err == nil {
		t.Fatal("WithTx should return fn's error")
	}

	got, err := gw.Execute(ctx, `SELECT status FROM assets WHERE id = ?`, *res.InsertedID)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(got.Rows) != 1 {
		t.Fatalf("rows: got %d, want 1", len(got.Rows))
	}
	if s := got.Rows[0].String("status"); s != "available" {
		t.Errorf("status after rollback: got %q, want available", s)
	}
}
