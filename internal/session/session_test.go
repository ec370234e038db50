// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package session

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"sqlagent/cli/internal/catalog"
	apperrors "sqlagent/cli/internal/errors"
	"sqlagent/cli/internal/sqlexec"
)

func newSQLMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func assertSQLMock(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sql expectations: %v", err)
	}
}

// expectIntrospection queues the queries Open issues for a database with a
// single public.orders table.
func expectIntrospection(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(`SELECT current_database\(\)`).
		WillReturnRows(sqlmock.NewRows([]string{"current_database"}).AddRow("practice"))
	mock.ExpectQuery(`FROM information_schema\.schemata`).
		WillReturnRows(sqlmock.NewRows([]string{"schema_name"}).
			AddRow("information_schema").
			AddRow("pg_catalog").
			AddRow("pg_toast").
			AddRow("public"))
	mock.ExpectQuery(`FROM information_schema\.tables`).
		WithArgs("public").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("orders"))
	mock.ExpectQuery(`pg_catalog\.format_type`).
		WithArgs("public", "orders").
		WillReturnRows(sqlmock.NewRows([]string{"attname", "format_type"}).
			AddRow("id", "integer").
			AddRow("total", "numeric"))
}

func openSession(t *testing.T) (*Session, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := newSQLMock(t)
	expectIntrospection(mock)
	s, err := Open(context.Background(), db, catalog.DefaultExcluded, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return s, mock
}

func TestOpenBuildsSchemaOnce(t *testing.T) {
	s, mock := openSession(t)
	assertSQLMock(t, mock)

	if s.Database() != "practice" {
		t.Errorf("Database() = %q", s.Database())
	}
	if s.Schema().Len() != 1 {
		t.Fatalf("Schema().Len() = %d, want 1", s.Schema().Len())
	}
	// Reading the schema again issues no queries.
	_ = s.Schema().String()
	_ = s.ToolDescription()
	assertSQLMock(t, mock)
}

func TestOpenIntrospectionFailure(t *testing.T) {
	db, mock := newSQLMock(t)
	mock.ExpectQuery(`SELECT current_database\(\)`).
		WillReturnRows(sqlmock.NewRows([]string{"current_database"}).AddRow("practice"))
	mock.ExpectQuery(`FROM information_schema\.schemata`).WillReturnError(errors.New("permission denied"))

	_, err := Open(context.Background(), db, catalog.DefaultExcluded, nil)
	if !apperrors.Is(err, apperrors.IntrospectionError) {
		t.Fatalf("expected IntrospectionError, got %v", err)
	}
	assertSQLMock(t, mock)
}

func TestOpenRequiresExclusions(t *testing.T) {
	db, mock := newSQLMock(t)
	_, err := Open(context.Background(), db, nil, nil)
	if !apperrors.Is(err, apperrors.IntrospectionError) {
		t.Fatalf("expected IntrospectionError, got %v", err)
	}
	assertSQLMock(t, mock)
}

func TestToolDescription(t *testing.T) {
	s, _ := openSession(t)
	desc := s.ToolDescription()

	for _, want := range []string{
		"database named 'practice'",
		"information_schema, pg_catalog, pg_toast",
		"Table 'public.orders':\nColumns:\n  - id: integer\n  - total: numeric",
	} {
		if !strings.Contains(desc, want) {
			t.Errorf("tool description missing %q:\n%s", want, desc)
		}
	}

	tool := s.Tool()
	if tool.Name != "sql_engine" || tool.Param != "query" {
		t.Errorf("tool = %s(%s), want sql_engine(query)", tool.Name, tool.Param)
	}
	if tool.Description != desc {
		t.Error("tool description should match ToolDescription()")
	}
}

func TestQueryRewritesTableListing(t *testing.T) {
	s, mock := openSession(t)

	guarded := "SELECT table_name FROM information_schema.tables WHERE " +
		"table_schema != 'information_schema' AND table_schema != 'pg_catalog' AND table_schema != 'pg_toast';"
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(guarded)).
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("orders"))
	mock.ExpectCommit()

	res := s.Query(context.Background(), "SELECT table_name FROM information_schema.tables;")
	if res.Outcome != sqlexec.Success {
		t.Fatalf("Outcome = %v (%s)", res.Outcome, res.Text)
	}
	if res.Text != "('orders')" {
		t.Errorf("Text = %q", res.Text)
	}
	assertSQLMock(t, mock)
}

func TestQueryRewritesSchemaListing(t *testing.T) {
	s, mock := openSession(t)

	canonical := "SELECT schema_name FROM information_schema.schemata " +
		"WHERE schema_name NOT IN ('information_schema', 'pg_catalog', 'pg_toast');"
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(canonical)).
		WillReturnRows(sqlmock.NewRows([]string{"schema_name"}).AddRow("public"))
	mock.ExpectCommit()

	res := s.Tool().Call(context.Background(), "SELECT * FROM information_schema.schemata ORDER BY schema_name")
	if res != "('public')" {
		t.Errorf("tool output = %q", res)
	}
	assertSQLMock(t, mock)
}

func TestQueryFailureIsContained(t *testing.T) {
	s, mock := openSession(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM missing")).
		WillReturnError(errors.New(`relation "missing" does not exist`))
	mock.ExpectRollback()

	out := s.Tool().Call(context.Background(), "SELECT * FROM missing")
	if out != `Error executing query: relation "missing" does not exist` {
		t.Errorf("tool output = %q", out)
	}
	assertSQLMock(t, mock)
}

func TestQueryPassesOtherStatementsThrough(t *testing.T) {
	s, mock := openSession(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM public.orders WHERE total > 100")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}))
	mock.ExpectCommit()

	res := s.Query(context.Background(), "SELECT count(*) FROM public.orders WHERE total > 100")
	if res.Outcome != sqlexec.EmptySuccess || res.Text != sqlexec.EmptyMessage {
		t.Errorf("result = %+v", res)
	}
	assertSQLMock(t, mock)
}

func TestExcludedIsCopied(t *testing.T) {
	s, _ := openSession(t)
	ex := s.Excluded()
	ex[0] = "changed"
	if s.Excluded()[0] != "information_schema" {
		t.Error("Excluded() must return a copy")
	}
}
