// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package sqlexec runs agent-issued SQL against PostgreSQL and renders the outcome as text.
//
// Every call acquires its own connection from the pool, wraps the statement in a
// transaction and releases the connection on all exit paths. Database errors never
// escape Execute: they are folded into a Failure result so the agent receives a
// string it can reason about instead of a halted run.
package sqlexec

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
)

// Outcome tags a Result.
type Outcome int

const (
	// Success means the query produced at least one row.
	Success Outcome = iota
	// EmptySuccess means the query ran but produced no rows.
	EmptySuccess
	// Failure means the database rejected the query or the connection failed.
	Failure
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case EmptySuccess:
		return "empty"
	case Failure:
		return "failure"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// EmptyMessage is the text of an EmptySuccess result.
const EmptyMessage = "Query executed successfully, but returned no results."

// FailurePrefix starts the text of every Failure result.
const FailurePrefix = "Error executing query: "

// Result is the rendered outcome of one query. It is not persisted.
type Result struct {
	Outcome Outcome
	// Text is the rendered rows for Success, EmptyMessage for EmptySuccess and
	// "Error executing query: ..." for Failure. It is never empty.
	Text string
	// Rows is the number of rendered rows.
	Rows int
}

func (r Result) String() string { return r.Text }

// Classify recovers the Outcome from a Result's text.
func Classify(text string) Outcome {
	switch {
	case strings.HasPrefix(text, FailurePrefix):
		return Failure
	case text == EmptyMessage:
		return EmptySuccess
	}
	return Success
}

func failure(err error) Result {
	msg := strings.TrimSpace(err.Error())
	if msg == "" {
		msg = "unknown database error"
	}
	return Result{Outcome: Failure, Text: FailurePrefix + msg}
}

// Executor executes SQL statements using a connection pool.
type Executor struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates an Executor over db. A nil logger discards debug output.
func New(db *sql.DB, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Executor{db: db, logger: logger}
}

// Execute runs query on a scoped connection and returns its rendered Result.
// The statement is committed when it succeeds and rolled back otherwise.
func (e *Executor) Execute(ctx context.Context, query string) Result {
	e.logger.Debug("executing query", slog.String("sql", preview(query)))

	res, err := e.execute(ctx, query)
	if err != nil {
		e.logger.Debug("query failed", slog.String("error", err.Error()))
		return failure(err)
	}
	e.logger.Debug("query finished", slog.String("outcome", res.Outcome.String()), slog.Int("rows", res.Rows))
	return res
}

func (e *Executor) execute(ctx context.Context, query string) (Result, error) {
	conn, err := e.db.Conn(ctx)
	if err != nil {
		return Result{}, err
	}
	defer conn.Close()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return Result{}, err
	}
	// Rollback if commit doesn't happen
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, query)
	if err != nil {
		return Result{}, err
	}
	lines, err := renderRows(rows)
	if err != nil {
		return Result{}, err
	}

	if err := tx.Commit(); err != nil {
		return Result{}, fmt.Errorf("commit failed: %w", err)
	}

	if len(lines) == 0 {
		return Result{Outcome: EmptySuccess, Text: EmptyMessage}, nil
	}
	return Result{Outcome: Success, Text: strings.Join(lines, "\n"), Rows: len(lines)}, nil
}

// renderRows drains rows into one rendered line per row and closes it.
func renderRows(rows *sql.Rows) ([]string, error) {
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var lines []string
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		lines = append(lines, FormatRow(vals))
	}
	return lines, rows.Err()
}

// preview shortens SQL for debug logs.
func preview(sql string) string {
	sql = strings.Join(strings.Fields(sql), " ")
	if len(sql) > 100 {
		return sql[:100] + "..."
	}
	return sql
}
