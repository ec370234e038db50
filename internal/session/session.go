// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package session owns everything a run needs to answer questions against one
// database: the connection handle, the schema description built at startup, the
// guardrail rewriter and the executor. A Session is created once and passed
// explicitly; its schema never changes after Open returns.
package session

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"sqlagent/cli/internal/agent"
	"sqlagent/cli/internal/catalog"
	apperrors "sqlagent/cli/internal/errors"
	"sqlagent/cli/internal/guardrail"
	"sqlagent/cli/internal/logging"
	"sqlagent/cli/internal/sqlexec"
)

// ToolName is the name the model uses to call the query tool.
const ToolName = "sql_engine"

// PingTimeout bounds the initial connectivity check in Connect.
const PingTimeout = 10 * time.Second

// Session is the per-run database context.
type Session struct {
	db       *sql.DB
	closers  []func()
	database string
	excluded []string
	schema   catalog.Description
	rewriter *guardrail.Rewriter
	exec     *sqlexec.Executor
	logger   *slog.Logger
}

// Connect opens a pgx pool for dsn, verifies it with a ping and then calls Open
// on a database/sql handle backed by the pool.
func Connect(ctx context.Context, dsn string, excluded []string, logger *slog.Logger) (*Session, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ConfigurationError, "invalid database connection string", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, PingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, apperrors.Wrap(apperrors.IntrospectionError, "connect to database", err)
	}

	db := stdlib.OpenDBFromPool(pool)
	s, err := Open(ctx, db, excluded, logger)
	if err != nil {
		_ = db.Close()
		pool.Close()
		return nil, err
	}
	s.closers = append(s.closers, func() { _ = db.Close() }, pool.Close)
	return s, nil
}

// Open introspects db once and returns a ready Session. Introspection failures
// are IntrospectionErrors and are not retried.
func Open(ctx context.Context, db *sql.DB, excluded []string, logger *slog.Logger) (*Session, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	if len(excluded) == 0 {
		return nil, apperrors.New(apperrors.IntrospectionError, "refusing to introspect without excluded namespaces")
	}

	var name string
	if err := db.QueryRowContext(ctx, "SELECT current_database()").Scan(&name); err != nil {
		return nil, apperrors.Wrap(apperrors.IntrospectionError, "read current database name", err)
	}

	start := time.Now()
	schema, err := catalog.Build(ctx, db, excluded)
	if err != nil {
		return nil, err
	}
	logger.Debug("schema introspected",
		slog.String("database", name),
		slog.Int("tables", schema.Len()),
		slog.Duration("took", time.Since(start)))

	return &Session{
		db:       db,
		database: name,
		excluded: append([]string(nil), excluded...),
		schema:   schema,
		rewriter: guardrail.NewRewriter(excluded),
		exec:     sqlexec.New(db, logger),
		logger:   logger,
	}, nil
}

// Close releases the database handle and pool opened by Connect. Sessions built
// with Open leave the caller's handle untouched.
func (s *Session) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// Database is the name of the connected database.
func (s *Session) Database() string { return s.database }

// Schema is the description built at Open.
func (s *Session) Schema() catalog.Description { return s.schema }

// Excluded returns the namespaces hidden from introspection and guarded queries.
func (s *Session) Excluded() []string { return append([]string(nil), s.excluded...) }

// Query applies the guardrail to query and executes the result. Database errors
// come back as a Failure result, never as a Go error.
func (s *Session) Query(ctx context.Context, query string) sqlexec.Result {
	d := s.rewriter.Apply(query)
	if d.Changed {
		s.logger.Debug("guardrail rewrote query",
			slog.String("rule", d.Rule.String()),
			slog.String("sql", d.Query))
	}
	return s.exec.Execute(ctx, d.Query)
}

// Tool exposes Query as the sql_engine tool.
func (s *Session) Tool() agent.Tool {
	return agent.Tool{
		Name:             ToolName,
		Description:      s.ToolDescription(),
		Param:            "query",
		ParamDescription: "The query to perform. This should be correct SQL.",
		Call: func(ctx context.Context, input string) string {
			return s.Query(ctx, input).Text
		},
	}
}

// ToolDescription tells the model what the tool does, which namespaces are off
// limits and what the schema looks like.
func (s *Session) ToolDescription() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Allows you to perform SQL queries on the PostgreSQL database named '%s'.\n", s.database)
	b.WriteString("Returns a string representation of the result.\n\n")
	fmt.Fprintf(&b, "Important: Only query user tables. DO NOT query internal PostgreSQL schemas (%s). ",
		strings.Join(s.excluded, ", "))
	b.WriteString("Queries that list schemas or tables through information_schema are filtered to hide them.\n\n")
	b.WriteString("The relevant database schema is as follows:\n")
	if s.schema.Len() == 0 {
		b.WriteString("(no user tables found)")
	} else {
		b.WriteString(s.schema.String())
	}
	return b.String()
}
