// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package catalog introspects a PostgreSQL database once at startup and renders a
// textual schema description for the agent's tool contract. Engine-internal
// namespaces are excluded; the list of excluded namespaces must never be empty.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"slices"

	apperrors "sqlagent/cli/internal/errors"
)

// DefaultExcluded lists the PostgreSQL namespaces hidden from introspection and queries.
var DefaultExcluded = []string{"information_schema", "pg_catalog", "pg_toast"}

// Querier is the subset of *sql.DB, *sql.Conn and *sql.Tx used for introspection.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

const (
	namespacesQuery = `SELECT schema_name FROM information_schema.schemata ORDER BY schema_name`

	tablesQuery = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		ORDER BY table_name`

	columnsQuery = `
		SELECT a.attname, pg_catalog.format_type(a.atttypid, a.atttypmod)
		FROM pg_catalog.pg_attribute a
		JOIN pg_catalog.pg_class c ON c.oid = a.attrelid
		JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
		WHERE n.nspname = $1 AND c.relname = $2 AND a.attnum > 0 AND NOT a.attisdropped
		ORDER BY a.attnum`
)

// Build enumerates every namespace not in excluded, its base tables and their columns,
// and returns the resulting Description. Any failure is an IntrospectionError.
func Build(ctx context.Context, q Querier, excluded []string) (Description, error) {
	if len(excluded) == 0 {
		return Description{}, apperrors.New(apperrors.IntrospectionError,
			"refusing to introspect without excluded namespaces")
	}

	namespaces, err := listStrings(ctx, q, namespacesQuery)
	if err != nil {
		return Description{}, apperrors.Wrap(apperrors.IntrospectionError, "list namespaces", err)
	}

	var tables []Table
	for _, ns := range namespaces {
		if slices.Contains(excluded, ns) {
			continue
		}
		names, err := listStrings(ctx, q, tablesQuery, ns)
		if err != nil {
			return Description{}, apperrors.Wrap(apperrors.IntrospectionError,
				fmt.Sprintf("list tables in %q", ns), err)
		}
		for _, name := range names {
			cols, err := loadColumns(ctx, q, ns, name)
			if err != nil {
				return Description{}, apperrors.Wrap(apperrors.IntrospectionError,
					fmt.Sprintf("list columns of %s.%s", ns, name), err)
			}
			tables = append(tables, Table{Namespace: ns, Name: name, Columns: cols})
		}
	}

	return Description{tables: tables}, nil
}

// listStrings runs a single-column query and collects the values.
func listStrings(ctx context.Context, q Querier, query string, args ...any) ([]string, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// loadColumns queries column names and declared types in ordinal order.
func loadColumns(ctx context.Context, q Querier, schema, table string) ([]Column, error) {
	rows, err := q.QueryContext(ctx, columnsQuery, schema, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []Column
	for rows.Next() {
		var c Column
		if err := rows.Scan(&c.Name, &c.Type); err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	return cols, rows.Err()
}
