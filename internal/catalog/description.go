// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package catalog

import (
	"fmt"
	"strings"
)

// Column is a single column with its declared type as reported by the database.
type Column struct {
	Name string
	Type string
}

// Table is a user-visible table and its columns in ordinal order.
type Table struct {
	Namespace string
	Name      string
	Columns   []Column
}

// QualifiedName returns "namespace.table".
func (t Table) QualifiedName() string {
	return t.Namespace + "." + t.Name
}

// Description is the introspected schema. It is built once by Build and never
// mutated afterwards, so it can be shared across query executions without locking.
type Description struct {
	tables []Table
}

// NewDescription copies tables into a Description.
func NewDescription(tables []Table) Description {
	out := make([]Table, len(tables))
	for i, t := range tables {
		cols := make([]Column, len(t.Columns))
		copy(cols, t.Columns)
		out[i] = Table{Namespace: t.Namespace, Name: t.Name, Columns: cols}
	}
	return Description{tables: out}
}

// Tables returns a copy of the tables in namespace-then-table order.
func (d Description) Tables() []Table {
	return NewDescription(d.tables).tables
}

// Len returns the number of tables.
func (d Description) Len() int { return len(d.tables) }

// String renders the description as one block per table, blocks separated by a blank line:
//
//	Table 'public.orders':
//	Columns:
//	  - id: integer
//	  - total: numeric
func (d Description) String() string {
	blocks := make([]string, 0, len(d.tables))
	for _, t := range d.tables {
		blocks = append(blocks, renderTable(t))
	}
	return strings.Join(blocks, "\n\n")
}

func renderTable(t Table) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Table '%s':\nColumns:", t.QualifiedName())
	for _, c := range t.Columns {
		fmt.Fprintf(&b, "\n  - %s: %s", c.Name, c.Type)
	}
	return b.String()
}
