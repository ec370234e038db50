// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package guardrail rewrites agent-generated SQL so that the two common
// metadata-probing shapes (listing namespaces and listing tables through
// information_schema) never expose engine-internal namespaces.
//
// It is a pattern matcher, not a parser. Queries that match neither shape pass
// through unchanged; namespace-level access control for ordinary data queries is
// left to the database.
package guardrail

import (
	"regexp"
	"strings"
	"unicode"
)

// Rule identifies which rewrite, if any, was applied to a query.
type Rule int

const (
	// RuleNone means the query passed through unmodified.
	RuleNone Rule = iota
	// RuleSchemaListing means the query was replaced by the canonical namespace listing.
	RuleSchemaListing
	// RuleTableListing means namespace exclusion conjuncts were added to a table listing.
	RuleTableListing
)

func (r Rule) String() string {
	switch r {
	case RuleSchemaListing:
		return "schema_listing"
	case RuleTableListing:
		return "table_listing"
	default:
		return "none"
	}
}

// Decision is the outcome of applying the guardrail to one query.
type Decision struct {
	Query string
	Rule  Rule
	// Changed is false when the query text is returned as-is, including the case
	// where a guarded shape already carries the exclusion filter.
	Changed bool
}

var (
	reSchemata   = regexp.MustCompile(`(?i)\binformation_schema\s*\.\s*schemata\b`)
	reSchemaName = regexp.MustCompile(`(?i)\bschema_name\b`)
	reTables     = regexp.MustCompile(`(?i)\binformation_schema\s*\.\s*tables\b`)
	reWhere      = regexp.MustCompile(`(?i)\bWHERE\b`)
	reTrailing   = regexp.MustCompile(`(?i)\b(GROUP\s+BY|ORDER\s+BY|LIMIT|OFFSET|FETCH)\b`)
)

// Rewriter applies the guardrail for a fixed set of excluded namespaces.
type Rewriter struct {
	excluded []string
	listing  string
	filter   string
}

// NewRewriter builds a Rewriter. With no excluded namespaces every query passes through.
func NewRewriter(excluded []string) *Rewriter {
	r := &Rewriter{excluded: append([]string(nil), excluded...)}
	if len(r.excluded) == 0 {
		return r
	}

	quoted := make([]string, len(r.excluded))
	conds := make([]string, len(r.excluded))
	for i, ns := range r.excluded {
		quoted[i] = quote(ns)
		conds[i] = "table_schema != " + quoted[i]
	}
	r.listing = "SELECT schema_name FROM information_schema.schemata WHERE schema_name NOT IN (" +
		strings.Join(quoted, ", ") + ");"
	r.filter = strings.Join(conds, " AND ")
	return r
}

// Rewrite is a convenience wrapper around NewRewriter(excluded).Apply(query).Query.
func Rewrite(query string, excluded []string) string {
	return NewRewriter(excluded).Apply(query).Query
}

// Apply inspects query and rewrites it when it matches a guarded shape.
func (r *Rewriter) Apply(query string) Decision {
	if len(r.excluded) == 0 {
		return Decision{Query: query}
	}

	if reSchemata.MatchString(query) && reSchemaName.MatchString(query) {
		return Decision{Query: r.listing, Rule: RuleSchemaListing, Changed: query != r.listing}
	}

	loc := reTables.FindStringIndex(query)
	if loc == nil {
		return Decision{Query: query}
	}
	out := r.filterTables(query, loc[1])
	return Decision{Query: out, Rule: RuleTableListing, Changed: out != query}
}

// filterTables adds the exclusion conjuncts to a table listing. tablesEnd is the
// offset just past the information_schema.tables reference; WHERE, trailing
// clauses and the terminator are only looked for after it, so text in the
// projection (including string literals) is never mistaken for them.
func (r *Rewriter) filterTables(query string, tablesEnd int) string {
	tail := query[tablesEnd:]

	if w := reWhere.FindStringIndex(tail); w != nil {
		at := tablesEnd + w[1]
		rest := query[at:]
		if strings.HasPrefix(strings.TrimLeftFunc(rest, unicode.IsSpace), r.filter) {
			return query
		}
		sep := ""
		if rest == "" || !unicode.IsSpace(rune(rest[0])) {
			sep = " "
		}
		return query[:at] + " " + r.filter + " AND" + sep + rest
	}

	if m := reTrailing.FindStringIndex(tail); m != nil {
		at := tablesEnd + m[0]
		return strings.TrimRightFunc(query[:at], unicode.IsSpace) + " WHERE " + r.filter + " " + query[at:]
	}

	if i := strings.LastIndex(tail, ";"); i >= 0 {
		at := tablesEnd + i
		return strings.TrimRightFunc(query[:at], unicode.IsSpace) + " WHERE " + r.filter + query[at:]
	}
	return strings.TrimRightFunc(query, unicode.IsSpace) + " WHERE " + r.filter
}

// quote renders s as a SQL string literal.
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
