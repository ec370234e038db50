// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package progress

import (
	"bytes"
	"strings"
	"testing"

	"sqlagent/cli/internal/agent"
	"sqlagent/cli/internal/sqlexec"
)

var _ agent.Observer = (*Tracker)(nil)
var _ agent.Observer = (*Renderer)(nil)

func TestTrackerClassifiesResults(t *testing.T) {
	tr := NewTracker()
	tr.Step(1)
	tr.ToolCall(1, "sql_engine", "SELECT id FROM orders")
	tr.ToolResult(1, "sql_engine", "(1)\n(2)\n(3)")
	tr.Step(2)
	tr.ToolCall(2, "sql_engine", "SELECT * FROM nope")
	tr.ToolResult(2, "sql_engine", sqlexec.FailurePrefix+`relation "nope" does not exist`)
	tr.ToolCall(2, "sql_engine", "SELECT 1 WHERE false")
	tr.ToolResult(2, "sql_engine", sqlexec.EmptyMessage)

	step, entries := tr.Snapshot()
	if step != 2 {
		t.Errorf("step = %d, want 2", step)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}

	tests := []struct {
		status Status
		rows   int
		detail string
	}{
		{Done, 3, ""},
		{Failed, 0, `relation "nope" does not exist`},
		{Empty, 0, ""},
	}
	for i, want := range tests {
		got := entries[i]
		if got.Status != want.status || got.Rows != want.rows || got.Detail != want.detail {
			t.Errorf("entry %d = %+v, want status=%v rows=%d detail=%q", i, got, want.status, want.rows, want.detail)
		}
	}

	total, failed := tr.Counts()
	if total != 3 || failed != 1 {
		t.Errorf("Counts() = %d, %d; want 3, 1", total, failed)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	tr := NewTracker()
	tr.ToolCall(1, "sql_engine", "SELECT 1")
	_, entries := tr.Snapshot()
	entries[0].Query = "changed"
	if _, again := tr.Snapshot(); again[0].Query != "SELECT 1" {
		t.Error("Snapshot must not expose internal state")
	}
}

func TestRender(t *testing.T) {
	entries := []Entry{
		{Step: 1, Query: "SELECT id\n  FROM orders", Status: Done, Rows: 1},
		{Step: 2, Query: "SELECT * FROM nope", Status: Failed, Detail: "boom"},
		{Step: 3, Query: "SELECT count(*) FROM orders", Status: Running},
	}
	out := Render(3, entries, "⠋", 80)
	lines := strings.Split(out, "\n")
	if len(lines) != 4 {
		t.Fatalf("Render produced %d lines:\n%s", len(lines), out)
	}
	if lines[0] != "⠋ Thinking (step 3)" {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "SELECT id FROM orders (1 row)") {
		t.Errorf("done line = %q", lines[1])
	}
	if !strings.Contains(lines[2], "(boom)") {
		t.Errorf("failed line = %q", lines[2])
	}
	if !strings.Contains(lines[3], "⠋ SELECT count(*) FROM orders") {
		t.Errorf("running line = %q", lines[3])
	}
}

func TestRenderTruncatesLongQueries(t *testing.T) {
	long := "SELECT " + strings.Repeat("a, ", 100) + "b FROM t"
	line := renderEntry(Entry{Query: long, Status: Running}, "⠋", 60)
	if !strings.HasSuffix(line, "…") {
		t.Errorf("long query should be truncated: %q", line)
	}
}

func TestPlainRendererPrintsFinishedQueries(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, false, 100)
	r.Start()
	r.Step(1)
	r.ToolCall(1, "sql_engine", "SELECT 1")
	if buf.Len() != 0 {
		t.Errorf("nothing should print before the result arrives, got %q", buf.String())
	}
	r.ToolResult(1, "sql_engine", "(1)")
	r.Stop()

	if !strings.Contains(buf.String(), "SELECT 1 (1 row)") {
		t.Errorf("output = %q", buf.String())
	}
	if got := r.Summary(); got != "Ran 1 query" {
		t.Errorf("Summary() = %q", got)
	}
}

func TestSummaryCountsFailures(t *testing.T) {
	r := NewRenderer(nil, false, 0)
	r.ToolCall(1, "sql_engine", "a")
	r.ToolResult(1, "sql_engine", sqlexec.FailurePrefix+"x")
	r.ToolCall(2, "sql_engine", "b")
	r.ToolResult(2, "sql_engine", "(1)")
	if got := r.Summary(); got != "Ran 2 queries (1 failed)" {
		t.Errorf("Summary() = %q", got)
	}
}
