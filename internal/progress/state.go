// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package progress tracks and renders what the agent is doing while it works:
// which step it is on and every query it has sent to the database with its
// outcome.
package progress

import (
	"strings"
	"sync"

	"sqlagent/cli/internal/sqlexec"
)

// Status is the state of one tool call.
type Status int

const (
	Running Status = iota
	Done
	Empty
	Failed
)

// Entry is one query issued by the agent.
type Entry struct {
	Step   int
	Query  string
	Status Status
	Rows   int
	Detail string
}

// Tracker records agent events. It implements agent.Observer and is safe for
// concurrent use by the agent loop and a rendering goroutine.
type Tracker struct {
	mu      sync.Mutex
	step    int
	entries []Entry
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker { return &Tracker{} }

// Step records that the model is working on step n.
func (t *Tracker) Step(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.step = n
}

// ToolCall records a query that is about to run.
func (t *Tracker) ToolCall(step int, _ string, input string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, Entry{Step: step, Query: input, Status: Running})
}

// ToolResult completes the most recent running entry.
func (t *Tracker) ToolResult(_ int, _ string, output string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := len(t.entries) - 1; i >= 0; i-- {
		e := &t.entries[i]
		if e.Status != Running {
			continue
		}
		switch sqlexec.Classify(output) {
		case sqlexec.Failure:
			e.Status = Failed
			e.Detail = strings.TrimPrefix(output, sqlexec.FailurePrefix)
		case sqlexec.EmptySuccess:
			e.Status = Empty
		default:
			e.Status = Done
			e.Rows = strings.Count(output, "\n") + 1
		}
		return
	}
}

// Snapshot returns the current step and a copy of all entries.
func (t *Tracker) Snapshot() (int, []Entry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.step, append([]Entry(nil), t.entries...)
}

// Counts returns the number of queries run and how many of them failed.
func (t *Tracker) Counts() (total, failed int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, e := range t.entries {
		if e.Status == Failed {
			failed++
		}
	}
	return len(t.entries), failed
}
