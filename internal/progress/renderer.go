// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package progress

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"atomicgo.dev/cursor"
	"github.com/pterm/pterm"
)

// Frames are the braille spinner frames used for running work.
var Frames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Renderer shows Tracker state. In live mode it redraws a pterm area on a ticker
// and hides the cursor; otherwise it prints one line per finished query.
type Renderer struct {
	*Tracker

	out   io.Writer
	live  bool
	width int

	mu    sync.Mutex
	area  *pterm.AreaPrinter
	stop  chan struct{}
	wg    sync.WaitGroup
	frame int
}

// NewRenderer creates a renderer writing to out. live enables the animated area
// and should only be set for interactive terminals.
func NewRenderer(out io.Writer, live bool, width int) *Renderer {
	if width <= 0 {
		width = 80
	}
	return &Renderer{Tracker: NewTracker(), out: out, live: live, width: width}
}

// Start begins live rendering. It is a no-op in plain mode.
func (r *Renderer) Start() {
	if !r.live {
		return
	}
	area, err := pterm.DefaultArea.WithRemoveWhenDone(true).Start()
	if err != nil {
		r.live = false
		return
	}
	cursor.Hide()

	r.mu.Lock()
	r.area = area
	r.stop = make(chan struct{})
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		t := time.NewTicker(100 * time.Millisecond)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				r.redraw()
			case <-r.stop:
				return
			}
		}
	}()
}

// Stop ends live rendering and restores the cursor. Safe to call more than once.
func (r *Renderer) Stop() {
	r.mu.Lock()
	area, stop := r.area, r.stop
	r.area, r.stop = nil, nil
	r.mu.Unlock()
	if area == nil {
		return
	}
	close(stop)
	r.wg.Wait()
	_ = area.Stop()
	cursor.Show()
}

func (r *Renderer) redraw() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.area == nil {
		return
	}
	step, entries := r.Snapshot()
	r.area.Update(Render(step, entries, Frames[r.frame%len(Frames)], r.width))
	r.frame++
}

// ToolResult records the result and, in plain mode, prints the finished query.
func (r *Renderer) ToolResult(step int, tool, output string) {
	r.Tracker.ToolResult(step, tool, output)
	if r.live || r.out == nil {
		return
	}
	_, entries := r.Snapshot()
	if len(entries) == 0 {
		return
	}
	fmt.Fprintln(r.out, renderEntry(entries[len(entries)-1], "", r.width))
}

// Summary describes how many queries ran.
func (r *Renderer) Summary() string {
	total, failed := r.Counts()
	noun := "queries"
	if total == 1 {
		noun = "query"
	}
	if failed == 0 {
		return fmt.Sprintf("Ran %d %s", total, noun)
	}
	return fmt.Sprintf("Ran %d %s (%d failed)", total, noun, failed)
}

// Render draws the area contents: a header line for the current step followed by
// one line per query.
func Render(step int, entries []Entry, frame string, width int) string {
	var b strings.Builder
	if step > 0 {
		fmt.Fprintf(&b, "%s Thinking (step %d)", frame, step)
	} else {
		fmt.Fprintf(&b, "%s Thinking", frame)
	}
	for _, e := range entries {
		b.WriteString("\n")
		b.WriteString(renderEntry(e, frame, width))
	}
	return b.String()
}

func renderEntry(e Entry, frame string, width int) string {
	var icon, suffix string
	switch e.Status {
	case Running:
		icon = frame
		if icon == "" {
			icon = "…"
		}
	case Done:
		icon = pterm.Green("✓")
		suffix = fmt.Sprintf(" (%d %s)", e.Rows, plural(e.Rows, "row", "rows"))
	case Empty:
		icon = pterm.Green("✓")
		suffix = " (no rows)"
	case Failed:
		icon = pterm.Red("✗")
		suffix = " (" + truncate(oneLine(e.Detail), 60) + ")"
	}
	room := width - 4 - utf8.RuneCountInString(suffix)
	if room < 20 {
		room = 20
	}
	return fmt.Sprintf("  %s %s%s", icon, truncate(oneLine(e.Query), room), suffix)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max-1]) + "…"
}
