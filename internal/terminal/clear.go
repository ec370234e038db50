// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package terminal provides utilities for terminal operations such as detecting
// a TTY, reading secrets without echo and clearing prompts.
package terminal

import (
	"fmt"
	"io"
	"math"
	"os"

	"golang.org/x/term"
)

// DefaultWidth is used when the terminal width cannot be determined.
const DefaultWidth = 80

// Width returns the current stdout width, or DefaultWidth.
func Width() int {
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}
	return DefaultWidth
}

// LinesUsed returns how many terminal rows textLength characters occupy at the
// given width, plus the line the cursor sits on after Enter.
func LinesUsed(textLength, width int) int {
	if width <= 0 {
		width = DefaultWidth
	}
	total := int(math.Ceil(float64(textLength) / float64(width)))
	if total < 1 {
		total = 1
	}
	return total + 1
}

// ClearPreviousLines clears a prompt and its echoed input from the terminal.
// textLength is the number of characters in prompt plus input.
func ClearPreviousLines(textLength int) {
	clearLines(os.Stdout, LinesUsed(textLength, Width()))
}

func clearLines(w io.Writer, n int) {
	for i := 0; i < n; i++ {
		fmt.Fprint(w, "\r\x1b[2K") // Move to start and clear entire line
		if i < n-1 {
			fmt.Fprint(w, "\x1b[1A") // Move up one line (don't move up on last iteration)
		}
	}
}
