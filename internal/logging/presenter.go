// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pterm/pterm"

	apperrors "sqlagent/cli/internal/errors"
	"sqlagent/cli/internal/httperrors"
)

// errOut receives everything the presenters print.
var errOut io.Writer = os.Stderr

// FormatError renders err on one line with secrets masked, prefixed by the
// action that failed when one is given.
func FormatError(action string, err error) string {
	if err == nil {
		return ""
	}
	msg := Mask(err.Error())
	if action == "" {
		return pterm.Error.Sprint(msg)
	}
	return pterm.Error.Sprint(action + " failed: " + msg)
}

// PresentError prints FormatError output to stderr.
func PresentError(action string, err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(errOut, FormatError(action, err))
}

// FormatFatal renders a startup or run failure with a title and hints chosen by
// the error's kind. The technical detail line is masked.
func FormatFatal(err error) string {
	if err == nil {
		return ""
	}
	var b strings.Builder

	title, hints := describe(apperrors.KindOf(err))
	if extra := httperrors.Hints(httperrors.Classify(err)); extra != nil {
		hints = append(extra, hints...)
	}
	b.WriteString(pterm.NewStyle(pterm.FgRed, pterm.Bold).Sprint(title))
	b.WriteString("\n\n")
	for _, h := range hints {
		b.WriteString("  • " + h + "\n")
	}
	b.WriteString("\n")
	b.WriteString(pterm.NewStyle(pterm.FgGray).Sprint("Details: " + Mask(err.Error())))
	return b.String()
}

func describe(kind apperrors.Kind) (string, []string) {
	switch kind {
	case apperrors.ConfigurationError:
		return "Configuration Problem", []string{
			"Check the provider, model or alias you passed",
			"Set the provider API key in the environment or a .env file",
			"Or store it with 'sqlagent keys set <provider>'",
		}
	case apperrors.IntrospectionError:
		return "Could Not Read Database Schema", []string{
			"Verify the database is reachable with 'sqlagent dbinfo'",
			"Check that the user can read information_schema and pg_catalog",
		}
	case apperrors.AgentError:
		return "Agent Failed", []string{
			"The model did not produce an answer",
			"Try rephrasing the question or raising agent.max_steps",
		}
	}
	return "Unexpected Error", []string{"Re-run with --verbose for more detail"}
}

// PresentFatal prints FormatFatal output to stderr surrounded by blank lines.
func PresentFatal(err error) {
	fmt.Fprintln(errOut)
	fmt.Fprintln(errOut, FormatFatal(err))
	fmt.Fprintln(errOut)
}
