// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package agent runs a tool-calling reasoning loop against an LLM provider. The
// model plans SQL, calls the single database tool, reads the result and repeats
// until it can answer in plain text.
//
// Two loops exist: one for OpenAI-compatible chat completions (OpenAI, Groq,
// OpenRouter) and one for the Anthropic Messages API. New picks the loop from the
// resolved provider.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	apperrors "sqlagent/cli/internal/errors"
	"sqlagent/cli/internal/logging"
	"sqlagent/cli/internal/models"
)

// Agent answers a natural-language task.
type Agent interface {
	Run(ctx context.Context, task string) (string, error)
}

// Tool is a function the model may call. It takes exactly one string argument
// named Param and returns text.
type Tool struct {
	Name             string
	Description      string
	Param            string
	ParamDescription string
	Call             func(ctx context.Context, input string) string
}

// Observer receives loop events. Implementations must not block.
type Observer interface {
	Step(step int)
	ToolCall(step int, tool, input string)
	ToolResult(step int, tool, output string)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) Step(int)                      {}
func (NopObserver) ToolCall(int, string, string)   {}
func (NopObserver) ToolResult(int, string, string) {}

// DefaultMaxSteps bounds the number of model turns per run.
const DefaultMaxSteps = 20

// DefaultMaxTokens caps each Anthropic response.
const DefaultMaxTokens = 4096

// DefaultSystemPrompt instructs the model how to use the tool.
const DefaultSystemPrompt = `You are a careful data analyst answering questions about a PostgreSQL database.
Use the sql_engine tool to run SQL queries; the tool description contains the database schema.
Query only user tables. Inspect results before answering, and fix and retry a query when the tool reports an error.
When you have the answer, reply in plain text without calling the tool.`

// Options tune the loop.
type Options struct {
	MaxSteps     int
	MaxTokens    int64
	SystemPrompt string
	Observer     Observer
	Logger       *slog.Logger
	// BaseURL overrides the provider endpoint.
	BaseURL string
}

func (o Options) withDefaults() Options {
	if o.MaxSteps <= 0 {
		o.MaxSteps = DefaultMaxSteps
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = DefaultMaxTokens
	}
	if strings.TrimSpace(o.SystemPrompt) == "" {
		o.SystemPrompt = DefaultSystemPrompt
	}
	if o.Observer == nil {
		o.Observer = NopObserver{}
	}
	if o.Logger == nil {
		o.Logger = logging.Discard()
	}
	return o
}

// New builds the agent loop for the resolved provider.
func New(resolved models.Resolved, tool Tool, opts Options) (Agent, error) {
	if tool.Call == nil || tool.Name == "" || tool.Param == "" {
		return nil, apperrors.New(apperrors.ConfigurationError, "agent tool must have a name, a parameter and a call function")
	}
	if resolved.Credential == "" {
		return nil, apperrors.Newf(apperrors.ConfigurationError, "no credential for provider '%s'", resolved.Provider)
	}
	opts = opts.withDefaults()

	switch {
	case resolved.Provider.OpenAICompatible():
		return newOpenAI(resolved, tool, opts), nil
	case resolved.Provider == models.Anthropic:
		return newAnthropic(resolved, tool, opts), nil
	}
	return nil, apperrors.Newf(apperrors.ConfigurationError, "unsupported provider '%s'", resolved.Provider)
}

// properties returns the JSON schema properties for the tool's single argument.
func (t Tool) properties() map[string]any {
	return map[string]any{
		t.Param: map[string]any{
			"type":        "string",
			"description": t.ParamDescription,
		},
	}
}

func (t Tool) parameters() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": t.properties(),
		"required":   []string{t.Param},
	}
}

// decode extracts the string argument from a JSON object.
func (t Tool) decode(raw string) (string, error) {
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return "", fmt.Errorf("arguments are not a JSON object: %w", err)
	}
	v, ok := args[t.Param]
	if !ok {
		return "", fmt.Errorf("missing required argument %q", t.Param)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("argument %q must be a string", t.Param)
	}
	return s, nil
}

// dispatch runs one tool call. Unknown tools and malformed arguments are reported
// back to the model as tool output so it can correct itself.
func dispatch(ctx context.Context, t Tool, opts Options, step int, name, rawArgs string) string {
	if name != t.Name {
		opts.Logger.Warn("model called unknown tool", "tool", name)
		return fmt.Sprintf("Error: unknown tool %q; the only available tool is %q", name, t.Name)
	}
	input, err := t.decode(rawArgs)
	if err != nil {
		opts.Logger.Warn("invalid tool arguments", "tool", name, "error", err)
		return fmt.Sprintf("Error: invalid arguments for %s: %v", name, err)
	}

	opts.Observer.ToolCall(step, name, input)
	opts.Logger.Debug("tool call", "step", step, "tool", name, "input", input)
	out := t.Call(ctx, input)
	opts.Observer.ToolResult(step, name, out)
	return out
}

func stepLimit(n int) error {
	return apperrors.Newf(apperrors.AgentError, "no final answer after %d steps", n)
}
