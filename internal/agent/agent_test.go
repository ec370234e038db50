// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package agent

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	apperrors "sqlagent/cli/internal/errors"
	"sqlagent/cli/internal/models"
)

// fakeProvider replays canned JSON responses and records request bodies.
type fakeProvider struct {
	t         *testing.T
	path      string
	responses []string

	mu      sync.Mutex
	bodies  []string
	headers []http.Header
}

func (f *fakeProvider) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != f.path {
		f.t.Errorf("unexpected path %s, want %s", r.URL.Path, f.path)
		http.NotFound(w, r)
		return
	}
	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	n := len(f.bodies)
	f.bodies = append(f.bodies, string(body))
	f.headers = append(f.headers, r.Header.Clone())
	f.mu.Unlock()

	resp := f.responses[len(f.responses)-1]
	if n < len(f.responses) {
		resp = f.responses[n]
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, resp)
}

func (f *fakeProvider) requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.bodies...)
}

type recorder struct {
	mu      sync.Mutex
	steps   []int
	calls   []string
	results []string
}

func (r *recorder) Step(step int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = append(r.steps, step)
}

func (r *recorder) ToolCall(_ int, _ string, input string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, input)
}

func (r *recorder) ToolResult(_ int, _ string, output string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, output)
}

func sqlTool(calls *[]string) Tool {
	return Tool{
		Name:             "sql_engine",
		Description:      "Runs SQL.",
		Param:            "query",
		ParamDescription: "The query to perform.",
		Call: func(_ context.Context, input string) string {
			*calls = append(*calls, input)
			return "(1,)"
		},
	}
}

const (
	openAIToolCall = `{"id":"c1","object":"chat.completion","created":1,"model":"gpt-4o","choices":[{"index":0,"finish_reason":"tool_calls","message":{"role":"assistant","content":null,"tool_calls":[{"id":"call_1","type":"function","function":{"name":"sql_engine","arguments":"{\"query\":\"SELECT 1;\"}"}}]}}]}`
	openAIBadArgs  = `{"id":"c1","object":"chat.completion","created":1,"model":"gpt-4o","choices":[{"index":0,"finish_reason":"tool_calls","message":{"role":"assistant","content":null,"tool_calls":[{"id":"call_9","type":"function","function":{"name":"sql_engine","arguments":"not json"}}]}}]}`
	openAIAnswer   = `{"id":"c2","object":"chat.completion","created":2,"model":"gpt-4o","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"There is 1 row."}}]}`

	anthropicToolUse = `{"id":"msg_1","type":"message","role":"assistant","model":"claude-3-5-haiku-latest","stop_reason":"tool_use","content":[{"type":"tool_use","id":"tu_1","name":"sql_engine","input":{"query":"SELECT 1;"}}],"usage":{"input_tokens":1,"output_tokens":1}}`
	anthropicAnswer  = `{"id":"msg_2","type":"message","role":"assistant","model":"claude-3-5-haiku-latest","stop_reason":"end_turn","content":[{"type":"text","text":"There is 1 row."}],"usage":{"input_tokens":1,"output_tokens":1}}`
)

func TestOpenAIAgentToolLoop(t *testing.T) {
	fake := &fakeProvider{t: t, path: "/chat/completions", responses: []string{openAIToolCall, openAIAnswer}}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	var calls []string
	rec := &recorder{}
	a, err := New(models.Resolved{Provider: models.Groq, ModelID: "groq/llama-3.3-70b-versatile", Credential: "gsk_test"},
		sqlTool(&calls), Options{BaseURL: srv.URL + "/", Observer: rec})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	answer, err := a.Run(context.Background(), "How many rows?")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if answer != "There is 1 row." {
		t.Errorf("answer = %q", answer)
	}
	if len(calls) != 1 || calls[0] != "SELECT 1;" {
		t.Errorf("tool calls = %v", calls)
	}

	reqs := fake.requests()
	if len(reqs) != 2 {
		t.Fatalf("requests = %d, want 2", len(reqs))
	}
	if !strings.Contains(reqs[0], `"model":"llama-3.3-70b-versatile"`) {
		t.Errorf("provider prefix not stripped from model: %s", reqs[0])
	}
	if !strings.Contains(reqs[0], `"name":"sql_engine"`) {
		t.Errorf("tool not advertised: %s", reqs[0])
	}
	if !strings.Contains(reqs[1], `"tool_call_id":"call_1"`) || !strings.Contains(reqs[1], `(1,)`) {
		t.Errorf("tool result not fed back: %s", reqs[1])
	}
	if got := fake.headers[0].Get("Authorization"); got != "Bearer gsk_test" {
		t.Errorf("Authorization = %q", got)
	}
	if len(rec.steps) != 2 || len(rec.calls) != 1 || len(rec.results) != 1 {
		t.Errorf("observer saw steps=%v calls=%v results=%v", rec.steps, rec.calls, rec.results)
	}
}

func TestOpenAIAgentBadArgumentsReported(t *testing.T) {
	fake := &fakeProvider{t: t, path: "/chat/completions", responses: []string{openAIBadArgs, openAIAnswer}}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	var calls []string
	a, err := New(models.Resolved{Provider: models.OpenAI, ModelID: "openai/gpt-4o", Credential: "sk-test"},
		sqlTool(&calls), Options{BaseURL: srv.URL + "/"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := a.Run(context.Background(), "q"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(calls) != 0 {
		t.Errorf("tool should not run on malformed arguments, got %v", calls)
	}
	reqs := fake.requests()
	if len(reqs) != 2 || !strings.Contains(reqs[1], "invalid arguments for sql_engine") {
		t.Errorf("decode failure not reported to model: %v", reqs)
	}
}

func TestOpenAIAgentStepLimit(t *testing.T) {
	fake := &fakeProvider{t: t, path: "/chat/completions", responses: []string{openAIToolCall}}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	var calls []string
	a, _ := New(models.Resolved{Provider: models.OpenRouter, ModelID: "openrouter/openai/gpt-4o-mini", Credential: "sk-or-v1-test"},
		sqlTool(&calls), Options{BaseURL: srv.URL + "/", MaxSteps: 2})

	_, err := a.Run(context.Background(), "loop forever")
	if !apperrors.Is(err, apperrors.AgentError) {
		t.Fatalf("expected AgentError, got %v", err)
	}
	if n := len(fake.requests()); n != 2 {
		t.Errorf("requests = %d, want 2", n)
	}
	if !strings.Contains(fake.requests()[0], `"model":"openai/gpt-4o-mini"`) {
		t.Errorf("openrouter model id should keep its vendor segment: %s", fake.requests()[0])
	}
}

func TestOpenAIAgentAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`)
	}))
	defer srv.Close()

	var calls []string
	a, _ := New(models.Resolved{Provider: models.OpenAI, ModelID: "openai/gpt-4o", Credential: "sk-bad"},
		sqlTool(&calls), Options{BaseURL: srv.URL + "/"})
	if _, err := a.Run(context.Background(), "q"); !apperrors.Is(err, apperrors.AgentError) {
		t.Fatalf("expected AgentError, got %v", err)
	}
}

func TestAnthropicAgentToolLoop(t *testing.T) {
	fake := &fakeProvider{t: t, path: "/v1/messages", responses: []string{anthropicToolUse, anthropicAnswer}}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	var calls []string
	a, err := New(models.Resolved{Provider: models.Anthropic, ModelID: "anthropic/claude-3-5-haiku-latest", Credential: "sk-ant-test"},
		sqlTool(&calls), Options{BaseURL: srv.URL + "/"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	answer, err := a.Run(context.Background(), "How many rows?")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if answer != "There is 1 row." {
		t.Errorf("answer = %q", answer)
	}
	if len(calls) != 1 || calls[0] != "SELECT 1;" {
		t.Errorf("tool calls = %v", calls)
	}

	reqs := fake.requests()
	if len(reqs) != 2 {
		t.Fatalf("requests = %d, want 2", len(reqs))
	}
	if !strings.Contains(reqs[0], `"model":"claude-3-5-haiku-latest"`) {
		t.Errorf("provider prefix not stripped: %s", reqs[0])
	}
	if !strings.Contains(reqs[1], `"tool_use_id":"tu_1"`) || !strings.Contains(reqs[1], `(1,)`) {
		t.Errorf("tool result not fed back: %s", reqs[1])
	}
	if got := fake.headers[0].Get("X-Api-Key"); got != "sk-ant-test" {
		t.Errorf("x-api-key = %q", got)
	}
}

func TestNewValidation(t *testing.T) {
	var calls []string
	good := sqlTool(&calls)

	tests := []struct {
		name     string
		resolved models.Resolved
		tool     Tool
	}{
		{"missing credential", models.Resolved{Provider: models.OpenAI, ModelID: "openai/gpt-4o"}, good},
		{"unknown provider", models.Resolved{Provider: models.Provider("mistral"), ModelID: "x", Credential: "k"}, good},
		{"tool without call", models.Resolved{Provider: models.OpenAI, ModelID: "openai/gpt-4o", Credential: "k"}, Tool{Name: "sql_engine", Param: "query"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.resolved, tt.tool, Options{}); !apperrors.Is(err, apperrors.ConfigurationError) {
				t.Errorf("expected ConfigurationError, got %v", err)
			}
		})
	}
}

func TestDispatch(t *testing.T) {
	var calls []string
	tool := sqlTool(&calls)
	opts := Options{}.withDefaults()

	tests := []struct {
		name    string
		tool    string
		args    string
		want    string
		invoked bool
	}{
		{"valid", "sql_engine", `{"query":"SELECT 1;"}`, "(1,)", true},
		{"unknown tool", "python", `{"query":"x"}`, `Error: unknown tool "python"`, false},
		{"not json", "sql_engine", `SELECT 1`, "Error: invalid arguments", false},
		{"missing arg", "sql_engine", `{"sql":"SELECT 1"}`, `missing required argument "query"`, false},
		{"wrong type", "sql_engine", `{"query":1}`, `must be a string`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls = nil
			out := dispatch(context.Background(), tool, opts, 1, tt.tool, tt.args)
			if !strings.Contains(out, tt.want) {
				t.Errorf("dispatch = %q, want it to contain %q", out, tt.want)
			}
			if (len(calls) == 1) != tt.invoked {
				t.Errorf("invoked = %v, want %v", len(calls) == 1, tt.invoked)
			}
		})
	}
}
