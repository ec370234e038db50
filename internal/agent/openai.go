// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package agent

import (
	"context"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	apperrors "sqlagent/cli/internal/errors"
	"sqlagent/cli/internal/models"
)

// openAIAgent drives the chat completions API. Groq and OpenRouter expose the
// same API, so only the base URL differs.
type openAIAgent struct {
	client openai.Client
	model  string
	tool   Tool
	opts   Options
}

func newOpenAI(r models.Resolved, tool Tool, opts Options) *openAIAgent {
	base := opts.BaseURL
	if base == "" {
		base = r.Provider.BaseURL()
	}
	return &openAIAgent{
		client: openai.NewClient(
			option.WithAPIKey(r.Credential),
			option.WithBaseURL(base),
		),
		model: r.Provider.APIModel(r.ModelID),
		tool:  tool,
		opts:  opts,
	}
}

func (t Tool) openAIParam() openai.ChatCompletionToolParam {
	return openai.ChatCompletionToolParam{
		Function: openai.FunctionDefinitionParam{
			Name:        t.Name,
			Description: openai.String(t.Description),
			Parameters:  openai.FunctionParameters(t.parameters()),
		},
	}
}

func (a *openAIAgent) Run(ctx context.Context, task string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: a.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(a.opts.SystemPrompt),
			openai.UserMessage(task),
		},
		Tools: []openai.ChatCompletionToolParam{a.tool.openAIParam()},
	}

	for step := 1; step <= a.opts.MaxSteps; step++ {
		a.opts.Observer.Step(step)
		a.opts.Logger.Debug("chat completion", "step", step, "model", a.model, "messages", len(params.Messages))

		completion, err := a.client.Chat.Completions.New(ctx, params)
		if err != nil {
			return "", apperrors.Wrap(apperrors.AgentError, "chat completion failed", err)
		}
		if len(completion.Choices) == 0 {
			return "", apperrors.New(apperrors.AgentError, "chat completion returned no choices")
		}

		msg := completion.Choices[0].Message
		if len(msg.ToolCalls) == 0 {
			return msg.Content, nil
		}

		params.Messages = append(params.Messages, msg.ToParam())
		for _, call := range msg.ToolCalls {
			out := dispatch(ctx, a.tool, a.opts, step, call.Function.Name, call.Function.Arguments)
			params.Messages = append(params.Messages, openai.ToolMessage(out, call.ID))
		}
	}
	return "", stepLimit(a.opts.MaxSteps)
}
