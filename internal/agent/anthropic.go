// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package agent

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	apperrors "sqlagent/cli/internal/errors"
	"sqlagent/cli/internal/models"
)

type anthropicAgent struct {
	client anthropic.Client
	model  anthropic.Model
	tool   Tool
	opts   Options
}

func newAnthropic(r models.Resolved, tool Tool, opts Options) *anthropicAgent {
	base := opts.BaseURL
	if base == "" {
		base = r.Provider.BaseURL()
	}
	return &anthropicAgent{
		client: anthropic.NewClient(
			option.WithAPIKey(r.Credential),
			option.WithBaseURL(base),
		),
		model: anthropic.Model(r.Provider.APIModel(r.ModelID)),
		tool:  tool,
		opts:  opts,
	}
}

func (t Tool) anthropicParam() anthropic.ToolUnionParam {
	return anthropic.ToolUnionParam{OfTool: &anthropic.ToolParam{
		Name:        t.Name,
		Description: anthropic.String(t.Description),
		InputSchema: anthropic.ToolInputSchemaParam{Properties: t.properties()},
		Type:        anthropic.ToolTypeCustom,
	}}
}

func (a *anthropicAgent) Run(ctx context.Context, task string) (string, error) {
	system := []anthropic.TextBlockParam{{Text: a.opts.SystemPrompt}}
	tools := []anthropic.ToolUnionParam{a.tool.anthropicParam()}
	messages := []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(task)),
	}

	for step := 1; step <= a.opts.MaxSteps; step++ {
		a.opts.Observer.Step(step)
		a.opts.Logger.Debug("messages request", "step", step, "model", a.model, "messages", len(messages))

		completion, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
			Model:     a.model,
			System:    system,
			Messages:  messages,
			Tools:     tools,
			MaxTokens: a.opts.MaxTokens,
		})
		if err != nil {
			return "", apperrors.Wrap(apperrors.AgentError, "messages request failed", err)
		}

		var text strings.Builder
		var results []anthropic.ContentBlockParamUnion
		for _, block := range completion.Content {
			switch variant := block.AsAny().(type) {
			case anthropic.TextBlock:
				text.WriteString(variant.Text)
			case anthropic.ToolUseBlock:
				out := dispatch(ctx, a.tool, a.opts, step, variant.Name, variant.JSON.Input.Raw())
				results = append(results, toolResult(variant.ID, out))
			}
		}

		if len(results) == 0 {
			return text.String(), nil
		}
		messages = append(messages, completion.ToParam())
		messages = append(messages, anthropic.NewUserMessage(results...))
	}
	return "", stepLimit(a.opts.MaxSteps)
}

func toolResult(toolUseID, content string) anthropic.ContentBlockParamUnion {
	block := anthropic.ToolResultBlockParam{
		ToolUseID: toolUseID,
		IsError:   anthropic.Bool(strings.HasPrefix(content, "Error")),
		Content: []anthropic.ToolResultBlockParamContentUnion{
			{OfText: &anthropic.TextBlockParam{Text: content}},
		},
	}
	return anthropic.ContentBlockParamUnion{OfToolResult: &block}
}
