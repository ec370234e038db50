// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package models

import "sort"

// Target is the provider and model id an alias stands for.
type Target struct {
	Provider Provider
	ModelID  string
}

// Registry maps aliases to targets. It is only read during resolution.
type Registry map[string]Target

// DefaultAliases is the built-in alias registry.
var DefaultAliases = Registry{
	"groq/llama":         {Provider: Groq, ModelID: "groq/llama-3.3-70b-versatile"},
	"groq/deepseek":      {Provider: Groq, ModelID: "groq/deepseek-r1-distill-llama-70b"},
	"openai/o1-mini":     {Provider: OpenAI, ModelID: "openai/o1-mini"},
	"openai/4o-mini":     {Provider: OpenAI, ModelID: "openai/gpt-4o-mini"},
	"openrouter/4o-mini": {Provider: OpenRouter, ModelID: "openrouter/openai/gpt-4o-mini"},
	"openrouter/sonnet":  {Provider: OpenRouter, ModelID: "openrouter/anthropic/claude-3.5-sonnet"},
	"anthropic/sonnet":   {Provider: Anthropic, ModelID: "anthropic/claude-3-5-sonnet-latest"},
	"anthropic/haiku":    {Provider: Anthropic, ModelID: "anthropic/claude-3-5-haiku-latest"},
}

// Lookup returns the target for alias.
func (r Registry) Lookup(alias string) (Target, bool) {
	t, ok := r[alias]
	return t, ok
}

// Names returns the aliases sorted.
func (r Registry) Names() []string {
	names := make([]string, 0, len(r))
	for k := range r {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
