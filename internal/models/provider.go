// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package models

import (
	"strings"

	apperrors "sqlagent/cli/internal/errors"
)

// Provider is a model-serving service. The set is closed; ParseProvider rejects anything else.
type Provider string

const (
	OpenAI     Provider = "openai"
	Groq       Provider = "groq"
	OpenRouter Provider = "openrouter"
	Anthropic  Provider = "anthropic"
)

// Providers lists the supported providers in display order.
var Providers = []Provider{OpenAI, Groq, OpenRouter, Anthropic}

// ParseProvider maps a provider name to its tag. Unknown names are a ConfigurationError.
func ParseProvider(s string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Providers {
		if p == known {
			return p, nil
		}
	}
	return "", apperrors.Newf(apperrors.ConfigurationError,
		"unknown provider %q (one of: %s)", s, strings.Join(ProviderNames(), ", "))
}

// ProviderNames returns the supported provider names.
func ProviderNames() []string {
	out := make([]string, len(Providers))
	for i, p := range Providers {
		out[i] = string(p)
	}
	return out
}

// EnvVar is the environment variable holding the provider's API key.
func (p Provider) EnvVar() string {
	switch p {
	case OpenAI:
		return "OPENAI_API_KEY"
	case Groq:
		return "GROQ_API_KEY"
	case OpenRouter:
		return "OPENROUTER_API_KEY"
	case Anthropic:
		return "ANTHROPIC_API_KEY"
	default:
		return ""
	}
}

// BaseURL is the provider's API root.
func (p Provider) BaseURL() string {
	switch p {
	case OpenAI:
		return "https://api.openai.com/v1/"
	case Groq:
		return "https://api.groq.com/openai/v1/"
	case OpenRouter:
		return "https://openrouter.ai/api/v1/"
	case Anthropic:
		return "https://api.anthropic.com/"
	default:
		return ""
	}
}

// OpenAICompatible reports whether the provider speaks the OpenAI chat-completions API.
func (p Provider) OpenAICompatible() bool {
	return p == OpenAI || p == Groq || p == OpenRouter
}

// APIModel strips the "<provider>/" routing prefix from a model id, so
// "openrouter/openai/gpt-4o-mini" becomes "openai/gpt-4o-mini".
func (p Provider) APIModel(modelID string) string {
	return strings.TrimPrefix(modelID, string(p)+"/")
}
