// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package models resolves which LLM the agent runs on. An alias, or an explicit
// provider and model pair, is mapped to a provider tag, model id and API key.
// Resolution happens once per run; a missing key is a configuration error raised
// before any agent is constructed.
package models

import (
	"fmt"
	"log/slog"
	"strings"

	apperrors "sqlagent/cli/internal/errors"
)

// Request carries the caller's optional selectors.
type Request struct {
	Alias    string
	Provider string
	ModelID  string
}

// Resolved is a concrete, credentialed model selection.
type Resolved struct {
	Provider   Provider
	ModelID    string
	Credential string
	// Defaulted is set when neither an alias nor an explicit pair was usable.
	Defaulted bool
}

// String never includes the credential.
func (r Resolved) String() string {
	return fmt.Sprintf("%s (%s)", r.ModelID, r.Provider)
}

// Resolver maps requests to Resolved models.
type Resolver struct {
	Aliases         Registry
	Credentials     CredentialStore
	DefaultProvider Provider
	DefaultModelID  string
	Logger          *slog.Logger
}

// NewResolver creates a Resolver with the given defaults.
func NewResolver(aliases Registry, creds CredentialStore, defaultProvider Provider, defaultModelID string, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Resolver{
		Aliases:         aliases,
		Credentials:     creds,
		DefaultProvider: defaultProvider,
		DefaultModelID:  defaultModelID,
		Logger:          logger,
	}
}

// Resolve applies the precedence alias > explicit provider+model > defaults, then
// looks up the credential for the chosen provider.
func (r *Resolver) Resolve(req Request) (Resolved, error) {
	var out Resolved
	alias := strings.TrimSpace(req.Alias)
	provider := strings.TrimSpace(req.Provider)
	modelID := strings.TrimSpace(req.ModelID)

	target, ok := r.Aliases.Lookup(alias)
	switch {
	case alias != "" && ok:
		out.Provider, out.ModelID = target.Provider, target.ModelID
	case provider != "" && modelID != "":
		if alias != "" {
			r.Logger.Warn("unknown model alias, using explicit provider and model", slog.String("alias", alias))
		}
		p, err := ParseProvider(provider)
		if err != nil {
			return Resolved{}, err
		}
		out.Provider, out.ModelID = p, modelID
	default:
		if alias != "" {
			r.Logger.Warn("unknown model alias, using defaults", slog.String("alias", alias))
		}
		p, err := ParseProvider(string(r.DefaultProvider))
		if err != nil {
			return Resolved{}, err
		}
		if r.DefaultModelID == "" {
			return Resolved{}, apperrors.New(apperrors.ConfigurationError, "no default model configured")
		}
		out.Provider, out.ModelID, out.Defaulted = p, r.DefaultModelID, true
		r.Logger.Info("Using default model: " + out.ModelID)
	}

	if r.Credentials == nil {
		return Resolved{}, missingCredential(out.Provider)
	}
	key, ok := r.Credentials.Lookup(out.Provider)
	if !ok {
		return Resolved{}, missingCredential(out.Provider)
	}
	out.Credential = key
	return out, nil
}

func missingCredential(p Provider) error {
	return apperrors.Newf(apperrors.ConfigurationError,
		"API key for provider '%s' not found; set %s or run 'sqlagent keys set %s'", p, p.EnvVar(), p)
}
