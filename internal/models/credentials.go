// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package models

import "strings"

// CredentialStore looks up a provider's API key.
type CredentialStore interface {
	Lookup(p Provider) (string, bool)
}

// LookupFunc resolves a variable name, with the signature of os.LookupEnv.
type LookupFunc func(string) (string, bool)

// EnvStore reads API keys from variables named by Provider.EnvVar.
type EnvStore struct {
	lookup LookupFunc
}

// NewEnvStore creates an EnvStore over lookup (typically os.LookupEnv, or a
// viper-backed lookup that also sees .env values).
func NewEnvStore(lookup LookupFunc) *EnvStore {
	return &EnvStore{lookup: lookup}
}

func (s *EnvStore) Lookup(p Provider) (string, bool) {
	name := p.EnvVar()
	if name == "" || s.lookup == nil {
		return "", false
	}
	v, ok := s.lookup(name)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

// MapStore is a fixed in-memory store.
type MapStore map[Provider]string

func (m MapStore) Lookup(p Provider) (string, bool) {
	v := strings.TrimSpace(m[p])
	return v, v != ""
}

// ChainStore consults stores in order and returns the first hit.
type ChainStore []CredentialStore

func (c ChainStore) Lookup(p Provider) (string, bool) {
	for _, s := range c {
		if s == nil {
			continue
		}
		if v, ok := s.Lookup(p); ok {
			return v, true
		}
	}
	return "", false
}
