// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package dsn

import (
	"errors"
	"strings"
)

// Source is one place a DSN may come from, such as a flag, an environment
// variable, the OS keychain or the config file.
type Source struct {
	Name string
	Load func() (string, error)
}

// Value is a Source backed by a fixed string.
func Value(name, v string) Source {
	return Source{Name: name, Load: func() (string, error) { return v, nil }}
}

// Env is a Source backed by an environment lookup.
func Env(name string, lookup func(string) (string, bool)) Source {
	return Source{Name: name + " environment variable", Load: func() (string, error) {
		v, _ := lookup(name)
		return v, nil
	}}
}

// ErrNoDSN is returned when no source yields a DSN.
var ErrNoDSN = errors.New("no database connection configured")

// Resolve returns the first non-empty DSN and the name of its source. Sources that
// fail to load are skipped, matching how a missing keychain entry is treated.
func Resolve(sources ...Source) (string, string, error) {
	for _, s := range sources {
		if s.Load == nil {
			continue
		}
		v, err := s.Load()
		if err != nil {
			continue
		}
		if v = strings.TrimSpace(v); v != "" {
			return v, s.Name, nil
		}
	}
	return "", "", ErrNoDSN
}
