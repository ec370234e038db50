// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package keychain provides centralized, thread-safe keychain operations for sqlagent.
// It stores the database DSN and per-provider LLM API keys in the OS credential store
// (macOS Keychain, Windows Credential Manager, Secret Service/KWallet/pass on Linux),
// so secrets never have to live in the config file.
package keychain

import (
	"errors"
	"runtime"
	"strings"
	"sync"

	"github.com/99designs/keyring"

	"sqlagent/cli/internal/models"
)

// Global keychain manager instance
var (
	globalManager *Manager
	globalError   error
	mu            sync.Mutex
)

// ServiceName identifies our keychain/credential store namespace.
const ServiceName = "sqlagent"

// Keys used for storing secrets in the OS keychain.
const (
	KeyDBDSN        = "db_dsn"
	keyAPIKeyPrefix = "api_key_"
)

// ErrNotFound is returned when a secret is absent or empty.
var ErrNotFound = errors.New("secret not found in keychain")

// Manager provides centralized, thread-safe operations for the OS keychain.
type Manager struct {
	mu   sync.RWMutex
	ring keyring.Keyring
}

// NewManager creates a new keychain manager with the OS keyring initialized.
func NewManager() (*Manager, error) {
	ring, err := openRing()
	if err != nil {
		return nil, err
	}
	return NewManagerWithRing(ring), nil
}

// NewManagerWithRing wraps an already opened keyring.
func NewManagerWithRing(ring keyring.Keyring) *Manager {
	return &Manager{ring: ring}
}

// GetManager returns the global keychain manager instance.
// If not initialized, it will be created on first call.
// If initialization fails, it will retry on subsequent calls.
func GetManager() (*Manager, error) {
	mu.Lock()
	defer mu.Unlock()

	if globalManager != nil {
		return globalManager, nil
	}

	globalManager, globalError = NewManager()
	if globalError != nil {
		return nil, globalError
	}
	return globalManager, nil
}

// openRing opens the OS keyring using native platform backends only; there is no file fallback.
func openRing() (keyring.Keyring, error) {
	var allowedBackends []keyring.BackendType
	switch runtime.GOOS {
	case "darwin":
		// Pass requires 'pass' utility installed: brew install pass
		allowedBackends = []keyring.BackendType{keyring.KeychainBackend, keyring.PassBackend}
	case "windows":
		allowedBackends = []keyring.BackendType{keyring.WinCredBackend}
	case "linux", "freebsd", "openbsd":
		allowedBackends = []keyring.BackendType{
			keyring.SecretServiceBackend,
			keyring.KWalletBackend,
			keyring.PassBackend,
		}
	default:
		return nil, errors.New("secure storage not supported on this OS")
	}

	cfg := keyring.Config{
		ServiceName:     ServiceName,
		AllowedBackends: allowedBackends,
		PassPrefix:      ServiceName,
		WinCredPrefix:   ServiceName,
	}

	ring, err := keyring.Open(cfg)
	if err != nil {
		if runtime.GOOS == "darwin" {
			return nil, errors.New("macOS Keychain unavailable. On macOS 26.0+, install 'pass': brew install pass gnupg && gpg --generate-key && pass init <gpg-key-id>")
		}
		return nil, err
	}
	return ring, nil
}

func apiKeyName(p models.Provider) string {
	return keyAPIKeyPrefix + string(p)
}

func (m *Manager) set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ring.Set(keyring.Item{Key: key, Data: []byte(value)})
}

func (m *Manager) get(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	it, err := m.ring.Get(key)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	v := strings.TrimSpace(string(it.Data))
	if v == "" {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *Manager) remove(keys ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		_ = m.ring.Remove(k)
	}
}

// SaveDBDSN stores the database DSN in the keychain.
func (m *Manager) SaveDBDSN(dsn string) error { return m.set(KeyDBDSN, dsn) }

// LoadDBDSN retrieves the database DSN from the keychain.
func (m *Manager) LoadDBDSN() (string, error) { return m.get(KeyDBDSN) }

// ClearDB removes DB-related secrets from the keychain.
func (m *Manager) ClearDB() error {
	m.remove(KeyDBDSN)
	return nil
}

// SaveAPIKey stores a provider API key.
func (m *Manager) SaveAPIKey(p models.Provider, key string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("empty API key")
	}
	return m.set(apiKeyName(p), strings.TrimSpace(key))
}

// LoadAPIKey retrieves a provider API key.
func (m *Manager) LoadAPIKey(p models.Provider) (string, error) { return m.get(apiKeyName(p)) }

// ClearAPIKey removes a provider API key.
func (m *Manager) ClearAPIKey(p models.Provider) error {
	m.remove(apiKeyName(p))
	return nil
}

// Lookup implements models.CredentialStore.
func (m *Manager) Lookup(p models.Provider) (string, bool) {
	v, err := m.LoadAPIKey(p)
	return v, err == nil
}

// ClearAll removes all secrets from the keychain.
// This method should be used with caution.
func (m *Manager) ClearAll() error {
	keys := []string{KeyDBDSN}
	for _, p := range models.Providers {
		keys = append(keys, apiKeyName(p))
	}
	m.remove(keys...)
	return nil
}
