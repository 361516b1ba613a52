package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Static errors for err113 compliance.
var (
	ErrNoConfigPersister = errors.New("no config persister configured")
)

// ConfigPersister loads and stores the integration token in the command line
// tool's configuration.
type ConfigPersister interface {
	LoadToken() (string, error)
	SaveToken(token string) error
}

// ConfigTokenManager reads the token from configuration on first use and
// keeps it for the lifetime of the process.
type ConfigTokenManager struct {
	configPersister ConfigPersister
	mutex           sync.RWMutex
	credential      Credential
}

// NewConfigTokenManager creates a config-backed token manager.
func NewConfigTokenManager(configPersister ConfigPersister) *ConfigTokenManager {
	return &ConfigTokenManager{configPersister: configPersister}
}

// GetToken returns the configured token.
func (m *ConfigTokenManager) GetToken(ctx context.Context) (string, error) {
	m.mutex.RLock()
	credential := m.credential
	m.mutex.RUnlock()

	if credential != "" {
		return credential.Secret(), nil
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.credential != "" {
		return m.credential.Secret(), nil
	}

	if m.configPersister == nil {
		return "", ErrNoConfigPersister
	}

	raw, err := m.configPersister.LoadToken()
	if err != nil {
		return "", fmt.Errorf("failed to load token: %w", err)
	}

	credential, err = NewCredential(raw)
	if err != nil {
		return "", err
	}

	m.credential = credential

	return credential.Secret(), nil
}

// SetToken validates, persists and caches a new token.
func (m *ConfigTokenManager) SetToken(token string) error {
	credential, err := NewCredential(token)
	if err != nil {
		return err
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.configPersister == nil {
		return ErrNoConfigPersister
	}

	err = m.configPersister.SaveToken(credential.Secret())
	if err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	m.credential = credential

	return nil
}

// Invalidate forgets the cached token so the next GetToken reloads it.
func (m *ConfigTokenManager) Invalidate() {
	m.mutex.Lock()
	m.credential = ""
	m.mutex.Unlock()
}
