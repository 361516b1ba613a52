package commands

import (
	"sync"

	"github.com/spf13/viper"

	"github.com/fivetwenty-io/notion-client/internal/auth"
	"github.com/fivetwenty-io/notion-client/internal/constants"
)

// ConfigPersister implements the auth.ConfigPersister interface on top of the
// CLI configuration.
type ConfigPersister struct {
	mutex sync.Mutex
}

var _ auth.ConfigPersister = (*ConfigPersister)(nil)

// NewConfigPersister creates a new config persister.
func NewConfigPersister() *ConfigPersister {
	return &ConfigPersister{}
}

// LoadToken returns the token from the --token flag, NOTION_TOKEN or the
// config file, in that order.
func (p *ConfigPersister) LoadToken() (string, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	token := viper.GetString("token")
	if token == "" {
		return "", constants.ErrNoTokenConfigured
	}

	return token, nil
}

// SaveToken writes the token to the config file.
func (p *ConfigPersister) SaveToken(token string) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	config := loadConfig()
	config.Token = token

	err := saveConfigStruct(config)
	if err != nil {
		return err
	}

	viper.Set("token", token)

	return nil
}
