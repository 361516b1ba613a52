package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/notion-client/internal/cache"
	"github.com/fivetwenty-io/notion-client/internal/constants"
)

// ConfigDirName is the directory under $HOME holding config.yml.
const ConfigDirName = ".notion"

// Config represents the CLI configuration.
type Config struct {
	Token   string `json:"token,omitempty"    yaml:"token,omitempty"`
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// Global settings
	Output    string  `json:"output"               yaml:"output"`
	PageSize  int     `json:"page_size,omitempty"  yaml:"page_size,omitempty"`
	RateLimit float64 `json:"rate_limit,omitempty" yaml:"rate_limit,omitempty"`
	LogLevel  string  `json:"log_level,omitempty"  yaml:"log_level,omitempty"`
	LogFormat string  `json:"log_format,omitempty" yaml:"log_format,omitempty"`

	Cache CacheConfig `json:"cache" yaml:"cache"`
}

// CacheConfig selects where the database directory is cached between runs.
type CacheConfig struct {
	Type          string `json:"type,omitempty"           yaml:"type,omitempty"`
	TTL           string `json:"ttl,omitempty"            yaml:"ttl,omitempty"`
	NATSURL       string `json:"nats_url,omitempty"       yaml:"nats_url,omitempty"`
	Bucket        string `json:"bucket,omitempty"         yaml:"bucket,omitempty"`
	RedisAddr     string `json:"redis_addr,omitempty"     yaml:"redis_addr,omitempty"`
	RedisPassword string `json:"redis_password,omitempty" yaml:"redis_password,omitempty"`
	RedisDB       int    `json:"redis_db,omitempty"       yaml:"redis_db,omitempty"`
}

// configSetters validate and apply `config set KEY VALUE`.
var configSetters = map[string]func(*Config, string) error{
	"output": func(c *Config, v string) error {
		switch v {
		case constants.FormatTable, constants.FormatJSON, constants.FormatYAML:
			c.Output = v

			return nil
		default:
			return fmt.Errorf("%w: %s", ErrInvalidOutputFormat, v)
		}
	},
	"base_url": func(c *Config, v string) error { c.BaseURL = v; return nil },
	"page_size": func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > constants.MaxPageSize {
			return fmt.Errorf("%w: page_size must be between 1 and %d", constants.ErrInvalidNumber, constants.MaxPageSize)
		}

		c.PageSize = n

		return nil
	},
	"rate_limit": func(c *Config, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: %s", constants.ErrInvalidNumber, v)
		}

		c.RateLimit = f

		return nil
	},
	"log_level":  func(c *Config, v string) error { c.LogLevel = v; return nil },
	"log_format": func(c *Config, v string) error { c.LogFormat = v; return nil },
	"cache.type": func(c *Config, v string) error {
		switch cache.Type(v) {
		case cache.TypeMemory, cache.TypeNATS, cache.TypeRedis, cache.TypeNone:
			c.Cache.Type = v

			return nil
		default:
			return fmt.Errorf("%w: %s", cache.ErrUnsupportedCacheType, v)
		}
	},
	"cache.ttl": func(c *Config, v string) error {
		_, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid cache.ttl: %w", err)
		}

		c.Cache.TTL = v

		return nil
	},
	"cache.nats_url":       func(c *Config, v string) error { c.Cache.NATSURL = v; return nil },
	"cache.bucket":         func(c *Config, v string) error { c.Cache.Bucket = v; return nil },
	"cache.redis_addr":     func(c *Config, v string) error { c.Cache.RedisAddr = v; return nil },
	"cache.redis_password": func(c *Config, v string) error { c.Cache.RedisPassword = v; return nil },
	"cache.redis_db": func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s", constants.ErrInvalidNumber, v)
		}

		c.Cache.RedisDB = n

		return nil
	},
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Show and change the settings stored in $HOME/.notion/config.yml",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())
	cmd.AddCommand(newConfigUnsetCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the effective configuration with the token masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()
			if config.Token != "" {
				config.Token = constants.MaskedSecret
			}

			if config.Cache.RedisPassword != "" {
				config.Cache.RedisPassword = constants.MaskedSecret
			}

			return render(cmd.OutOrStdout(), config, func(w io.Writer) error {
				return displayConfigTable(w, config)
			})
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long: `Set a configuration value.

Keys: output, base_url, page_size, rate_limit, log_level, log_format,
cache.type, cache.ttl, cache.nats_url, cache.bucket, cache.redis_addr,
cache.redis_password, cache.redis_db. Use 'notion login' to store the token.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setConfigValue(cmd.OutOrStdout(), loadConfig(), args[0], args[1])
		},
	}
}

func newConfigUnsetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unset KEY",
		Short: "Unset a configuration value",
		Long:  "Reset a configuration value to its default",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return unsetConfigValue(cmd.OutOrStdout(), loadConfig(), args[0])
		},
	}
}

// loadConfig reads the effective configuration from viper (flags, NOTION_*
// environment, config file).
func loadConfig() *Config {
	output := viper.GetString("output")
	if output == "" {
		output = constants.FormatTable
	}

	return &Config{
		Token:     viper.GetString("token"),
		BaseURL:   viper.GetString("base_url"),
		Output:    output,
		PageSize:  viper.GetInt("page_size"),
		RateLimit: viper.GetFloat64("rate_limit"),
		LogLevel:  viper.GetString("log_level"),
		LogFormat: viper.GetString("log_format"),
		Cache: CacheConfig{
			Type:          viper.GetString("cache.type"),
			TTL:           viper.GetString("cache.ttl"),
			NATSURL:       viper.GetString("cache.nats_url"),
			Bucket:        viper.GetString("cache.bucket"),
			RedisAddr:     viper.GetString("cache.redis_addr"),
			RedisPassword: viper.GetString("cache.redis_password"),
			RedisDB:       viper.GetInt("cache.redis_db"),
		},
	}
}

// configFilePath returns the file the configuration is read from, or the
// default location when none was found.
func configFilePath() (string, error) {
	configFile := viper.ConfigFileUsed()
	if configFile != "" {
		return configFile, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, ConfigDirName, "config.yml"), nil
}

func saveConfigStruct(config *Config) error {
	configFile, err := configFilePath()
	if err != nil {
		return err
	}

	err = os.MkdirAll(filepath.Dir(configFile), constants.ConfigDirPerm)
	if err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	err = os.WriteFile(configFile, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func setConfigValue(w io.Writer, config *Config, key, value string) error {
	setter, ok := configSetters[key]
	if !ok {
		return fmt.Errorf("%w: %s", constants.ErrUnknownConfigKey, key)
	}

	err := setter(config, value)
	if err != nil {
		return err
	}

	err = saveConfigStruct(config)
	if err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	viper.Set(key, value)

	displayed := value
	if key == "cache.redis_password" {
		displayed = constants.MaskedSecret
	}

	return outputConfigUpdateResult(w, "Set", key, displayed)
}

func unsetConfigValue(w io.Writer, config *Config, key string) error {
	if key == "token" {
		return ErrUseLogout
	}

	if _, ok := configSetters[key]; !ok {
		return fmt.Errorf("%w: %s", constants.ErrUnknownConfigKey, key)
	}

	var zero interface{} = ""

	switch key {
	case "output":
		config.Output = constants.FormatTable
		zero = constants.FormatTable
	case "base_url":
		config.BaseURL = ""
	case "page_size":
		config.PageSize = 0
		zero = 0
	case "rate_limit":
		config.RateLimit = 0
		zero = 0
	case "log_level":
		config.LogLevel = ""
	case "log_format":
		config.LogFormat = ""
	case "cache.redis_db":
		config.Cache.RedisDB = 0
		zero = 0
	default:
		clearCacheField(&config.Cache, strings.TrimPrefix(key, "cache."))
	}

	err := saveConfigStruct(config)
	if err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	viper.Set(key, zero)

	return outputConfigUpdateResult(w, "Unset", key, "")
}

func clearCacheField(c *CacheConfig, field string) {
	switch field {
	case "type":
		c.Type = ""
	case "ttl":
		c.TTL = ""
	case "nats_url":
		c.NATSURL = ""
	case "bucket":
		c.Bucket = ""
	case "redis_addr":
		c.RedisAddr = ""
	case "redis_password":
		c.RedisPassword = ""
	}
}

func displayConfigTable(w io.Writer, config *Config) error {
	table := tablewriter.NewWriter(w)
	table.Header("Property", "Value")

	_ = table.Append([]string{"Token", formatConfigValue(config.Token)})
	_ = table.Append([]string{"Base URL", formatConfigValue(config.BaseURL)})
	_ = table.Append([]string{"Output", config.Output})
	_ = table.Append([]string{"Page Size", formatConfigInt(config.PageSize)})
	_ = table.Append([]string{"Rate Limit", formatConfigFloat(config.RateLimit)})
	_ = table.Append([]string{"Log Level", formatConfigValue(config.LogLevel)})
	_ = table.Append([]string{"Log Format", formatConfigValue(config.LogFormat)})
	_ = table.Append([]string{"Cache Type", formatConfigValue(config.Cache.Type)})
	_ = table.Append([]string{"Cache TTL", formatConfigValue(config.Cache.TTL)})

	switch cache.Type(config.Cache.Type) {
	case cache.TypeNATS:
		_ = table.Append([]string{"NATS URL", formatConfigValue(config.Cache.NATSURL)})
		_ = table.Append([]string{"Bucket", formatConfigValue(config.Cache.Bucket)})
	case cache.TypeRedis:
		_ = table.Append([]string{"Redis Address", formatConfigValue(config.Cache.RedisAddr)})
		_ = table.Append([]string{"Redis Password", formatConfigValue(config.Cache.RedisPassword)})
		_ = table.Append([]string{"Redis DB", strconv.Itoa(config.Cache.RedisDB)})
	}

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func formatConfigValue(value string) string {
	if value == "" {
		return constants.NotAvailable
	}

	return value
}

func formatConfigInt(value int) string {
	if value == 0 {
		return constants.NotAvailable
	}

	return strconv.Itoa(value)
}

func formatConfigFloat(value float64) string {
	if value == 0 {
		return constants.NotAvailable
	}

	return strconv.FormatFloat(value, 'f', -1, 64)
}

func outputConfigUpdateResult(w io.Writer, action, key, value string) error {
	result := map[string]string{
		"action": action,
		"key":    key,
	}

	if value != "" {
		result["value"] = value
	}

	return render(w, result, func(w io.Writer) error {
		table := tablewriter.NewWriter(w)
		table.Header("Property", "Value")

		_ = table.Append([]string{"Action", action})
		_ = table.Append([]string{"Key", key})

		if value != "" {
			_ = table.Append([]string{"Value", value})
		}

		err := table.Render()
		if err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}

		return nil
	})
}
