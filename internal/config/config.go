package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/AI2HU/heatmap/internal/models"
)

// EnvPrefix prefixes environment overrides, e.g. HEATMAP_DATABASE_URI
const EnvPrefix = "HEATMAP"

// Config represents the application configuration
type Config struct {
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`
	API      APIConfig      `yaml:"api" mapstructure:"api"`
	Engine   EngineConfig   `yaml:"engine" mapstructure:"engine"`
	Loader   LoaderConfig   `yaml:"loader" mapstructure:"loader"`
	LogLevel string         `yaml:"log_level" mapstructure:"log_level"`
}

// DatabaseConfig describes where response records are read from
type DatabaseConfig struct {
	Provider string            `yaml:"provider" mapstructure:"provider"` // sqlite, postgres, mongodb, file
	URI      string            `yaml:"uri" mapstructure:"uri"`
	Database string            `yaml:"database,omitempty" mapstructure:"database"`
	Table    string            `yaml:"table,omitempty" mapstructure:"table"` // table or collection
	Options  map[string]string `yaml:"options,omitempty" mapstructure:"options"`
}

// APIConfig configures the HTTP server
type APIConfig struct {
	Host       string `yaml:"host" mapstructure:"host"`
	Port       string `yaml:"port" mapstructure:"port"`
	CORSOrigin string `yaml:"cors_origin,omitempty" mapstructure:"cors_origin"`
}

// EngineConfig configures report defaults
type EngineConfig struct {
	TrailingWindow int      `yaml:"trailing_window" mapstructure:"trailing_window"`
	Categories     []string `yaml:"categories,omitempty" mapstructure:"categories"`
}

// LoaderConfig configures record fetching
type LoaderConfig struct {
	MaxRetries  int           `yaml:"max_retries" mapstructure:"max_retries"`
	RetryDelay  time.Duration `yaml:"retry_delay" mapstructure:"retry_delay"`
	RateLimit   float64       `yaml:"rate_limit" mapstructure:"rate_limit"` // fetch attempts per second
	RefreshCron string        `yaml:"refresh_cron,omitempty" mapstructure:"refresh_cron"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Provider: "sqlite",
			URI:      "heatmap.db",
			Table:    "response_records",
		},
		API: APIConfig{
			Host:       "0.0.0.0",
			Port:       "8989",
			CORSOrigin: "*",
		},
		Engine: EngineConfig{
			TrailingWindow: 4,
		},
		Loader: LoaderConfig{
			MaxRetries:  3,
			RetryDelay:  2 * time.Second,
			RateLimit:   1,
			RefreshCron: "@every 15m",
		},
		LogLevel: "info",
	}
}

// Load loads configuration from file on top of the defaults. Every key can be
// overridden from the environment (HEATMAP_ prefix, dots become underscores).
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")

	defaults, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal default config: %w", err)
	}
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return nil, fmt.Errorf("failed to read default config: %w", err)
	}
	if err := v.MergeConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks the fields the application cannot run without
func (c *Config) Validate() error {
	switch c.Database.Provider {
	case "sqlite", "postgres", "mongodb", "file":
	default:
		return fmt.Errorf("unsupported database provider: %q", c.Database.Provider)
	}
	if c.Database.URI == "" {
		return fmt.Errorf("database uri is required")
	}
	if c.Database.Provider == "mongodb" && c.Database.Database == "" {
		return fmt.Errorf("database name is required for mongodb")
	}
	if c.Engine.TrailingWindow < 1 {
		return fmt.Errorf("engine trailing_window must be >= 1, got %d", c.Engine.TrailingWindow)
	}
	if c.Loader.MaxRetries < 1 {
		return fmt.Errorf("loader max_retries must be >= 1, got %d", c.Loader.MaxRetries)
	}
	return nil
}

// DBConfig converts the database section for the db package
func (c *Config) DBConfig() *models.Config {
	return &models.Config{
		Provider: c.Database.Provider,
		URI:      c.Database.URI,
		Database: c.Database.Database,
		Table:    c.Database.Table,
		Options:  c.Database.Options,
	}
}

// Save saves configuration to file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetConfigPath returns the default config file path
func GetConfigPath() string {
	if envPath := os.Getenv("HEATMAP_CONFIG_PATH"); envPath != "" {
		return envPath
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".heatmap/config.yaml"
	}
	return filepath.Join(home, ".heatmap", "config.yaml")
}

// Exists checks if config file exists
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
