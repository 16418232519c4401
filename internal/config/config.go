package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the workspace-relative location of the config file.
var DefaultPath = filepath.Join(".ctma", "config.yaml")

// Config holds all ctma configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Inference backend
	LLM LLMConfig `yaml:"llm"`

	// Scenario catalog source
	Catalog CatalogConfig `yaml:"catalog"`

	// Operator console
	UI UIConfig `yaml:"ui"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// CatalogConfig selects where scenarios come from. An empty Path means the
// embedded catalog.
type CatalogConfig struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "ctma",
		Version: "0.4.0",

		LLM: DefaultLLMConfig(),

		UI: DefaultUIConfig(),

		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			File:   filepath.Join(".ctma", "logs", "ctma.log"),
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults; environment overrides apply either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	// API key, lowest priority first
	for _, name := range []string{"API_KEY", "GOOGLE_API_KEY", "GEMINI_API_KEY"} {
		if key := os.Getenv(name); key != "" {
			c.LLM.APIKey = key
		}
	}
	if c.LLM.APIKey != "" && c.LLM.Provider == "" {
		c.LLM.Provider = ProviderGemini
	}

	if model := os.Getenv("CTMA_MODEL"); model != "" {
		c.LLM.Model = model
	}
	if path := os.Getenv("CTMA_CATALOG"); path != "" {
		c.Catalog.Path = path
	}
}

// GetLLMTimeout returns the per-call inference timeout. Zero means none.
func (c *Config) GetLLMTimeout() time.Duration {
	if c.LLM.Timeout == "" {
		return 0
	}
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// GetProgressInterval returns how often the cosmetic progress label advances.
func (c *Config) GetProgressInterval() time.Duration {
	d, err := time.ParseDuration(c.UI.ProgressInterval)
	if err != nil || d <= 0 {
		return 800 * time.Millisecond
	}
	return d
}

// GetHighlightDuration returns how long a timeline highlight stays lit.
func (c *Config) GetHighlightDuration() time.Duration {
	d, err := time.ParseDuration(c.UI.HighlightDuration)
	if err != nil || d <= 0 {
		return 2 * time.Second
	}
	return d
}

// ValidProviders lists all supported LLM providers.
var ValidProviders = []string{ProviderGemini}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("LLM API key not configured (set GEMINI_API_KEY, GOOGLE_API_KEY or API_KEY)")
	}

	validProvider := false
	for _, p := range ValidProviders {
		if c.LLM.Provider == p {
			validProvider = true
			break
		}
	}
	if !validProvider {
		return fmt.Errorf("invalid LLM provider: %s (valid: %v)", c.LLM.Provider, ValidProviders)
	}

	return nil
}
