package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the core runtime: the LLM provider
// selection used to build the actor registry's client, and the Core
// runtime settings (timeouts, data directory, job/audit tuning).
type Config struct {
	LLM  LLMConfig  `yaml:"llm"`
	Core CoreConfig `yaml:"core"`
}

// Load reads, expands, and parses the configuration file at path, applying
// environment overrides and defaults before validating the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	decoder := yaml.NewDecoder(strings.NewReader(expanded))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("failed to parse config: expected single document")
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	applyLLMDefaults(&cfg.LLM)
	applyCoreDefaults(&cfg.Core)
}

func applyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}
	applyCoreEnvOverrides(&cfg.Core)
}

// ConfigValidationError reports every validation issue found in a single
// Load call, rather than failing on the first one.
type ConfigValidationError struct {
	Issues []string
}

func (e *ConfigValidationError) Error() string {
	return "config validation failed:\n- " + strings.Join(e.Issues, "\n- ")
}

func validateConfig(cfg *Config) error {
	if cfg == nil {
		return nil
	}

	var issues []string

	defaultProvider := strings.ToLower(strings.TrimSpace(cfg.LLM.DefaultProvider))
	if defaultProvider != "" {
		if _, ok := cfg.LLM.Providers[defaultProvider]; !ok {
			if _, ok := cfg.LLM.Providers[cfg.LLM.DefaultProvider]; !ok {
				issues = append(issues, fmt.Sprintf("llm.providers missing entry for default_provider %q", cfg.LLM.DefaultProvider))
			}
		}
	}

	if cfg.Core.QueueMaxSize < 0 {
		issues = append(issues, "core.queue_max_size must be >= 0")
	}
	if cfg.Core.Jobs.MaxConcurrent < 0 {
		issues = append(issues, "core.jobs.max_concurrent must be >= 0")
	}
	if cfg.Core.Audit.MaxEventsPerSession < 0 {
		issues = append(issues, "core.audit.max_events_per_session must be >= 0")
	}

	if len(issues) > 0 {
		return &ConfigValidationError{Issues: issues}
	}

	return nil
}
