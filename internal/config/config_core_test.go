package config

import (
	"testing"
	"time"
)

func TestApplyCoreDefaults(t *testing.T) {
	cfg := Config{}
	applyCoreDefaults(&cfg.Core)

	if cfg.Core.ClaudeModel == "" {
		t.Fatalf("expected a default claude_model")
	}
	if cfg.Core.ResponseTimeout != 300*time.Second {
		t.Errorf("ResponseTimeout = %v, want 300s", cfg.Core.ResponseTimeout)
	}
	if cfg.Core.GreetingTimeout != 30*time.Second {
		t.Errorf("GreetingTimeout = %v, want 30s", cfg.Core.GreetingTimeout)
	}
	if cfg.Core.QueueMaxSize != 10 {
		t.Errorf("QueueMaxSize = %d, want 10", cfg.Core.QueueMaxSize)
	}
	if cfg.Core.Jobs.MaxConcurrent != 5 {
		t.Errorf("Jobs.MaxConcurrent = %d, want 5", cfg.Core.Jobs.MaxConcurrent)
	}
	if cfg.Core.Audit.MaxEventsPerSession != 1000 {
		t.Errorf("Audit.MaxEventsPerSession = %d, want 1000", cfg.Core.Audit.MaxEventsPerSession)
	}
}

func TestApplyCoreDefaultsPreservesExplicitValues(t *testing.T) {
	cfg := Config{Core: CoreConfig{ClaudeModel: "claude-opus-4-20250514", QueueMaxSize: 25}}
	applyCoreDefaults(&cfg.Core)

	if cfg.Core.ClaudeModel != "claude-opus-4-20250514" {
		t.Errorf("ClaudeModel = %q, want explicit value preserved", cfg.Core.ClaudeModel)
	}
	if cfg.Core.QueueMaxSize != 25 {
		t.Errorf("QueueMaxSize = %d, want explicit value preserved", cfg.Core.QueueMaxSize)
	}
}

func TestApplyCoreEnvOverrides(t *testing.T) {
	t.Setenv("APP_CLAUDE_MODEL", "claude-3-5-sonnet-20241022")
	t.Setenv("APP_QUEUE_MAX_SIZE", "42")
	t.Setenv("APP_ENTITY_RESOLUTION_ENABLED", "true")

	cfg := CoreConfig{}
	applyCoreEnvOverrides(&cfg)

	if cfg.ClaudeModel != "claude-3-5-sonnet-20241022" {
		t.Errorf("ClaudeModel = %q, want env override applied", cfg.ClaudeModel)
	}
	if cfg.QueueMaxSize != 42 {
		t.Errorf("QueueMaxSize = %d, want 42", cfg.QueueMaxSize)
	}
	if !cfg.Audit.EntityResolutionEnabled {
		t.Errorf("expected EntityResolutionEnabled to be set from env")
	}
}

func TestLoadAppliesCoreDefaults(t *testing.T) {
	path := writeConfig(t, `
llm:
  default_provider: anthropic
  providers:
    anthropic: {}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Core.ResponseTimeout != 300*time.Second {
		t.Errorf("Core.ResponseTimeout = %v, want 300s", cfg.Core.ResponseTimeout)
	}
}
