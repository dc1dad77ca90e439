// Package config provides explicit, file-loadable configuration for
// the engine and its collaborators. There is no ambient global state:
// a Config is constructed once and passed in.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all engine tunables.
type Config struct {
	// MaxSteps is the per-session node-execution ceiling. When
	// exceeded the engine forces a terminal decision.
	MaxSteps int `yaml:"max_steps"`

	// MaxReasks caps consecutive ASK rounds targeting the same
	// missing-field set before the decision falls through to PREVIEW.
	MaxReasks int `yaml:"max_reasks"`

	// MaxQuestionsPerAsk caps questions per ASK emission.
	MaxQuestionsPerAsk int `yaml:"max_questions_per_ask"`

	// ReminderAfter is how long a suspended session waits before its
	// single automated reminder. Zero disables reminders.
	ReminderAfter time.Duration `yaml:"reminder_after"`

	// CheckpointPath is the SQLite checkpoint database path.
	CheckpointPath string `yaml:"checkpoint_path"`

	// LedgerPath is the SQLite approval ledger database path.
	LedgerPath string `yaml:"ledger_path"`

	LLM     LLMConfig     `yaml:"llm"`
	Tracker TrackerConfig `yaml:"tracker"`
}

// LLMConfig configures the model invocation layer.
type LLMConfig struct {
	Model     string        `yaml:"model"`
	MaxTokens int           `yaml:"max_tokens"`
	Timeout   time.Duration `yaml:"timeout"`
}

// TrackerConfig configures the issue-tracker client.
type TrackerConfig struct {
	Endpoint string `yaml:"endpoint"`
	Token    string `yaml:"token"`
	Project  string `yaml:"project"`
}

// Default returns the engine defaults.
func Default() Config {
	return Config{
		MaxSteps:           10,
		MaxReasks:          2,
		MaxQuestionsPerAsk: 3,
		ReminderAfter:      4 * time.Hour,
		CheckpointPath:     "ticketflow.db",
		LedgerPath:         "ticketflow.db",
		LLM: LLMConfig{
			MaxTokens: 4096,
			Timeout:   2 * time.Minute,
		},
	}
}

// Load reads a YAML config file over the defaults. Missing keys keep
// their default values.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the config for values the engine cannot run with.
func (c Config) Validate() error {
	if c.MaxSteps <= 0 {
		return fmt.Errorf("max_steps must be positive, got %d", c.MaxSteps)
	}
	if c.MaxReasks < 0 {
		return fmt.Errorf("max_reasks cannot be negative, got %d", c.MaxReasks)
	}
	if c.MaxQuestionsPerAsk <= 0 {
		return fmt.Errorf("max_questions_per_ask must be positive, got %d", c.MaxQuestionsPerAsk)
	}
	if c.ReminderAfter < 0 {
		return fmt.Errorf("reminder_after cannot be negative")
	}
	return nil
}
