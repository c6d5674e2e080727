package pipeline

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/socratic-labs/tutor/classify"
	"github.com/socratic-labs/tutor/provider"
	"github.com/socratic-labs/tutor/store"
)

const defaultHistoryWindow = 10

// defaultSystemPrompt frames every provider invocation. It encodes the
// tutoring stance the guardrails and sanitizer assume: guidance over
// finished work.
const defaultSystemPrompt = "You are a patient programming tutor. Explain " +
	"concepts plainly, walk through errors step by step, and guide the " +
	"learner toward their own solution with hints and questions. Never " +
	"provide complete, runnable solutions."

// Config holds initialization parameters for all pipeline subsystems.
// Each subsystem section delegates to that subsystem's config-driven
// constructor.
type Config struct {
	Classifier classify.Config `json:"classifier"`
	Provider   provider.Config `json:"provider"`
	// Providers holds additional named backend configs, registered for
	// lazy instantiation and runtime switching.
	Providers map[string]provider.Config `json:"providers,omitempty"`
	Store     store.Config               `json:"store"`

	// PolicyPack points at a YAML guardrail pack. Empty or missing files
	// fall back to the built-in default pack.
	PolicyPack string `json:"policy_pack,omitempty"`
	// Observer names a registered observer. Empty selects the default
	// slog observer.
	Observer string `json:"observer,omitempty"`
	// HistoryWindow bounds how many prior turns accompany each provider
	// request, oldest trimmed first.
	HistoryWindow int    `json:"history_window,omitempty"`
	SystemPrompt  string `json:"system_prompt,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults for all subsystems:
// default classifier rules, the mock provider, the in-memory store, and the
// built-in guardrail pack.
func DefaultConfig() Config {
	return Config{
		Classifier:    classify.DefaultConfig(),
		Provider:      provider.DefaultConfig(),
		Store:         store.DefaultConfig(),
		HistoryWindow: defaultHistoryWindow,
		SystemPrompt:  defaultSystemPrompt,
	}
}

// Merge applies non-zero values from source into c, delegating to each
// subsystem's Merge method.
func (c *Config) Merge(source *Config) {
	c.Classifier.Merge(&source.Classifier)
	c.Provider.Merge(&source.Provider)
	c.Store.Merge(&source.Store)

	if len(source.Providers) > 0 {
		c.Providers = source.Providers
	}
	if source.PolicyPack != "" {
		c.PolicyPack = source.PolicyPack
	}
	if source.Observer != "" {
		c.Observer = source.Observer
	}
	if source.HistoryWindow > 0 {
		c.HistoryWindow = source.HistoryWindow
	}
	if source.SystemPrompt != "" {
		c.SystemPrompt = source.SystemPrompt
	}
}

// LoadConfig reads a JSON config file, merges it with defaults, and returns
// the resulting Config.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var loaded Config
	if err := json.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Merge(&loaded)
	return &cfg, nil
}
