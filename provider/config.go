package provider

import (
	"fmt"
	"time"
)

const defaultTimeoutSeconds = 30

// Config holds provider initialization parameters. Backend selects the
// implementation; the orchestrator only ever sees the Provider interface.
type Config struct {
	Backend        string  `json:"backend,omitempty"` // "mock" or "openai"
	BaseURL        string  `json:"base_url,omitempty"`
	APIKey         string  `json:"api_key,omitempty"`
	Model          string  `json:"model,omitempty"`
	TimeoutSeconds int     `json:"timeout_seconds,omitempty"`
	RPS            float64 `json:"rps,omitempty"`
}

// DefaultConfig returns the default provider configuration: the mock backend
// with a 30-second invocation timeout.
func DefaultConfig() Config {
	return Config{
		Backend:        "mock",
		TimeoutSeconds: defaultTimeoutSeconds,
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Backend != "" {
		c.Backend = source.Backend
	}
	if source.BaseURL != "" {
		c.BaseURL = source.BaseURL
	}
	if source.APIKey != "" {
		c.APIKey = source.APIKey
	}
	if source.Model != "" {
		c.Model = source.Model
	}
	if source.TimeoutSeconds > 0 {
		c.TimeoutSeconds = source.TimeoutSeconds
	}
	if source.RPS > 0 {
		c.RPS = source.RPS
	}
}

// Timeout returns the configured invocation deadline.
func (c *Config) Timeout() time.Duration {
	secs := c.TimeoutSeconds
	if secs <= 0 {
		secs = defaultTimeoutSeconds
	}
	return time.Duration(secs) * time.Second
}

// New creates a Provider from configuration. Every backend is wrapped with
// the configured invocation timeout so no call can block indefinitely.
func New(cfg *Config) (Provider, error) {
	var p Provider
	switch cfg.Backend {
	case "", "mock":
		p = NewMock()
	case "openai":
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("openai backend requires base_url")
		}
		p = NewOpenAI("openai", cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.RPS)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, cfg.Backend)
	}
	return WithTimeout(p, cfg.Timeout()), nil
}
