package classify

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds classifier initialization parameters.
type Config struct {
	// PackPath points at a YAML pattern pack. Empty means the built-in
	// default rule table.
	PackPath string `json:"pack_path,omitempty"`
}

// DefaultConfig returns the default classifier configuration.
func DefaultConfig() Config {
	return Config{}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.PackPath != "" {
		c.PackPath = source.PackPath
	}
}

// NewFromConfig creates a Classifier from configuration, loading a pattern
// pack when one is configured and falling back to the default table.
func NewFromConfig(cfg *Config) (*Classifier, error) {
	rules := DefaultRules()
	if cfg.PackPath != "" {
		loaded, err := LoadPack(cfg.PackPath)
		if err != nil {
			return nil, err
		}
		rules = loaded
	}
	return New(rules)
}

// pack is the YAML shape of a classifier pattern pack.
type pack struct {
	Version string `yaml:"version"`
	Rules   []Rule `yaml:"rules"`
}

// LoadPack reads an ordered rule table from a YAML pattern pack.
func LoadPack(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pattern pack: %w", err)
	}

	var p pack
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse pattern pack: %w", err)
	}
	if len(p.Rules) == 0 {
		return nil, fmt.Errorf("pattern pack %s defines no rules", path)
	}
	return p.Rules, nil
}
