package provider

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Sentinel errors for registry and factory operations.
var (
	ErrProviderNotFound = errors.New("provider not found")
	ErrProviderExists   = errors.New("provider already registered")
	ErrEmptyName        = errors.New("provider name cannot be empty")
	ErrUnknownBackend   = errors.New("unknown provider backend")
)

// Registry manages named provider configurations with lazy instantiation.
// Configs are stored at registration time; providers are created on first
// Get call. Thread-safe for concurrent access.
type Registry struct {
	mu        sync.RWMutex
	configs   map[string]Config
	providers map[string]Provider
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		configs:   make(map[string]Config),
		providers: make(map[string]Provider),
	}
}

// Register adds a named provider configuration to the registry.
// The provider is not instantiated until Get is called.
func (r *Registry) Register(name string, cfg Config) error {
	if name == "" {
		return ErrEmptyName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.configs[name]; exists {
		return fmt.Errorf("%w: %s", ErrProviderExists, name)
	}

	r.configs[name] = cfg
	return nil
}

// Get retrieves a named provider, instantiating it lazily on first access.
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, registered := r.configs[name]; !registered {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, name)
	}

	if p, exists := r.providers[name]; exists {
		return p, nil
	}

	cfg := r.configs[name]
	p, err := New(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider %q: %w", name, err)
	}

	r.providers[name] = p
	return p, nil
}

// Replace updates the configuration for an existing named provider.
// Any cached instance is invalidated; the next Get re-instantiates.
func (r *Registry) Replace(name string, cfg Config) error {
	if name == "" {
		return ErrEmptyName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.configs[name]; !exists {
		return fmt.Errorf("%w: %s", ErrProviderNotFound, name)
	}

	r.configs[name] = cfg
	delete(r.providers, name)
	return nil
}

// Unregister removes a named provider from the registry.
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.configs[name]; !exists {
		return fmt.Errorf("%w: %s", ErrProviderNotFound, name)
	}

	delete(r.configs, name)
	delete(r.providers, name)
	return nil
}

// List returns the registered provider names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.configs))
	for name := range r.configs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
