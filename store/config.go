package store

// Config holds store initialization parameters.
type Config struct {
	// Backend selects the implementation: "memory" or "sqlite".
	Backend string `json:"backend,omitempty"`
	// Path is the SQLite database file; required for the sqlite backend.
	Path string `json:"path,omitempty"`
}

// DefaultConfig returns the default store configuration (in-memory).
func DefaultConfig() Config {
	return Config{Backend: "memory"}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Backend != "" {
		c.Backend = source.Backend
	}
	if source.Path != "" {
		c.Path = source.Path
	}
}

// NewStore creates a Store from configuration.
func NewStore(cfg *Config) (Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemStore(), nil
	case "sqlite":
		path := cfg.Path
		if path == "" {
			path = "tutor.db"
		}
		return NewSQLiteStore(path)
	}
	return nil, &UnknownBackendError{Backend: cfg.Backend}
}

// UnknownBackendError reports an unrecognized store backend name.
type UnknownBackendError struct {
	Backend string
}

func (e *UnknownBackendError) Error() string {
	return "unknown store backend: " + e.Backend
}
