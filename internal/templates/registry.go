package templates

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps template names to their configurations. It is populated at
// startup and injected into callers; the rendering engine itself never looks
// templates up.
type Registry struct {
	mu      sync.RWMutex
	configs map[string]*Config
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{configs: make(map[string]*Config)}
}

// Register validates and adds a configuration. Registering a name twice is
// an error.
func (r *Registry) Register(cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid template config %q: %w", cfg.Name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.configs[cfg.Name]; exists {
		return fmt.Errorf("template %q is already registered", cfg.Name)
	}
	r.configs[cfg.Name] = cfg
	return nil
}

// Get returns the configuration for name.
func (r *Registry) Get(name string) (*Config, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.configs[name]
	if !ok {
		return nil, fmt.Errorf("unknown template %q (available: %v)", name, r.names())
	}
	return cfg, nil
}

// Names returns the registered template names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.names()
}

func (r *Registry) names() []string {
	names := make([]string, 0, len(r.configs))
	for name := range r.configs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
