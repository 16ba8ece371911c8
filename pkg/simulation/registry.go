package simulation

import (
	"fmt"
	"sort"
	"sync"
)

// Entry is a registered simulation together with its manifest
type Entry struct {
	Config  SimulationConfig
	factory func() Simulation
}

// Registry manages available simulations
type Registry struct {
	mu          sync.RWMutex
	simulations map[string]Entry
}

// NewRegistry creates a new simulation registry
func NewRegistry() *Registry {
	return &Registry{
		simulations: make(map[string]Entry),
	}
}

// Register adds a simulation under the name from its manifest
func (r *Registry) Register(manifest []byte, factory func() Simulation) error {
	cfg, err := ParseConfig(manifest)
	if err != nil {
		return err
	}
	if factory == nil {
		return fmt.Errorf("simulation %s has no factory", cfg.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.simulations[cfg.Name]; exists {
		return fmt.Errorf("simulation %s already registered", cfg.Name)
	}

	r.simulations[cfg.Name] = Entry{Config: *cfg, factory: factory}
	return nil
}

// MustRegister is Register for init functions
func (r *Registry) MustRegister(manifest []byte, factory func() Simulation) {
	if err := r.Register(manifest, factory); err != nil {
		panic(err)
	}
}

// Get returns a new instance of the requested simulation
func (r *Registry) Get(name string) (Simulation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, exists := r.simulations[name]
	if !exists {
		return nil, fmt.Errorf("simulation %s not found", name)
	}

	return entry.factory(), nil
}

// Config returns the manifest of a registered simulation
func (r *Registry) Config(name string) (SimulationConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, exists := r.simulations[name]
	if !exists {
		return SimulationConfig{}, fmt.Errorf("simulation %s not found", name)
	}
	return entry.Config, nil
}

// List returns every registered manifest sorted by name
func (r *Registry) List() []SimulationConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	configs := make([]SimulationConfig, 0, len(r.simulations))
	for _, e := range r.simulations {
		configs = append(configs, e.Config)
	}
	sort.Slice(configs, func(i, j int) bool { return configs[i].Name < configs[j].Name })
	return configs
}

// DefaultRegistry is the global simulation registry
var DefaultRegistry = NewRegistry()
