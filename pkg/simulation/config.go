package simulation

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Parameter types understood by the prompt layer
const (
	TypeInteger  = "integer"
	TypeFloat    = "float"
	TypeString   = "string"
	TypeDuration = "duration"
	TypeBoolean  = "boolean"
)

// SimulationConfig is the manifest embedded next to each simulation as
// simulation.yaml
type SimulationConfig struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Version     string      `yaml:"version"`
	Category    string      `yaml:"category"`
	Parameters  []Parameter `yaml:"parameters"`
}

// Parameter defines a configurable parameter for a simulation
type Parameter struct {
	Name        string      `yaml:"name"`
	Type        string      `yaml:"type"`
	Description string      `yaml:"description"`
	Default     interface{} `yaml:"default"`
	Required    bool        `yaml:"required"`
	Min         interface{} `yaml:"min,omitempty"`
	Max         interface{} `yaml:"max,omitempty"`
	Options     []string    `yaml:"options,omitempty"` // For string enums
}

// ParseConfig decodes and checks a simulation manifest
func ParseConfig(data []byte) (*SimulationConfig, error) {
	var cfg SimulationConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse simulation config: %w", err)
	}
	if cfg.Name == "" {
		return nil, fmt.Errorf("simulation config has no name")
	}

	seen := make(map[string]bool, len(cfg.Parameters))
	for _, p := range cfg.Parameters {
		if p.Name == "" {
			return nil, fmt.Errorf("%s: parameter without a name", cfg.Name)
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("%s: duplicate parameter %s", cfg.Name, p.Name)
		}
		seen[p.Name] = true

		switch p.Type {
		case TypeInteger, TypeFloat, TypeString, TypeDuration, TypeBoolean:
		default:
			return nil, fmt.Errorf("%s: parameter %s has unsupported type %q", cfg.Name, p.Name, p.Type)
		}
	}

	return &cfg, nil
}

// Defaults returns every parameter that carries a default value
func (c *SimulationConfig) Defaults() map[string]interface{} {
	out := make(map[string]interface{}, len(c.Parameters))
	for _, p := range c.Parameters {
		if p.Default != nil {
			out[p.Name] = p.Default
		}
	}
	return out
}
