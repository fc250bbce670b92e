package experiment

import (
	"fmt"
	"os"
	"slices"
	"sort"

	"gopkg.in/yaml.v3"
)

// OnboardingCTACopy is the experiment that drives the onboarding call-to-action copy.
const OnboardingCTACopy = "onboarding_cta_copy"

// Registry is an immutable mapping of experiment ID to definition.
// It is built once at startup and shared by reference.
type Registry struct {
	defs map[string]Definition
}

// registryFile is the on-disk schema of experiments.yaml.
type registryFile struct {
	Experiments []Definition `yaml:"experiments"`
}

// NewRegistry validates the definitions and indexes them by ID.
// Duplicate IDs are rejected to keep lookups unambiguous.
func NewRegistry(defs ...Definition) (*Registry, error) {
	index := make(map[string]Definition, len(defs))
	for _, d := range defs {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if _, dup := index[d.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate experiment id %q", ErrInvalidDefinition, d.ID)
		}
		// Copy the variants so callers cannot mutate the registry through their slice.
		d.Variants = append([]Variant(nil), d.Variants...)
		index[d.ID] = d
	}
	return &Registry{defs: index}, nil
}

// DefaultDefinitions returns the experiments shipped with the application.
func DefaultDefinitions() []Definition {
	return []Definition{
		{
			ID:      OnboardingCTACopy,
			Enabled: true,
			Variants: []Variant{
				{Name: "control", Weight: 1},
				{Name: "variant_a", Weight: 1},
			},
		},
	}
}

// DefaultRegistry builds a registry from DefaultDefinitions.
func DefaultRegistry() *Registry {
	reg, err := NewRegistry(DefaultDefinitions()...)
	if err != nil {
		// Built-in definitions are static; failing here is a programming error.
		panic(fmt.Sprintf("experiment: invalid built-in registry: %v", err))
	}
	return reg
}

// LoadRegistryFile reads experiment definitions from a YAML file.
//
// Example:
//
//	experiments:
//	  - id: onboarding_cta_copy
//	    enabled: true
//	    variants:
//	      - {name: control, weight: 1}
//	      - {name: variant_a, weight: 1}
func LoadRegistryFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry file: %w", err)
	}
	return ParseRegistry(data)
}

// ParseRegistry decodes YAML (or JSON, which is valid YAML) registry content.
func ParseRegistry(data []byte) (*Registry, error) {
	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse registry: %w", err)
	}
	return NewRegistry(file.Experiments...)
}

// Lookup returns the definition for id.
// The boolean is false for unknown experiments, which callers treat as "no assignment".
func (r *Registry) Lookup(id string) (Definition, bool) {
	if r == nil {
		return Definition{}, false
	}
	d, ok := r.defs[id]
	d.Variants = slices.Clone(d.Variants)
	return d, ok
}

// Len returns the number of registered experiments.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.defs)
}

// List returns all definitions sorted by ID (deterministic output for APIs and CLIs).
func (r *Registry) List() []Definition {
	if r == nil {
		return nil
	}
	out := make([]Definition, 0, len(r.defs))
	for _, d := range r.defs {
		d.Variants = slices.Clone(d.Variants)
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
