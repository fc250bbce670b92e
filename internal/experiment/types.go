// Package experiment provides deterministic A/B bucketing.
// A persistent bucket identity is hashed together with the experiment ID and
// mapped onto the weighted variants of the experiment definition.
package experiment

import (
	"errors"
	"fmt"
)

// DefaultVariantName is returned when a definition carries no variants at all.
// Registry validation prevents this, so it only shows up for hand-built definitions.
const DefaultVariantName = "control"

// ErrInvalidDefinition is wrapped by every definition validation failure.
var ErrInvalidDefinition = errors.New("invalid experiment definition")

// Variant is one named branch of an experiment.
type Variant struct {
	// Name identifies the branch (e.g., "control", "variant_a").
	Name string `json:"name" yaml:"name"`

	// Weight is the relative probability mass. Only the relative magnitude matters.
	Weight float64 `json:"weight" yaml:"weight"`
}

// Definition describes an experiment and its weighted variants.
// The order of Variants is significant: it drives the bucket walk in SelectVariant.
type Definition struct {
	ID       string    `json:"id" yaml:"id"`
	Variants []Variant `json:"variants" yaml:"variants"`
	Enabled  bool      `json:"enabled" yaml:"enabled"`
}

// Validate enforces the structural invariants of a definition:
// a non-empty ID, at least one variant, unique variant names and non-negative weights.
func (d Definition) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidDefinition)
	}
	if len(d.Variants) == 0 {
		return fmt.Errorf("%w: experiment %q has no variants", ErrInvalidDefinition, d.ID)
	}

	seen := make(map[string]struct{}, len(d.Variants))
	for _, v := range d.Variants {
		if v.Name == "" {
			return fmt.Errorf("%w: experiment %q has a variant without name", ErrInvalidDefinition, d.ID)
		}
		if _, dup := seen[v.Name]; dup {
			return fmt.Errorf("%w: experiment %q has duplicate variant %q", ErrInvalidDefinition, d.ID, v.Name)
		}
		if v.Weight < 0 {
			return fmt.Errorf("%w: experiment %q variant %q has negative weight %v", ErrInvalidDefinition, d.ID, v.Name, v.Weight)
		}
		seen[v.Name] = struct{}{}
	}
	return nil
}

// DefaultVariant returns the variant used when the experiment is disabled,
// carries no weight, or when no identity could be obtained.
func (d Definition) DefaultVariant() string {
	if len(d.Variants) == 0 {
		return DefaultVariantName
	}
	return d.Variants[0].Name
}

// Assignment is the derived result of bucketing a user into an experiment.
// It is never persisted: it is recomputed from (ExperimentID, UserID, Definition).
type Assignment struct {
	ExperimentID string `json:"experiment_id"`
	UserID       string `json:"user_id"`
	Variant      string `json:"variant"`
}
