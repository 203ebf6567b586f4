package registry

import (
	"fmt"
	"sort"

	"github.com/claimdesk/intake/pkg/domain"
)

// Registry resolves variants into ordered step descriptors.
// It is immutable after construction and safe for concurrent use.
type Registry struct {
	catalogue Catalogue
	variants  map[string][]domain.StepDescriptor
}

// New builds a registry from a catalogue and variant specs.
// It rejects unknown step ids, duplicate steps within a variant, empty and duplicate variants.
func New(catalogue Catalogue, specs ...VariantSpec) (*Registry, error) {
	r := &Registry{
		catalogue: catalogue,
		variants:  make(map[string][]domain.StepDescriptor, len(specs)),
	}
	for _, spec := range specs {
		if spec.Name == "" {
			return nil, fmt.Errorf("variant name is required")
		}
		if _, dup := r.variants[spec.Name]; dup {
			return nil, fmt.Errorf("variant %q defined twice", spec.Name)
		}
		steps, err := r.resolve(spec)
		if err != nil {
			return nil, err
		}
		r.variants[spec.Name] = steps
	}
	return r, nil
}

// Default returns the registry with the built-in catalogue and variants.
func Default() *Registry {
	r, err := New(DefaultCatalogue(), DefaultVariants()...)
	if err != nil {
		panic(fmt.Sprintf("built-in registry is invalid: %v", err))
	}
	return r
}

func (r *Registry) resolve(spec VariantSpec) ([]domain.StepDescriptor, error) {
	if len(spec.Steps) == 0 {
		return nil, fmt.Errorf("variant %q has no steps", spec.Name)
	}
	seen := make(map[string]bool, len(spec.Steps))
	steps := make([]domain.StepDescriptor, 0, len(spec.Steps))
	for i, ref := range spec.Steps {
		def, ok := r.catalogue[ref.ID]
		if !ok {
			return nil, fmt.Errorf("variant %q: %w: %s", spec.Name, domain.ErrStepNotFound, ref.ID)
		}
		if seen[ref.ID] {
			return nil, fmt.Errorf("variant %q: step %s selected twice", spec.Name, ref.ID)
		}
		seen[ref.ID] = true

		required := def.Required
		if ref.Required != nil {
			required = *ref.Required
		}
		steps = append(steps, domain.StepDescriptor{
			ID:          def.ID,
			Title:       def.Title,
			Description: def.Description,
			Required:    required,
			Order:       i,
		})
	}
	return steps, nil
}

// Steps returns a copy of the ordered steps of a variant.
func (r *Registry) Steps(variant string) ([]domain.StepDescriptor, error) {
	steps, ok := r.variants[variant]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrVariantNotFound, variant)
	}
	out := make([]domain.StepDescriptor, len(steps))
	copy(out, steps)
	return out, nil
}

// Step returns one step of a variant by id.
func (r *Registry) Step(variant, id string) (domain.StepDescriptor, error) {
	steps, ok := r.variants[variant]
	if !ok {
		return domain.StepDescriptor{}, fmt.Errorf("%w: %s", domain.ErrVariantNotFound, variant)
	}
	if i := domain.IndexOf(steps, id); i >= 0 {
		return steps[i], nil
	}
	return domain.StepDescriptor{}, fmt.Errorf("%w: %s in variant %s", domain.ErrStepNotFound, id, variant)
}

// Variants lists registered variant names in lexical order.
func (r *Registry) Variants() []string {
	names := make([]string, 0, len(r.variants))
	for name := range r.variants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
