package registry

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the YAML layout of a flow configuration.
// Catalogue entries extend or replace the built-in ones; variants replace built-ins of the same name.
type File struct {
	Catalogue []Definition  `yaml:"catalogue"`
	Variants  []VariantSpec `yaml:"variants"`
}

// Load parses a flow configuration and merges it over the built-in registry.
func Load(r io.Reader) (*Registry, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to parse flow configuration: %w", err)
	}

	catalogue := DefaultCatalogue()
	for _, def := range f.Catalogue {
		if def.ID == "" {
			return nil, fmt.Errorf("catalogue entry without id")
		}
		catalogue[def.ID] = def
	}

	specs := DefaultVariants()
	for _, v := range f.Variants {
		replaced := false
		for i := range specs {
			if specs[i].Name == v.Name {
				specs[i] = v
				replaced = true
			}
		}
		if !replaced {
			specs = append(specs, v)
		}
	}
	return New(catalogue, specs...)
}

// LoadFile reads a flow configuration from disk.
// An empty path returns the built-in registry.
func LoadFile(path string) (*Registry, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open flow configuration: %w", err)
	}
	defer f.Close()
	return Load(f)
}
