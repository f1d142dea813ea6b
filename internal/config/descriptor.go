package config

import (
	"fmt"
	"os"

	"sigs.k8s.io/yaml"
)

// Descriptor is a microservice descriptor: the base path of the service under
// test and the collaborators it depends on. JSON and YAML are both accepted.
//
//	{
//	  "basePath": "com/example/payments",
//	  "dependencies": {
//	    "billing": {"path": "billing-stubs"}
//	  }
//	}
type Descriptor struct {
	BasePath     string                      `json:"basePath,omitempty"`
	This         string                      `json:"this,omitempty"`
	Dependencies map[string]DependencyConfig `json:"dependencies,omitempty"`
}

// LoadDescriptor reads a descriptor file.
func LoadDescriptor(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read descriptor %s: %w", path, err)
	}
	return ParseDescriptor(data)
}

// ParseDescriptor decodes a JSON or YAML descriptor.
func ParseDescriptor(data []byte) (*Descriptor, error) {
	var d Descriptor
	if err := yaml.UnmarshalStrict(data, &d); err != nil {
		return nil, fmt.Errorf("failed to parse descriptor: %w", err)
	}
	if d.BasePath == "" {
		d.BasePath = d.This
	}
	return &d, nil
}

// ApplyDescriptor merges a descriptor into the configuration. The base path
// from config.yaml wins when both are set. An alias present in both with
// different mapping paths is a conflict.
func (c *StubRunnerConfig) ApplyDescriptor(d *Descriptor) error {
	if d == nil {
		return nil
	}
	if c.BasePath == "" {
		c.BasePath = d.BasePath
	}
	if len(d.Dependencies) == 0 {
		return nil
	}
	if c.Dependencies == nil {
		c.Dependencies = make(map[string]DependencyConfig, len(d.Dependencies))
	}

	var errs ValidationErrors
	for alias, dep := range d.Dependencies {
		existing, ok := c.Dependencies[alias]
		if ok && existing.Path != dep.Path {
			errs.Add("dependencies."+alias, fmt.Sprintf("declared with path %q in config and %q in descriptor", existing.Path, dep.Path))
			continue
		}
		c.Dependencies[alias] = dep
	}
	if errs.HasErrors() {
		return errs
	}
	return nil
}
