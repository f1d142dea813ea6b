package mock

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"sigs.k8s.io/yaml"
)

// bodyFilesDir holds response body files next to mappings; it never
// contains mappings itself.
const bodyFilesDir = "__files"

// mappingFile is the list form of a mapping file.
type mappingFile struct {
	Mappings []*Mapping `json:"mappings"`
}

// isMappingFile reports whether path has a mapping file extension.
func isMappingFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

// LoadMappings reads every mapping file below dir, skipping __files
// directories. The result is sorted by priority, keeping file order between
// mappings of equal priority.
func LoadMappings(dir string) ([]*Mapping, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("mappings directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("mappings path %s is not a directory", dir)
	}

	var mappings []*Mapping
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == bodyFilesDir && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if !isMappingFile(path) {
			return nil
		}
		loaded, err := loadMappingFile(path)
		if err != nil {
			return err
		}
		mappings = append(mappings, loaded...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(mappings, func(i, j int) bool {
		return mappings[i].EffectivePriority() < mappings[j].EffectivePriority()
	})
	return mappings, nil
}

func loadMappingFile(path string) ([]*Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping file %s: %w", path, err)
	}
	mappings, err := ParseMappings(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load mapping file %s: %w", path, err)
	}
	for _, m := range mappings {
		m.source = path
	}
	return mappings, nil
}

// ParseMappings decodes one mapping file, JSON or YAML. A file holds either
// a single mapping or a list under "mappings". Every mapping must carry a
// request and a response object, and unknown fields are rejected.
func ParseMappings(data []byte) ([]*Mapping, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var fields map[string]interface{}
	if err := yaml.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("not a mapping document: %w", err)
	}

	if _, ok := fields["mappings"]; ok {
		var raw struct {
			Mappings []map[string]interface{} `json:"mappings"`
		}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("invalid mappings list: %w", err)
		}
		for i, m := range raw.Mappings {
			if err := requireSections(m); err != nil {
				return nil, fmt.Errorf("mapping %d: %w", i, err)
			}
		}

		var list mappingFile
		if err := yaml.UnmarshalStrict(data, &list); err != nil {
			return nil, err
		}
		for _, m := range list.Mappings {
			if err := m.compile(); err != nil {
				return nil, err
			}
		}
		return list.Mappings, nil
	}

	if err := requireSections(fields); err != nil {
		return nil, err
	}
	var single Mapping
	if err := yaml.UnmarshalStrict(data, &single); err != nil {
		return nil, err
	}
	if err := single.compile(); err != nil {
		return nil, err
	}
	return []*Mapping{&single}, nil
}

// requireSections checks that a decoded mapping has request and response
// objects.
func requireSections(fields map[string]interface{}) error {
	for _, key := range []string{"request", "response"} {
		v, ok := fields[key]
		if !ok {
			return fmt.Errorf("missing %q object", key)
		}
		if _, ok := v.(map[string]interface{}); !ok {
			return fmt.Errorf("%q must be an object", key)
		}
	}
	return nil
}
