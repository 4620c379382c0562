package provision

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// manifest is the YAML document listing the tools to provision.
type manifest struct {
	Tools []ToolSpec `yaml:"tools"`
}

// LoadManifest reads a toolchain manifest from path. The manifest replaces
// the built-in toolchain wholesale; every spec is validated before any work
// starts.
func LoadManifest(path string) ([]ToolSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if len(m.Tools) == 0 {
		return nil, fmt.Errorf("manifest %s declares no tools", path)
	}
	for _, spec := range m.Tools {
		if err := spec.Validate(); err != nil {
			return nil, fmt.Errorf("manifest %s: %w", path, err)
		}
	}
	return m.Tools, nil
}
