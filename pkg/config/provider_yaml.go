package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements Provider for YAML device library files.
type YAMLProvider struct {
	filename string
}

// NewYAMLProvider creates a new YAML device library provider.
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadLibrary loads the complete device library from the YAML file. Every
// device definition is converted once to catch configuration errors at load
// time rather than at first use.
func (y *YAMLProvider) LoadLibrary() (*Library, error) {
	contents, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read device library: %w", err)
	}

	var library Library
	if err := yaml.Unmarshal(contents, &library); err != nil {
		return nil, fmt.Errorf("failed to parse device library: %w", err)
	}
	if len(library.Devices) == 0 {
		return nil, fmt.Errorf("device library %s contains no devices", y.filename)
	}

	seen := make(map[string]bool, len(library.Devices))
	for _, d := range library.Devices {
		if seen[d.Name] {
			return nil, fmt.Errorf("device library %s: duplicate device name %q", y.filename, d.Name)
		}
		seen[d.Name] = true
		if _, err := d.ReferenceDevice(); err != nil {
			return nil, err
		}
	}
	return &library, nil
}

// Close is a no-op for file-backed libraries.
func (y *YAMLProvider) Close() error { return nil }
