package symbols

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wonny/optsignals/internal/contracts"
)

// file is the on-disk profile layout
type file struct {
	Thresholds contracts.Thresholds `yaml:"thresholds"`
	Symbols    []Symbol             `yaml:"symbols"`
}

// Load reads a YAML profile. Unknown fields are rejected; thresholds not
// present in the file keep their defaults.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read symbols file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML profile
func Parse(data []byte) (*Registry, error) {
	f := file{Thresholds: contracts.DefaultThresholds()}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // 오타 필드는 즉시 실패
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode symbols file: %w", err)
	}

	if len(f.Symbols) == 0 {
		return nil, fmt.Errorf("symbols file defines no symbols")
	}

	return newRegistry(f.Symbols, f.Thresholds)
}

// LoadOrDefault loads path when set, otherwise returns the built-in profile
func LoadOrDefault(path string) (*Registry, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}
