package world

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// yamlWorldFile is the top-level YAML structure for world files.
type yamlWorldFile struct {
	World yamlWorld `yaml:"world"`
}

// yamlWorld is the YAML representation of a world.
type yamlWorld struct {
	ID        string         `yaml:"id"`
	Name      string         `yaml:"name"`
	Start     string         `yaml:"start"`
	Locations []yamlLocation `yaml:"locations"`
}

// yamlLocation is the YAML representation of a location.
type yamlLocation struct {
	ID          string    `yaml:"id"`
	Name        string    `yaml:"name"`
	Description string    `yaml:"description"`
	Connected   []string  `yaml:"connected"`
	Position    *Position `yaml:"position"`
	// Bidirectional adds the reverse connection to every target.
	Bidirectional bool `yaml:"bidirectional"`
}

// LoadFromFile reads and validates a single world YAML file.
//
// Precondition: path must point to a valid YAML world file.
// Postcondition: Returns a validated World or a non-nil error.
func LoadFromFile(path string, logger *zap.Logger) (*World, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading world file %s: %w", path, err)
	}
	return LoadFromBytes(data, logger)
}

// LoadFromBytes parses and validates a world from YAML bytes. Unknown keys
// are rejected.
//
// Precondition: data must be valid YAML conforming to the world schema.
// Postcondition: Returns a validated World or a non-nil error.
func LoadFromBytes(data []byte, logger *zap.Logger) (*World, error) {
	var file yamlWorldFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("parsing world YAML: %w", err)
	}

	w, err := convertYAMLWorld(file.World, logger)
	if err != nil {
		return nil, err
	}
	if err := w.Validate(); err != nil {
		return nil, fmt.Errorf("validating world: %w", err)
	}
	return w, nil
}

// convertYAMLWorld converts the parsed YAML structures into domain types.
func convertYAMLWorld(yw yamlWorld, logger *zap.Logger) (*World, error) {
	w, err := New(yw.ID, yw.Name, logger)
	if err != nil {
		return nil, err
	}
	for _, yl := range yw.Locations {
		loc, err := NewLocation(yl.ID, yl.Name, strings.TrimSpace(yl.Description), yl.Connected...)
		if err != nil {
			return nil, fmt.Errorf("world %q: %w", yw.ID, err)
		}
		if yl.Position != nil {
			loc.Position = *yl.Position
		}
		w.AddLocation(loc)
	}
	for _, yl := range yw.Locations {
		if !yl.Bidirectional {
			continue
		}
		for _, target := range yl.Connected {
			if dest, ok := w.locations[target]; ok {
				dest.Connect(yl.ID)
			}
		}
	}
	if yw.Start != "" {
		if err := w.SetStart(yw.Start); err != nil {
			return nil, err
		}
	}
	return w, nil
}
