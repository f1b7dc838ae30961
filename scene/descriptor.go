package scene

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Descriptor describes a scene: a name and an ordered list of entity templates.
// Descriptors are plain data; a Manager validates them on Load.
type Descriptor struct {
	Name     string           `yaml:"name"`
	Entities []EntityTemplate `yaml:"entities"`
}

// EntityTemplate describes one entity instantiated when the scene activates.
// Name is optional and, when set, must be unique within the scene.
type EntityTemplate struct {
	Name       string              `yaml:"name"`
	Components []ComponentTemplate `yaml:"components"`
}

// ComponentTemplate is the initial state of one component.
//
// Type is the registered component name. Data holds the initial field values and is
// decoded into a fresh value of that type every time the scene is instantiated; a
// missing Data node yields the zero value. Descriptors built in Go can set Value
// instead, in which case Type may be left empty. Value is deep-copied for every
// instance, except for unexported fields.
type ComponentTemplate struct {
	Type  string    `yaml:"type"`
	Data  yaml.Node `yaml:"data"`
	Value any       `yaml:"-"`
}

// Component returns a template holding value. The component type is taken from
// value's Go type when the descriptor is loaded.
func Component(value any) ComponentTemplate {
	return ComponentTemplate{Value: value}
}

// Entity returns a named template with the given components.
func Entity(name string, components ...ComponentTemplate) EntityTemplate {
	return EntityTemplate{Name: name, Components: components}
}

// ParseDescriptor decodes a YAML scene descriptor. Unknown keys are rejected.
func ParseDescriptor(data []byte) (Descriptor, error) {
	var d Descriptor
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil {
		if errors.Is(err, io.EOF) {
			return Descriptor{}, fmt.Errorf("%w: empty document", ErrInvalidSceneDescriptor)
		}
		return Descriptor{}, fmt.Errorf("%w: %w", ErrInvalidSceneDescriptor, err)
	}
	return d, nil
}

// LoadDescriptorFile reads and parses the YAML scene descriptor at path.
func LoadDescriptorFile(path string) (Descriptor, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Descriptor{}, fmt.Errorf("read scene %s: %w", path, err)
	}
	d, err := ParseDescriptor(raw)
	if err != nil {
		return Descriptor{}, fmt.Errorf("parse scene %s: %w", path, err)
	}
	return d, nil
}
