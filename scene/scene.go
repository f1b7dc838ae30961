package scene

import (
	"errors"
	"fmt"
	"reflect"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/plus3/tickworks/ecs"
)

// State is the lifecycle state of a Scene.
type State uint8

const (
	Unloaded State = iota
	Loaded
	Active
)

func (s State) String() string {
	switch s {
	case Unloaded:
		return "unloaded"
	case Loaded:
		return "loaded"
	case Active:
		return "active"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

type componentSpec struct {
	typ   reflect.Type
	node  *yaml.Node
	value any
}

// build returns a fresh component value.
func (c componentSpec) build() (any, error) {
	if c.value != nil {
		return deepCopy(reflect.ValueOf(c.value)).Interface(), nil
	}
	v := reflect.New(c.typ)
	if c.node != nil {
		if err := c.node.Decode(v.Interface()); err != nil {
			return nil, err
		}
	}
	return v.Elem().Interface(), nil
}

// deepCopy returns a copy of v that shares no slices, maps or pointers with it.
// Unexported struct fields are copied shallowly.
func deepCopy(v reflect.Value) reflect.Value {
	out := reflect.New(v.Type()).Elem()
	switch v.Kind() {
	case reflect.Ptr:
		if !v.IsNil() {
			p := reflect.New(v.Type().Elem())
			p.Elem().Set(deepCopy(v.Elem()))
			out.Set(p)
		}
	case reflect.Slice:
		if !v.IsNil() {
			s := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
			for i := 0; i < v.Len(); i++ {
				s.Index(i).Set(deepCopy(v.Index(i)))
			}
			out.Set(s)
		}
	case reflect.Array:
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(deepCopy(v.Index(i)))
		}
	case reflect.Map:
		if !v.IsNil() {
			m := reflect.MakeMapWithSize(v.Type(), v.Len())
			iter := v.MapRange()
			for iter.Next() {
				m.SetMapIndex(iter.Key(), deepCopy(iter.Value()))
			}
			out.Set(m)
		}
	case reflect.Struct:
		out.Set(v)
		for i := 0; i < v.NumField(); i++ {
			if v.Type().Field(i).IsExported() {
				out.Field(i).Set(deepCopy(v.Field(i)))
			}
		}
	case reflect.Interface:
		if !v.IsNil() {
			out.Set(deepCopy(v.Elem()))
		}
	default:
		out.Set(v)
	}
	return out
}

type entitySpec struct {
	name       string
	components []componentSpec
}

// Scene is a loaded descriptor together with the entities instantiated from it while active.
type Scene struct {
	name      string
	templates []entitySpec
	entities  []ecs.EntityId
	named     map[string]ecs.EntityId
	state     State
}

// Name returns the scene name.
func (s *Scene) Name() string {
	return s.name
}

// State returns the current lifecycle state.
func (s *Scene) State() State {
	return s.state
}

// Templates returns the number of entity templates.
func (s *Scene) Templates() int {
	return len(s.templates)
}

// Entities returns the entities this scene owns. Empty unless the scene is active.
func (s *Scene) Entities() []ecs.EntityId {
	out := make([]ecs.EntityId, len(s.entities))
	copy(out, s.entities)
	return out
}

// Entity returns the instance of the template called name.
func (s *Scene) Entity(name string) (ecs.EntityId, bool) {
	id, ok := s.named[name]
	return id, ok
}

// compile validates d against registry and resolves every component template.
// All problems are reported together.
func compile(d Descriptor, registry *ecs.ComponentRegistry) (*Scene, error) {
	var errs error
	if d.Name == "" {
		errs = multierr.Append(errs, errors.New("scene name is empty"))
	}

	s := &Scene{
		name:      d.Name,
		templates: make([]entitySpec, 0, len(d.Entities)),
	}
	names := make(map[string]int)

	for i, tmpl := range d.Entities {
		where := fmt.Sprintf("entity %d", i)
		if tmpl.Name != "" {
			where = fmt.Sprintf("entity %d (%s)", i, tmpl.Name)
			if prev, dup := names[tmpl.Name]; dup {
				errs = multierr.Append(errs, fmt.Errorf("%s: name already used by entity %d", where, prev))
			}
			names[tmpl.Name] = i
		}

		spec := entitySpec{name: tmpl.Name}
		seen := make(map[reflect.Type]bool, len(tmpl.Components))
		for j := range tmpl.Components {
			c, err := compileComponent(&tmpl.Components[j], registry)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("%s component %d: %w", where, j, err))
				continue
			}
			if seen[c.typ] {
				errs = multierr.Append(errs, fmt.Errorf("%s: duplicate component %s", where, c.typ))
				continue
			}
			seen[c.typ] = true
			spec.components = append(spec.components, c)
		}
		s.templates = append(s.templates, spec)
	}

	if errs != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidSceneDescriptor, d.Name, errs)
	}
	return s, nil
}

func compileComponent(tmpl *ComponentTemplate, registry *ecs.ComponentRegistry) (componentSpec, error) {
	if tmpl.Value != nil {
		value := tmpl.Value
		if rv := reflect.ValueOf(value); rv.Kind() == reflect.Ptr && !rv.IsNil() {
			value = rv.Elem().Interface()
		}
		t := reflect.TypeOf(value)
		if _, ok := registry.TypeOf(t); !ok {
			return componentSpec{}, fmt.Errorf("%s: %w", t, ecs.ErrUnregisteredComponent)
		}
		if tmpl.Type != "" {
			if named, _ := registry.Lookup(tmpl.Type); named != t {
				return componentSpec{}, fmt.Errorf("value of type %s does not match %q", t, tmpl.Type)
			}
		}
		return componentSpec{typ: t, value: value}, nil
	}

	if tmpl.Type == "" {
		return componentSpec{}, errors.New("component type is empty")
	}
	t, ok := registry.Lookup(tmpl.Type)
	if !ok {
		return componentSpec{}, fmt.Errorf("%q: %w", tmpl.Type, ecs.ErrUnregisteredComponent)
	}

	c := componentSpec{typ: t}
	if tmpl.Data.Kind != 0 {
		node := tmpl.Data
		c.node = &node
	}
	// Decode once now so bad data is rejected at load rather than activation.
	if _, err := c.build(); err != nil {
		return componentSpec{}, fmt.Errorf("decode %s: %w", tmpl.Type, err)
	}
	return c, nil
}
