// Package script runs systems written in Lua.
//
// A script declares the components it needs and an update function:
//
//	requires = {"Position", "Velocity"}
//
//	function update(dt, entities)
//	  for _, id in ipairs(entities) do
//	    local x = ecs.get(id, "Position", "X")
//	    ecs.set(id, "Position", "X", x + ecs.get(id, "Velocity", "DX") * dt)
//	  end
//	end
//
// Entity ids are passed to Lua as "index:generation" strings. The global ecs table
// exposes alive, has, count, get, set, destroy and log. destroy is deferred until
// the end of the tick.
package script

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/plus3/tickworks/ecs"
)

// ErrNoUpdate is returned when a script does not define an update function.
var ErrNoUpdate = errors.New("script defines no update function")

// Option configures a System.
type Option func(*System)

// WithLogger sets the logger behind ecs.log.
func WithLogger(logger *zap.Logger) Option {
	return func(s *System) {
		if logger != nil {
			s.log = logger
		}
	}
}

// System is an ecs.System whose Execute calls the script's update function.
// A System owns its Lua VM and must only be used from the tick goroutine.
type System struct {
	name     string
	vm       *lua.LState
	update   lua.LValue
	requires []string
	sigErr   error
	frame    *ecs.UpdateFrame
	log      *zap.Logger
}

// New compiles source and runs its top level. name is used for stats, logs and
// priority configuration.
func New(name, source string, opts ...Option) (*System, error) {
	s := &System{name: name, log: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}

	s.vm = lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, lib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		s.vm.Push(s.vm.NewFunction(lib.fn))
		s.vm.Push(lua.LString(lib.name))
		s.vm.Call(1, 0)
	}
	s.vm.SetGlobal("ecs", s.vm.SetFuncs(s.vm.NewTable(), s.api()))

	if err := s.vm.DoString(source); err != nil {
		s.vm.Close()
		return nil, fmt.Errorf("load script %s: %w", name, err)
	}

	s.update = s.vm.GetGlobal("update")
	if s.update.Type() != lua.LTFunction {
		s.vm.Close()
		return nil, fmt.Errorf("load script %s: %w", name, ErrNoUpdate)
	}

	if req, ok := s.vm.GetGlobal("requires").(*lua.LTable); ok {
		req.ForEach(func(_, v lua.LValue) {
			s.requires = append(s.requires, lua.LVAsString(v))
		})
	}
	return s, nil
}

// LoadFile reads a script from path. The system is named after the file without its
// extension.
func LoadFile(path string, opts ...Option) (*System, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script %s: %w", path, err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return New(name, string(src), opts...)
}

func (s *System) Name() string {
	return s.name
}

// Requires returns the component names listed in the script's requires table.
func (s *System) Requires() []string {
	return s.requires
}

// Signature resolves the required component names. Unknown names make every
// Execute fail with ecs.ErrUnregisteredComponent.
func (s *System) Signature(registry *ecs.ComponentRegistry) ecs.Signature {
	sig, err := registry.SignatureByName(s.requires...)
	if err != nil {
		s.sigErr = err
		return ecs.Signature{}
	}
	s.sigErr = nil
	return sig
}

// Execute calls update(dt, entities) with the matching entities as an array.
func (s *System) Execute(frame *ecs.UpdateFrame) error {
	if s.sigErr != nil {
		return s.sigErr
	}
	s.frame = frame
	defer func() { s.frame = nil }()

	entities := s.vm.NewTable()
	for id := range frame.Matches {
		entities.Append(lua.LString(id.String()))
	}

	return s.vm.CallByParam(lua.P{
		Fn:      s.update,
		NRet:    0,
		Protect: true,
	}, lua.LNumber(frame.DeltaTime), entities)
}

// Close releases the Lua VM.
func (s *System) Close() {
	s.vm.Close()
}
