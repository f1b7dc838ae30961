package script

import (
	"reflect"
	"strings"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/plus3/tickworks/ecs"
)

func (s *System) api() map[string]lua.LGFunction {
	return map[string]lua.LGFunction{
		"alive":   s.luaAlive,
		"has":     s.luaHas,
		"count":   s.luaCount,
		"get":     s.luaGet,
		"set":     s.luaSet,
		"destroy": s.luaDestroy,
		"log":     s.luaLog,
	}
}

func (s *System) entities(L *lua.LState) *ecs.EntityManager {
	if s.frame == nil {
		L.RaiseError("ecs functions are only available during update")
	}
	return s.frame.Entities
}

func (s *System) checkEntity(L *lua.LState, n int) ecs.EntityId {
	id, err := ecs.ParseEntityId(L.CheckString(n))
	if err != nil {
		L.ArgError(n, err.Error())
	}
	return id
}

func (s *System) checkComponent(L *lua.LState, n int) reflect.Type {
	name := L.CheckString(n)
	t, ok := s.entities(L).Registry().Lookup(name)
	if !ok {
		L.ArgError(n, "unknown component "+name)
	}
	return t
}

// field returns the named field of the component, or an invalid Value when the
// entity does not hold it.
func (s *System) field(L *lua.LState) reflect.Value {
	id := s.checkEntity(L, 1)
	t := s.checkComponent(L, 2)
	name := L.CheckString(3)

	c, err := s.entities(L).GetComponent(id, t)
	if err != nil {
		return reflect.Value{}
	}
	v := reflect.ValueOf(c).Elem()
	if v.Kind() != reflect.Struct {
		L.ArgError(3, t.Name()+" is not a struct")
	}
	f := v.FieldByNameFunc(func(n string) bool { return strings.EqualFold(n, name) })
	if !f.IsValid() || !f.CanSet() {
		L.ArgError(3, "no exported field "+name+" on "+t.Name())
	}
	return f
}

func (s *System) luaAlive(L *lua.LState) int {
	L.Push(lua.LBool(s.entities(L).Alive(s.checkEntity(L, 1))))
	return 1
}

func (s *System) luaHas(L *lua.LState) int {
	id := s.checkEntity(L, 1)
	t := s.checkComponent(L, 2)
	L.Push(lua.LBool(s.entities(L).HasComponent(id, t)))
	return 1
}

func (s *System) luaCount(L *lua.LState) int {
	L.Push(lua.LNumber(s.entities(L).Len()))
	return 1
}

func (s *System) luaGet(L *lua.LState) int {
	f := s.field(L)
	if !f.IsValid() {
		L.Push(lua.LNil)
		return 1
	}
	switch f.Kind() {
	case reflect.Bool:
		L.Push(lua.LBool(f.Bool()))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		L.Push(lua.LNumber(f.Int()))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		L.Push(lua.LNumber(f.Uint()))
	case reflect.Float32, reflect.Float64:
		L.Push(lua.LNumber(f.Float()))
	case reflect.String:
		L.Push(lua.LString(f.String()))
	default:
		L.ArgError(3, "unsupported field type "+f.Type().String())
	}
	return 1
}

func (s *System) luaSet(L *lua.LState) int {
	f := s.field(L)
	if !f.IsValid() {
		L.Push(lua.LFalse)
		return 1
	}
	switch f.Kind() {
	case reflect.Bool:
		f.SetBool(L.CheckBool(4))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		f.SetInt(int64(L.CheckNumber(4)))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		f.SetUint(uint64(L.CheckNumber(4)))
	case reflect.Float32, reflect.Float64:
		f.SetFloat(float64(L.CheckNumber(4)))
	case reflect.String:
		f.SetString(L.CheckString(4))
	default:
		L.ArgError(3, "unsupported field type "+f.Type().String())
	}
	L.Push(lua.LTrue)
	return 1
}

func (s *System) luaDestroy(L *lua.LState) int {
	id := s.checkEntity(L, 1)
	s.entities(L)
	s.frame.Commands.Destroy(id)
	return 0
}

func (s *System) luaLog(L *lua.LState) int {
	s.log.Info(L.CheckString(1), zap.String("system", s.name))
	return 0
}
