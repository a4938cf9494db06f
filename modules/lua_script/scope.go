package lua_script

import (
	"errors"
	"fmt"

	lua "github.com/yuin/gopher-lua"
	"github.com/vk/routeloader/internal/binding"
	"github.com/vk/routeloader/internal/host"
)

// Metatable names.
const (
	routeType     = "routeloader.route"
	componentType = "routeloader.component"
	contextType   = "routeloader.context"
	errorType     = "routeloader.error"
)

var errNotComponent = errors.New("value is not a component handle")

// scope adapts a binding.Context to Lua values. Host errors are raised as
// userdata carrying the Go error, so pcall sees an object with message and
// name fields and the caller can recover the original error.
type scope struct {
	L       *lua.LState
	bc      *binding.Context
	handles map[host.Component]*lua.LUserData
}

func newScope(L *lua.LState, bc *binding.Context) *scope {
	return &scope{L: L, bc: bc, handles: make(map[host.Component]*lua.LUserData)}
}

func (s *scope) install() error {
	L := s.L

	routeMethods := make(map[string]lua.LGFunction, len(binding.RouteMethods))
	for _, m := range binding.RouteMethods {
		routeMethods[m.Name] = s.routeMethod(m)
	}
	L.SetField(L.NewTypeMetatable(routeType), "__index", L.SetFuncs(L.NewTable(), routeMethods))

	L.SetField(L.NewTypeMetatable(componentType), "__index", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		binding.ComponentKind: s.componentKind,
		binding.ComponentSet:  s.componentSet,
		binding.ComponentGet:  s.componentGet,
	}))

	L.SetField(L.NewTypeMetatable(contextType), "__index", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"name": func(L *lua.LState) int {
			L.Push(lua.LString(s.bc.Host().Name()))
			return 1
		},
		"schemes": func(L *lua.LState) int {
			t := L.NewTable()
			for _, scheme := range s.bc.Host().ComponentSchemes() {
				t.Append(lua.LString(scheme))
			}
			L.Push(t)
			return 1
		},
	}))

	errMeta := L.NewTypeMetatable(errorType)
	L.SetFuncs(errMeta, map[string]lua.LGFunction{
		"__tostring": func(L *lua.LState) int {
			L.Push(lua.LString(hostErr(L).Error()))
			return 1
		},
		"__index": func(L *lua.LState) int {
			err := hostErr(L)
			switch L.CheckString(2) {
			case "message":
				L.Push(lua.LString(err.Error()))
			case "name":
				L.Push(lua.LString(errorName(err)))
			default:
				L.Push(lua.LNil)
			}
			return 1
		},
	})

	ctxHandle := L.NewUserData()
	ctxHandle.Value = s.bc.Host()
	L.SetMetatable(ctxHandle, L.GetTypeMetatable(contextType))

	L.SetGlobal(binding.GlobalComponents, L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"get":  s.componentsGet,
		"put":  s.componentsPut,
		"make": s.componentsMake,
	}))
	L.SetGlobal(binding.GlobalProperties, L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		binding.PropertyResolveMethod: s.resolve,
	}))
	L.SetGlobal(binding.GlobalFrom, L.NewFunction(s.from))
	L.SetGlobal(binding.GlobalContext, ctxHandle)
	return nil
}

// throw raises err as a Lua error value.
func (s *scope) throw(err error) {
	ud := s.L.NewUserData()
	ud.Value = err
	s.L.SetMetatable(ud, s.L.GetTypeMetatable(errorType))
	s.L.Error(ud, 1)
}

func hostErr(L *lua.LState) error {
	if err, ok := L.CheckUserData(1).Value.(error); ok {
		return err
	}
	return errors.New("unknown error")
}

func errorName(err error) string {
	var instErr *binding.InstantiationError
	var propErr *binding.PropertyResolutionError
	switch {
	case errors.As(err, &instErr):
		return "InstantiationError"
	case errors.As(err, &propErr):
		return "PropertyResolutionError"
	default:
		return "Error"
	}
}

// explain unwraps a host error raised through throw from a Lua API error.
func explain(err error) error {
	var apiErr *lua.ApiError
	if errors.As(err, &apiErr) {
		if ud, ok := apiErr.Object.(*lua.LUserData); ok {
			if cause, ok := ud.Value.(error); ok {
				return cause
			}
		}
	}
	return err
}

func (s *scope) from(L *lua.LState) int {
	r, err := s.bc.From(L.CheckString(1))
	if err != nil {
		s.throw(err)
	}
	ud := L.NewUserData()
	ud.Value = r
	L.SetMetatable(ud, L.GetTypeMetatable(routeType))
	L.Push(ud)
	return 1
}

func (s *scope) routeMethod(m binding.RouteMethod) lua.LGFunction {
	return func(L *lua.LState) int {
		ud := L.CheckUserData(1)
		r, ok := ud.Value.(*host.RouteDefinition)
		if !ok {
			L.ArgError(1, "route expected")
		}
		args := make([]string, 0, L.GetTop()-1)
		for i := 2; i <= L.GetTop(); i++ {
			args = append(args, lua.LVAsString(L.Get(i)))
		}
		if err := m.Apply(r, args); err != nil {
			s.throw(err)
		}
		L.Push(ud)
		return 1
	}
}

func (s *scope) componentsGet(L *lua.LState) int {
	comp, err := s.bc.Components.Get(L.CheckString(1))
	if err != nil {
		s.throw(err)
	}
	L.Push(s.component(comp))
	return 1
}

func (s *scope) componentsPut(L *lua.LState) int {
	scheme := L.CheckString(1)
	ud, ok := L.Get(2).(*lua.LUserData)
	if !ok {
		s.throw(fmt.Errorf("components.put: %w", errNotComponent))
	}
	comp, ok := ud.Value.(host.Component)
	if !ok {
		s.throw(fmt.Errorf("components.put: %w", errNotComponent))
	}
	if _, err := s.bc.Components.Put(scheme, comp); err != nil {
		s.throw(err)
	}
	L.Push(ud)
	return 1
}

func (s *scope) componentsMake(L *lua.LState) int {
	comp, err := s.bc.Components.Make(L.CheckString(1), L.CheckString(2))
	if err != nil {
		s.throw(err)
	}
	L.Push(s.component(comp))
	return 1
}

func (s *scope) component(comp host.Component) *lua.LUserData {
	if ud, ok := s.handles[comp]; ok {
		return ud
	}
	ud := s.L.NewUserData()
	ud.Value = comp
	s.L.SetMetatable(ud, s.L.GetTypeMetatable(componentType))
	s.handles[comp] = ud
	return ud
}

func checkComponent(L *lua.LState) (*lua.LUserData, host.Component) {
	ud := L.CheckUserData(1)
	comp, ok := ud.Value.(host.Component)
	if !ok {
		L.ArgError(1, "component expected")
	}
	return ud, comp
}

func (s *scope) componentKind(L *lua.LState) int {
	_, comp := checkComponent(L)
	L.Push(lua.LString(comp.Kind()))
	return 1
}

func (s *scope) componentSet(L *lua.LState) int {
	ud, comp := checkComponent(L)
	if err := comp.SetProperty(L.CheckString(2), fromLua(L.CheckAny(3))); err != nil {
		s.throw(err)
	}
	L.Push(ud)
	return 1
}

func (s *scope) componentGet(L *lua.LState) int {
	_, comp := checkComponent(L)
	v, ok := comp.Property(L.CheckString(2))
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(toLua(v))
	return 1
}

func (s *scope) resolve(L *lua.LState) int {
	v, err := s.bc.Properties.Resolve(L.CheckString(1))
	if err != nil {
		s.throw(err)
	}
	L.Push(lua.LString(v))
	return 1
}

func fromLua(v lua.LValue) any {
	switch v := v.(type) {
	case lua.LNumber:
		f := float64(v)
		if f == float64(int64(f)) {
			return int64(f)
		}
		return f
	case lua.LString:
		return string(v)
	case lua.LBool:
		return bool(v)
	case *lua.LNilType:
		return nil
	default:
		return v.String()
	}
}

func toLua(v any) lua.LValue {
	switch v := v.(type) {
	case nil:
		return lua.LNil
	case string:
		return lua.LString(v)
	case bool:
		return lua.LBool(v)
	case int:
		return lua.LNumber(v)
	case int64:
		return lua.LNumber(v)
	case float64:
		return lua.LNumber(v)
	default:
		return lua.LString(fmt.Sprint(v))
	}
}
