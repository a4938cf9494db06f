package js_goja

import (
	"errors"
	"fmt"

	"github.com/dop251/goja"
	"github.com/vk/routeloader/internal/binding"
	"github.com/vk/routeloader/internal/host"
)

var errNotComponent = errors.New("value is not a component handle")

// scope adapts a binding.Context to goja values. Go errors are thrown as
// GoError objects, so scripts can catch them and the caller can unwrap them.
type scope struct {
	vm      *goja.Runtime
	bc      *binding.Context
	handles map[host.Component]*goja.Object
	comps   map[*goja.Object]host.Component
}

func newScope(vm *goja.Runtime, bc *binding.Context) *scope {
	return &scope{
		vm:      vm,
		bc:      bc,
		handles: make(map[host.Component]*goja.Object),
		comps:   make(map[*goja.Object]host.Component),
	}
}

func (s *scope) install() error {
	globals := []struct {
		name  string
		value any
	}{
		{binding.GlobalComponents, s.components()},
		{binding.GlobalProperties, s.properties()},
		{binding.GlobalFrom, s.from},
		{binding.GlobalContext, s.bc.Host()},
	}
	for _, g := range globals {
		if err := s.vm.Set(g.name, g.value); err != nil {
			return fmt.Errorf("set %s: %w", g.name, err)
		}
	}
	return nil
}

func (s *scope) throw(err error) {
	panic(s.vm.NewGoError(err))
}

func (s *scope) set(obj *goja.Object, name string, fn func(goja.FunctionCall) goja.Value) {
	if err := obj.Set(name, fn); err != nil {
		s.throw(err)
	}
}

func args(call goja.FunctionCall) []string {
	out := make([]string, len(call.Arguments))
	for i, a := range call.Arguments {
		out[i] = a.String()
	}
	return out
}

func (s *scope) from(call goja.FunctionCall) goja.Value {
	r, err := s.bc.From(call.Argument(0).String())
	if err != nil {
		s.throw(err)
	}
	return s.route(r)
}

func (s *scope) route(r *host.RouteDefinition) *goja.Object {
	obj := s.vm.NewObject()
	for _, m := range binding.RouteMethods {
		s.set(obj, m.Name, func(call goja.FunctionCall) goja.Value {
			if err := m.Apply(r, args(call)); err != nil {
				s.throw(err)
			}
			return obj
		})
	}
	return obj
}

func (s *scope) components() *goja.Object {
	obj := s.vm.NewObject()
	s.set(obj, "get", func(call goja.FunctionCall) goja.Value {
		comp, err := s.bc.Components.Get(call.Argument(0).String())
		if err != nil {
			s.throw(err)
		}
		return s.component(comp)
	})
	s.set(obj, "put", func(call goja.FunctionCall) goja.Value {
		handle := call.Argument(1).ToObject(s.vm)
		comp, ok := s.comps[handle]
		if !ok {
			s.throw(fmt.Errorf("components.put: %w", errNotComponent))
		}
		if _, err := s.bc.Components.Put(call.Argument(0).String(), comp); err != nil {
			s.throw(err)
		}
		return handle
	})
	s.set(obj, "make", func(call goja.FunctionCall) goja.Value {
		comp, err := s.bc.Components.Make(call.Argument(0).String(), call.Argument(1).String())
		if err != nil {
			s.throw(err)
		}
		return s.component(comp)
	})
	return obj
}

// component returns the handle of comp, creating it on first use so the same
// component always maps to the same object.
func (s *scope) component(comp host.Component) *goja.Object {
	if obj, ok := s.handles[comp]; ok {
		return obj
	}
	obj := s.vm.NewObject()
	s.set(obj, binding.ComponentKind, func(goja.FunctionCall) goja.Value {
		return s.vm.ToValue(comp.Kind())
	})
	s.set(obj, binding.ComponentSet, func(call goja.FunctionCall) goja.Value {
		if err := comp.SetProperty(call.Argument(0).String(), call.Argument(1).Export()); err != nil {
			s.throw(err)
		}
		return obj
	})
	s.set(obj, binding.ComponentGet, func(call goja.FunctionCall) goja.Value {
		v, ok := comp.Property(call.Argument(0).String())
		if !ok {
			return goja.Undefined()
		}
		return s.vm.ToValue(v)
	})
	s.handles[comp] = obj
	s.comps[obj] = comp
	return obj
}

func (s *scope) properties() *goja.Object {
	obj := s.vm.NewObject()
	s.set(obj, binding.PropertyResolveMethod, func(call goja.FunctionCall) goja.Value {
		v, err := s.bc.Properties.Resolve(call.Argument(0).String())
		if err != nil {
			s.throw(err)
		}
		return s.vm.ToValue(v)
	})
	return obj
}
