package js_otto

import (
	"errors"
	"fmt"
	"strings"

	"github.com/robertkrimen/otto"
	"github.com/vk/routeloader/internal/binding"
	"github.com/vk/routeloader/internal/host"
)

// handleKey is the property holding a component handle's index.
const handleKey = "__component"

var errNotComponent = errors.New("value is not a component handle")

// scope adapts a binding.Context to otto values. Host errors are thrown as
// named script errors; otto keeps only their text, so the Go errors are
// remembered and reattached by explain.
type scope struct {
	vm      *otto.Otto
	bc      *binding.Context
	comps   []host.Component
	handles map[host.Component]otto.Value
	thrown  []error
}

func newScope(vm *otto.Otto, bc *binding.Context) *scope {
	return &scope{
		vm:      vm,
		bc:      bc,
		handles: make(map[host.Component]otto.Value),
	}
}

func (s *scope) install() error {
	components, err := s.components()
	if err != nil {
		return err
	}
	properties, err := s.properties()
	if err != nil {
		return err
	}

	globals := []struct {
		name  string
		value any
	}{
		{binding.GlobalComponents, components},
		{binding.GlobalProperties, properties},
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

// throw raises err as a script exception.
func (s *scope) throw(err error) {
	s.thrown = append(s.thrown, err)
	panic(s.vm.MakeCustomError(errorName(err), err.Error()))
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

// hostError pairs the script error with the host error it was raised from.
type hostError struct {
	script error
	cause  error
}

func (e *hostError) Error() string {
	return e.script.Error()
}

func (e *hostError) Unwrap() []error {
	return []error{e.script, e.cause}
}

// explain reattaches the most recent matching host error to a script error.
func (s *scope) explain(err error) error {
	msg := err.Error()
	for i := len(s.thrown) - 1; i >= 0; i-- {
		if strings.Contains(msg, s.thrown[i].Error()) {
			return &hostError{script: err, cause: s.thrown[i]}
		}
	}
	return err
}

func (s *scope) object() *otto.Object {
	obj, err := s.vm.Object(`({})`)
	if err != nil {
		panic(err)
	}
	return obj
}

func args(call otto.FunctionCall) []string {
	out := make([]string, len(call.ArgumentList))
	for i, a := range call.ArgumentList {
		out[i] = a.String()
	}
	return out
}

func (s *scope) from(call otto.FunctionCall) otto.Value {
	r, err := s.bc.From(call.Argument(0).String())
	if err != nil {
		s.throw(err)
	}
	return s.route(r)
}

func (s *scope) route(r *host.RouteDefinition) otto.Value {
	obj := s.object()
	self := obj.Value()
	for _, m := range binding.RouteMethods {
		err := obj.Set(m.Name, func(call otto.FunctionCall) otto.Value {
			if err := m.Apply(r, args(call)); err != nil {
				s.throw(err)
			}
			return self
		})
		if err != nil {
			s.throw(err)
		}
	}
	return self
}

func (s *scope) components() (otto.Value, error) {
	obj := s.object()
	err := errors.Join(
		obj.Set("get", func(call otto.FunctionCall) otto.Value {
			comp, err := s.bc.Components.Get(call.Argument(0).String())
			if err != nil {
				s.throw(err)
			}
			return s.component(comp)
		}),
		obj.Set("put", func(call otto.FunctionCall) otto.Value {
			comp, err := s.lookup(call.Argument(1))
			if err != nil {
				s.throw(fmt.Errorf("components.put: %w", err))
			}
			if _, err := s.bc.Components.Put(call.Argument(0).String(), comp); err != nil {
				s.throw(err)
			}
			return call.Argument(1)
		}),
		obj.Set("make", func(call otto.FunctionCall) otto.Value {
			comp, err := s.bc.Components.Make(call.Argument(0).String(), call.Argument(1).String())
			if err != nil {
				s.throw(err)
			}
			return s.component(comp)
		}),
	)
	return obj.Value(), err
}

// lookup maps a handle value back to its component.
func (s *scope) lookup(v otto.Value) (host.Component, error) {
	if !v.IsObject() {
		return nil, errNotComponent
	}
	idx, err := v.Object().Get(handleKey)
	if err != nil || !idx.IsNumber() {
		return nil, errNotComponent
	}
	i, err := idx.ToInteger()
	if err != nil || i < 0 || int(i) >= len(s.comps) {
		return nil, errNotComponent
	}
	return s.comps[i], nil
}

func (s *scope) component(comp host.Component) otto.Value {
	if v, ok := s.handles[comp]; ok {
		return v
	}

	obj := s.object()
	self := obj.Value()
	err := errors.Join(
		obj.Set(handleKey, len(s.comps)),
		obj.Set(binding.ComponentKind, func(otto.FunctionCall) otto.Value {
			v, _ := s.vm.ToValue(comp.Kind())
			return v
		}),
		obj.Set(binding.ComponentSet, func(call otto.FunctionCall) otto.Value {
			value, err := call.Argument(1).Export()
			if err != nil {
				s.throw(err)
			}
			if err := comp.SetProperty(call.Argument(0).String(), value); err != nil {
				s.throw(err)
			}
			return self
		}),
		obj.Set(binding.ComponentGet, func(call otto.FunctionCall) otto.Value {
			v, ok := comp.Property(call.Argument(0).String())
			if !ok {
				return otto.UndefinedValue()
			}
			out, err := s.vm.ToValue(v)
			if err != nil {
				s.throw(err)
			}
			return out
		}),
	)
	if err != nil {
		s.throw(err)
	}

	s.comps = append(s.comps, comp)
	s.handles[comp] = self
	return self
}

func (s *scope) properties() (otto.Value, error) {
	obj := s.object()
	err := obj.Set(binding.PropertyResolveMethod, func(call otto.FunctionCall) otto.Value {
		v, err := s.bc.Properties.Resolve(call.Argument(0).String())
		if err != nil {
			s.throw(err)
		}
		out, _ := s.vm.ToValue(v)
		return out
	})
	return obj.Value(), err
}
