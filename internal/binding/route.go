package binding

import (
	"fmt"

	"github.com/vk/routeloader/internal/host"
)

// RouteMethod is a chainable method of the route handle returned by from().
type RouteMethod struct {
	Name  string
	Arity int
	apply func(r *host.RouteDefinition, args []string)
}

// RouteMethods is the route handle surface, identical across backends.
var RouteMethods = []RouteMethod{
	{Name: "routeId", Arity: 1, apply: func(r *host.RouteDefinition, a []string) { r.RouteID(a[0]) }},
	{Name: "description", Arity: 1, apply: func(r *host.RouteDefinition, a []string) { r.Describe(a[0]) }},
	{Name: "setBody", Arity: 1, apply: func(r *host.RouteDefinition, a []string) { r.SetBody(a[0]) }},
	{Name: "setHeader", Arity: 2, apply: func(r *host.RouteDefinition, a []string) { r.SetHeader(a[0], a[1]) }},
	{Name: "to", Arity: 1, apply: func(r *host.RouteDefinition, a []string) { r.To(a[0]) }},
	{Name: "log", Arity: 1, apply: func(r *host.RouteDefinition, a []string) { r.Log(a[0]) }},
	{Name: "process", Arity: 1, apply: func(r *host.RouteDefinition, a []string) { r.Process(a[0]) }},
}

// Apply invokes the method on r after checking the argument count.
func (m RouteMethod) Apply(r *host.RouteDefinition, args []string) error {
	if len(args) != m.Arity {
		return fmt.Errorf("%s expects %d argument(s), got %d", m.Name, m.Arity, len(args))
	}
	m.apply(r, args)
	return nil
}

// ApplyRouteMethod looks up a route method by name and applies it.
func ApplyRouteMethod(r *host.RouteDefinition, name string, args []string) error {
	for _, m := range RouteMethods {
		if m.Name == name {
			return m.Apply(r, args)
		}
	}
	return fmt.Errorf("route has no method %q", name)
}
