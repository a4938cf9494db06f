// Package binding defines the host API surface bound into every script.
//
// A Context is built fresh for each script execution and exposes exactly
// four globals to guest code, under the same names in every backend:
//
//	components  get(scheme), put(scheme, component), make(scheme, type)
//	properties  resolve(expression)
//	from        from(uri) -> route handle
//	context     the raw host context (escape hatch)
//
// Route handles expose the chainable methods listed in RouteMethods and
// component handles expose kind, set and get. Backends translate these into whatever
// is idiomatic for their guest language; the names never change.
package binding

import (
	"fmt"

	"github.com/vk/routeloader/internal/host"
)

// Global names bound into every guest scope.
const (
	GlobalComponents = "components"
	GlobalProperties = "properties"
	GlobalFrom       = "from"
	GlobalContext    = "context"
)

// Context is the per-execution binding. It must not be shared between
// executions.
type Context struct {
	Components *Components
	Properties *Properties

	host   *host.Context
	origin string
	routes []*host.RouteDefinition
}

// New builds a binding over the live host for the resource named origin.
func New(h *host.Context, origin string) *Context {
	return &Context{
		Components: &Components{host: h},
		Properties: &Properties{resolver: h.Properties()},
		host:       h,
		origin:     origin,
	}
}

// From creates a route on the host's live route table and returns a handle
// the script keeps configuring.
func (c *Context) From(uri string) (*host.RouteDefinition, error) {
	if uri == "" {
		return nil, fmt.Errorf("from: endpoint uri must not be empty")
	}
	r, err := c.host.From(uri)
	if err != nil {
		return nil, fmt.Errorf("from: %w", err)
	}
	r.Origin = c.origin
	c.routes = append(c.routes, r)
	return r, nil
}

// Routes returns the routes created through this binding, in creation order.
func (c *Context) Routes() []*host.RouteDefinition {
	return c.routes
}

// Host returns the raw host context.
func (c *Context) Host() *host.Context {
	return c.host
}
