package host

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"

	"github.com/vk/routeloader/internal/ctxlog"
)

// StartupHook is invoked by Context.Start before the host reports itself as
// started. Returning an error aborts the start.
type StartupHook interface {
	BeforeStart(ctx context.Context, host *Context) error
}

// Option configures a Context.
type Option func(*Context)

// WithProperties seeds the property resolver.
func WithProperties(values map[string]string) Option {
	return func(c *Context) {
		for k, v := range values {
			c.properties.Set(k, v)
		}
	}
}

// WithType registers an additional component type for `components.make`.
func WithType(name string, factory ComponentFactory) Option {
	return func(c *Context) {
		c.types[name] = factory
	}
}

// WithBean registers a named bean that routes can reference via process(ref),
// replacing any bean of the same name.
func WithBean(name string, bean any) Option {
	return func(c *Context) {
		c.beans[name] = bean
	}
}

// Context is the live host state. It is not safe for concurrent use: the
// startup pass mutates it from a single goroutine.
type Context struct {
	name       string
	components map[string]Component
	types      map[string]ComponentFactory
	beans      map[string]any
	properties *Properties
	routes     []*RouteDefinition
	routeSeq   int
	hooks      []StartupHook
	started    bool
}

// New creates a host with the builtin component types registered and one
// instance of each installed under its own scheme. The builtin processors are
// installed as beans under their kinds.
func New(name string, opts ...Option) *Context {
	c := &Context{
		name:       name,
		components: make(map[string]Component),
		types:      BuiltinTypes(),
		beans:      make(map[string]any),
		properties: NewProperties(nil),
	}
	for typeName, factory := range c.types {
		c.components[typeName] = factory()
	}
	for kind, p := range BuiltinProcessors() {
		c.beans[kind] = p
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the host name.
func (c *Context) Name() string {
	return c.name
}

// Component returns the component installed under scheme.
func (c *Context) Component(scheme string) (Component, error) {
	comp, ok := c.components[scheme]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrComponentNotFound, scheme)
	}
	return comp, nil
}

// AddComponent installs comp under scheme, replacing any existing component.
func (c *Context) AddComponent(scheme string, comp Component) {
	c.components[scheme] = comp
}

// ComponentSchemes returns the installed schemes in sorted order.
func (c *Context) ComponentSchemes() []string {
	return slices.Sorted(maps.Keys(c.components))
}

// NewComponent instantiates a component of the named type without installing it.
func (c *Context) NewComponent(typeName string) (Component, error) {
	factory, ok := c.types[typeName]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, typeName)
	}
	comp := factory()
	if comp == nil {
		return nil, fmt.Errorf("%w: factory for %q returned nil", ErrUnknownType, typeName)
	}
	return comp, nil
}

// Bean returns the bean registered under name.
func (c *Context) Bean(name string) (any, bool) {
	b, ok := c.beans[name]
	return b, ok
}

// Properties returns the host's property resolver.
func (c *Context) Properties() *Properties {
	return c.properties
}

// From creates a route consuming from uri and adds it to the route table
// immediately. The route is not registered until Register accepts it.
func (c *Context) From(uri string) (*RouteDefinition, error) {
	if _, err := Scheme(uri); err != nil {
		return nil, err
	}
	r := &RouteDefinition{From: uri}
	c.routes = append(c.routes, r)
	return r, nil
}

// Routes returns every route in the table, registered or not, in creation order.
func (c *Context) Routes() []*RouteDefinition {
	return slices.Clone(c.routes)
}

// RegisteredRoutes returns the routes Register has accepted.
func (c *Context) RegisteredRoutes() []*RouteDefinition {
	var out []*RouteDefinition
	for _, r := range c.routes {
		if r.Registered {
			out = append(out, r)
		}
	}
	return out
}

// Register resolves and accepts route definitions. Every route is attempted;
// routes accepted before a failing one stay registered. Routes without an ID
// are given a generated one.
func (c *Context) Register(routes []*RouteDefinition) error {
	var errs []error
	for _, r := range routes {
		if r.Registered {
			continue
		}
		if err := c.register(r); err != nil {
			errs = append(errs, fmt.Errorf("route from %q: %w", r.From, err))
		}
	}
	return errors.Join(errs...)
}

func (c *Context) register(r *RouteDefinition) error {
	if r.ID == "" {
		r.ID = c.nextRouteID()
	}
	for _, other := range c.routes {
		if other != r && other.Registered && other.ID == r.ID {
			return fmt.Errorf("%w: %q", ErrDuplicateRoute, r.ID)
		}
	}
	for _, uri := range r.Endpoints() {
		scheme, err := Scheme(uri)
		if err != nil {
			return err
		}
		if _, ok := c.components[scheme]; !ok {
			return fmt.Errorf("%w: no component for scheme %q in %q", ErrUnresolvedEndpoint, scheme, uri)
		}
	}
	for _, s := range r.Steps {
		if s.Kind != StepProcess {
			continue
		}
		if _, ok := c.Bean(s.Args[0]); !ok {
			return fmt.Errorf("%w: no bean named %q", ErrUnresolvedEndpoint, s.Args[0])
		}
	}
	r.Registered = true
	return nil
}

func (c *Context) nextRouteID() string {
	for {
		c.routeSeq++
		id := "route" + strconv.Itoa(c.routeSeq)
		taken := false
		for _, r := range c.routes {
			if r.ID == id {
				taken = true
				break
			}
		}
		if !taken {
			return id
		}
	}
}

// AddStartupHook appends a hook run by Start.
func (c *Context) AddStartupHook(h StartupHook) {
	c.hooks = append(c.hooks, h)
}

// Start runs the startup hooks in registration order and marks the host started.
func (c *Context) Start(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	if c.started {
		return ErrAlreadyStarted
	}

	logger.Debug("Running startup hooks.", "host", c.name, "count", len(c.hooks))
	for _, h := range c.hooks {
		if err := h.BeforeStart(ctx, c); err != nil {
			return fmt.Errorf("startup hook failed: %w", err)
		}
	}

	c.started = true
	logger.Info("Host started.", "host", c.name, "routes", len(c.RegisteredRoutes()), "components", len(c.components))
	return nil
}

// Started reports whether Start completed.
func (c *Context) Started() bool {
	return c.started
}
