package host

import (
	"fmt"
	"maps"
	"slices"
)

// Component is an endpoint factory installed on the host under a URI scheme.
// Scripts configure components through their properties.
type Component interface {
	Kind() string
	SetProperty(name string, value any) error
	Property(name string) (any, bool)
}

// ComponentFactory constructs a fresh, unregistered component.
type ComponentFactory func() Component

// BasicComponent is a component backed by a fixed set of named options. Only
// options declared at construction time can be set.
type BasicComponent struct {
	kind     string
	defaults map[string]any
	values   map[string]any
}

// NewBasicComponent creates a component of the given kind accepting exactly
// the keys of defaults as properties.
func NewBasicComponent(kind string, defaults map[string]any) *BasicComponent {
	return &BasicComponent{
		kind:     kind,
		defaults: maps.Clone(defaults),
		values:   make(map[string]any),
	}
}

// Kind returns the component type name.
func (c *BasicComponent) Kind() string {
	return c.kind
}

// SetProperty sets a declared option.
func (c *BasicComponent) SetProperty(name string, value any) error {
	if _, ok := c.defaults[name]; !ok {
		return fmt.Errorf("%w: %s component has no property %q (known: %v)", ErrUnknownProperty, c.kind, name, c.PropertyNames())
	}
	c.values[name] = value
	return nil
}

// Property returns the value of an option, falling back to its default.
func (c *BasicComponent) Property(name string) (any, bool) {
	if v, ok := c.values[name]; ok {
		return v, true
	}
	v, ok := c.defaults[name]
	return v, ok
}

// PropertyNames returns the declared option names in sorted order.
func (c *BasicComponent) PropertyNames() []string {
	return slices.Sorted(maps.Keys(c.defaults))
}

// BuiltinTypes returns the component types every host knows about, keyed by
// type name. New hosts also install one instance of each under the scheme of
// the same name.
func BuiltinTypes() map[string]ComponentFactory {
	return map[string]ComponentFactory{
		"log": func() Component {
			return NewBasicComponent("log", map[string]any{
				"level":       "INFO",
				"formatter":   "",
				"showHeaders": false,
			})
		},
		"direct": func() Component {
			return NewBasicComponent("direct", map[string]any{
				"block":   true,
				"timeout": "30s",
			})
		},
		"timer": func() Component {
			return NewBasicComponent("timer", map[string]any{
				"period": "1s",
				"delay":  "0s",
			})
		},
		"mock": func() Component {
			return NewBasicComponent("mock", map[string]any{
				"expectedCount": 0,
			})
		},
		"seda": func() Component {
			return NewBasicComponent("seda", map[string]any{
				"size":                1000,
				"concurrentConsumers": 1,
			})
		},
	}
}
