package binding

import (
	"errors"
	"fmt"

	"github.com/vk/routeloader/internal/host"
)

// Component handle methods exposed to guests.
const (
	ComponentKind = "kind"
	ComponentSet  = "set"
	ComponentGet  = "get"
)

// InstantiationError is raised by components.make when a type cannot be
// resolved or constructed.
type InstantiationError struct {
	Scheme string
	Type   string
	Err    error
}

func (e *InstantiationError) Error() string {
	return fmt.Sprintf("cannot make component %q of type %q: %v", e.Scheme, e.Type, e.Err)
}

func (e *InstantiationError) Unwrap() error {
	return e.Err
}

// Components gives scripts access to the host component registry.
type Components struct {
	host *host.Context
}

// Get returns the component installed under scheme. The error wraps
// host.ErrComponentNotFound when there is none.
func (c *Components) Get(scheme string) (host.Component, error) {
	comp, err := c.host.Component(scheme)
	if err != nil {
		return nil, fmt.Errorf("components.get: %w", err)
	}
	return comp, nil
}

// Put installs instance under scheme and returns it.
func (c *Components) Put(scheme string, instance host.Component) (host.Component, error) {
	if scheme == "" {
		return nil, errors.New("components.put: scheme must not be empty")
	}
	if instance == nil {
		return nil, fmt.Errorf("components.put: %q: component must not be nil", scheme)
	}
	c.host.AddComponent(scheme, instance)
	return instance, nil
}

// Make resolves typeName through the host type registry, instantiates it,
// installs it under scheme and returns it.
func (c *Components) Make(scheme, typeName string) (host.Component, error) {
	if scheme == "" {
		return nil, &InstantiationError{Scheme: scheme, Type: typeName, Err: errors.New("scheme must not be empty")}
	}
	comp, err := c.host.NewComponent(typeName)
	if err != nil {
		return nil, &InstantiationError{Scheme: scheme, Type: typeName, Err: err}
	}
	c.host.AddComponent(scheme, comp)
	return comp, nil
}
