// Package js_goja runs JavaScript route scripts on the goja engine. It is the
// preferred ".js" backend.
package js_goja

import (
	"github.com/dop251/goja"
	"github.com/vk/routeloader/internal/registry"
)

const (
	ID        = "goja"
	Extension = ".js"
	Priority  = 20
)

// Module implements the registry.Module interface.
type Module struct{}

// Register registers the goja backend with the central registry.
func (m *Module) Register(r *registry.Registry) {
	r.Register(registry.Descriptor{
		ID:        ID,
		Extension: Extension,
		Priority:  Priority,
		Available: probe,
		Backend:   &Backend{},
	})
}

// probe checks that the engine evaluates a trivial expression.
func probe() bool {
	v, err := goja.New().RunString("1 + 1")
	return err == nil && v.ToInteger() == 2
}
