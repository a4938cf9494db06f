// Package js_otto runs JavaScript route scripts on the otto interpreter. It
// registers for ".js" below goja and is selected when goja is disabled or
// unavailable.
package js_otto

import (
	"github.com/robertkrimen/otto"
	"github.com/vk/routeloader/internal/registry"
)

const (
	ID        = "otto"
	Extension = ".js"
	Priority  = 10
)

// Module implements the registry.Module interface.
type Module struct{}

// Register registers the otto backend with the central registry.
func (m *Module) Register(r *registry.Registry) {
	r.Register(registry.Descriptor{
		ID:        ID,
		Extension: Extension,
		Priority:  Priority,
		Available: probe,
		Backend:   &Backend{},
	})
}

func probe() bool {
	v, err := otto.New().Run("1 + 1")
	if err != nil {
		return false
	}
	n, err := v.ToInteger()
	return err == nil && n == 2
}
