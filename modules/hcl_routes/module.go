// Package hcl_routes loads declarative route files written in HCL.
//
//	component "ticker" {
//	  type       = "timer"
//	  properties = { period = 500 }
//	}
//
//	route "ticker:tick" {
//	  id    = "tick"
//	  steps = [
//	    { set_body = "tick at ${property("app.name")}" },
//	    { to = "log:out" },
//	  ]
//	}
//
// Blocks are applied in source order through the same binding the script
// backends use.
package hcl_routes

import (
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/routeloader/internal/registry"
)

const (
	ID        = "hcl"
	Extension = ".hcl"
	Priority  = 10
)

// Module implements the registry.Module interface.
type Module struct{}

// Register registers the HCL backend with the central registry.
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
	_, diags := hclparse.NewParser().ParseHCL([]byte(`route "direct:probe" {}`), "probe.hcl")
	return !diags.HasErrors()
}
