// Package yaml_routes loads declarative route files written in YAML.
//
//	- component:
//	    scheme: ticker
//	    type: timer
//	    properties:
//	      period: 500
//	- from:
//	    uri: ticker:tick
//	    id: tick
//	    steps:
//	      - setBody: "tick at ${app.name}"
//	      - to: log:out
//
// Every string containing "${" is passed through properties.resolve.
package yaml_routes

import (
	"github.com/vk/routeloader/internal/registry"
	"gopkg.in/yaml.v3"
)

const (
	ID       = "yaml"
	Priority = 10
)

// Extensions handled by the backend.
var Extensions = []string{".yaml", ".yml"}

// Module implements the registry.Module interface.
type Module struct{}

// Register registers the YAML backend once per extension.
func (m *Module) Register(r *registry.Registry) {
	b := &Backend{}
	for _, ext := range Extensions {
		r.Register(registry.Descriptor{
			ID:        ID,
			Extension: ext,
			Priority:  Priority,
			Available: probe,
			Backend:   b,
		})
	}
}

func probe() bool {
	var doc []entry
	return yaml.Unmarshal([]byte("- from: {uri: 'direct:probe'}"), &doc) == nil && len(doc) == 1
}
