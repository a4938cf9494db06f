package testutil

import (
	"context"

	"github.com/vk/routeloader/internal/backend"
	"github.com/vk/routeloader/internal/binding"
	"github.com/vk/routeloader/internal/registry"
	"github.com/vk/routeloader/internal/resource"
)

// SimpleModule is a test helper for easily creating a mock module that
// registers a single backend.
type SimpleModule struct {
	ID        string
	Extension string
	Priority  int
	// Unavailable makes the availability probe report false.
	Unavailable bool
	// Fn is the backend body. A nil Fn consumes the resource and succeeds.
	Fn backend.Func
}

// Register implements the registry.Module interface.
func (m *SimpleModule) Register(r *registry.Registry) {
	fn := m.Fn
	if fn == nil {
		fn = func(_ context.Context, res *resource.Resource, _ *binding.Context) error {
			_, err := res.ReadAll()
			return err
		}
	}
	r.Register(registry.Descriptor{
		ID:        m.ID,
		Extension: m.Extension,
		Priority:  m.Priority,
		Available: func() bool { return !m.Unavailable },
		Backend:   fn,
	})
}

// RouteModule registers a backend that reads each resource as a single
// endpoint URI and creates one route from it with a log step.
type RouteModule struct {
	Extension string
}

// Register implements the registry.Module interface.
func (m *RouteModule) Register(r *registry.Registry) {
	r.Register(registry.Descriptor{
		ID:        "route" + m.Extension,
		Extension: m.Extension,
		Backend: backend.Func(func(_ context.Context, res *resource.Resource, bc *binding.Context) error {
			src, err := backend.ReadSource("route", res)
			if err != nil {
				return err
			}
			route, err := bc.From(string(src))
			if err != nil {
				return err
			}
			route.Log("loaded " + res.Base())
			return nil
		}),
	})
}
