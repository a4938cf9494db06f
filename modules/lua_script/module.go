// Package lua_script runs Lua route scripts on gopher-lua.
//
// Tables bound as globals are called with a dot (components.get, from,
// properties.resolve); route and component handles are userdata whose
// methods are called with a colon:
//
//	from("timer:tick"):routeId("tick"):to("log:out")
package lua_script

import (
	lua "github.com/yuin/gopher-lua"
	"github.com/vk/routeloader/internal/registry"
)

const (
	ID        = "lua"
	Extension = ".lua"
	Priority  = 10
)

// Module implements the registry.Module interface.
type Module struct{}

// Register registers the Lua backend with the central registry.
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
	L := lua.NewState()
	defer L.Close()
	if err := L.DoString("return 1 + 1"); err != nil {
		return false
	}
	return L.Get(-1) == lua.LNumber(2)
}
