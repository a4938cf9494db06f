package app

import (
	"github.com/vk/routeloader/internal/registry"
	"github.com/vk/routeloader/modules/hcl_routes"
	"github.com/vk/routeloader/modules/js_goja"
	"github.com/vk/routeloader/modules/js_otto"
	"github.com/vk/routeloader/modules/lua_script"
	"github.com/vk/routeloader/modules/yaml_routes"
)

// coreModules is the definitive list of all backends that are compiled into
// the routeloader binary.
var coreModules = []registry.Module{
	&js_goja.Module{},
	&js_otto.Module{},
	&lua_script.Module{},
	&hcl_routes.Module{},
	&yaml_routes.Module{},
}
