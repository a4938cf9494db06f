package hcl_routes

import "github.com/hashicorp/hcl/v2"

var fileSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "component", LabelNames: []string{"scheme"}},
		{Type: "route", LabelNames: []string{"from"}},
	},
}

// componentBody configures a component. Without a type the existing
// component under the scheme is configured in place.
type componentBody struct {
	Type       *string        `hcl:"type,optional"`
	Properties hcl.Expression `hcl:"properties,optional"`
}

type routeBody struct {
	ID          *string        `hcl:"id,optional"`
	Description *string        `hcl:"description,optional"`
	Steps       hcl.Expression `hcl:"steps,optional"`
}

// stepMethods maps step keys to route methods.
var stepMethods = map[string]string{
	"to":         "to",
	"log":        "log",
	"set_body":   "setBody",
	"set_header": "setHeader",
	"process":    "process",
}
