package hcl_routes

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/routeloader/internal/backend"
	"github.com/vk/routeloader/internal/binding"
	"github.com/vk/routeloader/internal/ctxlog"
	"github.com/vk/routeloader/internal/host"
	"github.com/vk/routeloader/internal/resource"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Backend parses each resource with a new HCL parser.
type Backend struct{}

func (b *Backend) Execute(ctx context.Context, res *resource.Resource, bc *binding.Context) error {
	return backend.Guard(ID, res, func() error {
		src, err := backend.ReadSource(ID, res)
		if err != nil {
			return err
		}

		file, diags := hclparse.NewParser().ParseHCL(src, res.Name)
		if diags.HasErrors() {
			return &backend.ExecutionError{Resource: res.Name, Backend: ID, Err: diags}
		}
		content, diags := file.Body.Content(fileSchema)
		if diags.HasErrors() {
			return &backend.ExecutionError{Resource: res.Name, Backend: ID, Err: diags}
		}

		l := &loader{bc: bc}
		l.evalCtx = &hcl.EvalContext{
			Functions: map[string]function.Function{"property": l.propertyFunc()},
		}

		logger := ctxlog.FromContext(ctx)
		for _, block := range content.Blocks {
			if err := ctx.Err(); err != nil {
				return &backend.ExecutionError{Resource: res.Name, Backend: ID, Err: fmt.Errorf("interrupted: %w", context.Cause(ctx))}
			}
			logger.Debug("Applying block.", "resource", res.Name, "type", block.Type, "label", block.Labels[0])

			var err error
			switch block.Type {
			case "component":
				err = l.component(block)
			case "route":
				err = l.route(block)
			}
			if err != nil {
				return &backend.ExecutionError{Resource: res.Name, Backend: ID, Err: err}
			}
		}
		return nil
	})
}

// loader applies the blocks of one file.
type loader struct {
	bc      *binding.Context
	evalCtx *hcl.EvalContext
}

// propertyFunc resolves a property key: property("app.name").
func (l *loader) propertyFunc() function.Function {
	return function.New(&function.Spec{
		Params: []function.Parameter{{Name: "key", Type: cty.String}},
		Type:   function.StaticReturnType(cty.String),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			v, err := l.bc.Properties.Resolve("${" + args[0].AsString() + "}")
			if err != nil {
				return cty.NilVal, err
			}
			return cty.StringVal(v), nil
		},
	})
}

// check turns diagnostics into an error, surfacing the Go error of a failed
// property() call so callers can match it.
func check(diags hcl.Diagnostics) error {
	if !diags.HasErrors() {
		return nil
	}
	for _, d := range diags {
		if extra, ok := hcl.DiagnosticExtra[hclsyntax.FunctionCallDiagExtra](d); ok && extra.FunctionCallError() != nil {
			return fmt.Errorf("%w: %w", diags, extra.FunctionCallError())
		}
	}
	return diags
}

func (l *loader) component(block *hcl.Block) error {
	scheme := block.Labels[0]

	var body componentBody
	if err := check(gohcl.DecodeBody(block.Body, l.evalCtx, &body)); err != nil {
		return err
	}

	var (
		comp host.Component
		err  error
	)
	if body.Type != nil {
		comp, err = l.bc.Components.Make(scheme, *body.Type)
	} else {
		comp, err = l.bc.Components.Get(scheme)
	}
	if err != nil {
		return err
	}

	if body.Properties == nil {
		return nil
	}
	props, diags := body.Properties.Value(l.evalCtx)
	if err := check(diags); err != nil {
		return err
	}
	if props.IsNull() {
		return nil
	}
	if !props.Type().IsObjectType() && !props.Type().IsMapType() {
		return fmt.Errorf("component %q: properties must be an object", scheme)
	}

	values := props.AsValueMap()
	for _, name := range sortedKeys(values) {
		v, err := goValue(values[name])
		if err != nil {
			return fmt.Errorf("component %q: property %q: %w", scheme, name, err)
		}
		if err := comp.SetProperty(name, v); err != nil {
			return err
		}
	}
	return nil
}

func (l *loader) route(block *hcl.Block) error {
	var body routeBody
	if err := check(gohcl.DecodeBody(block.Body, l.evalCtx, &body)); err != nil {
		return err
	}

	r, err := l.bc.From(block.Labels[0])
	if err != nil {
		return err
	}
	if body.ID != nil {
		r.RouteID(*body.ID)
	}
	if body.Description != nil {
		r.Describe(*body.Description)
	}

	if body.Steps == nil {
		return nil
	}
	steps, diags := body.Steps.Value(l.evalCtx)
	if err := check(diags); err != nil {
		return err
	}
	if steps.IsNull() {
		return nil
	}
	if !steps.CanIterateElements() || steps.Type().IsObjectType() || steps.Type().IsMapType() {
		return fmt.Errorf("route %q: steps must be a list", r.From)
	}

	for i, step := range steps.AsValueSlice() {
		method, args, err := stepCall(step)
		if err != nil {
			return fmt.Errorf("route %q: step %d: %w", r.From, i, err)
		}
		if err := binding.ApplyRouteMethod(r, method, args); err != nil {
			return fmt.Errorf("route %q: step %d: %w", r.From, i, err)
		}
	}
	return nil
}

// stepCall maps a step object with exactly one key to a route method call.
func stepCall(step cty.Value) (string, []string, error) {
	if step.IsNull() || !step.Type().IsObjectType() {
		return "", nil, errors.New("step must be an object")
	}
	attrs := step.AsValueMap()
	if len(attrs) != 1 {
		return "", nil, fmt.Errorf("step must have exactly one key, got %v", sortedKeys(attrs))
	}
	for key, v := range attrs {
		method, ok := stepMethods[key]
		if !ok {
			return "", nil, fmt.Errorf("unknown step %q", key)
		}
		if key == "set_header" {
			return header(v)
		}
		s, err := stringValue(v)
		if err != nil {
			return "", nil, fmt.Errorf("%s: %w", key, err)
		}
		return method, []string{s}, nil
	}
	panic("unreachable")
}

func header(v cty.Value) (string, []string, error) {
	if v.IsNull() || !v.Type().IsObjectType() || !v.Type().HasAttribute("name") || !v.Type().HasAttribute("value") {
		return "", nil, errors.New(`set_header: expected { name = "...", value = "..." }`)
	}
	name, err := stringValue(v.GetAttr("name"))
	if err != nil {
		return "", nil, fmt.Errorf("set_header name: %w", err)
	}
	value, err := stringValue(v.GetAttr("value"))
	if err != nil {
		return "", nil, fmt.Errorf("set_header value: %w", err)
	}
	return "setHeader", []string{name, value}, nil
}

func stringValue(v cty.Value) (string, error) {
	if v.IsNull() || !v.IsKnown() {
		return "", errors.New("value must not be null")
	}
	s, err := convert.Convert(v, cty.String)
	if err != nil {
		return "", err
	}
	return s.AsString(), nil
}

// goValue converts a primitive cty value to the Go value handed to a
// component.
func goValue(v cty.Value) (any, error) {
	if v.IsNull() {
		return nil, nil
	}
	switch v.Type() {
	case cty.String:
		return v.AsString(), nil
	case cty.Bool:
		return v.True(), nil
	case cty.Number:
		var i int64
		if err := gocty.FromCtyValue(v, &i); err == nil {
			return i, nil
		}
		var f float64
		if err := gocty.FromCtyValue(v, &f); err != nil {
			return nil, err
		}
		return f, nil
	}
	return nil, fmt.Errorf("unsupported value of type %s", v.Type().FriendlyName())
}

func sortedKeys(m map[string]cty.Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
