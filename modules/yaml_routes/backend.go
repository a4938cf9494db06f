package yaml_routes

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/vk/routeloader/internal/backend"
	"github.com/vk/routeloader/internal/binding"
	"github.com/vk/routeloader/internal/ctxlog"
	"github.com/vk/routeloader/internal/host"
	"github.com/vk/routeloader/internal/resource"
	"gopkg.in/yaml.v3"
)

// Backend decodes each resource with a new strict YAML decoder.
type Backend struct{}

func (b *Backend) Execute(ctx context.Context, res *resource.Resource, bc *binding.Context) error {
	return backend.Guard(ID, res, func() error {
		src, err := backend.ReadSource(ID, res)
		if err != nil {
			return err
		}

		dec := yaml.NewDecoder(bytes.NewReader(src))
		dec.KnownFields(true)

		// Entries of every "---" separated document are applied in order.
		var doc []entry
		for n := 0; ; n++ {
			var part []entry
			err := dec.Decode(&part)
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return &backend.ExecutionError{Resource: res.Name, Backend: ID, Err: fmt.Errorf("document %d: %w", n, err)}
			}
			doc = append(doc, part...)
		}

		logger := ctxlog.FromContext(ctx)
		for i, e := range doc {
			if err := ctx.Err(); err != nil {
				return &backend.ExecutionError{Resource: res.Name, Backend: ID, Err: fmt.Errorf("interrupted: %w", context.Cause(ctx))}
			}

			var err error
			switch {
			case e.Component != nil && e.From != nil:
				err = errors.New("entry must have exactly one of component or from")
			case e.Component != nil:
				logger.Debug("Applying component entry.", "resource", res.Name, "scheme", e.Component.Scheme)
				err = applyComponent(bc, e.Component)
			case e.From != nil:
				logger.Debug("Applying route entry.", "resource", res.Name, "uri", e.From.URI)
				err = applyRoute(bc, e.From)
			default:
				err = errors.New("empty entry")
			}
			if err != nil {
				return &backend.ExecutionError{Resource: res.Name, Backend: ID, Err: fmt.Errorf("entry %d: %w", i, err)}
			}
		}
		return nil
	})
}

// resolve passes strings with placeholders through the property resolver.
func resolve(bc *binding.Context, s string) (string, error) {
	if !strings.Contains(s, "${") {
		return s, nil
	}
	return bc.Properties.Resolve(s)
}

func applyComponent(bc *binding.Context, c *componentEntry) error {
	var (
		comp host.Component
		err  error
	)
	if c.Type != "" {
		comp, err = bc.Components.Make(c.Scheme, c.Type)
	} else {
		comp, err = bc.Components.Get(c.Scheme)
	}
	if err != nil {
		return err
	}

	for _, name := range slices.Sorted(maps.Keys(c.Properties)) {
		v := c.Properties[name]
		if s, ok := v.(string); ok {
			if v, err = resolve(bc, s); err != nil {
				return err
			}
		}
		if err := comp.SetProperty(name, v); err != nil {
			return err
		}
	}
	return nil
}

func applyRoute(bc *binding.Context, r *routeEntry) error {
	uri, err := resolve(bc, r.URI)
	if err != nil {
		return err
	}
	route, err := bc.From(uri)
	if err != nil {
		return err
	}

	if r.ID != "" {
		id, err := resolve(bc, r.ID)
		if err != nil {
			return err
		}
		route.RouteID(id)
	}
	if r.Description != "" {
		desc, err := resolve(bc, r.Description)
		if err != nil {
			return err
		}
		route.Describe(desc)
	}

	for i, s := range r.Steps {
		method, args, set := s.call()
		if set != 1 {
			return fmt.Errorf("route %q: step %d: must have exactly one key", uri, i)
		}
		for j, a := range args {
			if args[j], err = resolve(bc, a); err != nil {
				return err
			}
		}
		if err := binding.ApplyRouteMethod(route, method, args); err != nil {
			return fmt.Errorf("route %q: step %d: %w", uri, i, err)
		}
	}
	return nil
}
