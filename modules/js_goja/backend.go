package js_goja

import (
	"context"

	"github.com/dop251/goja"
	"github.com/vk/routeloader/internal/backend"
	"github.com/vk/routeloader/internal/binding"
	"github.com/vk/routeloader/internal/ctxlog"
	"github.com/vk/routeloader/internal/resource"
)

// Backend evaluates each resource in a new goja.Runtime.
type Backend struct{}

func (b *Backend) Execute(ctx context.Context, res *resource.Resource, bc *binding.Context) error {
	return backend.Guard(ID, res, func() error {
		src, err := backend.ReadSource(ID, res)
		if err != nil {
			return err
		}

		vm := goja.New()
		vm.SetFieldNameMapper(goja.UncapFieldNameMapper())
		if err := newScope(vm, bc).install(); err != nil {
			return &backend.BindingError{Resource: res.Name, Backend: ID, Err: err}
		}

		stop := backend.OnCancel(ctx, func() { vm.Interrupt(context.Cause(ctx)) })
		defer stop()

		ctxlog.FromContext(ctx).Debug("Evaluating script.", "resource", res.Name, "backend", ID, "bytes", len(src))
		if _, err := vm.RunScript(res.Name, string(src)); err != nil {
			return &backend.ExecutionError{Resource: res.Name, Backend: ID, Err: err}
		}
		return nil
	})
}
