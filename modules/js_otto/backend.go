package js_otto

import (
	"context"
	"fmt"

	"github.com/robertkrimen/otto"
	"github.com/vk/routeloader/internal/backend"
	"github.com/vk/routeloader/internal/binding"
	"github.com/vk/routeloader/internal/ctxlog"
	"github.com/vk/routeloader/internal/resource"
)

// Backend evaluates each resource in a new otto.Otto.
type Backend struct{}

// halt is the panic value the interrupt function raises inside the VM.
type halt struct {
	cause error
}

func (b *Backend) Execute(ctx context.Context, res *resource.Resource, bc *binding.Context) error {
	return backend.Guard(ID, res, func() error {
		src, err := backend.ReadSource(ID, res)
		if err != nil {
			return err
		}

		vm := otto.New()
		s := newScope(vm, bc)
		if err := s.install(); err != nil {
			return &backend.BindingError{Resource: res.Name, Backend: ID, Err: err}
		}

		// The interrupt re-arms itself because a guest try/catch swallows
		// the first halt.
		vm.Interrupt = make(chan func(), 1)
		var interrupt func()
		interrupt = func() {
			select {
			case vm.Interrupt <- interrupt:
			default:
			}
			panic(halt{cause: context.Cause(ctx)})
		}
		stop := backend.OnCancel(ctx, func() { vm.Interrupt <- interrupt })
		defer stop()

		ctxlog.FromContext(ctx).Debug("Evaluating script.", "resource", res.Name, "backend", ID, "bytes", len(src))
		if err := run(vm, res.Name, src); err != nil {
			return &backend.ExecutionError{Resource: res.Name, Backend: ID, Err: s.explain(err)}
		}
		return nil
	})
}

func run(vm *otto.Otto, name string, src []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			h, ok := r.(halt)
			if !ok {
				panic(r)
			}
			err = fmt.Errorf("interrupted: %w", h.cause)
		}
	}()

	script, err := vm.Compile(name, src)
	if err != nil {
		return err
	}
	_, err = vm.Run(script)
	return err
}
