package lua_script

import (
	"bytes"
	"context"
	"fmt"

	lua "github.com/yuin/gopher-lua"
	"github.com/vk/routeloader/internal/backend"
	"github.com/vk/routeloader/internal/binding"
	"github.com/vk/routeloader/internal/ctxlog"
	"github.com/vk/routeloader/internal/resource"
)

// Backend evaluates each resource in a new lua.LState.
type Backend struct{}

func (b *Backend) Execute(ctx context.Context, res *resource.Resource, bc *binding.Context) error {
	return backend.Guard(ID, res, func() error {
		src, err := backend.ReadSource(ID, res)
		if err != nil {
			return err
		}

		L := lua.NewState()
		defer L.Close()
		if ctx.Done() != nil {
			L.SetContext(ctx)
		}

		s := newScope(L, bc)
		if err := s.install(); err != nil {
			return &backend.BindingError{Resource: res.Name, Backend: ID, Err: err}
		}

		ctxlog.FromContext(ctx).Debug("Evaluating script.", "resource", res.Name, "backend", ID, "bytes", len(src))
		fn, err := L.Load(bytes.NewReader(src), res.Name)
		if err != nil {
			return &backend.ExecutionError{Resource: res.Name, Backend: ID, Err: err}
		}
		L.Push(fn)
		if err := L.PCall(0, lua.MultRet, nil); err != nil {
			if ctx.Err() != nil {
				err = fmt.Errorf("interrupted: %w: %w", context.Cause(ctx), err)
			}
			return &backend.ExecutionError{Resource: res.Name, Backend: ID, Err: explain(err)}
		}
		return nil
	})
}
