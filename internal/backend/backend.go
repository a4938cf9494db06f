// Package backend defines the contract every script backend implements.
package backend

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/vk/routeloader/internal/binding"
	"github.com/vk/routeloader/internal/resource"
)

// Backend executes one resource against a binding. Each call must evaluate
// the script in a fresh scope: nothing defined by one execution may be
// visible to the next.
type Backend interface {
	Execute(ctx context.Context, res *resource.Resource, b *binding.Context) error
}

// Func adapts a plain function to the Backend interface.
type Func func(ctx context.Context, res *resource.Resource, b *binding.Context) error

func (f Func) Execute(ctx context.Context, res *resource.Resource, b *binding.Context) error {
	return f(ctx, res, b)
}

// BindingError reports that the host surface could not be installed into a
// fresh guest scope.
type BindingError struct {
	Resource string
	Backend  string
	Err      error
}

func (e *BindingError) Error() string {
	return fmt.Sprintf("%s: cannot bind host api for %s: %v", e.Backend, e.Resource, e.Err)
}

func (e *BindingError) Unwrap() error {
	return e.Err
}

// ExecutionError reports that a script raised an error, failed to parse, or
// could not be read.
type ExecutionError struct {
	Resource string
	Backend  string
	Err      error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Backend, e.Resource, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// Guard runs fn and turns a panic into an ExecutionError. Errors that are
// already BindingError or ExecutionError pass through; anything else is
// wrapped in an ExecutionError.
func Guard(id string, res *resource.Resource, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ExecutionError{
				Resource: res.Name,
				Backend:  id,
				Err:      fmt.Errorf("panic: %v\n%s", r, debug.Stack()),
			}
		}
	}()
	err = fn()
	if err == nil {
		return nil
	}
	var bindErr *BindingError
	var execErr *ExecutionError
	if errors.As(err, &bindErr) || errors.As(err, &execErr) {
		return err
	}
	return &ExecutionError{Resource: res.Name, Backend: id, Err: err}
}

// ReadSource consumes the resource stream.
func ReadSource(id string, res *resource.Resource) ([]byte, error) {
	src, err := res.ReadAll()
	if err != nil {
		return nil, &ExecutionError{Resource: res.Name, Backend: id, Err: fmt.Errorf("read: %w", err)}
	}
	return src, nil
}

// OnCancel arranges for interrupt to run when ctx is done. The returned stop
// function must be called once the execution finishes.
func OnCancel(ctx context.Context, interrupt func()) (stop func() bool) {
	return context.AfterFunc(ctx, interrupt)
}
