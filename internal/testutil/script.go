package testutil

import (
	"context"
	"testing"

	"github.com/vk/routeloader/internal/backend"
	"github.com/vk/routeloader/internal/binding"
	"github.com/vk/routeloader/internal/host"
	"github.com/vk/routeloader/internal/resource"
)

// ScriptResult holds the outcome of running one script through a backend.
type ScriptResult struct {
	Host    *host.Context
	Binding *binding.Context
	Err     error
}

// ExecuteScript runs src, named name, through b against a fresh host built
// with opts.
func ExecuteScript(t *testing.T, b backend.Backend, name, src string, opts ...host.Option) *ScriptResult {
	t.Helper()
	return ExecuteScriptWithContext(t, context.Background(), b, name, src, opts...)
}

// ExecuteScriptWithContext is ExecuteScript with a caller supplied context.
func ExecuteScriptWithContext(t *testing.T, ctx context.Context, b backend.Backend, name, src string, opts ...host.Option) *ScriptResult {
	t.Helper()

	h := host.New("test", opts...)
	bc := binding.New(h, name)
	err := b.Execute(ctx, resource.FromBytes(name, []byte(src)), bc)
	return &ScriptResult{Host: h, Binding: bc, Err: err}
}

// ExecuteAgain runs another script through b against the same host as r,
// with a fresh binding.
func (r *ScriptResult) ExecuteAgain(t *testing.T, b backend.Backend, name, src string) *ScriptResult {
	t.Helper()

	bc := binding.New(r.Host, name)
	err := b.Execute(context.Background(), resource.FromBytes(name, []byte(src)), bc)
	return &ScriptResult{Host: r.Host, Binding: bc, Err: err}
}
