package lua_script

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/routeloader/internal/backend"
	"github.com/vk/routeloader/internal/binding"
	"github.com/vk/routeloader/internal/host"
	"github.com/vk/routeloader/internal/registry"
	"github.com/vk/routeloader/internal/testutil"
)

func TestExecute_Routes(t *testing.T) {
	res := testutil.ExecuteScript(t, &Backend{}, "routes/test.lua", `
		from("direct:test"):routeId("r1"):setBody("hello"):to("log:out")
		from("direct:test"):setHeader("k", "v"):log("second"):to("mock:end")
	`)
	require.NoError(t, res.Err)

	routes := res.Binding.Routes()
	require.Len(t, routes, 2)
	assert.Equal(t, "r1", routes[0].ID)
	assert.Equal(t, []host.Step{
		{Kind: host.StepSetBody, Args: []string{"hello"}},
		{Kind: host.StepTo, Args: []string{"log:out"}},
	}, routes[0].Steps)
	assert.Equal(t, []host.Step{
		{Kind: host.StepSetHeader, Args: []string{"k", "v"}},
		{Kind: host.StepLog, Args: []string{"second"}},
		{Kind: host.StepTo, Args: []string{"mock:end"}},
	}, routes[1].Steps)
}

func TestExecute_FreshScope(t *testing.T) {
	b := &Backend{}
	first := testutil.ExecuteScript(t, b, "a.lua", `leaked = 1; from("direct:a")`)
	require.NoError(t, first.Err)

	second := first.ExecuteAgain(t, b, "b.lua", `
		if leaked ~= nil then error("state leaked between executions") end
		from("direct:b")
	`)
	require.NoError(t, second.Err)
	assert.Len(t, second.Host.Routes(), 2)
}

func TestExecute_Components(t *testing.T) {
	res := testutil.ExecuteScript(t, &Backend{}, "c.lua", `
		local ticker = components.make("ticker", "timer")
		ticker:set("period", 500):set("delay", 10)
		assert(ticker == components.get("ticker"), "handle identity")
		assert(ticker:get("period") == 500)
		components.put("audit", components.get("log"))
		from("ticker:tick"):to(components.get("audit"):kind() .. ":out")
	`)
	require.NoError(t, res.Err)

	ticker, err := res.Host.Component("ticker")
	require.NoError(t, err)
	period, _ := ticker.Property("period")
	assert.Equal(t, int64(500), period)

	audit, err := res.Host.Component("audit")
	require.NoError(t, err)
	assert.Equal(t, "log", audit.Kind())

	route := testutil.RouteFrom(t, res.Host, "ticker:tick")
	assert.Equal(t, []string{"ticker:tick", "log:out"}, route.Endpoints())
}

func TestExecute_PropertiesAndContext(t *testing.T) {
	res := testutil.ExecuteScript(t, &Backend{}, "p.lua", `
		from(properties.resolve("timer:${app.name}")):to("direct:" .. context:name())
	`, host.WithProperties(map[string]string{"app.name": "demo"}))
	require.NoError(t, res.Err)

	route := testutil.RouteFrom(t, res.Host, "timer:demo")
	assert.Equal(t, []string{"timer:demo", "direct:test"}, route.Endpoints())
}

func TestExecute_Failures(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		assert func(t *testing.T, err error)
	}{
		{
			name: "raised error",
			src:  `error("boom")`,
			assert: func(t *testing.T, err error) {
				assert.ErrorContains(t, err, "boom")
			},
		},
		{
			name: "syntax error",
			src:  `from("direct:a"`,
		},
		{
			name: "unknown component type",
			src:  `components.make("x", "com.example.Nope")`,
			assert: func(t *testing.T, err error) {
				var instErr *binding.InstantiationError
				require.ErrorAs(t, err, &instErr)
				assert.Equal(t, "com.example.Nope", instErr.Type)
			},
		},
		{
			name: "unresolved property",
			src:  `properties.resolve("${missing}")`,
			assert: func(t *testing.T, err error) {
				var propErr *binding.PropertyResolutionError
				assert.ErrorAs(t, err, &propErr)
			},
		},
		{
			name: "wrong arity",
			src:  `from("direct:a"):setHeader("k")`,
			assert: func(t *testing.T, err error) {
				assert.ErrorContains(t, err, "expects 2")
			},
		},
		{
			name: "put of a non component",
			src:  `components.put("x", {})`,
			assert: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, errNotComponent)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := testutil.ExecuteScript(t, &Backend{}, "bad.lua", tc.src)

			var execErr *backend.ExecutionError
			require.ErrorAs(t, res.Err, &execErr)
			assert.Equal(t, ID, execErr.Backend)
			if tc.assert != nil {
				tc.assert(t, res.Err)
			}
		})
	}
}

func TestExecute_GuestCatchesHostErrors(t *testing.T) {
	res := testutil.ExecuteScript(t, &Backend{}, "catch.lua", `
		local ok, err = pcall(components.make, "x", "nope")
		assert(not ok)
		from("direct:caught"):log(err.name):log(tostring(err))
	`)
	require.NoError(t, res.Err)

	route := testutil.RouteFrom(t, res.Host, "direct:caught")
	require.Len(t, route.Steps, 2)
	assert.Equal(t, []string{"InstantiationError"}, route.Steps[0].Args)
	assert.Contains(t, route.Steps[1].Args[0], `"nope"`)
}

func TestExecute_Cancelled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	res := testutil.ExecuteScriptWithContext(t, ctx, &Backend{}, "spin.lua", `while true do end`)
	require.Error(t, res.Err)
	assert.ErrorIs(t, res.Err, context.DeadlineExceeded)
}

func TestModule_Register(t *testing.T) {
	r := registry.New()
	(&Module{}).Register(r)

	sel, err := r.Select(context.Background(), Extension)
	require.NoError(t, err)
	assert.Equal(t, ID, sel.ID)
}
