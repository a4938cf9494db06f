package error_handling

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/routeloader/internal/app"
	"github.com/vk/routeloader/internal/backend"
	"github.com/vk/routeloader/internal/config"
	"github.com/vk/routeloader/internal/host"
	"github.com/vk/routeloader/internal/loader"
	"github.com/vk/routeloader/internal/registry"
	"github.com/vk/routeloader/internal/resource"
	"github.com/vk/routeloader/internal/testutil"
)

func runApp(t *testing.T, locations []string, mutate func(*config.Config)) (*app.App, string) {
	t.Helper()

	cfg := config.Defaults()
	cfg.Loader.Locations = locations
	cfg.Log.Level = "debug"
	if mutate != nil {
		mutate(&cfg)
	}

	logs := &testutil.SafeBuffer{}
	testutil.DumpLogs(t, logs)
	a, err := app.NewApp(logs, &cfg)
	require.NoError(t, err)
	require.NoError(t, a.Run(context.Background()), "a failing script must not fail startup")
	return a, logs.String()
}

func statuses(r *loader.Report) []loader.Status {
	out := make([]loader.Status, len(r.Outcomes))
	for i, o := range r.Outcomes {
		out[i] = o.Status
	}
	return out
}

func TestErrorHandling_FailingScriptIsIsolated(t *testing.T) {
	root := testutil.WriteFiles(t, map[string]string{
		"routes/1.js":   `from("direct:one").to("log:one");`,
		"routes/2.js":   `from("direct:two").to("log:two"); throw new Error("broken on purpose");`,
		"routes/3.lua":  `from("direct:three"):to("log:three")`,
		"routes/4.hcl":  `route "direct:four" {`,
		"routes/5.yaml": `- from: {uri: "direct:five"}`,
	})

	a, logs := runApp(t, []string{testutil.Location(root, "routes/*")}, nil)

	report := a.Report()
	assert.Equal(t,
		[]loader.Status{loader.StatusSuccess, loader.StatusFailed, loader.StatusSuccess, loader.StatusFailed, loader.StatusSuccess},
		statuses(report))

	var execErr *backend.ExecutionError
	require.ErrorAs(t, report.Outcomes[1].Err, &execErr)
	assert.Equal(t, "goja", execErr.Backend)
	assert.ErrorContains(t, report.Outcomes[1].Err, "broken on purpose")

	// Routes created before the throw stay in the table, unregistered.
	two := testutil.RouteFrom(t, a.Host(), "direct:two")
	assert.False(t, two.Registered)

	for _, uri := range []string{"direct:one", "direct:three", "direct:five"} {
		assert.True(t, testutil.RouteFrom(t, a.Host(), uri).Registered, uri)
	}

	testutil.AssertLogged(t, logs, "Failed to load", "2.js", "broken on purpose", "4.hcl")
}

func TestErrorHandling_DisabledBackendIsSkipped(t *testing.T) {
	root := testutil.WriteFiles(t, map[string]string{
		"routes/a.lua": `components.make("ticker", "timer"); from("ticker:a")`,
		"routes/b.js":  `from("direct:b");`,
	})

	a, logs := runApp(t, []string{testutil.Location(root, "routes/*")}, func(c *config.Config) {
		c.Loader.Backends.Disabled = []string{"lua"}
	})

	report := a.Report()
	assert.Equal(t, []loader.Status{loader.StatusSkipped, loader.StatusSuccess}, statuses(report))
	assert.ErrorIs(t, report.Outcomes[0].Err, registry.ErrBackendUnavailable)

	_, err := a.Host().Component("ticker")
	assert.ErrorIs(t, err, host.ErrComponentNotFound, "a skipped script must not touch the host")
	testutil.AssertLogged(t, logs, "Skipping ", "a.lua")
}

func TestErrorHandling_DuplicateRouteID(t *testing.T) {
	root := testutil.WriteFiles(t, map[string]string{
		"routes/a.js":  `from("direct:a").routeId("same");`,
		"routes/b.lua": `from("direct:b"):routeId("same")`,
	})

	a, _ := runApp(t, []string{testutil.Location(root, "routes/*")}, nil)

	report := a.Report()
	assert.Equal(t, []loader.Status{loader.StatusSuccess, loader.StatusFailed}, statuses(report))
	assert.ErrorIs(t, report.Outcomes[1].Err, host.ErrDuplicateRoute)
	assert.Len(t, a.Host().RegisteredRoutes(), 1)
}

func TestErrorHandling_RunawayScriptTimesOut(t *testing.T) {
	root := testutil.WriteFiles(t, map[string]string{
		"routes/a.js":  `for (;;) {}`,
		"routes/b.lua": `while true do end`,
		"routes/c.js":  `from("direct:c");`,
	})

	start := time.Now()
	a, _ := runApp(t, []string{testutil.Location(root, "routes/*")}, func(c *config.Config) {
		c.Loader.Timeout = 50 * time.Millisecond
	})

	report := a.Report()
	assert.Equal(t, []loader.Status{loader.StatusFailed, loader.StatusFailed, loader.StatusSuccess}, statuses(report))
	assert.ErrorIs(t, report.Outcomes[0].Err, context.DeadlineExceeded)
	assert.ErrorIs(t, report.Outcomes[1].Err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestErrorHandling_DiscoveryFailureStillStarts(t *testing.T) {
	a, logs := runApp(t, []string{"routes/[z-"}, nil)

	report := a.Report()
	var discErr *resource.DiscoveryError
	require.ErrorAs(t, report.Err, &discErr)
	assert.True(t, a.Host().Started())
	testutil.AssertLogged(t, logs, "Route discovery failed", "discovery failed")
}
