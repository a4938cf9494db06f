package testutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/routeloader/internal/host"
)

// AssertLogged checks that the captured log output contains every substring.
func AssertLogged(t *testing.T, logs string, substrings ...string) {
	t.Helper()
	for _, s := range substrings {
		require.True(t, strings.Contains(logs, s), "expected log output to contain %q\n%s", s, logs)
	}
}

// RouteFrom returns the single route of h consuming from uri.
func RouteFrom(t *testing.T, h *host.Context, uri string) *host.RouteDefinition {
	t.Helper()

	var found []*host.RouteDefinition
	for _, r := range h.Routes() {
		if r.From == uri {
			found = append(found, r)
		}
	}
	require.Len(t, found, 1, "expected exactly one route from %q", uri)
	return found[0]
}
