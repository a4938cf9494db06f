package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "routeloader.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
loader:
  locations: ["scripts/**/*.js", "routes/*.yaml"]
  timeout: 2s
  backends:
    disabled: [otto]
    priorities: {lua: 30}
properties:
  app:
    name: demo
  timer.period: 5
processors:
  enricher: uppercase
log:
  level: debug
  format: json
healthcheck_port: 8081
tracing:
  enabled: true
  exporter: none
`)

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.True(t, cfg.Loader.Enabled)
	assert.Equal(t, []string{"scripts/**/*.js", "routes/*.yaml"}, cfg.Loader.Locations)
	assert.Equal(t, 2*time.Second, cfg.Loader.Timeout)
	assert.Equal(t, []string{"otto"}, cfg.Loader.Backends.Disabled)
	assert.Equal(t, map[string]int{"lua": 30}, cfg.Loader.Backends.Priorities)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8081, cfg.HealthcheckPort)
	assert.True(t, cfg.Tracing.Enabled)
	assert.Equal(t, "none", cfg.Tracing.Exporter)
	assert.Equal(t, "routeloader", cfg.Tracing.ServiceName)
	assert.Equal(t, map[string]string{"app.name": "demo", "timer.period": "5"}, cfg.FlatProperties())
	assert.Equal(t, map[string]string{"enricher": "uppercase"}, cfg.Processors)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	defaults := Defaults()
	assert.Equal(t, defaults.Loader.Enabled, cfg.Loader.Enabled)
	assert.Equal(t, defaults.Loader.Locations, cfg.Loader.Locations)
	assert.Equal(t, defaults.Log, cfg.Log)
	assert.Zero(t, cfg.Loader.Timeout)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("ROUTELOADER_LOG_LEVEL", "warn")
	t.Setenv("ROUTELOADER_LOADER_ENABLED", "false")
	path := writeConfig(t, "log: {level: debug}\n")

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.False(t, cfg.Loader.Enabled)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "failed to read config")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:    "no locations",
			mutate:  func(c *Config) { c.Loader.Locations = nil },
			wantErr: "loader.locations must not be empty",
		},
		{
			name: "no locations but disabled",
			mutate: func(c *Config) {
				c.Loader.Enabled = false
				c.Loader.Locations = nil
			},
		},
		{
			name:    "blank location",
			mutate:  func(c *Config) { c.Loader.Locations = []string{"routes/*", " "} },
			wantErr: "empty entries",
		},
		{
			name:    "negative timeout",
			mutate:  func(c *Config) { c.Loader.Timeout = -time.Second },
			wantErr: "loader.timeout",
		},
		{
			name:    "processor without kind",
			mutate:  func(c *Config) { c.Processors = map[string]string{"enricher": ""} },
			wantErr: "processors entry \"enricher\"",
		},
		{
			name:    "log level",
			mutate:  func(c *Config) { c.Log.Level = "verbose" },
			wantErr: "log.level",
		},
		{
			name:    "log format",
			mutate:  func(c *Config) { c.Log.Format = "xml" },
			wantErr: "log.format",
		},
		{
			name:    "port",
			mutate:  func(c *Config) { c.HealthcheckPort = 70000 },
			wantErr: "healthcheck_port",
		},
		{
			name:    "exporter",
			mutate:  func(c *Config) { c.Tracing.Exporter = "file" },
			wantErr: "tracing.exporter",
		},
		{
			name: "otlp without endpoint",
			mutate: func(c *Config) {
				c.Tracing.Enabled = true
				c.Tracing.Exporter = "otlp"
				c.Tracing.OTLPEndpoint = ""
			},
			wantErr: "tracing.otlp_endpoint",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Defaults()
			tc.mutate(&cfg)

			err := cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestFlatProperties(t *testing.T) {
	cfg := Defaults()
	cfg.Properties = map[string]any{
		"app": map[string]any{
			"name": "nested",
			"port": 8080,
		},
		"app.name": "explicit",
		"flag":     true,
		"empty":    nil,
	}
	cfg.SetProperty("extra", "x")

	assert.Equal(t, map[string]string{
		"app.name": "explicit",
		"app.port": "8080",
		"flag":     "true",
		"empty":    "",
		"extra":    "x",
	}, cfg.FlatProperties())
}
