package config

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/vk/routeloader/internal/tracing"
)

// EnvPrefix prefixes every environment variable the configuration reads,
// e.g. ROUTELOADER_LOG_LEVEL for log.level.
const EnvPrefix = "ROUTELOADER"

// DefaultFile is looked up in the working directory when no file is given.
const DefaultFile = "routeloader"

// Config is the root configuration of the routeloader binary.
type Config struct {
	Loader LoaderConfig `mapstructure:"loader"`
	// Properties seeds the host's property resolver. Nested maps are
	// flattened into dot-separated keys.
	Properties map[string]any `mapstructure:"properties"`
	// Processors installs host beans, mapping a bean name to a builtin
	// processor kind, e.g. {enricher: uppercase}.
	Processors      map[string]string `mapstructure:"processors"`
	Log             LogConfig         `mapstructure:"log"`
	HealthcheckPort int               `mapstructure:"healthcheck_port"`
	Tracing         tracing.Config    `mapstructure:"tracing"`
}

// LoaderConfig controls the startup loading pass.
type LoaderConfig struct {
	// Enabled installs the loader as a startup hook. When false the host
	// starts without loading anything.
	Enabled   bool     `mapstructure:"enabled"`
	Locations []string `mapstructure:"locations"`
	// Timeout bounds each script's execution. Zero disables the bound.
	Timeout  time.Duration  `mapstructure:"timeout"`
	Backends BackendsConfig `mapstructure:"backends"`
}

// BackendsConfig adjusts backend selection.
type BackendsConfig struct {
	Disabled   []string       `mapstructure:"disabled"`
	Priorities map[string]int `mapstructure:"priorities"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Defaults returns the configuration used when nothing else is set.
func Defaults() Config {
	return Config{
		Loader: LoaderConfig{
			Enabled:   true,
			Locations: []string{"routes/*"},
		},
		Properties: map[string]any{},
		Processors: map[string]string{},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Tracing: tracing.DefaultConfig(),
	}
}

// Load reads configuration into v from file, or from DefaultFile in the
// working directory when file is empty, layered over Defaults and the
// environment. A missing default file is not an error.
func Load(v *viper.Viper, file string) (*Config, error) {
	defaults := Defaults()
	v.SetDefault("loader.enabled", defaults.Loader.Enabled)
	v.SetDefault("loader.locations", defaults.Loader.Locations)
	v.SetDefault("loader.timeout", defaults.Loader.Timeout)
	v.SetDefault("loader.backends.disabled", []string{})
	v.SetDefault("loader.backends.priorities", map[string]int{})
	v.SetDefault("properties", defaults.Properties)
	v.SetDefault("processors", defaults.Processors)
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.format", defaults.Log.Format)
	v.SetDefault("healthcheck_port", defaults.HealthcheckPort)
	v.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	v.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	v.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	v.SetDefault("tracing.service_name", defaults.Tracing.ServiceName)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(DefaultFile)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for values the application cannot use.
func (c *Config) Validate() error {
	var errs []error

	if c.Loader.Enabled && len(c.Loader.Locations) == 0 {
		errs = append(errs, errors.New("loader.locations must not be empty when the loader is enabled"))
	}
	for _, loc := range c.Loader.Locations {
		if strings.TrimSpace(loc) == "" {
			errs = append(errs, errors.New("loader.locations must not contain empty entries"))
			break
		}
	}
	if c.Loader.Timeout < 0 {
		errs = append(errs, fmt.Errorf("loader.timeout must not be negative, got %s", c.Loader.Timeout))
	}

	for _, name := range slices.Sorted(maps.Keys(c.Processors)) {
		if strings.TrimSpace(name) == "" || strings.TrimSpace(c.Processors[name]) == "" {
			errs = append(errs, fmt.Errorf("processors entry %q must have a name and a kind", name))
		}
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level must be \"debug\", \"info\", \"warn\" or \"error\", got %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be \"text\" or \"json\", got %q", c.Log.Format))
	}

	if c.HealthcheckPort < 0 || c.HealthcheckPort > 65535 {
		errs = append(errs, fmt.Errorf("healthcheck_port must be between 0 and 65535, got %d", c.HealthcheckPort))
	}

	switch c.Tracing.Exporter {
	case "", "none", "stdout", "otlp":
	default:
		errs = append(errs, fmt.Errorf("tracing.exporter must be \"none\", \"stdout\" or \"otlp\", got %q", c.Tracing.Exporter))
	}
	if c.Tracing.Enabled && c.Tracing.Exporter == "otlp" && c.Tracing.OTLPEndpoint == "" {
		errs = append(errs, errors.New("tracing.otlp_endpoint is required when exporter is \"otlp\""))
	}

	return errors.Join(errs...)
}

// SetProperty stores a flat property, overriding any configured value.
func (c *Config) SetProperty(key, value string) {
	if c.Properties == nil {
		c.Properties = make(map[string]any)
	}
	c.Properties[key] = value
}

// FlatProperties returns Properties flattened into dot-separated keys with
// string values.
func (c *Config) FlatProperties() map[string]string {
	result := make(map[string]string)
	flatten("", c.Properties, result)
	return result
}

// flatten walks keys in sorted order so an explicit dotted key wins over a
// nested one spelling the same path.
func flatten(prefix string, m map[string]any, result map[string]string) {
	for _, k := range slices.Sorted(maps.Keys(m)) {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}

		switch val := m[k].(type) {
		case map[string]any:
			flatten(key, val, result)
		case map[any]any:
			converted := make(map[string]any, len(val))
			for mk, mv := range val {
				converted[fmt.Sprint(mk)] = mv
			}
			flatten(key, converted, result)
		case nil:
			result[key] = ""
		default:
			result[key] = fmt.Sprint(val)
		}
	}
}
