package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vk/routeloader/internal/app"
	"github.com/vk/routeloader/internal/config"
	"github.com/vk/routeloader/internal/registry"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(err error) error {
	return &ExitError{Code: 2, Message: err.Error()}
}

type options struct {
	configFile      string
	locations       []string
	properties      []string
	logLevel        string
	logFormat       string
	healthcheckPort int
	timeout         time.Duration
}

// NewRootCommand builds the routeloader command tree. Output, including
// logs, goes to outW. modules replaces the built-in backends when given.
func NewRootCommand(outW io.Writer, modules ...registry.Module) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "routeloader [flags] [LOCATION...]",
		Short: "Load route scripts into a host and report the result",
		Long: `routeloader discovers route scripts from location patterns, runs each one
through the backend registered for its extension and registers the routes it
defines with the host.

Locations are glob patterns ("routes/**/*.js"). They may be given as
arguments, with --location, or in the configuration file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.locations = append(opts.locations, args...)
			a, err := newApp(cmd, opts, outW, modules)
			if err != nil {
				return err
			}
			return a.Run(cmd.Context())
		},
	}
	root.SetOut(outW)
	root.SetErr(outW)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configFile, "config", "c", "", "config file (default: ./routeloader.yaml)")
	flags.StringArrayVarP(&opts.locations, "location", "l", nil, "location pattern to load scripts from (repeatable)")
	flags.StringArrayVarP(&opts.properties, "property", "p", nil, "property as key=value (repeatable)")
	flags.StringVar(&opts.logLevel, "log-level", "info", "logging level: debug, info, warn or error")
	flags.StringVar(&opts.logFormat, "log-format", "text", "log output format: text or json")
	flags.IntVar(&opts.healthcheckPort, "healthcheck-port", 0, "port for the HTTP health check server, 0 disables it")
	flags.DurationVar(&opts.timeout, "timeout", 0, "per-script execution timeout, 0 disables it")

	root.AddCommand(&cobra.Command{
		Use:   "backends",
		Short: "List registered backends and the one selected per extension",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts, outW, modules)
			if err != nil {
				return err
			}
			return a.PrintBackends()
		},
	})

	return root
}

// Execute runs the command tree with args. Usage mistakes are returned as
// an *ExitError with code 2.
func Execute(ctx context.Context, cmd *cobra.Command, args []string) error {
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

func newApp(cmd *cobra.Command, opts *options, outW io.Writer, modules []registry.Module) (*app.App, error) {
	cfg, err := config.Load(viper.New(), opts.configFile)
	if err != nil {
		return nil, usageError(err)
	}
	if err := applyFlags(cmd, opts, cfg); err != nil {
		return nil, usageError(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, usageError(err)
	}

	a, err := app.NewApp(outW, cfg, modules...)
	if err != nil {
		return nil, usageError(err)
	}
	return a, nil
}

// applyFlags overrides configuration with the flags the user set.
func applyFlags(cmd *cobra.Command, opts *options, cfg *config.Config) error {
	flags := cmd.Flags()
	if len(opts.locations) > 0 {
		cfg.Loader.Locations = opts.locations
	}
	for _, p := range opts.properties {
		key, value, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return fmt.Errorf("invalid property %q: expected key=value", p)
		}
		cfg.SetProperty(strings.TrimSpace(key), value)
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = strings.ToLower(opts.logLevel)
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = strings.ToLower(opts.logFormat)
	}
	if flags.Changed("healthcheck-port") {
		cfg.HealthcheckPort = opts.healthcheckPort
	}
	if flags.Changed("timeout") {
		cfg.Loader.Timeout = opts.timeout
	}
	return nil
}
