package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"slices"

	"github.com/vk/routeloader/internal/config"
	"github.com/vk/routeloader/internal/ctxlog"
	"github.com/vk/routeloader/internal/host"
	"github.com/vk/routeloader/internal/loader"
	"github.com/vk/routeloader/internal/registry"
)

// HostName names the host every App starts.
const HostName = "routeloader"

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	ctx        context.Context
	outW       io.Writer
	logger     *slog.Logger
	config     *config.Config
	registry   *registry.Registry
	host       *host.Context
	loader     *loader.Loader
	httpServer *http.Server
}

// NewApp builds the registry from modules, or from the built-in backends when
// none are given, and creates the host. Nothing is loaded until Run.
func NewApp(outW io.Writer, cfg *config.Config, modules ...registry.Module) (*App, error) {
	logger := newLogger(cfg.Log.Level, cfg.Log.Format, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	var opts []registry.Option
	if len(cfg.Loader.Backends.Disabled) > 0 {
		opts = append(opts, registry.WithDisabled(cfg.Loader.Backends.Disabled...))
	}
	for id, p := range cfg.Loader.Backends.Priorities {
		opts = append(opts, registry.WithPriority(id, p))
	}
	reg := registry.New(opts...)

	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All backend modules registered.", "count", len(modules), "extensions", reg.Extensions())

	if err := reg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid backend configuration: %w", err)
	}

	hostOpts := []host.Option{host.WithProperties(cfg.FlatProperties())}
	for _, name := range slices.Sorted(maps.Keys(cfg.Processors)) {
		p, err := host.NewProcessor(cfg.Processors[name])
		if err != nil {
			return nil, fmt.Errorf("invalid processor %q: %w", name, err)
		}
		hostOpts = append(hostOpts, host.WithBean(name, p))
	}

	h := host.New(HostName, hostOpts...)
	logger.Debug("Host created.", "components", h.ComponentSchemes(), "processors", len(cfg.Processors))

	return &App{
		ctx:      ctx,
		outW:     outW,
		logger:   logger,
		config:   cfg,
		registry: reg,
		host:     h,
	}, nil
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Host returns the application's host.
func (a *App) Host() *host.Context {
	return a.host
}

// Report returns the report of the loading pass, or nil when no pass ran.
func (a *App) Report() *loader.Report {
	if a.loader == nil {
		return nil
	}
	return a.loader.Report()
}
