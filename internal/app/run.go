package app

import (
	"context"
	"fmt"

	"github.com/vk/routeloader/internal/ctxlog"
	"github.com/vk/routeloader/internal/loader"
	"github.com/vk/routeloader/internal/tracing"
)

// Run installs the loader as a startup hook, starts the host and prints the
// resulting route table. When the health check server is enabled, Run keeps
// serving until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.ctx = ctx
	a.logger.Debug("App.Run method started.")

	tp, err := tracing.NewProvider(ctx, a.config.Tracing)
	if err != nil {
		return fmt.Errorf("failed to configure tracing: %w", err)
	}
	if tp.Enabled() {
		a.logger.Info("Tracing enabled.", "exporter", a.config.Tracing.Exporter, "service", a.config.Tracing.ServiceName)
	}
	defer func() {
		if err := tp.Shutdown(context.WithoutCancel(ctx)); err != nil {
			a.logger.Warn("Tracing shutdown failed.", "error", err)
		}
	}()

	if a.config.Loader.Enabled {
		a.loader = loader.New(a.registry, a.config.Loader.Locations,
			loader.WithTimeout(a.config.Loader.Timeout),
			loader.WithTracer(tp.Tracer()),
		)
		a.host.AddStartupHook(a.loader)
	} else {
		a.logger.Info("Route loader disabled, starting without script routes.")
	}

	if err := a.host.Start(ctx); err != nil {
		return fmt.Errorf("failed to start host: %w", err)
	}

	// The route table is only read once the host has started.
	a.healthCheckServer()
	defer a.closeHealthCheckServer()

	if err := a.PrintSummary(); err != nil {
		return err
	}

	if a.httpServer != nil {
		a.logger.Info("Serving until interrupted.")
		<-ctx.Done()
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}
