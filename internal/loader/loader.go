// Package loader drives the startup pass that discovers route scripts, runs
// each through the backend selected for its extension and registers the
// routes it produced.
//
// Failures are contained per resource: a script that cannot be loaded is
// logged and reported, and the pass moves on. Only a discovery failure ends
// the pass early, and even then the host keeps starting.
package loader

import (
	"context"
	"fmt"
	"io/fs"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vk/routeloader/internal/backend"
	"github.com/vk/routeloader/internal/binding"
	"github.com/vk/routeloader/internal/ctxlog"
	"github.com/vk/routeloader/internal/host"
	"github.com/vk/routeloader/internal/registry"
	"github.com/vk/routeloader/internal/resource"
	"github.com/vk/routeloader/internal/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Loader runs the loading pass. It is installed on the host as a startup
// hook.
type Loader struct {
	registry  *registry.Registry
	locations []string
	fsys      fs.FS
	timeout   time.Duration
	tracer    trace.Tracer

	mu     sync.Mutex
	state  State
	report *Report
}

// Option configures a Loader.
type Option func(*Loader)

// WithFS resolves locations against fsys instead of the OS filesystem.
func WithFS(fsys fs.FS) Option {
	return func(l *Loader) { l.fsys = fsys }
}

// WithTimeout bounds the execution of each script. Zero means no bound.
func WithTimeout(d time.Duration) Option {
	return func(l *Loader) { l.timeout = d }
}

// WithTracer records the pass with t.
func WithTracer(t trace.Tracer) Option {
	return func(l *Loader) { l.tracer = t }
}

// New creates a loader for the given locations.
func New(reg *registry.Registry, locations []string, opts ...Option) *Loader {
	l := &Loader{
		registry:  reg,
		locations: locations,
		tracer:    noop.NewTracerProvider().Tracer("noop"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// BeforeStart implements host.StartupHook. It never fails: loading faults
// must not keep the host from starting.
func (l *Loader) BeforeStart(ctx context.Context, h *host.Context) error {
	l.Load(ctx, h)
	return nil
}

// State returns the current pass state.
func (l *Loader) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Report returns the report of the last finished pass, or nil.
func (l *Loader) Report() *Report {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.report
}

func (l *Loader) setState(s State) {
	l.mu.Lock()
	l.state = s
	l.mu.Unlock()
}

// Load runs one pass against h and returns its report.
func (l *Loader) Load(ctx context.Context, h *host.Context) *Report {
	report := &Report{
		PassID:    uuid.NewString(),
		Locations: l.locations,
		Started:   time.Now(),
	}
	ctx = ctxlog.With(ctx, "pass_id", report.PassID)
	logger := ctxlog.FromContext(ctx)

	ctx, span := l.tracer.Start(ctx, tracing.SpanPass, trace.WithAttributes(
		attribute.String(tracing.AttrPassID, report.PassID),
		attribute.Int(tracing.AttrLocationCount, len(l.locations)),
	))
	defer span.End()

	defer func() {
		report.Duration = time.Since(report.Started)
		span.SetAttributes(
			attribute.Int(tracing.AttrSucceeded, report.Succeeded),
			attribute.Int(tracing.AttrSkipped, report.Skipped),
			attribute.Int(tracing.AttrFailed, report.Failed),
		)
		l.mu.Lock()
		l.state = Done
		l.report = report
		l.mu.Unlock()
	}()

	l.setState(Discovering)
	logger.Debug("Discovering route resources.", "locations", l.locations)
	set := &resource.Set{FS: l.fsys, Accept: l.registry.Match}
	resources, err := set.Resolve(ctx, l.locations)
	if err != nil {
		report.fail(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "discovery failed")
		logger.Error("Route discovery failed, continuing without loaded routes.", "error", err)
		return report
	}
	logger.Info("Discovered route resources.", "count", len(resources))

	// Selection is settled before the first resource runs.
	l.registry.Resolve(ctx)

	for _, res := range resources {
		report.add(l.loadOne(ctx, h, res))
	}

	if report.Failed > 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("%d resource(s) failed", report.Failed))
	}
	logger.Info("Route loading pass complete.",
		"succeeded", report.Succeeded,
		"skipped", report.Skipped,
		"failed", report.Failed,
		"duration", time.Since(report.Started),
	)
	return report
}

func (l *Loader) loadOne(ctx context.Context, h *host.Context, res *resource.Resource) (out Outcome) {
	start := time.Now()
	out = Outcome{Resource: res.Name, Extension: res.Extension}

	ctx, span := l.tracer.Start(ctx, tracing.SpanResource, trace.WithAttributes(
		attribute.String(tracing.AttrResourceName, res.Name),
		attribute.String(tracing.AttrResourceExt, res.Extension),
	))
	defer func() {
		out.Duration = time.Since(start)
		span.SetAttributes(attribute.String(tracing.AttrOutcome, string(out.Status)))
		if out.Status == StatusFailed {
			span.RecordError(out.Err)
			span.SetStatus(codes.Error, "load failed")
		}
		span.End()
	}()
	logger := ctxlog.FromContext(ctx)

	l.setState(Selecting)
	sel, err := l.registry.Select(ctx, res.Extension)
	if err != nil {
		logger.Warn("Skipping "+res.Name, "resource", res.Name, "reason", err)
		out.Status, out.Err = StatusSkipped, err
		return out
	}
	out.Backend = sel.ID
	span.SetAttributes(attribute.String(tracing.AttrBackendID, sel.ID))
	logger.Info("Loading "+res.Name, "resource", res.Name, "backend", sel.ID)

	l.setState(Binding)
	bc := binding.New(h, res.Name)

	l.setState(Executing)
	execCtx := ctx
	if l.timeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}
	err = backend.Guard(sel.ID, res, func() error {
		return sel.Backend.Execute(execCtx, res, bc)
	})
	if err != nil {
		return l.failed(ctx, out, res, err)
	}

	l.setState(Registering)
	routes := bc.Routes()
	regErr := h.Register(routes)
	for _, r := range routes {
		if r.Registered {
			out.Routes = append(out.Routes, r.ID)
		}
	}
	span.SetAttributes(attribute.Int(tracing.AttrRouteCount, len(out.Routes)))
	if regErr != nil {
		return l.failed(ctx, out, res, regErr)
	}

	logger.Debug("Loaded resource.", "resource", res.Name, "routes", len(out.Routes))
	out.Status = StatusSuccess
	return out
}

func (l *Loader) failed(ctx context.Context, out Outcome, res *resource.Resource, err error) Outcome {
	ctxlog.FromContext(ctx).Error(fmt.Sprintf("Failed to load %s: %v", res.Name, err), "resource", res.Name, "error", err)
	out.Status, out.Err = StatusFailed, err
	return out
}
