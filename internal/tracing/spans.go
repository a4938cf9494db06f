package tracing

// Span names.
const (
	SpanPass     = "loader.pass"
	SpanResource = "loader.resource"
)

// Span attribute keys.
const (
	AttrPassID        = "pass.id"
	AttrResourceName  = "resource.name"
	AttrResourceExt   = "resource.extension"
	AttrBackendID     = "backend.id"
	AttrOutcome       = "outcome.status"
	AttrRouteCount    = "routes.count"
	AttrSucceeded     = "pass.succeeded"
	AttrSkipped       = "pass.skipped"
	AttrFailed        = "pass.failed"
	AttrLocationCount = "pass.locations"
)
