package host

import "errors"

var (
	// ErrComponentNotFound is returned when no component is installed under a scheme.
	ErrComponentNotFound = errors.New("component not found")
	// ErrUnknownType is returned when a component type name has no registered factory.
	ErrUnknownType = errors.New("unknown component type")
	// ErrUnknownProperty is returned when a component does not accept a property.
	ErrUnknownProperty = errors.New("unknown component property")
	// ErrUnresolvedPlaceholder is returned when a property expression references a missing key.
	ErrUnresolvedPlaceholder = errors.New("unresolved property placeholder")
	// ErrDuplicateRoute is returned when a route ID is registered twice.
	ErrDuplicateRoute = errors.New("duplicate route id")
	// ErrUnresolvedEndpoint is returned when a route references a scheme or bean the host does not know.
	ErrUnresolvedEndpoint = errors.New("unresolved endpoint")
	// ErrUnknownProcessor is returned when a processor kind has no builtin implementation.
	ErrUnknownProcessor = errors.New("unknown processor kind")
	// ErrInvalidURI is returned for endpoint URIs without a scheme.
	ErrInvalidURI = errors.New("invalid endpoint uri")
	// ErrAlreadyStarted is returned when Start is called twice.
	ErrAlreadyStarted = errors.New("host already started")
)
