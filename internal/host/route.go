package host

import (
	"fmt"
	"strings"
)

// StepKind identifies a processing step of a route.
type StepKind string

const (
	StepTo        StepKind = "to"
	StepLog       StepKind = "log"
	StepSetBody   StepKind = "setBody"
	StepSetHeader StepKind = "setHeader"
	StepProcess   StepKind = "process"
)

// Step is a single element of a route's processing pipeline.
type Step struct {
	Kind StepKind `json:"kind"`
	Args []string `json:"args"`
}

// RouteDefinition describes one route. Definitions enter the route table as
// soon as they are created through Context.From and are configured in place
// by the fluent methods below.
type RouteDefinition struct {
	ID          string `json:"id"`
	Description string `json:"description,omitempty"`
	From        string `json:"from"`
	Steps       []Step `json:"steps"`
	// Origin names the resource whose script created the definition.
	Origin     string `json:"origin,omitempty"`
	Registered bool   `json:"registered"`
}

// RouteID sets the route identifier.
func (r *RouteDefinition) RouteID(id string) *RouteDefinition {
	r.ID = id
	return r
}

// Describe sets the free-text description.
func (r *RouteDefinition) Describe(text string) *RouteDefinition {
	r.Description = text
	return r
}

// SetBody replaces the message body with a constant.
func (r *RouteDefinition) SetBody(value string) *RouteDefinition {
	return r.add(StepSetBody, value)
}

// SetHeader sets a message header to a constant.
func (r *RouteDefinition) SetHeader(name, value string) *RouteDefinition {
	return r.add(StepSetHeader, name, value)
}

// To sends the message to an endpoint.
func (r *RouteDefinition) To(uri string) *RouteDefinition {
	return r.add(StepTo, uri)
}

// Log writes a message to the route log.
func (r *RouteDefinition) Log(message string) *RouteDefinition {
	return r.add(StepLog, message)
}

// Process hands the message to the bean registered under ref.
func (r *RouteDefinition) Process(ref string) *RouteDefinition {
	return r.add(StepProcess, ref)
}

func (r *RouteDefinition) add(kind StepKind, args ...string) *RouteDefinition {
	r.Steps = append(r.Steps, Step{Kind: kind, Args: args})
	return r
}

// Endpoints returns every endpoint URI the route consumes from or produces to.
func (r *RouteDefinition) Endpoints() []string {
	uris := []string{r.From}
	for _, s := range r.Steps {
		if s.Kind == StepTo {
			uris = append(uris, s.Args[0])
		}
	}
	return uris
}

// Scheme returns the scheme part of an endpoint URI ("timer" for "timer:tick?period=1s").
func Scheme(uri string) (string, error) {
	scheme, _, ok := strings.Cut(uri, ":")
	if !ok || scheme == "" {
		return "", fmt.Errorf("%w: %q has no scheme", ErrInvalidURI, uri)
	}
	return scheme, nil
}
