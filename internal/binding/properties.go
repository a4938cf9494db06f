package binding

import (
	"fmt"

	"github.com/vk/routeloader/internal/host"
)

// PropertyResolveMethod is the name of the resolver method exposed to guests.
const PropertyResolveMethod = "resolve"

// PropertyResolutionError is raised by properties.resolve for expressions
// with unresolved placeholders.
type PropertyResolutionError struct {
	Expression string
	Err        error
}

func (e *PropertyResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve %q: %v", e.Expression, e.Err)
}

func (e *PropertyResolutionError) Unwrap() error {
	return e.Err
}

// Properties resolves placeholder expressions against host configuration.
type Properties struct {
	resolver *host.Properties
}

// Resolve evaluates expression, e.g. "timer:tick?period=${timer.period}".
func (p *Properties) Resolve(expression string) (string, error) {
	v, err := p.resolver.Resolve(expression)
	if err != nil {
		return "", &PropertyResolutionError{Expression: expression, Err: err}
	}
	return v, nil
}
