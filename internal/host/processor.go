package host

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Processor transforms a message body. Routes reach processors through
// process(ref), where ref names a bean holding one.
type Processor func(body string) (string, error)

func pure(fn func(string) string) Processor {
	return func(body string) (string, error) {
		return fn(body), nil
	}
}

// BuiltinProcessors returns the processors every host knows about, keyed by
// kind. New hosts also install each one as a bean under its kind.
func BuiltinProcessors() map[string]Processor {
	return map[string]Processor{
		"noop":      pure(func(s string) string { return s }),
		"uppercase": pure(strings.ToUpper),
		"lowercase": pure(strings.ToLower),
		"trim":      pure(strings.TrimSpace),
	}
}

// ProcessorKinds returns the builtin processor kinds in sorted order.
func ProcessorKinds() []string {
	return slices.Sorted(maps.Keys(BuiltinProcessors()))
}

// NewProcessor returns the builtin processor of the given kind.
func NewProcessor(kind string) (Processor, error) {
	p, ok := BuiltinProcessors()[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %v)", ErrUnknownProcessor, kind, ProcessorKinds())
	}
	return p, nil
}
