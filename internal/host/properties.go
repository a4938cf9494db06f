package host

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// Properties is the host's property resolver. Values are stored under flat,
// dot-separated keys and referenced from expressions using HCL template
// syntax, e.g. "${app.name}". The whole expression is a template, so a
// literal "${" is written as "$${" and a literal "%{" as "%%{".
type Properties struct {
	values map[string]string
}

// NewProperties creates a resolver seeded with the given values.
func NewProperties(values map[string]string) *Properties {
	p := &Properties{values: make(map[string]string, len(values))}
	for k, v := range values {
		p.values[k] = v
	}
	return p
}

// Set stores a value under key.
func (p *Properties) Set(key, value string) {
	p.values[key] = value
}

// Lookup returns the raw value stored under key.
func (p *Properties) Lookup(key string) (string, bool) {
	v, ok := p.values[key]
	return v, ok
}

// Keys returns all keys in sorted order.
func (p *Properties) Keys() []string {
	return slices.Sorted(maps.Keys(p.values))
}

// Resolve evaluates expression as a template against the stored values.
func (p *Properties) Resolve(expression string) (string, error) {
	expr, diags := hclsyntax.ParseTemplate([]byte(expression), "property", hcl.InitialPos)
	if diags.HasErrors() {
		return "", fmt.Errorf("%w: %q: %s", ErrUnresolvedPlaceholder, expression, diags.Error())
	}

	val, diags := expr.Value(&hcl.EvalContext{Variables: p.variables()})
	if diags.HasErrors() {
		return "", fmt.Errorf("%w: %q: %s", ErrUnresolvedPlaceholder, expression, diags.Error())
	}
	if val.IsNull() || !val.IsKnown() {
		return "", fmt.Errorf("%w: %q evaluated to no value", ErrUnresolvedPlaceholder, expression)
	}

	str, err := convert.Convert(val, cty.String)
	if err != nil {
		return "", fmt.Errorf("%w: %q does not produce a string: %v", ErrUnresolvedPlaceholder, expression, err)
	}
	return str.AsString(), nil
}

// variables nests the flat key space into cty objects. Keys are visited in
// sorted order, so a key that is a prefix of a longer key ("app" vs
// "app.name") shadows the longer one.
func (p *Properties) variables() map[string]cty.Value {
	tree := make(map[string]any)
	for _, key := range p.Keys() {
		insert(tree, strings.Split(key, "."), p.values[key])
	}

	vars := make(map[string]cty.Value, len(tree))
	for k, v := range tree {
		vars[k] = toCty(v)
	}
	return vars
}

func insert(tree map[string]any, path []string, value string) {
	head := path[0]
	if len(path) == 1 {
		if _, exists := tree[head]; !exists {
			tree[head] = value
		}
		return
	}

	switch child := tree[head].(type) {
	case nil:
		next := make(map[string]any)
		tree[head] = next
		insert(next, path[1:], value)
	case map[string]any:
		insert(child, path[1:], value)
	default:
		// shadowed by a shorter key
	}
}

func toCty(v any) cty.Value {
	switch val := v.(type) {
	case string:
		return cty.StringVal(val)
	case map[string]any:
		attrs := make(map[string]cty.Value, len(val))
		for k, child := range val {
			attrs[k] = toCty(child)
		}
		return cty.ObjectVal(attrs)
	default:
		return cty.NullVal(cty.DynamicPseudoType)
	}
}
