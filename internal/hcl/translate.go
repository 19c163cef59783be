package hcl

import (
	"fmt"
	"sort"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/matrixci/internal/config"
)

// translateMatrix converts the raw matrix block into the agnostic model.
// Axis values and include bindings must be literals: they are evaluated
// with no variables in scope, at load time.
func translateMatrix(raw *matrixBlock) (*config.Matrix, error) {
	m := &config.Matrix{
		FailFast:           true,
		CancelExperimental: true,
	}
	if raw.FailFast != nil {
		m.FailFast = *raw.FailFast
	}
	if raw.CancelExperimental != nil {
		m.CancelExperimental = *raw.CancelExperimental
	}

	for _, axis := range raw.Axes {
		values, err := literalList(axis.Values)
		if err != nil {
			return nil, fmt.Errorf("axis %q: %w", axis.Name, err)
		}
		m.Axes = append(m.Axes, &config.Axis{Name: axis.Name, Values: values})
	}

	for i, inc := range raw.Includes {
		translated, err := translateInclude(inc)
		if err != nil {
			return nil, fmt.Errorf("include %d: %w", i, err)
		}
		m.Includes = append(m.Includes, translated)
	}
	return m, nil
}

// translateInclude evaluates an include block's attributes as literal
// bindings, preserving their source declaration order.
func translateInclude(raw *includeBlock) (*config.Include, error) {
	attrs, diags := raw.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid bindings: %w", diags)
	}

	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	// JustAttributes returns a map; recover declaration order from source
	// positions so that job IDs render bindings as written.
	sort.Slice(names, func(i, j int) bool {
		return attrs[names[i]].Range.Start.Byte < attrs[names[j]].Range.Start.Byte
	})

	inc := &config.Include{
		Keys:     names,
		Bindings: make(map[string]cty.Value, len(names)),
	}
	for _, name := range names {
		val, diags := attrs[name].Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("binding %q must be a literal: %w", name, diags)
		}
		inc.Bindings[name] = val
	}
	return inc, nil
}

// translateStep converts the raw step block, parsing its timeout and
// collecting its argument expressions unevaluated.
func translateStep(raw *stepBlock) (*config.StepTemplate, error) {
	tpl := &config.StepTemplate{
		Name:   raw.Name,
		Action: raw.Action,
	}
	if raw.When != nil && !attrAbsent(raw.When) {
		tpl.Guard = raw.When
	}
	if raw.ContinueOnError != nil {
		tpl.ContinueOnError = *raw.ContinueOnError
	}
	if raw.Timeout != nil {
		d, err := time.ParseDuration(*raw.Timeout)
		if err != nil {
			return nil, fmt.Errorf("step %q: invalid timeout: %w", raw.Name, err)
		}
		tpl.Timeout = d
	}
	if raw.Arguments != nil {
		attrs, diags := raw.Arguments.Body.JustAttributes()
		if diags.HasErrors() {
			return nil, fmt.Errorf("step %q: invalid arguments: %w", raw.Name, diags)
		}
		tpl.Arguments = make(map[string]hcl.Expression, len(attrs))
		for name, attr := range attrs {
			tpl.Arguments[name] = attr.Expr
		}
	}
	return tpl, nil
}

// attrAbsent reports whether an optional expression field was never written
// in the source. gohcl does not leave such fields nil; it fills them with a
// synthetic null literal, which must not be mistaken for a real guard.
func attrAbsent(expr hcl.Expression) bool {
	val, diags := expr.Value(nil)
	return !diags.HasErrors() && val.IsNull()
}

// literalList evaluates an axis values expression into its element values.
func literalList(expr hcl.Expression) ([]cty.Value, error) {
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, fmt.Errorf("values must be literal: %w", diags)
	}
	if !val.CanIterateElements() {
		return nil, fmt.Errorf("values must be a list, got %s", val.Type().FriendlyName())
	}
	var out []cty.Value
	for it := val.ElementIterator(); it.Next(); {
		_, v := it.Element()
		out = append(out, v)
	}
	return out, nil
}
