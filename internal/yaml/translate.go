package yaml

import (
	"fmt"
	"strconv"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"

	"github.com/vk/matrixci/internal/config"
)

func translateMatrix(raw *matrixDoc) (*config.Matrix, error) {
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
		values := make([]cty.Value, len(axis.Values))
		for i := range axis.Values {
			v, err := scalarToCty(&axis.Values[i])
			if err != nil {
				return nil, fmt.Errorf("axis %q: %w", axis.Name, err)
			}
			values[i] = v
		}
		m.Axes = append(m.Axes, &config.Axis{Name: axis.Name, Values: values})
	}

	for i := range raw.Include {
		inc, err := translateInclude(&raw.Include[i])
		if err != nil {
			return nil, fmt.Errorf("include %d: %w", i, err)
		}
		m.Includes = append(m.Includes, inc)
	}
	return m, nil
}

// translateInclude walks the mapping node directly: yaml.Node preserves
// source order, which a plain map would lose.
func translateInclude(node *yaml.Node) (*config.Include, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("include entries must be mappings")
	}
	inc := &config.Include{Bindings: make(map[string]cty.Value, len(node.Content)/2)}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		val, err := scalarToCty(node.Content[i+1])
		if err != nil {
			return nil, fmt.Errorf("binding %q: %w", key, err)
		}
		inc.Keys = append(inc.Keys, key)
		inc.Bindings[key] = val
	}
	return inc, nil
}

func translateStep(file string, raw *stepDoc) (*config.StepTemplate, error) {
	tpl := &config.StepTemplate{
		Name:   raw.Name,
		Action: raw.Action,
	}
	if raw.ContinueOnError != nil {
		tpl.ContinueOnError = *raw.ContinueOnError
	}
	if raw.Timeout != "" {
		d, err := time.ParseDuration(raw.Timeout)
		if err != nil {
			return nil, fmt.Errorf("step %q: invalid timeout: %w", raw.Name, err)
		}
		tpl.Timeout = d
	}

	if raw.When != "" {
		expr, diags := hclsyntax.ParseExpression([]byte(raw.When), file, hcl.InitialPos)
		if diags.HasErrors() {
			return nil, fmt.Errorf("step %q: invalid when expression: %w", raw.Name, diags)
		}
		tpl.Guard = expr
	}

	if raw.Arguments.Kind != 0 {
		args, err := translateArguments(file, &raw.Arguments)
		if err != nil {
			return nil, fmt.Errorf("step %q: %w", raw.Name, err)
		}
		tpl.Arguments = args
	}
	return tpl, nil
}

// translateArguments converts the arguments mapping into expressions.
// String values are parsed as HCL templates so `${matrix.os}` interpolation
// behaves exactly as in the HCL front end; other scalars become literals.
func translateArguments(file string, node *yaml.Node) (map[string]hcl.Expression, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("arguments must be a mapping")
	}
	args := make(map[string]hcl.Expression, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		valNode := node.Content[i+1]

		if valNode.Kind == yaml.ScalarNode && valNode.Tag == "!!str" {
			expr, diags := hclsyntax.ParseTemplate([]byte(valNode.Value), file, hcl.InitialPos)
			if diags.HasErrors() {
				return nil, fmt.Errorf("argument %q: %w", key, diags)
			}
			args[key] = expr
			continue
		}

		val, err := scalarToCty(valNode)
		if err != nil {
			return nil, fmt.Errorf("argument %q: %w", key, err)
		}
		args[key] = &hclsyntax.LiteralValueExpr{Val: val}
	}
	return args, nil
}

// scalarToCty maps a YAML scalar onto the cty value space used everywhere
// else in the engine.
func scalarToCty(node *yaml.Node) (cty.Value, error) {
	if node.Kind != yaml.ScalarNode {
		return cty.NilVal, fmt.Errorf("expected a scalar, got %s", node.Tag)
	}
	switch node.Tag {
	case "!!str":
		return cty.StringVal(node.Value), nil
	case "!!bool":
		b, err := strconv.ParseBool(node.Value)
		if err != nil {
			return cty.NilVal, fmt.Errorf("invalid bool %q", node.Value)
		}
		return cty.BoolVal(b), nil
	case "!!int":
		n, err := strconv.ParseInt(node.Value, 10, 64)
		if err != nil {
			return cty.NilVal, fmt.Errorf("invalid integer %q", node.Value)
		}
		return cty.NumberIntVal(n), nil
	case "!!float":
		f, err := strconv.ParseFloat(node.Value, 64)
		if err != nil {
			return cty.NilVal, fmt.Errorf("invalid float %q", node.Value)
		}
		return cty.NumberFloatVal(f), nil
	default:
		return cty.NilVal, fmt.Errorf("unsupported scalar tag %s", node.Tag)
	}
}
