package registry

import (
	"fmt"
	"sort"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/vk/matrixci/internal/matrix"
	"github.com/vk/matrixci/internal/result"
)

// Invocation carries everything an action handler needs to run one step of
// one job: the job's identity, the step's resolved arguments, the exported
// environment bindings, and the artifacts earlier steps of this job
// produced.
type Invocation struct {
	Job  *matrix.JobSpec
	Step string

	// Args are the step's argument expressions, already evaluated against
	// the job's matrix bindings.
	Args map[string]cty.Value

	// Env is the job's bindings rendered as MATRIX_* environment variables,
	// ready to splice into a child process environment.
	Env []string

	// Artifacts are the artifacts recorded by earlier steps in this job,
	// in production order.
	Artifacts []result.Artifact
}

// StringArg returns a required string argument.
func (inv *Invocation) StringArg(name string) (string, error) {
	val, ok := inv.Args[name]
	if !ok {
		return "", fmt.Errorf("step %q: missing required argument %q", inv.Step, name)
	}
	return inv.stringValue(name, val)
}

// OptionalStringArg returns a string argument, or the fallback when the
// argument is absent.
func (inv *Invocation) OptionalStringArg(name, fallback string) (string, error) {
	val, ok := inv.Args[name]
	if !ok {
		return fallback, nil
	}
	return inv.stringValue(name, val)
}

func (inv *Invocation) stringValue(name string, val cty.Value) (string, error) {
	converted, err := convert.Convert(val, cty.String)
	if err != nil {
		return "", fmt.Errorf("step %q: argument %q is not a string: %w", inv.Step, name, err)
	}
	if converted.IsNull() {
		return "", fmt.Errorf("step %q: argument %q is null", inv.Step, name)
	}
	return converted.AsString(), nil
}

// EnvForJob renders a job's bindings as MATRIX_* environment variables, in
// sorted order. `os=ubuntu-latest` becomes `MATRIX_OS=ubuntu-latest`;
// non-alphanumeric characters in binding names map to underscores.
func EnvForJob(job *matrix.JobSpec) []string {
	keys := job.Keys()
	env := make([]string, 0, len(keys)+1)
	for _, k := range keys {
		v, _ := job.Binding(k)
		env = append(env, fmt.Sprintf("MATRIX_%s=%s", envKey(k), envValue(v)))
	}
	env = append(env, "MATRIXCI_JOB="+job.ID())
	sort.Strings(env)
	return env
}

func envKey(name string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, name)
	return strings.ToUpper(mapped)
}

func envValue(v cty.Value) string {
	if v.IsNull() {
		return ""
	}
	switch v.Type() {
	case cty.String:
		return v.AsString()
	case cty.Bool:
		if v.True() {
			return "true"
		}
		return "false"
	case cty.Number:
		return v.AsBigFloat().Text('f', -1)
	default:
		return v.GoString()
	}
}
