// Package matrix expands a declarative job matrix into the concrete,
// immutable set of jobs the scheduler executes. Expansion is deterministic:
// the same pipeline always yields the same jobs in the same order.
package matrix

import (
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// Unset is the sentinel value filled into axes that an appended include
// entry leaves unspecified. It is a real value, not a null, so guard
// predicates stay total when they compare against it.
var Unset = cty.StringVal("unset")

// JobSpec is one expanded job: an immutable mapping from axis name to a
// single concrete value. Its identity is the full binding tuple.
type JobSpec struct {
	id           string
	keys         []string
	scope        []string
	bindings     map[string]cty.Value
	experimental bool
	os           string
}

// newJobSpec derives the job's ID, experimental flag, and OS selector from
// its final bindings. scope is the union of binding names across the whole
// job set; names this job does not bind evaluate to Unset, which keeps
// guards total. Callers must not mutate keys, scope, or bindings afterwards.
func newJobSpec(keys, scope []string, bindings map[string]cty.Value) *JobSpec {
	j := &JobSpec{
		keys:     keys,
		scope:    scope,
		bindings: bindings,
	}

	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(valueLabel(bindings[k]))
	}
	j.id = sb.String()

	if v, ok := bindings["experimental"]; ok && v.Type() == cty.Bool && v.True() {
		j.experimental = true
	}
	if v, ok := bindings["os"]; ok && v.Type() == cty.String && !v.IsNull() {
		j.os = v.AsString()
	}
	return j
}

// ID returns the job's unique identity, rendered from its binding tuple in
// axis declaration order.
func (j *JobSpec) ID() string { return j.id }

// Keys returns the binding names in declaration order.
func (j *JobSpec) Keys() []string {
	out := make([]string, len(j.keys))
	copy(out, j.keys)
	return out
}

// Binding returns the value bound to the given name.
func (j *JobSpec) Binding(name string) (cty.Value, bool) {
	v, ok := j.bindings[name]
	return v, ok
}

// Experimental reports whether this job's failures are ignored by the
// pipeline verdict and never trigger fail-fast cancellation.
func (j *JobSpec) Experimental() bool { return j.experimental }

// OS returns the job's runtime dispatch selector, or "" when the matrix has
// no os axis.
func (j *JobSpec) OS() string { return j.os }

// Variables returns the job's bindings as a single cty object, suitable for
// exposing as the `matrix` variable in guard and argument evaluation. Every
// name any job in the set binds is present; names this job does not bind
// carry the Unset sentinel, so a guard comparing against them is false, not
// an error.
func (j *JobSpec) Variables() cty.Value {
	vals := make(map[string]cty.Value, len(j.scope))
	for _, k := range j.scope {
		if v, ok := j.bindings[k]; ok {
			vals[k] = v
		} else {
			vals[k] = Unset
		}
	}
	return cty.ObjectVal(vals)
}

// valueLabel renders a binding value for use inside a job ID.
func valueLabel(v cty.Value) string {
	if v.IsNull() {
		return "null"
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
