package config

import (
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// Pipeline is the unified, format-agnostic representation of a declarative
// CI pipeline: a job matrix plus the step templates shared by every job.
type Pipeline struct {
	Matrix *Matrix
	Steps  []*StepTemplate
}

// Matrix describes the job dimensions and the policies that govern how the
// expanded jobs are scheduled.
type Matrix struct {
	// FailFast stops dispatching new jobs and cancels in-flight work as soon
	// as one non-experimental job fails.
	FailFast bool

	// CancelExperimental controls whether a fail-fast cancellation also
	// reaches experimental jobs that are already in flight. When false,
	// experimental jobs always run to completion.
	CancelExperimental bool

	Axes     []*Axis
	Includes []*Include
}

// Axis is a named matrix dimension with an ordered set of values. Axis and
// value declaration order define the expansion order, so they are preserved
// exactly as written.
type Axis struct {
	Name   string
	Values []cty.Value
}

// Include is an explicit binding tuple declared outside the base
// cross-product. It either merges extra bindings onto a matching base job
// or introduces a wholly new one. Keys preserves declaration order.
type Include struct {
	Keys     []string
	Bindings map[string]cty.Value
}

// StepTemplate is a step shared by all expanded jobs. Guard and argument
// expressions stay unevaluated here; they are resolved per job against that
// job's matrix bindings.
type StepTemplate struct {
	Name   string
	Action string

	// Guard is the optional `when` predicate. nil means the step always
	// runs. A guard that evaluates false plans the step as skipped.
	Guard hcl.Expression

	// ContinueOnError marks this step's failure as non-fatal to its job.
	ContinueOnError bool

	// Timeout bounds a single execution of this step. Zero means unbounded.
	Timeout time.Duration

	Arguments map[string]hcl.Expression
}
