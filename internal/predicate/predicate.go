// Package predicate evaluates guard expressions against a job's matrix
// bindings. Evaluation is pure: the only variable in scope is the `matrix`
// object and the function table is a closed set of value helpers, so a
// well-formed guard always yields the same boolean for the same job. Both
// configuration front ends funnel their guards through this package.
package predicate

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"

	"github.com/vk/matrixci/internal/matrix"
)

// functions is the closed set of helpers available inside guard and
// argument expressions. Deliberately small: guards are comparisons and
// membership tests, not a general-purpose language.
var functions = map[string]function.Function{
	"contains": stdlib.ContainsFunc,
	"length":   stdlib.LengthFunc,
	"upper":    stdlib.UpperFunc,
	"lower":    stdlib.LowerFunc,
	"format":   stdlib.FormatFunc,
}

// EvalContext builds the expression scope for one job.
func EvalContext(job *matrix.JobSpec) *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"matrix": job.Variables(),
		},
		Functions: functions,
	}
}

// Evaluate resolves a guard against the job's bindings. A nil guard is
// vacuously true. Any diagnostic, a non-boolean result, or a null result
// makes the guard ill-formed; callers treat that as a configuration error
// at plan time, never at run time.
func Evaluate(guard hcl.Expression, job *matrix.JobSpec) (bool, error) {
	if guard == nil {
		return true, nil
	}

	val, diags := guard.Value(EvalContext(job))
	if diags.HasErrors() {
		return false, fmt.Errorf("evaluating guard for job %s: %w", job.ID(), diags)
	}

	val, err := convert.Convert(val, cty.Bool)
	if err != nil {
		return false, fmt.Errorf("guard for job %s is not boolean: %w", job.ID(), err)
	}
	if val.IsNull() || !val.IsKnown() {
		return false, fmt.Errorf("guard for job %s did not produce a known boolean", job.ID())
	}
	return val.True(), nil
}
