package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/matrixci/internal/config"
	"github.com/vk/matrixci/internal/ctxlog"
	"github.com/vk/matrixci/internal/matrix"
	"github.com/vk/matrixci/internal/plan"
	"github.com/vk/matrixci/internal/predicate"
	"github.com/vk/matrixci/internal/registry"
	"github.com/vk/matrixci/internal/result"
)

// runJob executes one job's planned steps strictly sequentially. A step
// outcome is recorded before the next step starts; on a fatal step failure
// the remaining steps are skipped as aborted, on cancellation as cancelled.
func (e *Executor) runJob(ctx context.Context, p *plan.StepPlan) result.JobOutcome {
	logger := ctxlog.FromContext(ctx).With("job", p.Job.ID())
	outcome := result.JobOutcome{
		JobID:        p.Job.ID(),
		Experimental: p.Job.Experimental(),
	}
	env := registry.EnvForJob(p.Job)

	var (
		fatal     bool
		cancelled bool
		firstErr  string
	)

	for _, ps := range p.Steps {
		tpl := ps.Template
		switch {
		case !ps.GuardMet:
			logger.Debug("Step skipped by guard.", "step", tpl.Name)
			outcome.Steps = append(outcome.Steps, result.StepOutcome{
				Name: tpl.Name, Status: result.StepSkipped, Reason: result.SkipGuard,
			})
			continue
		case fatal:
			outcome.Steps = append(outcome.Steps, result.StepOutcome{
				Name: tpl.Name, Status: result.StepSkipped, Reason: result.SkipAborted,
			})
			continue
		case cancelled || ctx.Err() != nil:
			cancelled = true
			outcome.Steps = append(outcome.Steps, result.StepOutcome{
				Name: tpl.Name, Status: result.StepSkipped, Reason: result.SkipCancelled,
			})
			continue
		}

		stepOut, artifact := e.runStep(ctx, p.Job, tpl, env, outcome.Artifacts)
		outcome.Steps = append(outcome.Steps, stepOut)
		if artifact != nil {
			outcome.Artifacts = append(outcome.Artifacts, *artifact)
		}

		if stepOut.Status != result.StepFailed {
			continue
		}
		if tpl.ContinueOnError {
			continue
		}
		// A fatal failure that coincides with a cancelled run context is
		// attributed to the cancellation, not to the job.
		if stepOut.Cause != result.CauseTimeout && ctx.Err() != nil {
			cancelled = true
			continue
		}
		fatal = true
		firstErr = fmt.Sprintf("step %q: %s", tpl.Name, stepOut.Error)
	}

	switch {
	case fatal && p.Job.Experimental():
		outcome.Status = result.JobFailedIgnored
		outcome.Error = firstErr
	case fatal:
		outcome.Status = result.JobFailed
		outcome.Error = firstErr
	case cancelled:
		outcome.Status = result.JobCancelled
	default:
		outcome.Status = result.JobSucceeded
	}
	return outcome
}

// runStep resolves the step's arguments, applies its timeout, and invokes
// the registered action. All failures are captured in the outcome.
func (e *Executor) runStep(ctx context.Context, job *matrix.JobSpec, tpl *config.StepTemplate, env []string, prior []result.Artifact) (result.StepOutcome, *result.Artifact) {
	logger := ctxlog.FromContext(ctx).With("job", job.ID(), "step", tpl.Name)

	fn, ok := e.registry.Action(tpl.Action)
	if !ok {
		// Startup validation makes this unreachable; recorded, not raised.
		return result.StepOutcome{
			Name: tpl.Name, Status: result.StepFailed, Cause: result.CauseError,
			Error: fmt.Sprintf("action %q not registered", tpl.Action),
		}, nil
	}

	args, err := evalArgs(tpl, job)
	if err != nil {
		return result.StepOutcome{
			Name: tpl.Name, Status: result.StepFailed, Cause: result.CauseError,
			Error: err.Error(),
		}, nil
	}

	stepCtx := ctx
	if tpl.Timeout > 0 {
		var cancel context.CancelFunc
		stepCtx, cancel = context.WithTimeout(ctx, tpl.Timeout)
		defer cancel()
	}

	logger.Debug("Invoking action.", "action", tpl.Action)
	start := time.Now()
	artifact, err := fn(stepCtx, &registry.Invocation{
		Job:       job,
		Step:      tpl.Name,
		Args:      args,
		Env:       env,
		Artifacts: prior,
	})
	elapsed := time.Since(start)

	if err != nil {
		cause := result.CauseError
		if tpl.Timeout > 0 && stepCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			cause = result.CauseTimeout
		}
		logger.Debug("Step failed.", "cause", cause, "error", err)
		return result.StepOutcome{
			Name: tpl.Name, Status: result.StepFailed, Cause: cause,
			Error: err.Error(), ContinuedOnError: tpl.ContinueOnError,
			Duration: elapsed,
		}, nil
	}

	logger.Debug("Step succeeded.", "duration", elapsed)
	return result.StepOutcome{
		Name: tpl.Name, Status: result.StepSucceeded, Duration: elapsed,
	}, artifact
}

// evalArgs resolves a step's argument expressions against the job's matrix
// bindings, in the same scope guards evaluate in.
func evalArgs(tpl *config.StepTemplate, job *matrix.JobSpec) (map[string]cty.Value, error) {
	if len(tpl.Arguments) == 0 {
		return nil, nil
	}
	evalCtx := predicate.EvalContext(job)
	args := make(map[string]cty.Value, len(tpl.Arguments))
	for name, expr := range tpl.Arguments {
		val, diags := expr.Value(evalCtx)
		if diags.HasErrors() {
			return nil, fmt.Errorf("evaluating argument %q: %w", name, diags)
		}
		args[name] = val
	}
	return args, nil
}
