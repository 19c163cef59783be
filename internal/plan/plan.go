// Package plan resolves the per-job step plans before anything executes.
// Because guards are pure over a job's bindings, every plan can be computed
// up front; this is what makes dry-run output and load-time guard
// validation possible.
package plan

import (
	"fmt"

	"github.com/vk/matrixci/internal/config"
	"github.com/vk/matrixci/internal/matrix"
	"github.com/vk/matrixci/internal/predicate"
)

// PlannedStep is one step resolved for one job. A step whose guard
// evaluated false stays in the plan with GuardMet=false: it is reported as
// skipped, distinct from a step that was never declared.
type PlannedStep struct {
	Template *config.StepTemplate
	GuardMet bool
}

// StepPlan is the ordered step list for a single job. Step order follows
// template declaration order and is never reordered per job.
type StepPlan struct {
	Job   *matrix.JobSpec
	Steps []*PlannedStep
}

// Build resolves the plan for one job, evaluating each template's guard
// against the job's bindings. A guard that cannot be evaluated is a
// configuration error; it surfaces here, before any job runs.
func Build(job *matrix.JobSpec, templates []*config.StepTemplate) (*StepPlan, error) {
	steps := make([]*PlannedStep, len(templates))
	for i, tpl := range templates {
		met, err := predicate.Evaluate(tpl.Guard, job)
		if err != nil {
			return nil, fmt.Errorf("step %q: %w", tpl.Name, err)
		}
		steps[i] = &PlannedStep{Template: tpl, GuardMet: met}
	}
	return &StepPlan{Job: job, Steps: steps}, nil
}

// BuildAll resolves plans for every expanded job, in job order.
func BuildAll(jobs []*matrix.JobSpec, templates []*config.StepTemplate) ([]*StepPlan, error) {
	plans := make([]*StepPlan, len(jobs))
	for i, job := range jobs {
		p, err := Build(job, templates)
		if err != nil {
			return nil, err
		}
		plans[i] = p
	}
	return plans, nil
}
