// Package executor schedules expanded jobs across a bounded worker pool and
// runs each job's planned steps strictly in order. Cancellation is
// cooperative: fail-fast is checked when a worker picks up a job and at
// every step boundary, never mid-step.
package executor

import (
	"context"
	"sync"

	"github.com/vk/matrixci/internal/ctxlog"
	"github.com/vk/matrixci/internal/plan"
	"github.com/vk/matrixci/internal/registry"
	"github.com/vk/matrixci/internal/result"
)

// Executor runs a resolved set of step plans.
type Executor struct {
	plans    []*plan.StepPlan
	registry *registry.Registry

	workers  int
	failFast bool

	// cancelExperimental extends fail-fast cancellation to experimental
	// jobs. When false, experimental jobs keep the caller's context and run
	// to completion even after a fail-fast trigger.
	cancelExperimental bool
}

// New creates an executor over the given plans.
func New(plans []*plan.StepPlan, reg *registry.Registry, workers int, failFast, cancelExperimental bool) *Executor {
	if workers < 1 {
		workers = 1
	}
	return &Executor{
		plans:              plans,
		registry:           reg,
		workers:            workers,
		failFast:           failFast,
		cancelExperimental: cancelExperimental,
	}
}

// Run executes every job and returns one outcome per plan, in plan order.
// Job and step failures are captured in the outcomes and never escape as
// errors; the caller always gets a complete result set.
func (e *Executor) Run(ctx context.Context) []result.JobOutcome {
	logger := ctxlog.FromContext(ctx)

	outcomes := make([]result.JobOutcome, len(e.plans))
	jobChan := make(chan int, len(e.plans))
	for i := range e.plans {
		jobChan <- i
	}
	close(jobChan)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	logger.Debug("Starting worker pool.", "workers", e.workers, "jobs", len(e.plans))
	var wg sync.WaitGroup
	wg.Add(e.workers)
	for i := 0; i < e.workers; i++ {
		go func(workerID int) {
			defer wg.Done()
			e.worker(ctx, runCtx, cancel, jobChan, outcomes, workerID)
		}(i)
	}
	wg.Wait()
	logger.Debug("All jobs completed.")

	return outcomes
}

// worker is the processing loop for a single concurrent worker. Each worker
// writes only the outcome slots of the jobs it drained from the channel, so
// no two goroutines ever touch the same entry.
func (e *Executor) worker(baseCtx, runCtx context.Context, cancel context.CancelFunc, jobChan <-chan int, outcomes []result.JobOutcome, workerID int) {
	logger := ctxlog.FromContext(baseCtx).With("workerID", workerID)

	for idx := range jobChan {
		p := e.plans[idx]
		jobLogger := logger.With("job", p.Job.ID())

		jobCtx := runCtx
		if p.Job.Experimental() && !e.cancelExperimental {
			jobCtx = baseCtx
		}

		if jobCtx.Err() != nil {
			jobLogger.Warn("Cancellation requested before dispatch, job will not run.")
			outcomes[idx] = cancelledOutcome(p)
			continue
		}

		jobLogger.Info("▶️ Starting job")
		outcome := e.runJob(jobCtx, p)
		outcomes[idx] = outcome

		switch outcome.Status {
		case result.JobFailed:
			jobLogger.Error("❌ Job failed.", "error", outcome.Error)
			if e.failFast {
				jobLogger.Warn("Fail-fast: cancelling remaining jobs.")
				cancel()
			}
		case result.JobFailedIgnored:
			jobLogger.Warn("⚠️ Job failed, failure ignored.", "error", outcome.Error)
		case result.JobCancelled:
			jobLogger.Warn("Job cancelled at a step boundary.")
		default:
			jobLogger.Info("✅ Job finished")
		}
	}
}

// cancelledOutcome records an undispatched job: guard-skipped steps keep
// their guard reason (the plan is known even without running), everything
// else is skipped as cancelled.
func cancelledOutcome(p *plan.StepPlan) result.JobOutcome {
	outcome := result.JobOutcome{
		JobID:        p.Job.ID(),
		Experimental: p.Job.Experimental(),
		Status:       result.JobCancelled,
	}
	for _, ps := range p.Steps {
		reason := result.SkipCancelled
		if !ps.GuardMet {
			reason = result.SkipGuard
		}
		outcome.Steps = append(outcome.Steps, result.StepOutcome{
			Name:   ps.Template.Name,
			Status: result.StepSkipped,
			Reason: reason,
		})
	}
	return outcome
}
