package integration_tests

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/matrixci/internal/result"
	"github.com/vk/matrixci/internal/testutil"
)

func TestFailure_FatalStepAbortsRemainingSteps(t *testing.T) {
	t.Parallel()

	var after atomic.Int64
	r := testutil.RunPipelineTest(t, map[string]string{"main.hcl": `
		matrix {
			axis "os" {
				values = ["ubuntu-latest"]
			}
		}

		step "boom" {
			action = "explode"
		}
		step "never" {
			action = "spy"
		}
	`},
		&testutil.ActionModule{Name: "explode", Fn: testutil.CountingAction(&atomic.Int64{}, errors.New("kaboom"))},
		&testutil.ActionModule{Name: "spy", Fn: testutil.CountingAction(&after, nil)},
	)

	require.NoError(t, r.Err)
	require.Equal(t, result.VerdictFailure, r.Report.Verdict)

	job := r.Report.Jobs[0]
	require.Equal(t, result.JobFailed, job.Status)
	require.Contains(t, job.Error, `step "boom"`)
	require.Equal(t, result.StepSkipped, job.Steps[1].Status)
	require.Equal(t, result.SkipAborted, job.Steps[1].Reason)
	require.Zero(t, after.Load(), "steps after a fatal failure must not run")
}

func TestFailure_ContinueOnErrorKeepsJobAndVerdictGreen(t *testing.T) {
	t.Parallel()

	var after atomic.Int64
	r := testutil.RunPipelineTest(t, map[string]string{"main.hcl": `
		matrix {
			axis "os" {
				values = ["ubuntu-latest"]
			}
		}

		step "flaky" {
			action            = "explode"
			continue_on_error = true
		}
		step "next" {
			action = "spy"
		}
	`},
		&testutil.ActionModule{Name: "explode", Fn: testutil.CountingAction(&atomic.Int64{}, errors.New("kaboom"))},
		&testutil.ActionModule{Name: "spy", Fn: testutil.CountingAction(&after, nil)},
	)

	require.NoError(t, r.Err)
	require.Equal(t, result.VerdictSuccess, r.Report.Verdict)

	job := r.Report.Jobs[0]
	require.Equal(t, result.JobSucceeded, job.Status)
	require.Equal(t, result.StepFailed, job.Steps[0].Status)
	require.True(t, job.Steps[0].ContinuedOnError)
	require.Equal(t, int64(1), after.Load(), "the job keeps going past a tolerated failure")
}

func TestFailure_NoFailFastRunsEveryJob(t *testing.T) {
	t.Parallel()

	var ran atomic.Int64
	r := testutil.RunPipelineTest(t, map[string]string{"main.hcl": `
		matrix {
			fail_fast = false

			axis "os" {
				values = ["a", "b", "c", "d", "e", "f"]
			}
		}

		step "build" {
			action = "spy"
		}
		step "fail-on-a" {
			action = "explode"
			when   = matrix.os == "a"
		}
	`},
		&testutil.ActionModule{Name: "spy", Fn: testutil.CountingAction(&ran, nil)},
		&testutil.ActionModule{Name: "explode", Fn: testutil.CountingAction(&atomic.Int64{}, errors.New("kaboom"))},
	)

	require.NoError(t, r.Err)
	require.Equal(t, result.VerdictFailure, r.Report.Verdict)
	require.Equal(t, int64(6), ran.Load(), "without fail-fast every job completes")
	require.Equal(t, result.JobFailed, r.JobByID(t, "os=a").Status)
	require.Equal(t, result.JobSucceeded, r.JobByID(t, "os=f").Status)
}

func TestFailure_StepTimeoutIsDistinctFromError(t *testing.T) {
	t.Parallel()

	// Exercises the real shell action: the command outlives its timeout and
	// the outcome must say timeout, not plain error.
	r := testutil.RunPipelineTest(t, map[string]string{"main.hcl": `
		matrix {
			axis "os" {
				values = ["ubuntu-latest"]
			}
		}

		step "hang" {
			action  = "shell"
			timeout = "100ms"
			arguments {
				command = "sleep 5"
			}
		}
	`})

	require.NoError(t, r.Err)
	require.Equal(t, result.VerdictFailure, r.Report.Verdict)

	job := r.Report.Jobs[0]
	require.Equal(t, result.JobFailed, job.Status)
	require.Equal(t, result.StepFailed, job.Steps[0].Status)
	require.Equal(t, result.CauseTimeout, job.Steps[0].Cause)
}

func TestFailure_UnregisteredActionFailsAtStartup(t *testing.T) {
	t.Parallel()

	r := testutil.RunPipelineTest(t, map[string]string{"main.hcl": `
		matrix {
			axis "os" {
				values = ["ubuntu-latest"]
			}
		}

		step "mystery" {
			action = "no-such-action"
		}
	`}, &testutil.ActionModule{Name: "spy", Fn: testutil.CountingAction(&atomic.Int64{}, nil)})

	require.Error(t, r.Err)
	require.Contains(t, r.Err.Error(), "no-such-action")
	require.Nil(t, r.Report)
}

func TestFailure_IllFormedGuardFailsAtStartup(t *testing.T) {
	t.Parallel()

	r := testutil.RunPipelineTest(t, map[string]string{"main.hcl": `
		matrix {
			axis "os" {
				values = ["ubuntu-latest"]
			}
		}

		step "bad" {
			action = "spy"
			when   = matrix.no_such_axis == "x"
		}
	`}, &testutil.ActionModule{Name: "spy", Fn: testutil.CountingAction(&atomic.Int64{}, nil)})

	require.Error(t, r.Err)
	require.Contains(t, r.Err.Error(), "application startup panicked")
	require.Contains(t, r.Err.Error(), `step "bad"`)
}
