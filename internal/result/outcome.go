// Package result holds the immutable outcome records produced during a
// pipeline run and the aggregation that turns them into a single verdict.
package result

import "time"

// StepStatus is the terminal state of one planned step.
type StepStatus string

const (
	StepSucceeded StepStatus = "succeeded"
	StepFailed    StepStatus = "failed"
	StepSkipped   StepStatus = "skipped"
)

// FailureCause distinguishes why a failed step failed. Timeouts follow the
// same continue-on-error rules as any other failure but stay visible as a
// distinct cause in reports.
type FailureCause string

const (
	CauseError   FailureCause = "error"
	CauseTimeout FailureCause = "timeout"
)

// SkipReason distinguishes why a skipped step never ran. Guard-skipped
// steps are part of the plan and visible in reports; cancelled and aborted
// steps were planned to run but their turn never came.
type SkipReason string

const (
	SkipGuard     SkipReason = "guard"
	SkipAborted   SkipReason = "aborted"
	SkipCancelled SkipReason = "cancelled"
)

// StepOutcome records one step's terminal state. Outcomes are appended in
// step order during execution and never revised.
type StepOutcome struct {
	Name   string       `json:"name"`
	Status StepStatus   `json:"status"`
	Cause  FailureCause `json:"cause,omitempty"`
	Reason SkipReason   `json:"reason,omitempty"`
	Error  string       `json:"error,omitempty"`

	// ContinuedOnError marks a failed step whose failure was non-fatal to
	// its job.
	ContinuedOnError bool `json:"continued_on_error,omitempty"`

	Duration time.Duration `json:"duration_ns,omitempty"`
}

// JobStatus is the aggregate state of one job.
type JobStatus string

const (
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"

	// JobFailedIgnored is a failed job whose spec is marked experimental;
	// it never affects the pipeline verdict.
	JobFailedIgnored JobStatus = "failed-ignored"

	// JobCancelled is a job that fail-fast cancellation stopped before it
	// could finish (or start).
	JobCancelled JobStatus = "cancelled"
)

// Artifact is an opaque file a step produced (coverage data, logs). The
// engine associates it with its job and passes it through uninterpreted.
type Artifact struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	ContentType string `json:"content_type,omitempty"`
}

// JobOutcome is the aggregate of one job's step outcomes.
type JobOutcome struct {
	JobID        string        `json:"job_id"`
	Experimental bool          `json:"experimental,omitempty"`
	Status       JobStatus     `json:"status"`
	Steps        []StepOutcome `json:"steps"`
	Artifacts    []Artifact    `json:"artifacts,omitempty"`
	Error        string        `json:"error,omitempty"`
}

// Failed reports whether this job's failure counts against the pipeline
// verdict.
func (j *JobOutcome) Failed() bool {
	return j.Status == JobFailed
}
