package result

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Verdict is the single success/failure signal for the whole pipeline.
type Verdict string

const (
	VerdictSuccess Verdict = "success"
	VerdictFailure Verdict = "failure"
)

// Report is the structured record of one pipeline run: the verdict plus
// every job and step outcome, in expansion order.
type Report struct {
	Verdict  Verdict      `json:"verdict"`
	Jobs     []JobOutcome `json:"jobs"`
	Started  time.Time    `json:"started"`
	Finished time.Time    `json:"finished"`
}

// Aggregate derives the pipeline verdict from the collected job outcomes.
// The verdict is failure iff at least one job failed; failed-but-ignored
// and cancelled jobs never flip it.
func Aggregate(jobs []JobOutcome, started, finished time.Time) *Report {
	verdict := VerdictSuccess
	for i := range jobs {
		if jobs[i].Failed() {
			verdict = VerdictFailure
			break
		}
	}
	return &Report{
		Verdict:  verdict,
		Jobs:     jobs,
		Started:  started,
		Finished: finished,
	}
}

// Render writes a human-readable summary of the run.
func (r *Report) Render(w io.Writer) {
	for i := range r.Jobs {
		job := &r.Jobs[i]
		fmt.Fprintf(w, "%s  %s\n", statusGlyph(job.Status), job.JobID)
		for _, step := range job.Steps {
			switch step.Status {
			case StepSkipped:
				fmt.Fprintf(w, "    - %-20s skipped (%s)\n", step.Name, step.Reason)
			case StepFailed:
				suffix := ""
				if step.Cause == CauseTimeout {
					suffix = " [timeout]"
				}
				if step.ContinuedOnError {
					suffix += " (continued)"
				}
				fmt.Fprintf(w, "    - %-20s failed%s: %s\n", step.Name, suffix, step.Error)
			default:
				fmt.Fprintf(w, "    - %-20s %s\n", step.Name, step.Status)
			}
		}
		for _, art := range job.Artifacts {
			fmt.Fprintf(w, "    * artifact %s (%s)\n", art.Name, art.Path)
		}
	}
	fmt.Fprintf(w, "\npipeline: %s (%d jobs, %s)\n", r.Verdict, len(r.Jobs), r.Finished.Sub(r.Started).Round(time.Millisecond))
}

// WriteJSON emits the full structured report for machine consumers.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

func statusGlyph(s JobStatus) string {
	switch s {
	case JobSucceeded:
		return "✅"
	case JobFailed:
		return "❌"
	case JobFailedIgnored:
		return "⚠️"
	case JobCancelled:
		return "🚫"
	default:
		return "?"
	}
}
