package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/vk/matrixci/internal/ctxlog"
	"github.com/vk/matrixci/internal/executor"
	"github.com/vk/matrixci/internal/result"
)

// Run executes the planned pipeline and returns the aggregated report. In
// dry-run mode it renders the resolved plan instead and returns a nil report.
func (a *App) Run(ctx context.Context) (*result.Report, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if a.cfg.HealthcheckPort > 0 {
		a.startHealthcheckServer(a.cfg.HealthcheckPort)
	}

	if a.cfg.DryRun {
		a.renderPlan()
		return nil, nil
	}

	a.logger.Info("🚀 Starting concurrent execution...", "jobs", len(a.plans), "workers", a.cfg.Workers, "fail_fast", a.failFast)
	exec := executor.New(a.plans, a.registry, a.cfg.Workers, a.failFast, a.pipeline.Matrix.CancelExperimental)

	started := time.Now()
	outcomes := exec.Run(ctx)
	finished := time.Now()
	a.logger.Info("🏁 Execution finished.")

	report := result.Aggregate(outcomes, started, finished)
	report.Render(a.outW)

	if a.cfg.ReportJSONPath != "" {
		if err := a.writeJSONReport(report); err != nil {
			return report, err
		}
	}
	return report, nil
}

// renderPlan prints the resolved plan without running anything. Guards are
// already evaluated, so the output shows exactly which steps each job would
// run.
func (a *App) renderPlan() {
	for _, p := range a.plans {
		marker := " "
		if p.Job.Experimental() {
			marker = "~"
		}
		fmt.Fprintf(a.outW, "%s %s\n", marker, p.Job.ID())
		for _, ps := range p.Steps {
			if ps.GuardMet {
				fmt.Fprintf(a.outW, "    - %s (%s)\n", ps.Template.Name, ps.Template.Action)
			} else {
				fmt.Fprintf(a.outW, "    - %s (skipped by guard)\n", ps.Template.Name)
			}
		}
	}
	fmt.Fprintf(a.outW, "\nplan: %d jobs\n", len(a.plans))
}

func (a *App) writeJSONReport(report *result.Report) error {
	f, err := os.Create(a.cfg.ReportJSONPath)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()

	if err := report.WriteJSON(f); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	a.logger.Info("Report written.", "path", a.cfg.ReportJSONPath)
	return nil
}
