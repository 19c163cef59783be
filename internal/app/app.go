package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/matrixci/internal/config"
	"github.com/vk/matrixci/internal/ctxlog"
	"github.com/vk/matrixci/internal/matrix"
	"github.com/vk/matrixci/internal/plan"
	"github.com/vk/matrixci/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and
// lifecycle. Everything that can fail from configuration alone fails inside
// New, before a single job runs.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	cfg      *Config
	registry *registry.Registry
	pipeline *config.Pipeline
	jobs     []*matrix.JobSpec
	plans    []*plan.StepPlan
	failFast bool
}

// New is the constructor for the main application. It loads the pipeline,
// expands the matrix, resolves every job's step plan, and validates the
// registry. It panics on any configuration error: a pipeline that cannot be
// planned is a fatal startup error, not a runtime one.
func New(outW io.Writer, cfg *Config, loader config.Loader, modules ...registry.Module) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	pipeline, err := loader.Load(ctx, cfg.PipelinePath)
	if err != nil {
		panic(fmt.Errorf("failed to load configuration: %w", err))
	}
	logger.Debug("Pipeline loaded.", "axes", len(pipeline.Matrix.Axes), "steps", len(pipeline.Steps))

	jobs, err := matrix.Expand(pipeline)
	if err != nil {
		panic(fmt.Errorf("failed to expand matrix: %w", err))
	}
	logger.Debug("Matrix expanded.", "jobs", len(jobs))

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All action modules registered.", "count", len(modules))

	if err := reg.Validate(pipeline); err != nil {
		panic(err)
	}

	plans, err := plan.BuildAll(jobs, pipeline.Steps)
	if err != nil {
		panic(fmt.Errorf("failed to resolve step plans: %w", err))
	}
	logger.Debug("Step plans resolved.", "plans", len(plans))

	failFast := pipeline.Matrix.FailFast
	switch cfg.FailFast {
	case "true":
		failFast = true
	case "false":
		failFast = false
	}

	return &App{
		outW:     outW,
		logger:   logger,
		cfg:      cfg,
		registry: reg,
		pipeline: pipeline,
		jobs:     jobs,
		plans:    plans,
		failFast: failFast,
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Pipeline returns the loaded pipeline model. This is primarily for testing.
func (a *App) Pipeline() *config.Pipeline {
	return a.pipeline
}

// Jobs returns the expanded job set. This is primarily for testing.
func (a *App) Jobs() []*matrix.JobSpec {
	return a.jobs
}

// Plans returns the resolved step plans. This is primarily for testing.
func (a *App) Plans() []*plan.StepPlan {
	return a.plans
}
