package app

import (
	"errors"
	"fmt"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	PipelinePath string

	// FailFast overrides the pipeline's fail_fast setting when "true" or
	// "false"; "auto" defers to the pipeline.
	FailFast string

	Workers         int
	DryRun          bool
	ReportJSONPath  string
	LogFormat       string
	LogLevel        string
	HealthcheckPort int
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.PipelinePath == "" {
		return nil, errors.New("PipelinePath is a required configuration field and cannot be empty")
	}
	if cfg.Workers <= 0 {
		return nil, fmt.Errorf("Workers must be positive, got %d", cfg.Workers)
	}
	switch cfg.FailFast {
	case "", "auto", "true", "false":
	default:
		return nil, fmt.Errorf("FailFast must be 'auto', 'true' or 'false', got %q", cfg.FailFast)
	}
	return &cfg, nil
}
