// Package yaml provides the YAML implementation of the config.Loader
// interface. Predicates and interpolated arguments are carried as strings
// in YAML and parsed with the HCL expression syntax, so guard semantics are
// identical across both front ends.
package yaml

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vk/matrixci/internal/config"
	"github.com/vk/matrixci/internal/ctxlog"
	"github.com/vk/matrixci/internal/fsutil"
)

// Loader is the YAML-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new YAML pipeline loader.
func NewLoader() *Loader {
	return &Loader{}
}

// pipelineDoc mirrors the top level of a YAML pipeline file.
type pipelineDoc struct {
	Matrix *matrixDoc `yaml:"matrix"`
	Steps  []*stepDoc `yaml:"steps"`
}

type matrixDoc struct {
	FailFast           *bool       `yaml:"fail_fast"`
	CancelExperimental *bool       `yaml:"cancel_experimental"`
	Axes               []*axisDoc  `yaml:"axes"`
	Include            []yaml.Node `yaml:"include"`
}

type axisDoc struct {
	Name   string      `yaml:"name"`
	Values []yaml.Node `yaml:"values"`
}

type stepDoc struct {
	Name            string    `yaml:"name"`
	Action          string    `yaml:"action"`
	When            string    `yaml:"when"`
	ContinueOnError *bool     `yaml:"continue_on_error"`
	Timeout         string    `yaml:"timeout"`
	Arguments       yaml.Node `yaml:"arguments"`
}

// Load parses every .yaml/.yml file reachable from the given paths and
// merges their documents into a single validated pipeline, mirroring the
// HCL loader's merge rules.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Pipeline, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("YAML loader started.", "path_count", len(paths))

	files, err := fsutil.CollectFiles(paths, ".yaml", ".yml")
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .yaml pipeline files found in %v", paths)
	}
	logger.Debug("Discovered pipeline files.", "count", len(files))

	pipeline := &config.Pipeline{}
	for _, file := range files {
		raw, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", file, err)
		}

		var doc pipelineDoc
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", file, err)
		}

		if doc.Matrix != nil {
			if pipeline.Matrix != nil {
				return nil, fmt.Errorf("%s: matrix declared more than once across pipeline files", file)
			}
			m, err := translateMatrix(doc.Matrix)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", file, err)
			}
			pipeline.Matrix = m
		}

		for _, step := range doc.Steps {
			tpl, err := translateStep(file, step)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", file, err)
			}
			pipeline.Steps = append(pipeline.Steps, tpl)
		}
	}

	if err := pipeline.Validate(); err != nil {
		return nil, err
	}
	logger.Debug("YAML loading complete.", "axes", len(pipeline.Matrix.Axes), "includes", len(pipeline.Matrix.Includes), "steps", len(pipeline.Steps))
	return pipeline, nil
}
