package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/matrixci/internal/config"
	"github.com/vk/matrixci/internal/ctxlog"
	"github.com/vk/matrixci/internal/fsutil"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL pipeline loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every .hcl file reachable from the given paths and merges
// their blocks into a single validated pipeline. Step declaration order
// follows lexicographic file order, then in-file order; exactly one matrix
// block must exist across all files.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Pipeline, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := fsutil.CollectFiles(paths, ".hcl")
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl pipeline files found in %v", paths)
	}
	logger.Debug("Discovered pipeline files.", "count", len(files))

	pipeline := &config.Pipeline{}
	parser := hclparse.NewParser()

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse %s: %w", file, diags)
		}

		var root fileRoot
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode %s: %w", file, diags)
		}

		if root.Matrix != nil {
			if pipeline.Matrix != nil {
				return nil, fmt.Errorf("%s: matrix block declared more than once across pipeline files", file)
			}
			m, err := translateMatrix(root.Matrix)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", file, err)
			}
			pipeline.Matrix = m
		}

		for _, step := range root.Steps {
			tpl, err := translateStep(step)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", file, err)
			}
			pipeline.Steps = append(pipeline.Steps, tpl)
		}
	}

	if err := pipeline.Validate(); err != nil {
		return nil, err
	}
	logger.Debug("HCL loading complete.", "axes", len(pipeline.Matrix.Axes), "includes", len(pipeline.Matrix.Includes), "steps", len(pipeline.Steps))
	return pipeline, nil
}
