// Package shell runs step commands through the system shell. The matrix
// bindings of the current job are exported as MATRIX_* environment
// variables so commands can branch on them without templating.
package shell

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/vk/matrixci/internal/ctxlog"
	"github.com/vk/matrixci/internal/registry"
	"github.com/vk/matrixci/internal/result"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// onRunShell is the handler for the 'shell' action.
func onRunShell(ctx context.Context, inv *registry.Invocation) (*result.Artifact, error) {
	logger := ctxlog.FromContext(ctx).With("action", "shell", "job", inv.Job.ID(), "step", inv.Step)

	command, err := inv.StringArg("command")
	if err != nil {
		return nil, err
	}
	workdir, err := inv.OptionalStringArg("workdir", "")
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Env = append(os.Environ(), inv.Env...)
	cmd.Dir = workdir

	logger.Debug("Executing command.", "command", command)
	output, err := cmd.CombinedOutput()
	if err != nil {
		trimmed := strings.TrimSpace(string(output))
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if trimmed != "" {
			return nil, fmt.Errorf("command failed: %w: %s", err, trimmed)
		}
		return nil, fmt.Errorf("command failed: %w", err)
	}
	logger.Debug("Command finished.", "output_bytes", len(output))

	artifactPath, err := inv.OptionalStringArg("artifact", "")
	if err != nil {
		return nil, err
	}
	if artifactPath == "" {
		return nil, nil
	}
	if _, err := os.Stat(artifactPath); err != nil {
		return nil, fmt.Errorf("declared artifact missing after command: %w", err)
	}

	name, err := inv.OptionalStringArg("artifact_name", artifactPath)
	if err != nil {
		return nil, err
	}
	return &result.Artifact{Name: name, Path: artifactPath}, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterAction("shell", onRunShell)
}
