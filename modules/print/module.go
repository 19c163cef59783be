// Package print writes a rendered message to the run log. It exists mainly
// for pipeline debugging and for exercising argument interpolation in tests.
package print

import (
	"context"

	"github.com/vk/matrixci/internal/ctxlog"
	"github.com/vk/matrixci/internal/registry"
	"github.com/vk/matrixci/internal/result"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// onRunPrint is the handler for the 'print' action.
func onRunPrint(ctx context.Context, inv *registry.Invocation) (*result.Artifact, error) {
	message, err := inv.StringArg("message")
	if err != nil {
		return nil, err
	}
	ctxlog.FromContext(ctx).Info(message, "job", inv.Job.ID(), "step", inv.Step)
	return nil, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterAction("print", onRunPrint)
}
