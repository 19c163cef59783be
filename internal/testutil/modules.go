package testutil

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/vk/matrixci/internal/registry"
	"github.com/vk/matrixci/internal/result"
)

// ActionModule adapts a bare function into a registry.Module, for tests that
// need a purpose-built action without a dedicated package.
type ActionModule struct {
	Name string
	Fn   registry.ActionFunc
}

// Register implements the registry.Module interface.
func (m *ActionModule) Register(r *registry.Registry) {
	r.RegisterAction(m.Name, m.Fn)
}

// CountingAction returns an action that counts its invocations and then
// returns err (nil for a succeeding action).
func CountingAction(counter *atomic.Int64, err error) registry.ActionFunc {
	return func(ctx context.Context, inv *registry.Invocation) (*result.Artifact, error) {
		counter.Add(1)
		return nil, err
	}
}

// InvocationRecorder captures which job/step pairs an action ran for.
type InvocationRecorder struct {
	mu    sync.Mutex
	calls []string
}

// Action returns the recording action function.
func (rec *InvocationRecorder) Action() registry.ActionFunc {
	return func(ctx context.Context, inv *registry.Invocation) (*result.Artifact, error) {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		rec.calls = append(rec.calls, inv.Job.ID()+"/"+inv.Step)
		return nil, nil
	}
}

// Calls returns a copy of the recorded job/step identities.
func (rec *InvocationRecorder) Calls() []string {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	out := make([]string, len(rec.calls))
	copy(out, rec.calls)
	return out
}
