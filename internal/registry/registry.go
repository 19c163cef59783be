// Package registry maps step action names to the Go handlers that execute
// them. Action modules are compiled in and register themselves at startup;
// a step referencing an unregistered action is a configuration error caught
// before any job runs.
package registry

import (
	"context"
	"fmt"

	"github.com/vk/matrixci/internal/config"
	"github.com/vk/matrixci/internal/result"
)

// ActionFunc executes one step for one job. It may return an artifact the
// step produced (coverage data, logs); the engine attaches it to the job
// and passes it through uninterpreted.
type ActionFunc func(ctx context.Context, inv *Invocation) (*result.Artifact, error)

// Module is a compiled-in bundle of actions.
type Module interface {
	Register(r *Registry)
}

// Registry holds the action table for one app instance.
type Registry struct {
	actions map[string]ActionFunc
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{actions: make(map[string]ActionFunc)}
}

// RegisterAction binds an action name to its handler. Re-registering a name
// is a programmer error.
func (r *Registry) RegisterAction(name string, fn ActionFunc) {
	if _, exists := r.actions[name]; exists {
		panic(fmt.Sprintf("action %q registered twice", name))
	}
	r.actions[name] = fn
}

// Action looks up a handler by name.
func (r *Registry) Action(name string) (ActionFunc, bool) {
	fn, ok := r.actions[name]
	return fn, ok
}

// Validate checks that every step in the pipeline references a registered
// action. Called at startup, after module registration.
func (r *Registry) Validate(p *config.Pipeline) error {
	for _, step := range p.Steps {
		if _, ok := r.actions[step.Action]; !ok {
			return fmt.Errorf("step %q references unregistered action %q", step.Name, step.Action)
		}
	}
	return nil
}
