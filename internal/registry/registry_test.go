package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/matrixci/internal/config"
	"github.com/vk/matrixci/internal/matrix"
	"github.com/vk/matrixci/internal/result"
)

func noopAction(context.Context, *Invocation) (*result.Artifact, error) {
	return nil, nil
}

func TestValidate_ReportsUnregisteredAction(t *testing.T) {
	t.Parallel()

	r := New()
	r.RegisterAction("shell", noopAction)

	p := &config.Pipeline{
		Steps: []*config.StepTemplate{
			{Name: "checkout", Action: "shell"},
			{Name: "upload", Action: "upload"},
		},
	}

	err := r.Validate(p)
	require.Error(t, err)
	require.Contains(t, err.Error(), `unregistered action "upload"`)

	r.RegisterAction("upload", noopAction)
	require.NoError(t, r.Validate(p))
}

func TestRegisterAction_PanicsOnDuplicate(t *testing.T) {
	t.Parallel()

	r := New()
	r.RegisterAction("shell", noopAction)
	require.Panics(t, func() { r.RegisterAction("shell", noopAction) })
}

func TestInvocation_ArgHelpers(t *testing.T) {
	t.Parallel()

	inv := &Invocation{
		Step: "install",
		Args: map[string]cty.Value{
			"command": cty.StringVal("pip install ."),
			"count":   cty.NumberIntVal(3),
		},
	}

	cmd, err := inv.StringArg("command")
	require.NoError(t, err)
	require.Equal(t, "pip install .", cmd)

	// Numbers convert to their string rendering.
	count, err := inv.StringArg("count")
	require.NoError(t, err)
	require.Equal(t, "3", count)

	_, err = inv.StringArg("missing")
	require.Error(t, err)

	shell, err := inv.OptionalStringArg("shell", "/bin/sh")
	require.NoError(t, err)
	require.Equal(t, "/bin/sh", shell)
}

func TestEnvForJob_ExportsBindings(t *testing.T) {
	t.Parallel()

	jobs, err := matrix.Expand(&config.Pipeline{
		Matrix: &config.Matrix{Axes: []*config.Axis{
			{Name: "os", Values: []cty.Value{cty.StringVal("ubuntu-latest")}},
			{Name: "language-version", Values: []cty.Value{cty.StringVal("3.10")}},
			{Name: "experimental", Values: []cty.Value{cty.True}},
		}},
	})
	require.NoError(t, err)

	env := EnvForJob(jobs[0])
	require.Contains(t, env, "MATRIX_OS=ubuntu-latest")
	require.Contains(t, env, "MATRIX_LANGUAGE_VERSION=3.10")
	require.Contains(t, env, "MATRIX_EXPERIMENTAL=true")
	require.Contains(t, env, "MATRIXCI_JOB="+jobs[0].ID())
}
