package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/matrixci/internal/cli"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestRun_PanicRecovery(t *testing.T) {
	t.Parallel()

	// A syntax error is guaranteed to panic during loading inside app.New().
	path := writeFile(t, "main.hcl", `
		matrix {
			axis "os" {
	`)
	out := &bytes.Buffer{}

	err := run(out, []string{path})

	require.Error(t, err, "run() should have returned an error after recovering from a panic")
	require.Contains(t, err.Error(), "application startup panicked")
	require.Contains(t, err.Error(), "failed to parse")
}

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	// The "-h" (help) flag should cause cli.Parse to return shouldExit=true.
	out := &bytes.Buffer{}
	err := run(out, []string{"-h"})

	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	err := run(out, []string{"--this-is-not-a-valid-flag"})

	require.Error(t, err, "run() should return an error when argument parsing fails")
	require.Contains(t, err.Error(), "flag provided but not defined: -this-is-not-a-valid-flag")
}

func TestRun_FailingPipelineIsExitCodeOne(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "main.hcl", `
		matrix {
			axis "os" { values = ["ubuntu-latest"] }
		}
		step "boom" {
			action = "shell"
			arguments {
				command = "exit 7"
			}
		}
	`)
	out := &bytes.Buffer{}

	err := run(out, []string{"--log-level", "error", path})

	require.Error(t, err)
	exitErr, ok := err.(*cli.ExitError)
	require.True(t, ok, "a failing pipeline should map to an ExitError")
	require.Equal(t, 1, exitErr.Code)
	require.Contains(t, exitErr.Message, "pipeline failed")
}

func TestRun_DryRunSucceedsWithoutExecuting(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "main.hcl", `
		matrix {
			axis "os" { values = ["ubuntu-latest"] }
		}
		step "boom" {
			action = "shell"
			arguments {
				command = "exit 7"
			}
		}
	`)
	out := &bytes.Buffer{}

	err := run(out, []string{"--dry-run", "--log-level", "error", path})

	require.NoError(t, err, "dry-run should never fail on a runnable plan")
	require.Contains(t, out.String(), "plan: 1 jobs")
	require.Contains(t, out.String(), "os=ubuntu-latest")
}
